// Package backup exports a user's ledger as a portable document and replays
// such documents, legacy flat exports and CSV files into another user's
// ledger.
//
// Imports are not atomic: every row goes through the ledger on its own and
// failing rows are reported in the summary instead of aborting the batch.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/amirasaad/gastos/pkg/storage"
)

// DateLayout is how movement dates are written in backups and CSV files.
const DateLayout = "2006-01-02 15:04:05"

// ReconciliationNote marks the movement added to restore an exported balance.
const ReconciliationNote = "opening balance restored"

var (
	// ErrDuplicateImportRejected is returned when a user imports their own export.
	ErrDuplicateImportRejected = domain.NewError(domain.ErrConflict,
		"this backup was exported from your own account; importing it would duplicate every movement")
	// ErrInvalidDocument is returned when the payload is not a backup in any known format.
	ErrInvalidDocument = domain.NewError(domain.ErrValidation, "invalid backup document")
	// ErrEmptyFile is returned for CSV files without data rows.
	ErrEmptyFile = domain.NewError(domain.ErrValidation, "the file has no rows")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Service provides export and import of ledgers.
type Service struct {
	uow    repository.UnitOfWork
	ledger *ledger.Service
	store  storage.Store
	audit  *audit.Recorder
	logger *slog.Logger
	now    func() time.Time
}

// New creates a backup Service.
func New(
	uow repository.UnitOfWork,
	ledger *ledger.Service,
	store storage.Store,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		ledger: ledger,
		store:  store,
		audit:  recorder,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Export builds the versioned backup of p's accounts and movements with
// attachments embedded as data URIs.
func (s *Service) Export(ctx context.Context, p access.Principal) (*dto.BackupDocument, error) {
	log := s.logger.With("context", "Export", "user_id", p.UserID)
	log.Debug("Export started")

	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	accts, err := accounts.ListByUser(ctx, p.UserID, dto.AccountFilter{})
	if err != nil {
		log.Error("Export failed: listing accounts", "error", err)
		return nil, err
	}
	items, _, err := movements.List(ctx, p.UserID, dto.MovementFilter{SortBy: dto.SortByDate, Ascending: true})
	if err != nil {
		log.Error("Export failed: listing movements", "error", err)
		return nil, err
	}

	doc := &dto.BackupDocument{
		Version:        dto.BackupVersion,
		ExportedAt:     s.now(),
		OriginalUserID: dto.LooseID(p.UserID.String()),
		Accounts:       make([]dto.BackupAccount, 0, len(accts)),
		Movements:      make([]dto.BackupMovement, 0, len(items)),
	}
	for _, a := range accts {
		doc.Accounts = append(doc.Accounts, dto.BackupAccount{
			Name:        a.Name,
			Kind:        string(a.Kind),
			Currency:    string(a.Currency),
			Color:       a.Color,
			Description: a.Description,
			Goal:        a.Goal,
			Balance:     a.Balance,
		})
	}
	for _, m := range items {
		bm := dto.BackupMovement{
			Type:        string(m.Type),
			Amount:      m.Amount,
			Note:        m.Note,
			Date:        m.Date.UTC().Format(DateLayout),
			AccountName: m.AccountName,
		}
		if m.Attachment != "" {
			data, mime, err := s.store.Open(ctx, m.Attachment)
			if err != nil {
				log.Warn("attachment left out of export", "movement_id", m.ID, "name", m.Attachment, "error", err)
			} else {
				bm.Attachment = attachment.DataURI(mime, data)
				bm.AttachmentName = m.Attachment
			}
		}
		doc.Movements = append(doc.Movements, bm)
	}

	log.Info("Export successful", "accounts", len(doc.Accounts), "movements", len(doc.Movements))
	return doc, nil
}

// Import replays a backup into p's ledger. It accepts the versioned document
// and the legacy flat list of movements.
func (s *Service) Import(ctx context.Context, p access.Principal, raw []byte) (*dto.ImportSummary, error) {
	log := s.logger.With("context", "Import", "user_id", p.UserID)
	log.Debug("Import started", "bytes", len(raw))

	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDocument)
	}

	var (
		summary *dto.ImportSummary
		err     error
	)
	switch raw[0] {
	case '[':
		var legacy []dto.LegacyMovement
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		summary, err = s.importLegacy(ctx, p, legacy)
	case '{':
		var doc dto.BackupDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		summary, err = s.importDocument(ctx, p, &doc)
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array", ErrInvalidDocument)
	}
	if err != nil {
		log.Warn("Import rejected", "error", err)
		return nil, err
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("imported %d movements", summary.ImportedCount), p.IP)
	log.Info("Import successful", "imported", summary.ImportedCount, "errors", len(summary.Errors))
	return summary, nil
}

// parseDate reads the date formats found in exports. Empty means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.NewError(domain.ErrValidation, fmt.Sprintf("invalid date %q", s))
}
