package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// resolved is an account of the importing user a document name maps to.
type resolved struct {
	id       uuid.UUID
	created  bool
	snapshot decimal.Decimal
}

func (s *Service) importDocument(
	ctx context.Context,
	p access.Principal,
	doc *dto.BackupDocument,
) (*dto.ImportSummary, error) {
	if doc.Version < 1 || doc.Version > dto.BackupVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidDocument, doc.Version)
	}
	if doc.OriginalUserID != "" && string(doc.OriginalUserID) == p.UserID.String() {
		return nil, ErrDuplicateImportRejected
	}

	summary := dto.NewImportSummary()
	byName, order := s.resolveAccounts(ctx, p, doc.Accounts, summary)

	moves := make([]int, len(doc.Movements))
	dates := make([]time.Time, len(doc.Movements))
	dateErrs := make([]error, len(doc.Movements))
	for i, bm := range doc.Movements {
		moves[i] = i
		dates[i], dateErrs[i] = parseDate(bm.Date)
	}
	// Oldest first so balances build up the way they did originally. Rows
	// with an unreadable date go last and are reported on their own.
	sort.SliceStable(moves, func(a, b int) bool {
		ea, eb := dateErrs[moves[a]] != nil, dateErrs[moves[b]] != nil
		if ea != eb {
			return eb
		}
		return dates[moves[a]].Before(dates[moves[b]])
	})
	for _, i := range moves {
		bm := doc.Movements[i]
		line := i + 1
		target, ok := byName[strings.TrimSpace(bm.AccountName)]
		if !ok {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: account %q not found in the backup", line, bm.AccountName))
			continue
		}
		typ, err := movement.ParseType(bm.Type)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if err := dateErrs[i]; err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		cmd := dto.MovementCommand{AccountID: target.id, Type: typ, Amount: bm.Amount, Date: dates[i], Note: bm.Note}
		if s.replay(ctx, p, line, cmd, bm.Attachment, bm.AttachmentName, summary) {
			summary.ImportedCount++
		}
	}

	for _, name := range order {
		target := byName[name]
		if target.created {
			s.reconcile(ctx, p, doc, name, target, summary)
		}
	}
	return summary, nil
}

// resolveAccounts maps every account name of the document to an account of p,
// creating the missing ones at a zero balance.
func (s *Service) resolveAccounts(
	ctx context.Context,
	p access.Principal,
	accts []dto.BackupAccount,
	summary *dto.ImportSummary,
) (map[string]*resolved, []string) {
	byName := make(map[string]*resolved, len(accts))
	var order []string
	for i, ba := range accts {
		name := strings.TrimSpace(ba.Name)
		if _, seen := byName[name]; seen {
			continue
		}
		target, err := s.resolveAccount(ctx, p, name, ba)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("account %d (%s): %v", i+1, ba.Name, err))
			continue
		}
		byName[name] = target
		order = append(order, name)
		if target.created {
			summary.AccountsCreated = append(summary.AccountsCreated, name)
		} else {
			summary.AccountsReused = append(summary.AccountsReused, name)
		}
	}
	return byName, order
}

func (s *Service) resolveAccount(
	ctx context.Context,
	p access.Principal,
	name string,
	ba dto.BackupAccount,
) (*resolved, error) {
	var target *resolved
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := repository.Get[accountrepo.Repository](uow)
		if err != nil {
			return err
		}
		existing, err := accounts.GetByName(ctx, p.UserID, name)
		if err == nil {
			target = &resolved{id: existing.ID}
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		kind, err := account.ParseKind(ba.Kind)
		if err != nil {
			return err
		}
		a, err := account.New().
			WithUserID(p.UserID).
			WithName(name).
			WithKind(kind).
			WithCurrency(money.Code(ba.Currency)).
			WithColor(ba.Color).
			WithDescription(ba.Description).
			WithGoal(ba.Goal).
			Build()
		if err != nil {
			return err
		}
		if err := accounts.Create(ctx, dto.AccountCreate{
			ID:          a.ID,
			UserID:      a.UserID,
			Name:        a.Name,
			Kind:        a.Kind,
			Balance:     decimal.Zero,
			Currency:    a.Currency,
			Color:       a.Color,
			Description: a.Description,
			Goal:        a.Goal,
			CreatedAt:   a.CreatedAt,
		}); err != nil {
			return err
		}
		target = &resolved{id: a.ID, created: true, snapshot: money.Round(ba.Balance)}
		return nil
	})
	return target, err
}

// replay records one movement. An attachment that cannot be restored does
// not fail the movement: it is imported without it and a warning is added.
func (s *Service) replay(
	ctx context.Context,
	p access.Principal,
	line int,
	cmd dto.MovementCommand,
	dataURI, name string,
	summary *dto.ImportSummary,
) bool {
	if dataURI != "" {
		upload, err := decodeAttachment(dataURI, name)
		if err != nil {
			summary.Errors = append(summary.Errors, warning(line, err))
		} else {
			cmd.Attachment = upload
		}
	}

	_, err := s.ledger.ReplayMovement(ctx, p.UserID, cmd)
	if err != nil && cmd.Attachment != nil && isAttachmentError(err) {
		summary.Errors = append(summary.Errors, warning(line, err))
		cmd.Attachment = nil
		_, err = s.ledger.ReplayMovement(ctx, p.UserID, cmd)
	}
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
		return false
	}
	return true
}

// reconcile adds one movement to a created account so its balance matches the
// exported snapshot.
func (s *Service) reconcile(
	ctx context.Context,
	p access.Principal,
	doc *dto.BackupDocument,
	name string,
	target *resolved,
	summary *dto.ImportSummary,
) {
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("account %s: %v", name, err))
		return
	}
	a, err := accounts.Get(ctx, target.id)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("account %s: %v", name, err))
		return
	}
	diff := target.snapshot.Sub(a.Balance)
	if diff.Abs().LessThan(money.Cent) {
		return
	}
	typ := movement.TypeIncome
	if diff.IsNegative() {
		typ = movement.TypeWithdrawal
	}
	date := doc.ExportedAt
	if date.IsZero() {
		date = s.now()
	}
	_, err = s.ledger.ReplayMovement(ctx, p.UserID, dto.MovementCommand{
		AccountID: target.id,
		Type:      typ,
		Amount:    diff.Abs(),
		Date:      date,
		Note:      ReconciliationNote,
	})
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("account %s: balance not restored: %v", name, err))
		return
	}
	s.logger.Info("balance restored", "account", name, "type", typ, "amount", money.Format(diff.Abs()))
}

func (s *Service) importLegacy(
	ctx context.Context,
	p access.Principal,
	items []dto.LegacyMovement,
) (*dto.ImportSummary, error) {
	summary := dto.NewImportSummary()
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	for i, lm := range items {
		line := i + 1
		accountID, err := uuid.Parse(strings.TrimSpace(string(lm.AccountID)))
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: account does not belong to the user", line))
			continue
		}
		a, err := accounts.Get(ctx, accountID)
		if err != nil || a.UserID != p.UserID {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: account does not belong to the user", line))
			continue
		}
		typ, err := movement.ParseType(lm.Type)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		date, err := parseDate(lm.Date)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		cmd := dto.MovementCommand{AccountID: accountID, Type: typ, Amount: lm.Amount, Date: date, Note: lm.Note}
		if s.replay(ctx, p, line, cmd, lm.Attachment, lm.AttachmentName, summary) {
			summary.ImportedCount++
		}
	}
	return summary, nil
}

func decodeAttachment(dataURI, name string) (*dto.Upload, error) {
	mime, data, err := attachment.ParseDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	ext, err := attachment.Extension(mime)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "file." + ext
	}
	return &dto.Upload{Name: name, MIME: mime, Data: data}, nil
}

func isAttachmentError(err error) bool {
	return errors.Is(err, attachment.ErrAttachmentRejected) ||
		errors.Is(err, attachment.ErrTooLarge) ||
		errors.Is(err, attachment.ErrEmpty)
}

func warning(line int, err error) string {
	return fmt.Sprintf("line %d: warning: %v (movement imported without attachment)", line, err)
}
