package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	"github.com/google/uuid"
)

// CSVHeader is the first line of exported CSV files.
const CSVHeader = "Fecha,Tipo,Cuenta,Cantidad,Notas"

// ExportCSV writes p's movements matching filter as UTF-8 CSV with a byte
// order mark. Every field is quoted.
func (s *Service) ExportCSV(ctx context.Context, p access.Principal, filter dto.MovementFilter) ([]byte, error) {
	log := s.logger.With("context", "ExportCSV", "user_id", p.UserID)
	log.Debug("ExportCSV started")

	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	if filter.SortBy == "" {
		filter.SortBy = dto.SortByDate
		filter.Ascending = true
	}
	filter.Limit, filter.Offset = 0, 0
	items, _, err := movements.List(ctx, p.UserID, filter)
	if err != nil {
		log.Error("ExportCSV failed", "error", err)
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString(CSVHeader)
	buf.WriteByte('\n')
	for _, m := range items {
		writeQuoted(&buf,
			m.Date.UTC().Format(DateLayout),
			string(m.Type),
			m.AccountName,
			money.Format(m.Amount),
			m.Note,
		)
	}
	log.Info("ExportCSV successful", "rows", len(items))
	return buf.Bytes(), nil
}

// writeQuoted writes one record with every field quoted. encoding/csv only
// quotes fields that need it.
func writeQuoted(buf *bytes.Buffer, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// ImportCSV replays rows of date,type,account,amount,note into p's ledger.
// Accounts are matched by exact name among p's accounts and never created.
// Errors carry the 1-based file line, the header being line 1.
func (s *Service) ImportCSV(ctx context.Context, p access.Principal, raw []byte) (*dto.ImportSummary, error) {
	log := s.logger.With("context", "ImportCSV", "user_id", p.UserID)
	log.Debug("ImportCSV started", "bytes", len(raw))

	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	owned, err := accounts.ListByUser(ctx, p.UserID, dto.AccountFilter{})
	if err != nil {
		return nil, err
	}
	byName := make(map[string]uuid.UUID, len(owned))
	for _, a := range owned {
		byName[a.Name] = a.ID
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	summary := dto.NewImportSummary()
	rows := 0
	for first := true; ; first = false {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows++
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: malformed row: %v", parseErr.StartLine, parseErr.Err))
			continue
		}
		if err != nil {
			return nil, err
		}
		if first && isHeader(record) {
			continue
		}
		rows++
		line, _ := r.FieldPos(0)
		if err := s.importRow(ctx, p, byName, record); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		summary.ImportedCount++
	}
	if rows == 0 {
		return nil, ErrEmptyFile
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("imported %d movements from CSV", summary.ImportedCount), p.IP)
	log.Info("ImportCSV successful", "imported", summary.ImportedCount, "errors", len(summary.Errors))
	return summary, nil
}

// isHeader reports whether record names the exported columns. Files
// without a header start with data on line 1.
func isHeader(record []string) bool {
	want := strings.Split(CSVHeader, ",")
	if len(record) < 4 {
		return false
	}
	for i, col := range record {
		if i >= len(want) {
			break
		}
		if !strings.EqualFold(strings.TrimSpace(col), want[i]) {
			return false
		}
	}
	return true
}

func (s *Service) importRow(ctx context.Context, p access.Principal, byName map[string]uuid.UUID, record []string) error {
	if len(record) < 4 {
		return fmt.Errorf("expected at least 4 columns, got %d", len(record))
	}
	for len(record) < 5 {
		record = append(record, "")
	}
	date, err := parseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return err
	}
	typ, err := movement.ParseType(strings.TrimSpace(record[1]))
	if err != nil {
		return err
	}
	accountID, ok := byName[record[2]]
	if !ok {
		return fmt.Errorf("account %q not found", record[2])
	}
	amount, err := money.Parse(record[3])
	if err != nil {
		return movement.ErrInvalidAmount
	}
	_, err = s.ledger.ReplayMovement(ctx, p.UserID, dto.MovementCommand{
		AccountID: accountID,
		Type:      typ,
		Amount:    amount,
		Date:      date,
		Note:      record[4],
	})
	return err
}
