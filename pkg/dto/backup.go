package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// BackupVersion is the version written into exported documents.
const BackupVersion = 2

// BackupDocument is the portable JSON backup of one user's ledger.
type BackupDocument struct {
	Version        int              `json:"version"`
	ExportedAt     time.Time        `json:"fecha_exportacion"`
	OriginalUserID LooseID          `json:"usuario_id_original"`
	Accounts       []BackupAccount  `json:"cuentas"`
	Movements      []BackupMovement `json:"movimientos"`
}

// BackupAccount is an account snapshot inside a backup document.
type BackupAccount struct {
	Name        string           `json:"nombre"`
	Kind        string           `json:"tipo"`
	Currency    string           `json:"moneda,omitempty"`
	Color       string           `json:"color,omitempty"`
	Description string           `json:"descripcion,omitempty"`
	Goal        *decimal.Decimal `json:"meta,omitempty"`
	Balance     decimal.Decimal  `json:"balance_actual"`
}

// BackupMovement is a movement inside a backup document, joined to its
// account by name.
type BackupMovement struct {
	Type           string          `json:"tipo"`
	Amount         decimal.Decimal `json:"cantidad"`
	Note           string          `json:"notas,omitempty"`
	Date           string          `json:"fecha_movimiento"`
	AccountName    string          `json:"cuenta_nombre"`
	Attachment     string          `json:"adjunto_base64,omitempty"`
	AttachmentName string          `json:"adjunto_nombre,omitempty"`
}

// LegacyMovement is an entry of the historical flat export, which references
// the importing user's own accounts by id.
type LegacyMovement struct {
	AccountID      LooseID         `json:"id_cuenta"`
	Type           string          `json:"tipo"`
	Amount         decimal.Decimal `json:"cantidad"`
	Note           string          `json:"notas,omitempty"`
	Date           string          `json:"fecha_movimiento,omitempty"`
	Attachment     string          `json:"adjunto_base64,omitempty"`
	AttachmentName string          `json:"adjunto_nombre,omitempty"`
}

// ImportSummary reports the outcome of an import.
type ImportSummary struct {
	ImportedCount   int      `json:"importedCount"`
	Errors          []string `json:"errors"`
	AccountsCreated []string `json:"accountsCreated"`
	AccountsReused  []string `json:"accountsReused"`
}

// NewImportSummary returns a summary with non-nil slices so it always
// encodes as arrays.
func NewImportSummary() *ImportSummary {
	return &ImportSummary{
		Errors:          []string{},
		AccountsCreated: []string{},
		AccountsReused:  []string{},
	}
}

// LooseID is an identifier that older exports wrote as a number and newer
// ones as a string. Both decode.
type LooseID string

// UnmarshalJSON accepts a JSON string or number.
func (o *LooseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = LooseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*o = LooseID(n.String())
	return nil
}
