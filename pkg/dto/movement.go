package dto

import (
	"time"

	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementCommand is the input for recording a movement. A zero Date means now.
type MovementCommand struct {
	AccountID  uuid.UUID
	Type       movement.Type
	Amount     decimal.Decimal
	Date       time.Time
	Note       string
	Attachment *Upload
}

// MovementUpdateCommand is the input for editing a movement. The account
// cannot change.
type MovementUpdateCommand struct {
	Type             *movement.Type
	Amount           *decimal.Decimal
	Date             *time.Time
	Note             *string
	Attachment       *Upload
	RemoveAttachment bool
}

// MovementCreate is a DTO for persisting a new movement.
type MovementCreate struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Type       movement.Type
	Amount     decimal.Decimal
	Note       string
	Date       time.Time
	Attachment string
	CreatedAt  time.Time
}

// MovementUpdate is a DTO for updating one or more fields of a movement.
type MovementUpdate struct {
	Type       *movement.Type
	Amount     *decimal.Decimal
	Note       *string
	Date       *time.Time
	Attachment *string
}

// MovementRead is a read-optimized DTO for movement queries and API responses.
type MovementRead struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	AccountName  string          `json:"account_name"`
	AccountColor string          `json:"account_color,omitempty"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         movement.Type   `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	Date         time.Time       `json:"date"`
	Attachment   string          `json:"attachment,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Entity converts the read model back into the domain movement.
func (m *MovementRead) Entity() *movement.Movement {
	return &movement.Movement{
		ID:         m.ID,
		AccountID:  m.AccountID,
		Type:       m.Type,
		Amount:     m.Amount,
		Note:       m.Note,
		Date:       m.Date,
		Attachment: m.Attachment,
		CreatedAt:  m.CreatedAt,
	}
}

// MovementSort is the column movements are ordered by.
type MovementSort string

const (
	// SortByDate orders by movement date.
	SortByDate MovementSort = "fecha"
	// SortByAmount orders by amount.
	SortByAmount MovementSort = "cantidad"
)

// MovementFilter narrows movement listings. Zero values mean no filter;
// results default to newest first.
type MovementFilter struct {
	AccountID *uuid.UUID
	Type      movement.Type
	From      *time.Time
	To        *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	SortBy    MovementSort
	Ascending bool
	Limit     int
	Offset    int
}

// AccountStats aggregates the movements of one account.
type AccountStats struct {
	TotalMovements   int64           `json:"total_movements"`
	IncomeCount      int64           `json:"income_count"`
	WithdrawalCount  int64           `json:"withdrawal_count"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
}

// UserStats aggregates the movements of one user within an optional date range.
type UserStats struct {
	AccountStats
	AverageIncome     decimal.Decimal  `json:"average_income"`
	AverageWithdrawal decimal.Decimal  `json:"average_withdrawal"`
	Largest           *decimal.Decimal `json:"largest,omitempty"`
	Smallest          *decimal.Decimal `json:"smallest,omitempty"`
}
