package dto

import (
	"time"

	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountCommand is the input for creating an account. The owner comes from
// the caller. A non-zero OpeningBalance is recorded as the account's first
// movement.
type AccountCommand struct {
	Name           string
	Kind           account.Kind
	Currency       money.Code
	Color          string
	Description    string
	TagID          *uuid.UUID
	Goal           *decimal.Decimal
	OpeningBalance decimal.Decimal
}

// AccountCreate is a DTO for persisting a new account.
type AccountCreate struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Kind        account.Kind
	Balance     decimal.Decimal
	Currency    money.Code
	TagID       *uuid.UUID
	Color       string
	Description string
	Goal        *decimal.Decimal
	CreatedAt   time.Time
}

// AccountUpdate is a DTO for updating one or more fields of an account.
// Balance and owner are not updatable.
type AccountUpdate struct {
	Name        *string
	Kind        *account.Kind
	Currency    *money.Code
	Color       *string
	Description *string
	TagID       *uuid.UUID
	ClearTag    bool
	Goal        *decimal.Decimal
	ClearGoal   bool
}

// AccountRead is a read-optimized DTO for account queries and API responses.
type AccountRead struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Name        string           `json:"name"`
	Kind        account.Kind     `json:"kind"`
	Balance     decimal.Decimal  `json:"balance"`
	Currency    money.Code       `json:"currency"`
	TagID       *uuid.UUID       `json:"tag_id,omitempty"`
	TagName     string           `json:"tag_name,omitempty"`
	Color       string           `json:"color"`
	Description string           `json:"description,omitempty"`
	Goal        *decimal.Decimal `json:"goal,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Entity converts the read model back into the domain account.
func (a *AccountRead) Entity() *account.Account {
	return &account.Account{
		ID:          a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		Kind:        a.Kind,
		Balance:     a.Balance,
		Currency:    a.Currency,
		TagID:       a.TagID,
		Color:       a.Color,
		Description: a.Description,
		Goal:        a.Goal,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	Kind  account.Kind
	TagID *uuid.UUID
}

// AccountSummary aggregates all accounts of one user.
type AccountSummary struct {
	Count          int64            `json:"count"`
	CashCount      int64            `json:"cash_count"`
	BankCount      int64            `json:"bank_count"`
	TotalBalance   decimal.Decimal  `json:"total_balance"`
	AverageBalance decimal.Decimal  `json:"average_balance"`
	MaxBalance     *decimal.Decimal `json:"max_balance,omitempty"`
	MinBalance     *decimal.Decimal `json:"min_balance,omitempty"`
}
