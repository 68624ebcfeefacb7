package movement

import (
	"fmt"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type says whether a movement adds money to or takes money from its account.
type Type string

const (
	// TypeIncome increases the balance.
	TypeIncome Type = "ingreso"
	// TypeWithdrawal decreases the balance.
	TypeWithdrawal Type = "retirada"
)

// MaxNoteLength is the longest accepted note.
const MaxNoteLength = 1000

var (
	// ErrMovementNotFound is returned when a movement cannot be found.
	ErrMovementNotFound = domain.NewError(domain.ErrNotFound, "movement not found")
	// ErrInvalidAmount is returned for amounts that are not strictly positive.
	ErrInvalidAmount = domain.NewError(domain.ErrValidation, "amount must be greater than zero")
	// ErrInvalidType is returned for types other than ingreso and retirada.
	ErrInvalidType = domain.NewError(domain.ErrValidation, "movement type must be 'ingreso' or 'retirada'")
	// ErrNoteTooLong is returned when the note exceeds MaxNoteLength.
	ErrNoteTooLong = domain.NewError(domain.ErrValidation, "note must be at most 1000 characters")
	// ErrAccountRequired is returned when no account is given.
	ErrAccountRequired = domain.NewError(domain.ErrValidation, "an account is required")
	// ErrOrphaned is returned when a movement's account no longer exists.
	ErrOrphaned = domain.NewError(domain.ErrIntegrity, "movement references a missing account")
)

// ParseType validates a submitted movement type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if t != TypeIncome && t != TypeWithdrawal {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// Movement is a dated income or withdrawal against one account.
type Movement struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Type       Type
	Amount     decimal.Decimal
	Note       string
	Date       time.Time
	Attachment string
	CreatedAt  time.Time
}

// New validates and creates a movement. A zero date means now.
func New(accountID uuid.UUID, t Type, amount decimal.Decimal, date time.Time, note string) (*Movement, error) {
	if accountID == uuid.Nil {
		return nil, ErrAccountRequired
	}
	if _, err := ParseType(string(t)); err != nil {
		return nil, err
	}
	amount, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}
	if err := ValidateNote(note); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}
	return &Movement{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      t,
		Amount:    amount,
		Note:      note,
		Date:      date.UTC(),
		CreatedAt: now,
	}, nil
}

// ValidateAmount rounds the amount to cents and requires it to stay positive.
func ValidateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := money.Round(amount)
	if !rounded.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	return rounded, nil
}

// ValidateNote checks the note length.
func ValidateNote(note string) error {
	if len([]rune(note)) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// Contribution is the signed effect of a movement of type t and amount on a balance.
func Contribution(t Type, amount decimal.Decimal) decimal.Decimal {
	if t == TypeWithdrawal {
		return amount.Neg()
	}
	return amount
}

// Signed is the movement's contribution to its account balance.
func (m *Movement) Signed() decimal.Decimal {
	return Contribution(m.Type, m.Amount)
}
