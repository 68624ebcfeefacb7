package account

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the kind of monetary bucket an account represents.
type Kind string

const (
	// KindCash is a cash account.
	KindCash Kind = "efectivo"
	// KindBank is a bank account.
	KindBank Kind = "bancaria"
)

const (
	// DefaultCurrency is used when an account is created without currency.
	DefaultCurrency = money.EUR
	// DefaultColor is used when an account is created without color.
	DefaultColor = "#808080"
	// MaxNameLength is the longest accepted account name.
	MaxNameLength = 100
	// MaxDescriptionLength is the longest accepted description.
	MaxDescriptionLength = 500
)

var (
	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = domain.NewError(domain.ErrNotFound, "account not found")
	// ErrInvalidOwner is returned when an account is built without owner.
	ErrInvalidOwner = domain.NewError(domain.ErrValidation, "account owner is required")
	// ErrInvalidKind is returned for kinds other than efectivo and bancaria.
	ErrInvalidKind = domain.NewError(domain.ErrValidation, "account kind must be 'efectivo' or 'bancaria'")
	// ErrInvalidName is returned for empty or oversized names.
	ErrInvalidName = domain.NewError(domain.ErrValidation, "account name must be between 1 and 100 characters")
	// ErrDescriptionTooLong is returned when the description exceeds MaxDescriptionLength.
	ErrDescriptionTooLong = domain.NewError(domain.ErrValidation, "account description must be at most 500 characters")
	// ErrInvalidCurrency is returned for malformed currency codes.
	ErrInvalidCurrency = domain.NewError(domain.ErrValidation, "currency must be a three letter ISO code")
	// ErrInvalidColor is returned for colors that are not #RRGGBB.
	ErrInvalidColor = domain.NewError(domain.ErrValidation, "color must be a #RRGGBB value")
	// ErrInvalidGoal is returned for negative savings goals.
	ErrInvalidGoal = domain.NewError(domain.ErrValidation, "goal must not be negative")
	// ErrInsufficientFunds is returned when a change would drive the balance negative.
	ErrInsufficientFunds = domain.NewError(domain.ErrValidation, "insufficient funds")
	// ErrNameTaken is returned when the owner already has an account with that name.
	ErrNameTaken = domain.NewError(domain.ErrConflict, "an account with that name already exists")
	// ErrHasMovements is returned when deleting an account that still has movements.
	ErrHasMovements = domain.NewError(domain.ErrConflict, "account has movements; delete them first")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ParseKind validates a submitted account kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k != KindCash && k != KindBank {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Account is a named monetary bucket owned by one user.
//
// Invariants:
//   - Balance equals the signed sum of the account's movements and only
//     changes through Adjust.
//   - The owner never changes.
type Account struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Kind        Kind
	Balance     decimal.Decimal
	Currency    money.Code
	TagID       *uuid.UUID
	Color       string
	Description string
	Goal        *decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Policy decides which account kinds may hold a negative balance.
type Policy struct {
	Overdraft map[Kind]bool
}

// NewPolicy builds a policy from the kinds allowed to go negative.
func NewPolicy(overdraftKinds ...string) (Policy, error) {
	p := Policy{Overdraft: make(map[Kind]bool)}
	for _, s := range overdraftKinds {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k, err := ParseKind(s)
		if err != nil {
			return Policy{}, err
		}
		p.Overdraft[k] = true
	}
	return p, nil
}

// AllowsNegative reports whether accounts of kind k may go below zero.
func (p Policy) AllowsNegative(k Kind) bool {
	return p.Overdraft[k]
}

// Adjust moves the balance by delta under policy p.
func (a *Account) Adjust(delta decimal.Decimal, p Policy) error {
	next := money.Round(a.Balance.Add(delta))
	if next.IsNegative() && !p.AllowsNegative(a.Kind) {
		return fmt.Errorf("%w: account %q would reach %s", ErrInsufficientFunds, a.Name, money.Format(next))
	}
	a.Balance = next
	return nil
}

// ValidateName checks an account name.
func ValidateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n == 0 || n > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}

// ValidateDescription checks a description length.
func ValidateDescription(desc string) error {
	if len([]rune(desc)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateColor checks a #RRGGBB color.
func ValidateColor(color string) error {
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	return nil
}

// ValidateCurrency checks an ISO currency code.
func ValidateCurrency(code money.Code) error {
	if !code.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return nil
}

// ValidateGoal checks an optional savings goal.
func ValidateGoal(goal *decimal.Decimal) error {
	if goal != nil && goal.IsNegative() {
		return ErrInvalidGoal
	}
	return nil
}
