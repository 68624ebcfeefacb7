package account

import (
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	a Account
}

// New creates a new Builder with defaults: a fresh id, zero balance, EUR and grey.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{a: Account{
		ID:        uuid.New(),
		Balance:   decimal.Zero,
		Currency:  DefaultCurrency,
		Color:     DefaultColor,
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.a.ID = id
	return b
}

// WithUserID sets the owner. This is a mandatory field.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.a.UserID = userID
	return b
}

// WithName sets the account name.
func (b *Builder) WithName(name string) *Builder {
	b.a.Name = strings.TrimSpace(name)
	return b
}

// WithKind sets the account kind.
func (b *Builder) WithKind(k Kind) *Builder {
	b.a.Kind = k
	return b
}

// WithCurrency sets the currency; empty keeps the default.
func (b *Builder) WithCurrency(code money.Code) *Builder {
	if code != "" {
		b.a.Currency = money.Code(strings.ToUpper(string(code)))
	}
	return b
}

// WithColor sets the color; empty keeps the default.
func (b *Builder) WithColor(color string) *Builder {
	if color != "" {
		b.a.Color = color
	}
	return b
}

// WithDescription sets the free-text description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.a.Description = desc
	return b
}

// WithTag sets the optional tag reference.
func (b *Builder) WithTag(tagID *uuid.UUID) *Builder {
	b.a.TagID = tagID
	return b
}

// WithGoal sets the optional savings goal.
func (b *Builder) WithGoal(goal *decimal.Decimal) *Builder {
	if goal != nil {
		g := money.Round(*goal)
		b.a.Goal = &g
	}
	return b
}

// WithBalance sets the balance. This should only be used for hydrating an
// existing account from a data store or for test setup.
func (b *Builder) WithBalance(balance decimal.Decimal) *Builder {
	b.a.Balance = money.Round(balance)
	return b
}

// Build validates every invariant and returns the account.
func (b *Builder) Build() (*Account, error) {
	a := b.a
	if a.UserID == uuid.Nil {
		return nil, ErrInvalidOwner
	}
	if err := ValidateName(a.Name); err != nil {
		return nil, err
	}
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return nil, err
	}
	if err := ValidateCurrency(a.Currency); err != nil {
		return nil, err
	}
	if err := ValidateColor(a.Color); err != nil {
		return nil, err
	}
	if err := ValidateDescription(a.Description); err != nil {
		return nil, err
	}
	if err := ValidateGoal(a.Goal); err != nil {
		return nil, err
	}
	return &a, nil
}
