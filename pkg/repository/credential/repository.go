// Package credential declares storage for the secondary credentials of a
// user: second-factor codes, password reset tokens and API tokens.
package credential

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/google/uuid"
)

// TwoFactorRepository stores second-factor codes.
type TwoFactorRepository interface {
	Create(ctx context.Context, c *auth.TwoFactorCode) error
	// DeleteUnused removes every unused code of a user.
	DeleteUnused(ctx context.Context, userID uuid.UUID) error
	// FindValid returns the unused, unexpired code of userID matching code.
	FindValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (*auth.TwoFactorCode, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository stores password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, t *auth.ResetToken) error
	// DeleteUnused removes every unused token of a user.
	DeleteUnused(ctx context.Context, userID uuid.UUID) error
	// FindValid returns the unused, unexpired token.
	FindValid(ctx context.Context, token string, now time.Time) (*auth.ResetToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// APITokenRepository stores API tokens.
type APITokenRepository interface {
	Create(ctx context.Context, t *auth.APIToken) error
	// GetActive returns the active token matching token.
	GetActive(ctx context.Context, token string) (*auth.APIToken, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*auth.APIToken, error)
	// Deactivate revokes token id of userID. It reports whether a row matched.
	Deactivate(ctx context.Context, userID, id uuid.UUID) (bool, error)
	// Delete removes token id of userID. It reports whether a row matched.
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
