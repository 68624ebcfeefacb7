package session

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/google/uuid"
)

// Repository defines the interface for session data access operations.
type Repository interface {
	Create(ctx context.Context, s *auth.Session) error
	// GetByToken returns the session for token regardless of expiry.
	GetByToken(ctx context.Context, token string) (*auth.Session, error)
	// Extend moves the expiry of the session with token and records the use.
	Extend(ctx context.Context, token string, expiresAt, seenAt time.Time) error
	// ListActive lists the unexpired sessions of a user, newest first.
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]*auth.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByID deletes the session id only if it belongs to userID.
	DeleteByID(ctx context.Context, userID, id uuid.UUID) (bool, error)
	// DeleteAllByUser deletes every session of a user except the one with
	// exceptToken, which may be empty.
	DeleteAllByUser(ctx context.Context, userID uuid.UUID, exceptToken string) (int64, error)
	// DeleteExpired purges sessions expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
