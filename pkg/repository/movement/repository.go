package movement

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for movement data access operations.
type Repository interface {
	// Create inserts a new movement record from a DTO.
	Create(ctx context.Context, create dto.MovementCreate) error

	// Update updates the given fields of a movement.
	Update(ctx context.Context, id uuid.UUID, update dto.MovementUpdate) error

	// Get retrieves a movement joined with its account.
	Get(ctx context.Context, id uuid.UUID) (*dto.MovementRead, error)

	// List returns one page of a user's movements matching filter and the total match count.
	List(ctx context.Context, userID uuid.UUID, filter dto.MovementFilter) ([]*dto.MovementRead, int64, error)

	// Delete deletes a movement by its ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUser deletes every movement on accounts of a user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// CountByAccount counts the movements of an account.
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// AccountStats aggregates the movements of an account.
	AccountStats(ctx context.Context, accountID uuid.UUID) (*dto.AccountStats, error)

	// UserStats aggregates a user's movements dated within [from, to]. Nil bounds are open.
	UserStats(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*dto.UserStats, error)

	// Attachments lists the stored attachment filenames of a user's movements.
	Attachments(ctx context.Context, userID uuid.UUID) ([]string, error)

	// CountAll counts movements across all users.
	CountAll(ctx context.Context) (int64, error)
}
