package user

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for user data access operations with
// support for CQRS (Command/Query Responsibility Segregation).
type Repository interface {
	// Create inserts a new user record from a DTO.
	Create(ctx context.Context, create dto.UserCreate) error

	// Update updates an existing user by its ID using a DTO.
	Update(ctx context.Context, id uuid.UUID, update dto.UserUpdate) error

	// Get retrieves a user by its ID as a read-optimized DTO.
	Get(ctx context.Context, id uuid.UUID) (*dto.UserRead, error)

	// GetByEmail retrieves a user by email as a read-optimized DTO.
	GetByEmail(ctx context.Context, email string) (*dto.UserRead, error)

	// GetByUsername retrieves a user by exact, case-sensitive username.
	GetByUsername(ctx context.Context, username string) (*dto.UserRead, error)

	// Owner retrieves the propietario, if one exists.
	Owner(ctx context.Context) (*dto.UserRead, error)

	// Delete deletes a user by its ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves one page of users matching filter and the total match count.
	List(ctx context.Context, filter dto.UserFilter) ([]*dto.UserRead, int64, error)

	// InactiveSince lists non-owner users whose last login is before cutoff.
	InactiveSince(ctx context.Context, cutoff time.Time) ([]*dto.UserRead, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Stats counts users for the installation statistics.
	Stats(ctx context.Context, activeSince time.Time) (total, active, twoFactor int64, err error)
}
