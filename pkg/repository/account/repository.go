package account

import (
	"context"

	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for account data access operations with
// support for CQRS (Command/Query Responsibility Segregation).
type Repository interface {
	// Create inserts a new account record from a DTO.
	Create(ctx context.Context, create dto.AccountCreate) error

	// Update updates an existing account by its ID using a DTO. It never touches the balance.
	Update(ctx context.Context, id uuid.UUID, update dto.AccountUpdate) error

	// UpdateBalance stores a new balance. Only the ledger calls it, inside the
	// transaction that holds the row lock.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// Get retrieves an account by its ID as a read-optimized DTO.
	Get(ctx context.Context, id uuid.UUID) (*dto.AccountRead, error)

	// GetForUpdate retrieves an account and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.AccountRead, error)

	// GetByName finds an account of userID by exact name.
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*dto.AccountRead, error)

	// ListByUser lists the accounts of a user, ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID, filter dto.AccountFilter) ([]*dto.AccountRead, error)

	// Search lists the accounts of a user whose name or description contains query.
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*dto.AccountRead, error)

	// Summary aggregates the accounts of a user.
	Summary(ctx context.Context, userID uuid.UUID) (*dto.AccountSummary, error)

	// Delete deletes an account by its ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUser deletes every account of a user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// CountAll counts accounts across all users.
	CountAll(ctx context.Context) (int64, error)
}
