package tag

import (
	"context"

	"github.com/amirasaad/gastos/pkg/domain/tag"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for tag data access operations.
type Repository interface {
	Create(ctx context.Context, t *tag.Tag) error
	Get(ctx context.Context, id uuid.UUID) (*dto.TagRead, error)
	GetByName(ctx context.Context, name string) (*dto.TagRead, error)
	// List returns all tags with usage counts, ordered by name.
	List(ctx context.Context) ([]*dto.TagRead, error)
	// Unused returns the tags no account references.
	Unused(ctx context.Context) ([]*dto.TagRead, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Usage counts the accounts referencing a tag.
	Usage(ctx context.Context, id uuid.UUID) (int64, error)
}
