package activity

import (
	"context"

	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for the append-only activity log.
type Repository interface {
	Append(ctx context.Context, e *auth.ActivityEntry) error
	// List returns one page of entries, newest first, and the total count.
	List(ctx context.Context, page, pageSize int) ([]*dto.ActivityRead, int64, error)
	// Detach clears the user reference of a deleted user's entries.
	Detach(ctx context.Context, userID uuid.UUID) error
}
