// Package audit appends lines to the activity log. Writes are best effort:
// a failure is logged and never surfaces to the operation being audited.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	"github.com/amirasaad/gastos/pkg/repository/activity"
	"github.com/google/uuid"
)

// DefaultPageSize is used when a listing asks for no page size.
const DefaultPageSize = 50

// Recorder writes activity log entries.
type Recorder struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Recorder.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Recorder {
	return &Recorder{uow: uow, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Record appends one entry. It must not be called from inside a unit of
// work; call it once the audited transaction has committed.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, action, ip string) {
	if r == nil {
		return
	}
	entry := &auth.ActivityEntry{
		ID:        uuid.New(),
		Action:    action,
		IP:        ip,
		CreatedAt: r.now(),
	}
	if userID != uuid.Nil {
		entry.UserID = &userID
	}
	repo, err := repository.Get[activity.Repository](r.uow)
	if err == nil {
		err = repo.Append(ctx, entry)
	}
	if err != nil {
		r.logger.Warn("activity log write failed", "user_id", userID, "action", action, "error", err)
	}
}

// List returns one page of the log, newest first.
func (r *Recorder) List(ctx context.Context, page, pageSize int) (*dto.Page[*dto.ActivityRead], error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	repo, err := repository.Get[activity.Repository](r.uow)
	if err != nil {
		return nil, err
	}
	items, total, err := repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &dto.Page[*dto.ActivityRead]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
