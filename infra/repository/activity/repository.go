package activity

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/dto"
	repo "github.com/amirasaad/gastos/pkg/repository/activity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a new activity log repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, e *auth.ActivityEntry) error {
	return gormerr.MapGormErrorToDomain(r.db.WithContext(ctx).Create(&Entry{
		ID:        e.ID,
		UserID:    e.UserID,
		Action:    e.Action,
		IP:        e.IP,
		CreatedAt: e.CreatedAt.UTC(),
	}).Error)
}

type entryRow struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Username  *string
	Action    string
	IP        string
	CreatedAt time.Time
}

func (r *repository) List(ctx context.Context, page, pageSize int) ([]*dto.ActivityRead, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Entry{}).Count(&total).Error; err != nil {
		return nil, 0, gormerr.MapGormErrorToDomain(err)
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	var rows []entryRow
	err := r.db.WithContext(ctx).
		Model(&Entry{}).
		Select("activity_log.id, activity_log.user_id, users.username, activity_log.action, activity_log.ip, activity_log.created_at").
		Joins("LEFT JOIN users ON users.id = activity_log.user_id").
		Order("activity_log.created_at DESC").
		Offset(dto.Offset(page, pageSize)).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*dto.ActivityRead, 0, len(rows))
	for _, row := range rows {
		e := &dto.ActivityRead{
			ID:        row.ID,
			UserID:    row.UserID,
			Action:    row.Action,
			IP:        row.IP,
			CreatedAt: row.CreatedAt,
		}
		if row.Username != nil {
			e.Username = *row.Username
		}
		result = append(result, e)
	}
	return result, total, nil
}

func (r *repository) Detach(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Model(&Entry{}).
			Where("user_id = ?", userID).
			Update("user_id", nil).Error
	})
}
