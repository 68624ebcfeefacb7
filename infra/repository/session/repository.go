package session

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	repo "github.com/amirasaad/gastos/pkg/repository/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a new session repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *auth.Session) error {
	return gormerr.MapGormErrorToDomain(r.db.WithContext(ctx).Create(&Session{
		ID:         s.ID,
		UserID:     s.UserID,
		Token:      s.Token,
		IP:         s.IP,
		UserAgent:  s.UserAgent,
		ExpiresAt:  s.ExpiresAt.UTC(),
		CreatedAt:  s.CreatedAt.UTC(),
		LastSeenAt: s.LastSeenAt.UTC(),
	}).Error)
}

func (r *repository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).Where("token = ?", token).Take(&s).Error; err != nil {
		return nil, gormerr.NotFound(err, auth.ErrSessionExpired)
	}
	return mapModelToDomain(&s), nil
}

func (r *repository) Extend(ctx context.Context, token string, expiresAt, seenAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("token = ?", token).
		Updates(map[string]any{"expires_at": expiresAt.UTC(), "last_seen_at": seenAt.UTC()})
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return auth.ErrSessionExpired
	}
	return nil
}

func (r *repository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]*auth.Session, error) {
	var rows []Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now.UTC()).
		Order("last_seen_at DESC").
		Find(&rows).Error; err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*auth.Session, 0, len(rows))
	for i := range rows {
		result = append(result, mapModelToDomain(&rows[i]))
	}
	return result, nil
}

func (r *repository) DeleteByToken(ctx context.Context, token string) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Where("token = ?", token).Delete(&Session{}).Error
	})
}

func (r *repository) DeleteByID(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Session{})
	return res.RowsAffected > 0, gormerr.MapGormErrorToDomain(res.Error)
}

func (r *repository) DeleteAllByUser(ctx context.Context, userID uuid.UUID, exceptToken string) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if exceptToken != "" {
		q = q.Where("token <> ?", exceptToken)
	}
	res := q.Delete(&Session{})
	return res.RowsAffected, gormerr.MapGormErrorToDomain(res.Error)
}

func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&Session{})
	return res.RowsAffected, gormerr.MapGormErrorToDomain(res.Error)
}

func mapModelToDomain(s *Session) *auth.Session {
	return &auth.Session{
		ID:         s.ID,
		UserID:     s.UserID,
		Token:      s.Token,
		IP:         s.IP,
		UserAgent:  s.UserAgent,
		ExpiresAt:  s.ExpiresAt.UTC(),
		CreatedAt:  s.CreatedAt.UTC(),
		LastSeenAt: s.LastSeenAt.UTC(),
	}
}
