package credential

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	repo "github.com/amirasaad/gastos/pkg/repository/credential"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type twoFactorRepository struct {
	db *gorm.DB
}

// NewTwoFactor creates a second-factor code repository using the provided *gorm.DB.
func NewTwoFactor(db *gorm.DB) repo.TwoFactorRepository {
	return &twoFactorRepository{db: db}
}

func (r *twoFactorRepository) Create(ctx context.Context, c *auth.TwoFactorCode) error {
	return gormerr.MapGormErrorToDomain(r.db.WithContext(ctx).Create(&TwoFactorCode{
		ID:        c.ID,
		UserID:    c.UserID,
		Code:      c.Code,
		Used:      c.Used,
		ExpiresAt: c.ExpiresAt.UTC(),
		CreatedAt: c.CreatedAt.UTC(),
	}).Error)
}

func (r *twoFactorRepository) DeleteUnused(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND used = ?", userID, false).
			Delete(&TwoFactorCode{}).Error
	})
}

func (r *twoFactorRepository) FindValid(
	ctx context.Context,
	userID uuid.UUID,
	code string,
	now time.Time,
) (*auth.TwoFactorCode, error) {
	var c TwoFactorCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used = ? AND expires_at > ?", userID, code, false, now.UTC()).
		Order("created_at DESC").
		Take(&c).Error
	if err != nil {
		return nil, gormerr.NotFound(err, auth.ErrInvalidCode)
	}
	return &auth.TwoFactorCode{
		ID:        c.ID,
		UserID:    c.UserID,
		Code:      c.Code,
		Used:      c.Used,
		ExpiresAt: c.ExpiresAt.UTC(),
		CreatedAt: c.CreatedAt.UTC(),
	}, nil
}

func (r *twoFactorRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&TwoFactorCode{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return auth.ErrInvalidCode
	}
	return nil
}

func (r *twoFactorRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&TwoFactorCode{}).Error
	})
}

func (r *twoFactorRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&TwoFactorCode{})
	return res.RowsAffected, gormerr.MapGormErrorToDomain(res.Error)
}

type resetTokenRepository struct {
	db *gorm.DB
}

// NewResetToken creates a password reset token repository using the provided *gorm.DB.
func NewResetToken(db *gorm.DB) repo.ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) Create(ctx context.Context, t *auth.ResetToken) error {
	return gormerr.MapGormErrorToDomain(r.db.WithContext(ctx).Create(&ResetToken{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		Used:      t.Used,
		ExpiresAt: t.ExpiresAt.UTC(),
		CreatedAt: t.CreatedAt.UTC(),
	}).Error)
}

func (r *resetTokenRepository) DeleteUnused(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND used = ?", userID, false).
			Delete(&ResetToken{}).Error
	})
}

func (r *resetTokenRepository) FindValid(ctx context.Context, token string, now time.Time) (*auth.ResetToken, error) {
	var t ResetToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND used = ? AND expires_at > ?", token, false, now.UTC()).
		Take(&t).Error
	if err != nil {
		return nil, gormerr.NotFound(err, auth.ErrInvalidToken)
	}
	return &auth.ResetToken{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		Used:      t.Used,
		ExpiresAt: t.ExpiresAt.UTC(),
		CreatedAt: t.CreatedAt.UTC(),
	}, nil
}

func (r *resetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&ResetToken{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return auth.ErrInvalidToken
	}
	return nil
}

func (r *resetTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&ResetToken{}).Error
	})
}

func (r *resetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&ResetToken{})
	return res.RowsAffected, gormerr.MapGormErrorToDomain(res.Error)
}

type apiTokenRepository struct {
	db *gorm.DB
}

// NewAPIToken creates an API token repository using the provided *gorm.DB.
func NewAPIToken(db *gorm.DB) repo.APITokenRepository {
	return &apiTokenRepository{db: db}
}

func (r *apiTokenRepository) Create(ctx context.Context, t *auth.APIToken) error {
	return gormerr.MapGormErrorToDomain(r.db.WithContext(ctx).Create(&APIToken{
		ID:         t.ID,
		UserID:     t.UserID,
		Name:       t.Name,
		Token:      t.Token,
		Active:     t.Active,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt.UTC(),
	}).Error)
}

func (r *apiTokenRepository) GetActive(ctx context.Context, token string) (*auth.APIToken, error) {
	var t APIToken
	if err := r.db.WithContext(ctx).
		Where("token = ? AND active = ?", token, true).
		Take(&t).Error; err != nil {
		return nil, gormerr.NotFound(err, auth.ErrUnauthenticated)
	}
	return mapAPIToken(&t), nil
}

func (r *apiTokenRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Model(&APIToken{}).
			Where("id = ?", id).
			Update("last_used_at", at.UTC()).Error
	})
}

func (r *apiTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*auth.APIToken, error) {
	var rows []APIToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*auth.APIToken, 0, len(rows))
	for i := range rows {
		result = append(result, mapAPIToken(&rows[i]))
	}
	return result, nil
}

func (r *apiTokenRepository) Deactivate(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&APIToken{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("active", false)
	return res.RowsAffected > 0, gormerr.MapGormErrorToDomain(res.Error)
}

func (r *apiTokenRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&APIToken{})
	return res.RowsAffected > 0, gormerr.MapGormErrorToDomain(res.Error)
}

func (r *apiTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&APIToken{}).Error
	})
}

func mapAPIToken(t *APIToken) *auth.APIToken {
	return &auth.APIToken{
		ID:         t.ID,
		UserID:     t.UserID,
		Name:       t.Name,
		Token:      t.Token,
		Active:     t.Active,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt.UTC(),
	}
}
