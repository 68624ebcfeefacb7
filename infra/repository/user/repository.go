package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	domainuser "github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a new CQRS-style user repository using the provided *gorm.DB.
func New(db *gorm.DB) user.Repository {
	return &repository{db: db}
}

func (r *repository) Create(
	ctx context.Context,
	create dto.UserCreate,
) error {
	u := &User{
		ID:               create.ID,
		Username:         create.Username,
		Email:            create.Email,
		PasswordHash:     create.PasswordHash,
		Role:             string(create.Role),
		TwoFactorEnabled: create.TwoFactorEnabled,
		CreatedAt:        create.CreatedAt,
	}
	if u.Role == "" {
		u.Role = string(domainuser.RoleUser)
	}
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.duplicateCause(ctx, create.Username)
	}
	return gormerr.MapGormErrorToDomain(err)
}

// duplicateCause works out which unique column a failed insert or update hit.
func (r *repository) duplicateCause(ctx context.Context, username string) error {
	if exists, err := r.ExistsByUsername(ctx, username); err == nil && exists {
		return domainuser.ErrUsernameTaken
	}
	return domainuser.ErrEmailTaken
}

func (r *repository) Update(
	ctx context.Context,
	id uuid.UUID,
	uu dto.UserUpdate,
) error {
	updates := make(map[string]any)

	// Only include non-nil fields in the update
	if uu.Username != nil {
		updates["username"] = *uu.Username
	}
	if uu.Email != nil {
		updates["email"] = *uu.Email
	}
	if uu.PasswordHash != nil {
		updates["password_hash"] = *uu.PasswordHash
	}
	if uu.Role != nil {
		updates["role"] = string(*uu.Role)
	}
	if uu.TwoFactorEnabled != nil {
		updates["two_factor_enabled"] = *uu.TwoFactorEnabled
	}
	if uu.Photo != nil {
		updates["photo"] = *uu.Photo
	}
	if uu.LastLoginAt != nil {
		updates["last_login_at"] = uu.LastLoginAt.UTC()
	}

	// If no fields to update, return early
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(updates)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		if uu.Username != nil {
			if u, err := r.GetByUsername(ctx, *uu.Username); err == nil && u.ID != id {
				return domainuser.ErrUsernameTaken
			}
		}
		return domainuser.ErrEmailTaken
	}
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainuser.ErrUserNotFound
	}
	return nil
}

func (r *repository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*dto.UserRead, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, gormerr.NotFound(err, domainuser.ErrUserNotFound)
	}
	return mapModelToDTO(&u), nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*dto.UserRead, error) {
	var u User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).First(&u).Error; err != nil {
		return nil, gormerr.NotFound(err, domainuser.ErrUserNotFound)
	}
	return mapModelToDTO(&u), nil
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*dto.UserRead, error) {
	var u User
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).First(&u).Error; err != nil {
		return nil, gormerr.NotFound(err, domainuser.ErrUserNotFound)
	}
	return mapModelToDTO(&u), nil
}

func (r *repository) Owner(ctx context.Context) (*dto.UserRead, error) {
	var u User
	if err := r.db.WithContext(ctx).
		Where("role = ?", string(domainuser.RoleOwner)).First(&u).Error; err != nil {
		return nil, gormerr.NotFound(err, domainuser.ErrUserNotFound)
	}
	return mapModelToDTO(&u), nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainuser.ErrUserNotFound
	}
	return nil
}

// likeEscaper makes the LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *repository) List(
	ctx context.Context,
	filter dto.UserFilter,
) ([]*dto.UserRead, int64, error) {
	q := r.db.WithContext(ctx).Model(&User{})
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if filter.ExcludeOwner {
		q = q.Where("role <> ?", string(domainuser.RoleOwner))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		q = q.Where(`username LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, gormerr.MapGormErrorToDomain(err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	var users []User
	if err := q.Order("created_at DESC").
		Offset(dto.Offset(filter.Page, pageSize)).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, gormerr.MapGormErrorToDomain(err)
	}

	result := make([]*dto.UserRead, 0, len(users))
	for i := range users {
		result = append(result, mapModelToDTO(&users[i]))
	}
	return result, total, nil
}

func (r *repository) InactiveSince(ctx context.Context, cutoff time.Time) ([]*dto.UserRead, error) {
	var users []User
	if err := r.db.WithContext(ctx).
		Where("role <> ?", string(domainuser.RoleOwner)).
		Where("last_login_at IS NOT NULL AND last_login_at < ?", cutoff.UTC()).
		Order("last_login_at ASC").
		Find(&users).Error; err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*dto.UserRead, 0, len(users))
	for i := range users {
		result = append(result, mapModelToDTO(&users[i]))
	}
	return result, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, gormerr.MapGormErrorToDomain(err)
}

func (r *repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, gormerr.MapGormErrorToDomain(err)
}

func (r *repository) Stats(ctx context.Context, activeSince time.Time) (total, active, twoFactor int64, err error) {
	db := r.db.WithContext(ctx).Model(&User{})
	if err = db.Count(&total).Error; err != nil {
		return 0, 0, 0, gormerr.MapGormErrorToDomain(err)
	}
	if err = r.db.WithContext(ctx).Model(&User{}).
		Where("last_login_at >= ?", activeSince.UTC()).Count(&active).Error; err != nil {
		return 0, 0, 0, gormerr.MapGormErrorToDomain(err)
	}
	if err = r.db.WithContext(ctx).Model(&User{}).
		Where("two_factor_enabled = ?", true).Count(&twoFactor).Error; err != nil {
		return 0, 0, 0, gormerr.MapGormErrorToDomain(err)
	}
	return total, active, twoFactor, nil
}

// mapModelToDTO maps a GORM model to a read-optimized DTO.
func mapModelToDTO(u *User) *dto.UserRead {
	return &dto.UserRead{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		Role:             domainuser.Role(u.Role),
		TwoFactorEnabled: u.TwoFactorEnabled,
		Photo:            u.Photo,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
