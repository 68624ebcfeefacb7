package tag

import (
	"context"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	domaintag "github.com/amirasaad/gastos/pkg/domain/tag"
	"github.com/amirasaad/gastos/pkg/dto"
	repo "github.com/amirasaad/gastos/pkg/repository/tag"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a new tag repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

type tagRow struct {
	Tag
	UsageCount int64
}

func (r *repository) Create(ctx context.Context, t *domaintag.Tag) error {
	return gormerr.Duplicate(
		r.db.WithContext(ctx).Create(&Tag{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}).Error,
		domaintag.ErrNameTaken,
	)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.TagRead, error) {
	var row tagRow
	if err := r.withUsage(ctx).Where("tags.id = ?", id).Take(&row).Error; err != nil {
		return nil, gormerr.NotFound(err, domaintag.ErrTagNotFound)
	}
	return mapRowToDTO(&row), nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*dto.TagRead, error) {
	var row tagRow
	if err := r.withUsage(ctx).Where("tags.name = ?", name).Take(&row).Error; err != nil {
		return nil, gormerr.NotFound(err, domaintag.ErrTagNotFound)
	}
	return mapRowToDTO(&row), nil
}

func (r *repository) List(ctx context.Context) ([]*dto.TagRead, error) {
	return r.find(r.withUsage(ctx).Order("tags.name ASC"))
}

func (r *repository) Unused(ctx context.Context) ([]*dto.TagRead, error) {
	return r.find(r.withUsage(ctx).Having("COUNT(accounts.id) = 0").Order("tags.name ASC"))
}

func (r *repository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).Model(&Tag{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return gormerr.Duplicate(res.Error, domaintag.ErrNameTaken)
	}
	if res.RowsAffected == 0 {
		return domaintag.ErrTagNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Tag{}, "id = ?", id)
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domaintag.ErrTagNotFound
	}
	return nil
}

func (r *repository) Usage(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("accounts").Where("tag_id = ?", id).Count(&n).Error
	return n, gormerr.MapGormErrorToDomain(err)
}

func (r *repository) withUsage(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Tag{}).
		Select("tags.id, tags.name, tags.created_at, COUNT(accounts.id) AS usage_count").
		Joins("LEFT JOIN accounts ON accounts.tag_id = tags.id").
		Group("tags.id, tags.name, tags.created_at")
}

func (r *repository) find(q *gorm.DB) ([]*dto.TagRead, error) {
	var rows []tagRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*dto.TagRead, 0, len(rows))
	for i := range rows {
		result = append(result, mapRowToDTO(&rows[i]))
	}
	return result, nil
}

func mapRowToDTO(row *tagRow) *dto.TagRead {
	return &dto.TagRead{
		ID:        row.ID,
		Name:      row.Name,
		Usage:     row.UsageCount,
		CreatedAt: row.CreatedAt,
	}
}
