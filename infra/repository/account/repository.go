package account

import (
	"context"
	"errors"
	"strings"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	domainaccount "github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	repo "github.com/amirasaad/gastos/pkg/repository/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New creates a new CQRS-style account repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements account.Repository.
func (r *repository) Create(ctx context.Context, create dto.AccountCreate) error {
	acct := mapCreateDTOToModel(create)
	return gormerr.Duplicate(
		r.db.WithContext(ctx).Omit(clause.Associations).Create(&acct).Error,
		domainaccount.ErrNameTaken,
	)
}

// Update implements account.Repository.
func (r *repository) Update(ctx context.Context, id uuid.UUID, update dto.AccountUpdate) error {
	updates := mapUpdateDTOToModel(update)
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return gormerr.Duplicate(res.Error, domainaccount.ErrNameTaken)
	}
	if res.RowsAffected == 0 {
		return domainaccount.ErrAccountNotFound
	}
	return nil
}

// UpdateBalance implements account.Repository.
func (r *repository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&Account{}).
		Where("id = ?", id).
		Update("balance_cents", money.ToCents(balance))
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainaccount.ErrAccountNotFound
	}
	return nil
}

// Get implements account.Repository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.AccountRead, error) {
	var row accountRow
	if err := r.selectRows(ctx).Where("accounts.id = ?", id).Take(&row).Error; err != nil {
		return nil, gormerr.NotFound(err, domainaccount.ErrAccountNotFound)
	}
	return mapModelToDTO(&row), nil
}

// GetForUpdate implements account.Repository. The lock is a no-op on sqlite,
// which serialises writers on its own.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*dto.AccountRead, error) {
	var acct Account
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&acct).Error; err != nil {
		return nil, gormerr.NotFound(err, domainaccount.ErrAccountNotFound)
	}
	return mapModelToDTO(&accountRow{Account: acct}), nil
}

// GetByName implements account.Repository.
func (r *repository) GetByName(ctx context.Context, userID uuid.UUID, name string) (*dto.AccountRead, error) {
	var row accountRow
	if err := r.selectRows(ctx).
		Where("accounts.user_id = ? AND accounts.name = ?", userID, name).
		Take(&row).Error; err != nil {
		return nil, gormerr.NotFound(err, domainaccount.ErrAccountNotFound)
	}
	return mapModelToDTO(&row), nil
}

// ListByUser implements account.Repository.
func (r *repository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter dto.AccountFilter,
) ([]*dto.AccountRead, error) {
	q := r.selectRows(ctx).Where("accounts.user_id = ?", userID)
	if filter.Kind != "" {
		q = q.Where("accounts.kind = ?", string(filter.Kind))
	}
	if filter.TagID != nil {
		q = q.Where("accounts.tag_id = ?", *filter.TagID)
	}
	return r.find(q.Order("accounts.name ASC"))
}

// likeEscaper makes the LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search implements account.Repository.
func (r *repository) Search(ctx context.Context, userID uuid.UUID, query string) ([]*dto.AccountRead, error) {
	like := "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
	q := r.selectRows(ctx).
		Where("accounts.user_id = ?", userID).
		Where(`accounts.name LIKE ? ESCAPE '\' OR accounts.description LIKE ? ESCAPE '\'`, like, like).
		Order("accounts.name ASC")
	return r.find(q)
}

type summaryRow struct {
	TotalCount int64
	CashCount  int64
	BankCount  int64
	BalanceSum int64
	BalanceAvg float64
	BalanceMax *int64
	BalanceMin *int64
}

// Summary implements account.Repository.
func (r *repository) Summary(ctx context.Context, userID uuid.UUID) (*dto.AccountSummary, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).Model(&Account{}).
		Select(`COUNT(*) AS total_count,
			COUNT(CASE WHEN kind = ? THEN 1 END) AS cash_count,
			COUNT(CASE WHEN kind = ? THEN 1 END) AS bank_count,
			CAST(COALESCE(SUM(balance_cents), 0) AS BIGINT) AS balance_sum,
			COALESCE(AVG(balance_cents), 0) AS balance_avg,
			MAX(balance_cents) AS balance_max,
			MIN(balance_cents) AS balance_min`,
			string(domainaccount.KindCash), string(domainaccount.KindBank)).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	s := &dto.AccountSummary{
		Count:          row.TotalCount,
		CashCount:      row.CashCount,
		BankCount:      row.BankCount,
		TotalBalance:   money.FromCents(row.BalanceSum),
		AverageBalance: money.Round(decimal.NewFromFloat(row.BalanceAvg).Shift(-money.Scale)),
	}
	if row.BalanceMax != nil {
		v := money.FromCents(*row.BalanceMax)
		s.MaxBalance = &v
	}
	if row.BalanceMin != nil {
		v := money.FromCents(*row.BalanceMin)
		s.MinBalance = &v
	}
	return s, nil
}

// Delete implements account.Repository.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Account{}, "id = ?", id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return domainaccount.ErrHasMovements
		}
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainaccount.ErrAccountNotFound
	}
	return nil
}

// DeleteByUser implements account.Repository.
func (r *repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).Delete(&Account{}, "user_id = ?", userID).Error
	})
}

// CountAll implements account.Repository.
func (r *repository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Account{}).Count(&n).Error
	return n, gormerr.MapGormErrorToDomain(err)
}

func (r *repository) selectRows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Account{}).
		Select("accounts.*, tags.name AS tag_name").
		Joins("LEFT JOIN tags ON tags.id = accounts.tag_id")
}

func (r *repository) find(q *gorm.DB) ([]*dto.AccountRead, error) {
	var rows []accountRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*dto.AccountRead, 0, len(rows))
	for i := range rows {
		result = append(result, mapModelToDTO(&rows[i]))
	}
	return result, nil
}

// mapCreateDTOToModel maps AccountCreate DTO to GORM model.
func mapCreateDTOToModel(create dto.AccountCreate) Account {
	acct := Account{
		ID:           create.ID,
		UserID:       create.UserID,
		Name:         create.Name,
		Kind:         string(create.Kind),
		BalanceCents: money.ToCents(create.Balance),
		Currency:     string(create.Currency),
		TagID:        create.TagID,
		Color:        create.Color,
		Description:  create.Description,
		CreatedAt:    create.CreatedAt,
	}
	if create.Goal != nil {
		c := money.ToCents(*create.Goal)
		acct.GoalCents = &c
	}
	return acct
}

// mapUpdateDTOToModel maps AccountUpdate DTO to a map for GORM Updates.
func mapUpdateDTOToModel(update dto.AccountUpdate) map[string]any {
	updates := make(map[string]any)
	if update.Name != nil {
		updates["name"] = *update.Name
	}
	if update.Kind != nil {
		updates["kind"] = string(*update.Kind)
	}
	if update.Currency != nil {
		updates["currency"] = string(*update.Currency)
	}
	if update.Color != nil {
		updates["color"] = *update.Color
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	switch {
	case update.ClearTag:
		updates["tag_id"] = nil
	case update.TagID != nil:
		updates["tag_id"] = *update.TagID
	}
	switch {
	case update.ClearGoal:
		updates["goal_cents"] = nil
	case update.Goal != nil:
		updates["goal_cents"] = money.ToCents(*update.Goal)
	}
	return updates
}

// mapModelToDTO maps a GORM model to a read-optimized DTO.
func mapModelToDTO(row *accountRow) *dto.AccountRead {
	a := &dto.AccountRead{
		ID:          row.ID,
		UserID:      row.UserID,
		Name:        row.Name,
		Kind:        domainaccount.Kind(row.Kind),
		Balance:     money.FromCents(row.BalanceCents),
		Currency:    money.Code(row.Currency),
		TagID:       row.TagID,
		TagName:     row.TagName,
		Color:       row.Color,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.GoalCents != nil {
		g := money.FromCents(*row.GoalCents)
		a.Goal = &g
	}
	return a
}
