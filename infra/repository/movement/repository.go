package movement

import (
	"context"
	"time"

	"github.com/amirasaad/gastos/infra/repository/gormerr"
	domainmovement "github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	repo "github.com/amirasaad/gastos/pkg/repository/movement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Movements are left joined so one whose account vanished can still be read.
const joinColumns = `movements.id, movements.account_id, COALESCE(accounts.name, '') AS account_name,
	COALESCE(accounts.color, '') AS account_color, accounts.user_id, movements.type, movements.amount_cents,
	movements.note, movements.occurred_at, movements.attachment, movements.created_at`

type repository struct {
	db *gorm.DB
}

// New creates a new movement repository using the provided *gorm.DB.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// Create implements movement.Repository.
func (r *repository) Create(ctx context.Context, create dto.MovementCreate) error {
	m := Movement{
		ID:          create.ID,
		AccountID:   create.AccountID,
		Type:        string(create.Type),
		AmountCents: money.ToCents(create.Amount),
		Note:        create.Note,
		OccurredAt:  create.Date.UTC(),
		Attachment:  create.Attachment,
		CreatedAt:   create.CreatedAt,
	}
	return gormerr.MapGormErrorToDomain(
		r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error,
	)
}

// Update implements movement.Repository.
func (r *repository) Update(ctx context.Context, id uuid.UUID, update dto.MovementUpdate) error {
	updates := make(map[string]any)
	if update.Type != nil {
		updates["type"] = string(*update.Type)
	}
	if update.Amount != nil {
		updates["amount_cents"] = money.ToCents(*update.Amount)
	}
	if update.Note != nil {
		updates["note"] = *update.Note
	}
	if update.Date != nil {
		updates["occurred_at"] = update.Date.UTC()
	}
	if update.Attachment != nil {
		updates["attachment"] = *update.Attachment
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&Movement{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainmovement.ErrMovementNotFound
	}
	return nil
}

// Get implements movement.Repository.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.MovementRead, error) {
	var row movementRow
	err := r.joined(ctx).Where("movements.id = ?", id).Take(&row).Error
	if err != nil {
		return nil, gormerr.NotFound(err, domainmovement.ErrMovementNotFound)
	}
	return mapRowToDTO(&row), nil
}

// List implements movement.Repository.
func (r *repository) List(
	ctx context.Context,
	userID uuid.UUID,
	filter dto.MovementFilter,
) ([]*dto.MovementRead, int64, error) {
	q := r.joined(ctx).Where("accounts.user_id = ?", userID)
	if filter.AccountID != nil {
		q = q.Where("movements.account_id = ?", *filter.AccountID)
	}
	if filter.Type != "" {
		q = q.Where("movements.type = ?", string(filter.Type))
	}
	if filter.From != nil {
		q = q.Where("movements.occurred_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("movements.occurred_at <= ?", filter.To.UTC())
	}
	if filter.MinAmount != nil {
		q = q.Where("movements.amount_cents >= ?", money.ToCents(*filter.MinAmount))
	}
	if filter.MaxAmount != nil {
		q = q.Where("movements.amount_cents <= ?", money.ToCents(*filter.MaxAmount))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, gormerr.MapGormErrorToDomain(err)
	}

	column := "movements.occurred_at"
	if filter.SortBy == dto.SortByAmount {
		column = "movements.amount_cents"
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: !filter.Ascending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "movements.created_at", Raw: true}, Desc: !filter.Ascending})
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []movementRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, gormerr.MapGormErrorToDomain(err)
	}
	result := make([]*dto.MovementRead, 0, len(rows))
	for i := range rows {
		result = append(result, mapRowToDTO(&rows[i]))
	}
	return result, total, nil
}

// Delete implements movement.Repository.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Movement{}, "id = ?", id)
	if res.Error != nil {
		return gormerr.MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainmovement.ErrMovementNotFound
	}
	return nil
}

// DeleteByUser implements movement.Repository.
func (r *repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return gormerr.WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("account_id IN (?)", r.db.Table("accounts").Select("id").Where("user_id = ?", userID)).
			Delete(&Movement{}).Error
	})
}

// CountByAccount implements movement.Repository.
func (r *repository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Movement{}).Where("account_id = ?", accountID).Count(&n).Error
	return n, gormerr.MapGormErrorToDomain(err)
}

type statsRow struct {
	TotalMovements  int64
	IncomeCount     int64
	WithdrawalCount int64
	IncomeSum       int64
	WithdrawalSum   int64
	IncomeAvg       float64
	WithdrawalAvg   float64
	Largest         *int64
	Smallest        *int64
}

const statsColumns = `COUNT(*) AS total_movements,
	COUNT(CASE WHEN movements.type = @income THEN 1 END) AS income_count,
	COUNT(CASE WHEN movements.type = @withdrawal THEN 1 END) AS withdrawal_count,
	CAST(COALESCE(SUM(CASE WHEN movements.type = @income THEN movements.amount_cents ELSE 0 END), 0) AS BIGINT) AS income_sum,
	CAST(COALESCE(SUM(CASE WHEN movements.type = @withdrawal THEN movements.amount_cents ELSE 0 END), 0) AS BIGINT) AS withdrawal_sum,
	COALESCE(AVG(CASE WHEN movements.type = @income THEN movements.amount_cents END), 0) AS income_avg,
	COALESCE(AVG(CASE WHEN movements.type = @withdrawal THEN movements.amount_cents END), 0) AS withdrawal_avg,
	MAX(movements.amount_cents) AS largest,
	MIN(movements.amount_cents) AS smallest`

func statsArgs() map[string]any {
	return map[string]any{
		"income":     string(domainmovement.TypeIncome),
		"withdrawal": string(domainmovement.TypeWithdrawal),
	}
}

// AccountStats implements movement.Repository.
func (r *repository) AccountStats(ctx context.Context, accountID uuid.UUID) (*dto.AccountStats, error) {
	var row statsRow
	err := r.db.WithContext(ctx).Model(&Movement{}).
		Select(statsColumns, statsArgs()).
		Where("movements.account_id = ?", accountID).
		Scan(&row).Error
	if err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	s := mapStats(&row)
	return &s.AccountStats, nil
}

// UserStats implements movement.Repository.
func (r *repository) UserStats(
	ctx context.Context,
	userID uuid.UUID,
	from, to *time.Time,
) (*dto.UserStats, error) {
	q := r.db.WithContext(ctx).Model(&Movement{}).
		Select(statsColumns, statsArgs()).
		Joins("JOIN accounts ON accounts.id = movements.account_id").
		Where("accounts.user_id = ?", userID)
	if from != nil {
		q = q.Where("movements.occurred_at >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("movements.occurred_at <= ?", to.UTC())
	}
	var row statsRow
	if err := q.Scan(&row).Error; err != nil {
		return nil, gormerr.MapGormErrorToDomain(err)
	}
	return mapStats(&row), nil
}

// Attachments implements movement.Repository.
func (r *repository) Attachments(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&Movement{}).
		Joins("JOIN accounts ON accounts.id = movements.account_id").
		Where("accounts.user_id = ? AND movements.attachment <> ''", userID).
		Pluck("movements.attachment", &names).Error
	return names, gormerr.MapGormErrorToDomain(err)
}

// CountAll implements movement.Repository.
func (r *repository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Movement{}).Count(&n).Error
	return n, gormerr.MapGormErrorToDomain(err)
}

func (r *repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&Movement{}).
		Select(joinColumns).
		Joins("LEFT JOIN accounts ON accounts.id = movements.account_id")
}

func mapStats(row *statsRow) *dto.UserStats {
	s := &dto.UserStats{
		AccountStats: dto.AccountStats{
			TotalMovements:   row.TotalMovements,
			IncomeCount:      row.IncomeCount,
			WithdrawalCount:  row.WithdrawalCount,
			TotalIncome:      money.FromCents(row.IncomeSum),
			TotalWithdrawals: money.FromCents(row.WithdrawalSum),
		},
		AverageIncome:     centsAverage(row.IncomeAvg),
		AverageWithdrawal: centsAverage(row.WithdrawalAvg),
	}
	if row.Largest != nil {
		v := money.FromCents(*row.Largest)
		s.Largest = &v
	}
	if row.Smallest != nil {
		v := money.FromCents(*row.Smallest)
		s.Smallest = &v
	}
	return s
}

func centsAverage(avg float64) decimal.Decimal {
	return money.Round(decimal.NewFromFloat(avg).Shift(-money.Scale))
}

func mapRowToDTO(row *movementRow) *dto.MovementRead {
	var userID uuid.UUID
	if row.UserID != nil {
		userID = *row.UserID
	}
	return &dto.MovementRead{
		ID:           row.ID,
		AccountID:    row.AccountID,
		AccountName:  row.AccountName,
		AccountColor: row.AccountColor,
		UserID:       userID,
		Type:         domainmovement.Type(row.Type),
		Amount:       money.FromCents(row.AmountCents),
		Note:         row.Note,
		Date:         row.OccurredAt.UTC(),
		Attachment:   row.Attachment,
		CreatedAt:    row.CreatedAt,
	}
}
