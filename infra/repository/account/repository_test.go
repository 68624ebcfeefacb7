package account_test

import (
	"context"
	"testing"
	"time"

	infraaccount "github.com/amirasaad/gastos/infra/repository/account"
	infratag "github.com/amirasaad/gastos/infra/repository/tag"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/tag"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAccountRepository_CreateAndGet(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	owner := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	repo := infraaccount.New(db)

	goal := dec("500")
	id := uuid.New()
	require.NoError(t, repo.Create(ctx, dto.AccountCreate{
		ID:          id,
		UserID:      owner.ID,
		Name:        "Savings",
		Kind:        account.KindBank,
		Balance:     dec("12.34"),
		Currency:    "USD",
		Color:       "#00ff00",
		Description: "rainy day",
		Goal:        &goal,
		CreatedAt:   time.Now().UTC(),
	}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Savings", got.Name)
	assert.Equal(t, account.KindBank, got.Kind)
	assert.Equal(t, "12.34", got.Balance.StringFixed(2))
	assert.Equal(t, "USD", string(got.Currency))
	require.NotNil(t, got.Goal)
	assert.Equal(t, "500.00", got.Goal.StringFixed(2))

	byName, err := repo.GetByName(ctx, owner.ID, "Savings")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	_, err = repo.Get(ctx, uuid.New())
	require.ErrorIs(t, err, account.ErrAccountNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_NameUniquePerUser(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	bea := testutils.SeedUser(t, uow, "bea", user.RoleUser)
	testutils.SeedAccount(t, uow, ana.ID, "Cash", account.KindCash, "0")
	repo := infraaccount.New(db)

	err := repo.Create(ctx, dto.AccountCreate{
		ID: uuid.New(), UserID: ana.ID, Name: "Cash", Kind: account.KindCash,
		Currency: "EUR", Color: "#808080",
	})
	require.ErrorIs(t, err, account.ErrNameTaken)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repo.Create(ctx, dto.AccountCreate{
		ID: uuid.New(), UserID: bea.ID, Name: "Cash", Kind: account.KindCash,
		Currency: "EUR", Color: "#808080",
	}))
}

func TestAccountRepository_UpdateAndBalance(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	a := testutils.SeedAccount(t, uow, ana.ID, "Cash", account.KindCash, "0")
	repo := infraaccount.New(db)

	name := "Wallet"
	goal := dec("100")
	require.NoError(t, repo.Update(ctx, a.ID, dto.AccountUpdate{Name: &name, Goal: &goal}))
	require.NoError(t, repo.UpdateBalance(ctx, a.ID, dec("70.5")))

	got, err := repo.GetForUpdate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wallet", got.Name)
	assert.Equal(t, "70.50", got.Balance.StringFixed(2))
	require.NotNil(t, got.Goal)

	require.NoError(t, repo.Update(ctx, a.ID, dto.AccountUpdate{ClearGoal: true}))
	got, err = repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Goal)

	require.ErrorIs(t, repo.UpdateBalance(ctx, uuid.New(), dec("1")), account.ErrAccountNotFound)
	require.ErrorIs(t, repo.Update(ctx, uuid.New(), dto.AccountUpdate{Name: &name}), account.ErrAccountNotFound)
}

func TestAccountRepository_ListSearchSummary(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	other := testutils.SeedUser(t, uow, "bea", user.RoleUser)

	tg, err := tag.New("Hogar")
	require.NoError(t, err)
	require.NoError(t, infratag.New(db).Create(ctx, tg))

	repo := infraaccount.New(db)
	testutils.SeedAccount(t, uow, ana.ID, "Cash", account.KindCash, "10")
	bank := testutils.SeedAccount(t, uow, ana.ID, "Bank", account.KindBank, "90.5")
	testutils.SeedAccount(t, uow, other.ID, "Hidden", account.KindCash, "1000")
	require.NoError(t, repo.Update(ctx, bank.ID, dto.AccountUpdate{TagID: &tg.ID}))

	all, err := repo.ListByUser(ctx, ana.ID, dto.AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bank", all[0].Name)
	assert.Equal(t, "Hogar", all[0].TagName)

	cash, err := repo.ListByUser(ctx, ana.ID, dto.AccountFilter{Kind: account.KindCash})
	require.NoError(t, err)
	require.Len(t, cash, 1)
	assert.Equal(t, "Cash", cash[0].Name)

	tagged, err := repo.ListByUser(ctx, ana.ID, dto.AccountFilter{TagID: &tg.ID})
	require.NoError(t, err)
	require.Len(t, tagged, 1)

	found, err := repo.Search(ctx, ana.ID, "ank")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bank.ID, found[0].ID)

	s, err := repo.Summary(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Count)
	assert.Equal(t, int64(1), s.CashCount)
	assert.Equal(t, int64(1), s.BankCount)
	assert.Equal(t, "100.50", s.TotalBalance.StringFixed(2))
	assert.Equal(t, "50.25", s.AverageBalance.StringFixed(2))
	require.NotNil(t, s.MaxBalance)
	require.NotNil(t, s.MinBalance)
	assert.Equal(t, "90.50", s.MaxBalance.StringFixed(2))
	assert.Equal(t, "10.00", s.MinBalance.StringFixed(2))

	empty, err := repo.Summary(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Nil(t, empty.MaxBalance)

	n, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAccountRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	pct := testutils.SeedAccount(t, uow, ana.ID, "Ahorro 50%", account.KindBank, "0")
	under := testutils.SeedAccount(t, uow, ana.ID, "mi_cuenta", account.KindCash, "0")
	testutils.SeedAccount(t, uow, ana.ID, "Cartera", account.KindCash, "0")
	repo := infraaccount.New(db)

	for _, tc := range []struct {
		query string
		want  []uuid.UUID
	}{
		{"%", []uuid.UUID{pct.ID}},
		{"_", []uuid.UUID{under.ID}},
		{"50%", []uuid.UUID{pct.ID}},
		{`\`, nil},
	} {
		found, err := repo.Search(ctx, ana.ID, tc.query)
		require.NoError(t, err, tc.query)
		var ids []uuid.UUID
		for _, a := range found {
			ids = append(ids, a.ID)
		}
		assert.Equal(t, tc.want, ids, tc.query)
	}
}

func TestAccountRepository_Delete(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	a := testutils.SeedAccount(t, uow, ana.ID, "Cash", account.KindCash, "0")
	testutils.SeedAccount(t, uow, ana.ID, "Bank", account.KindBank, "0")
	repo := infraaccount.New(db)

	require.NoError(t, repo.Delete(ctx, a.ID))
	require.ErrorIs(t, repo.Delete(ctx, a.ID), account.ErrAccountNotFound)

	require.NoError(t, repo.DeleteByUser(ctx, ana.ID))
	left, err := repo.ListByUser(ctx, ana.ID, dto.AccountFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)
}
