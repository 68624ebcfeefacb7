package ledger_test

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/gastos/infra/repository"
	infrastorage "github.com/amirasaad/gastos/infra/storage"
	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	activityrepo "github.com/amirasaad/gastos/pkg/repository/activity"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngData = []byte("\x89PNG\r\n\x1a\nnot really an image")

type fixture struct {
	svc   *ledger.Service
	uow   *infrarepo.UoW
	db    *gorm.DB
	dir   string
	alice access.Principal
	bob   access.Principal
}

func setup(t *testing.T, overdraft ...string) *fixture {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	logger := testutils.DiscardLogger()
	dir := t.TempDir()
	store, err := infrastorage.NewLocalStore(dir, 0, logger)
	require.NoError(t, err)
	policy, err := account.NewPolicy(overdraft...)
	require.NoError(t, err)

	alice := testutils.SeedUser(t, uow, "alice", user.RoleUser)
	bob := testutils.SeedUser(t, uow, "bob", user.RoleUser)
	return &fixture{
		svc:   ledger.New(uow, store, audit.New(uow, logger), policy, logger),
		uow:   uow,
		db:    db,
		dir:   dir,
		alice: access.Principal{UserID: alice.ID, Role: alice.Role, Via: access.ViaSession},
		bob:   access.Principal{UserID: bob.ID, Role: bob.Role, Via: access.ViaSession},
	}
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) string {
	t.Helper()
	repo, err := repository.Get[accountrepo.Repository](f.uow)
	require.NoError(t, err)
	a, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return a.Balance.StringFixed(2)
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func cmd(accountID uuid.UUID, typ movement.Type, amount string) dto.MovementCommand {
	return dto.MovementCommand{
		AccountID: accountID,
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestCashScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	_, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "100.00"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", f.balance(t, cash.ID))

	out, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeWithdrawal, "30.00"))
	require.NoError(t, err)
	assert.Equal(t, "70.00", f.balance(t, cash.ID))
	assert.Equal(t, "Cash", out.AccountName)

	require.NoError(t, f.svc.DeleteMovement(ctx, f.alice, out.ID))
	assert.Equal(t, "100.00", f.balance(t, cash.ID))
	require.NoError(t, f.svc.VerifyBalance(ctx, f.alice, cash.ID))

	err = f.svc.DeleteMovement(ctx, f.alice, out.ID)
	require.ErrorIs(t, err, movement.ErrMovementNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "100.00", f.balance(t, cash.ID))
}

func TestAmountBoundary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	for _, amount := range []string{"0", "-1", "0.001"} {
		_, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, amount))
		require.ErrorIs(t, err, movement.ErrInvalidAmount, amount)
	}
	_, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, "transfer", "1"))
	require.ErrorIs(t, err, movement.ErrInvalidType)

	m, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "0.01"))
	require.NoError(t, err)
	assert.Equal(t, "0.01", m.Amount.StringFixed(2))
	assert.Equal(t, "0.01", f.balance(t, cash.ID))
}

func TestInsufficientFunds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	_, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "50"))
	require.NoError(t, err)
	_, err = f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeWithdrawal, "50.01"))
	require.ErrorIs(t, err, account.ErrInsufficientFunds)
	assert.Equal(t, "50.00", f.balance(t, cash.ID))

	page, err := f.svc.ListMovements(ctx, f.alice, dto.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeWithdrawal, "40"))
	require.NoError(t, err)
	first := page.Items[0]
	err = f.svc.DeleteMovement(ctx, f.alice, first.ID)
	require.ErrorIs(t, err, account.ErrInsufficientFunds, "removing the income would leave -40")
	assert.Equal(t, "10.00", f.balance(t, cash.ID))
}

func TestOverdraftPolicy(t *testing.T) {
	f := setup(t, string(account.KindBank))
	ctx := context.Background()
	bank := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Card", account.KindBank, "0")
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	_, err := f.svc.CreateMovement(ctx, f.alice, cmd(bank.ID, movement.TypeWithdrawal, "25"))
	require.NoError(t, err)
	assert.Equal(t, "-25.00", f.balance(t, bank.ID))

	_, err = f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeWithdrawal, "25"))
	require.ErrorIs(t, err, account.ErrInsufficientFunds)
	assert.True(t, f.svc.Policy().AllowsNegative(account.KindBank))
}

func TestUpdateMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	_, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "100"))
	require.NoError(t, err)
	b, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "50"))
	require.NoError(t, err)
	assert.Equal(t, "150.00", f.balance(t, cash.ID))

	withdrawal := movement.TypeWithdrawal
	amount := decimal.RequireFromString("20")
	note := "groceries"
	updated, err := f.svc.UpdateMovement(ctx, f.alice, b.ID, dto.MovementUpdateCommand{
		Type:   &withdrawal,
		Amount: &amount,
		Note:   &note,
	})
	require.NoError(t, err)
	assert.Equal(t, movement.TypeWithdrawal, updated.Type)
	assert.Equal(t, "groceries", updated.Note)
	assert.Equal(t, "80.00", f.balance(t, cash.ID))

	date := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	updated, err = f.svc.UpdateMovement(ctx, f.alice, b.ID, dto.MovementUpdateCommand{Date: &date})
	require.NoError(t, err)
	assert.True(t, date.Equal(updated.Date))
	assert.Equal(t, "80.00", f.balance(t, cash.ID))

	tooMuch := decimal.RequireFromString("100.01")
	_, err = f.svc.UpdateMovement(ctx, f.alice, b.ID, dto.MovementUpdateCommand{Amount: &tooMuch})
	require.ErrorIs(t, err, account.ErrInsufficientFunds)
	assert.Equal(t, "80.00", f.balance(t, cash.ID))

	zero := decimal.Zero
	_, err = f.svc.UpdateMovement(ctx, f.alice, b.ID, dto.MovementUpdateCommand{Amount: &zero})
	require.ErrorIs(t, err, movement.ErrInvalidAmount)

	_, err = f.svc.UpdateMovement(ctx, f.bob, b.ID, dto.MovementUpdateCommand{Note: &note})
	require.ErrorIs(t, err, movement.ErrMovementNotFound)

	require.NoError(t, f.svc.VerifyBalance(ctx, f.alice, cash.ID))
}

func TestOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	_, err := f.svc.CreateMovement(ctx, f.bob, cmd(cash.ID, movement.TypeIncome, "10"))
	require.ErrorIs(t, err, account.ErrAccountNotFound)

	m, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "10"))
	require.NoError(t, err)

	_, err = f.svc.GetMovement(ctx, f.bob, m.ID)
	require.ErrorIs(t, err, movement.ErrMovementNotFound)
	require.ErrorIs(t, f.svc.DeleteMovement(ctx, f.bob, m.ID), movement.ErrMovementNotFound)
	_, err = f.svc.AccountStats(ctx, f.bob, cash.ID)
	require.ErrorIs(t, err, account.ErrAccountNotFound)

	page, err := f.svc.ListMovements(ctx, f.bob, dto.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	got, err := f.svc.GetMovement(ctx, f.alice, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "10.00", f.balance(t, cash.ID))
}

func TestAttachments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")

	c := cmd(cash.ID, movement.TypeIncome, "10")
	c.Attachment = &dto.Upload{Name: "receipt.png", MIME: "image/png", Data: pngData}
	m, err := f.svc.CreateMovement(ctx, f.alice, c)
	require.NoError(t, err)
	require.NotEmpty(t, m.Attachment)
	assert.Equal(t, ".png", filepath.Ext(m.Attachment))
	assert.Equal(t, []string{m.Attachment}, f.files(t))

	data, mime, err := f.svc.Attachment(ctx, f.alice, m.ID)
	require.NoError(t, err)
	assert.Equal(t, pngData, data)
	assert.Equal(t, "image/png", mime)
	_, _, err = f.svc.Attachment(ctx, f.bob, m.ID)
	require.ErrorIs(t, err, movement.ErrMovementNotFound)

	bad := cmd(cash.ID, movement.TypeIncome, "10")
	bad.Attachment = &dto.Upload{Name: "notes.txt", MIME: "image/png", Data: []byte("plain text")}
	_, err = f.svc.CreateMovement(ctx, f.alice, bad)
	require.ErrorIs(t, err, attachment.ErrAttachmentRejected)
	assert.Equal(t, "10.00", f.balance(t, cash.ID))

	failing := cmd(cash.ID, movement.TypeWithdrawal, "1000")
	failing.Attachment = &dto.Upload{Name: "receipt.png", Data: pngData}
	_, err = f.svc.CreateMovement(ctx, f.alice, failing)
	require.ErrorIs(t, err, account.ErrInsufficientFunds)
	assert.Len(t, f.files(t), 1, "the file of a rolled back movement is removed")

	replaced, err := f.svc.UpdateMovement(ctx, f.alice, m.ID, dto.MovementUpdateCommand{
		Attachment: &dto.Upload{Name: "other.png", Data: pngData},
	})
	require.NoError(t, err)
	require.NotEqual(t, m.Attachment, replaced.Attachment)
	assert.Equal(t, []string{replaced.Attachment}, f.files(t))

	removed, err := f.svc.UpdateMovement(ctx, f.alice, m.ID, dto.MovementUpdateCommand{RemoveAttachment: true})
	require.NoError(t, err)
	assert.Empty(t, removed.Attachment)
	assert.Empty(t, f.files(t))
	_, _, err = f.svc.Attachment(ctx, f.alice, m.ID)
	require.ErrorIs(t, err, attachment.ErrAttachmentNotFound)

	c.Attachment = &dto.Upload{Name: "again.png", Data: pngData}
	again, err := f.svc.CreateMovement(ctx, f.alice, c)
	require.NoError(t, err)
	require.Len(t, f.files(t), 1)
	require.NoError(t, f.svc.DeleteMovement(ctx, f.alice, again.ID))
	assert.Empty(t, f.files(t))
}

func TestDeleteOrphanedMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")
	m, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "10"))
	require.NoError(t, err)

	require.NoError(t, f.db.Exec("DELETE FROM accounts WHERE id = ?", cash.ID).Error)

	err = f.svc.RemoveMovement(ctx, f.alice, m.ID, func(context.Context, repository.UnitOfWork, *dto.MovementRead) error {
		return nil
	})
	require.ErrorIs(t, err, movement.ErrOrphaned)
	require.ErrorIs(t, err, domain.ErrIntegrity)

	var count int64
	require.NoError(t, f.db.Table("movements").Where("id = ?", m.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "nothing is deleted on an integrity failure")
}

func TestQueries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	for i, c := range []dto.MovementCommand{
		cmd(cash.ID, movement.TypeIncome, "100"),
		cmd(cash.ID, movement.TypeIncome, "20"),
		cmd(cash.ID, movement.TypeWithdrawal, "30"),
	} {
		c.Date = jan.AddDate(0, i, 0)
		_, err := f.svc.CreateMovement(ctx, f.alice, c)
		require.NoError(t, err)
	}

	page, err := f.svc.ListMovements(ctx, f.alice, dto.MovementFilter{Type: movement.TypeIncome})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, ledger.DefaultPageSize, page.PageSize)
	assert.Equal(t, "20.00", page.Items[0].Amount.StringFixed(2), "newest first")

	page, err = f.svc.ListMovements(ctx, f.alice, dto.MovementFilter{SortBy: dto.SortByAmount, Ascending: true, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "30.00", page.Items[0].Amount.StringFixed(2))

	_, err = f.svc.ListMovements(ctx, f.alice, dto.MovementFilter{Type: "otro"})
	require.ErrorIs(t, err, movement.ErrInvalidType)

	stats, err := f.svc.AccountStats(ctx, f.alice, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalMovements)
	assert.Equal(t, "120.00", stats.TotalIncome.StringFixed(2))
	assert.Equal(t, "30.00", stats.TotalWithdrawals.StringFixed(2))

	from := jan.AddDate(0, 1, 0)
	us, err := f.svc.UserStats(ctx, f.alice, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), us.TotalMovements)

	to := jan.AddDate(0, 0, -1)
	_, err = f.svc.UserStats(ctx, f.alice, &from, &to)
	require.ErrorIs(t, err, ledger.ErrInvalidRange)

	progress, err := f.svc.GoalProgress(ctx, f.alice, cash.ID)
	require.NoError(t, err)
	assert.Nil(t, progress)

	repo, err := repository.Get[accountrepo.Repository](f.uow)
	require.NoError(t, err)
	goal := decimal.RequireFromString("360")
	require.NoError(t, repo.Update(ctx, cash.ID, dto.AccountUpdate{Goal: &goal}))
	progress, err = f.svc.GoalProgress(ctx, f.alice, cash.ID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.False(t, progress.Achieved)
	assert.Equal(t, "25.00", progress.Percent.StringFixed(2))
	assert.Equal(t, "270.00", progress.Remaining.StringFixed(2))
}

func TestActivityRecorded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")
	m, err := f.svc.CreateMovement(ctx, f.alice, cmd(cash.ID, movement.TypeIncome, "12.5"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteMovement(ctx, f.alice, m.ID))

	repo, err := repository.Get[activityrepo.Repository](f.uow)
	require.NoError(t, err)
	entries, total, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, e := range entries {
		assert.Contains(t, e.Action, "12.50")
	}
}

func TestBalanceInvariantUnderRandomOperations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cash := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")
	rng := rand.New(rand.NewPCG(7, 11))

	var live []uuid.UUID
	for i := 0; i < 60; i++ {
		amount := decimal.New(int64(rng.IntN(10000)+1), -2)
		switch op := rng.IntN(4); {
		case op <= 1 || len(live) == 0:
			typ := movement.TypeIncome
			if rng.IntN(3) == 0 {
				typ = movement.TypeWithdrawal
			}
			m, err := f.svc.CreateMovement(ctx, f.alice, dto.MovementCommand{AccountID: cash.ID, Type: typ, Amount: amount})
			if err == nil {
				live = append(live, m.ID)
			} else {
				require.ErrorIs(t, err, account.ErrInsufficientFunds)
			}
		case op == 2:
			id := live[rng.IntN(len(live))]
			_, err := f.svc.UpdateMovement(ctx, f.alice, id, dto.MovementUpdateCommand{Amount: &amount})
			if err != nil {
				require.ErrorIs(t, err, account.ErrInsufficientFunds)
			}
		default:
			idx := rng.IntN(len(live))
			err := f.svc.DeleteMovement(ctx, f.alice, live[idx])
			if err == nil {
				live = append(live[:idx], live[idx+1:]...)
			} else {
				require.ErrorIs(t, err, account.ErrInsufficientFunds)
			}
		}
		require.NoError(t, f.svc.VerifyBalance(ctx, f.alice, cash.ID), "step %d", i)
		assert.False(t, decimal.RequireFromString(f.balance(t, cash.ID)).IsNegative())
	}
}
