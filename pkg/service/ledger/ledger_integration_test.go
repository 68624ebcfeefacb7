//go:build integration

package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/gastos/infra/repository"
	infrastorage "github.com/amirasaad/gastos/infra/storage"
	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postgresLedger(t *testing.T) (*ledger.Service, repository.UnitOfWork, access.Principal, *dto.AccountRead) {
	t.Helper()
	db := testutils.StartPostgres(t)
	uow := infrarepo.NewUoW(db)
	logger := testutils.DiscardLogger()
	store, err := infrastorage.NewLocalStore(t.TempDir(), 0, logger)
	require.NoError(t, err)
	policy, err := account.NewPolicy()
	require.NoError(t, err)
	svc := ledger.New(uow, store, audit.New(uow, logger), policy, logger)

	u := testutils.SeedUser(t, uow, "alice", user.RoleUser)
	acct := testutils.SeedAccount(t, uow, u.ID, "Cartera", account.KindCash, "100")
	return svc, uow, access.Principal{UserID: u.ID, Role: u.Role}, acct
}

func balanceOf(t *testing.T, uow repository.UnitOfWork, id uuid.UUID) decimal.Decimal {
	t.Helper()
	accounts, err := repository.Get[accountrepo.Repository](uow)
	require.NoError(t, err)
	got, err := accounts.Get(context.Background(), id)
	require.NoError(t, err)
	return got.Balance
}

func TestConcurrentWithdrawalsPostgres(t *testing.T) {
	svc, uow, p, acct := postgresLedger(t)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		unknown   []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateMovement(context.Background(), p, dto.MovementCommand{
				AccountID: acct.ID,
				Type:      movement.TypeWithdrawal,
				Amount:    decimal.NewFromInt(10),
				Date:      time.Now().UTC(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, account.ErrInsufficientFunds):
				rejected++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unknown)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, rejected)

	balance := balanceOf(t, uow, acct.ID)
	assert.True(t, balance.IsZero(), "balance %s", balance)
}

func TestConcurrentUpdatesOfOneMovementPostgres(t *testing.T) {
	svc, uow, p, acct := postgresLedger(t)
	ctx := context.Background()

	mv, err := svc.CreateMovement(ctx, p, dto.MovementCommand{
		AccountID: acct.ID,
		Type:      movement.TypeIncome,
		Amount:    decimal.NewFromInt(10),
		Date:      time.Now().UTC(),
	})
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			amount := decimal.NewFromInt(int64(20 + i*10))
			_, err := svc.UpdateMovement(ctx, p, mv.ID, dto.MovementUpdateCommand{Amount: &amount})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := svc.GetMovement(ctx, p, mv.ID)
	require.NoError(t, err)
	balance := balanceOf(t, uow, acct.ID)
	assert.True(t, balance.Equal(decimal.NewFromInt(100).Add(final.Amount)),
		"balance %s, movement %s", balance, final.Amount)
}
