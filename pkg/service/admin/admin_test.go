package admin_test

import (
	"context"
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
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/admin"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	usersvc "github.com/amirasaad/gastos/pkg/service/user"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *admin.Service
	ledger *ledger.Service
	uow    *infrarepo.UoW
	db     *gorm.DB
	owner  access.Principal
	admin  access.Principal
	alice  access.Principal
}

func principal(u *dto.UserRead) access.Principal {
	return access.Principal{UserID: u.ID, Role: u.Role, Via: access.ViaSession}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	logger := testutils.DiscardLogger()
	store, err := infrastorage.NewLocalStore(t.TempDir(), 0, logger)
	require.NoError(t, err)
	policy, err := account.NewPolicy()
	require.NoError(t, err)
	recorder := audit.New(uow, logger)
	lg := ledger.New(uow, store, recorder, policy, logger)

	return &fixture{
		svc:    admin.New(uow, usersvc.New(uow, store, recorder, logger), lg, recorder, logger),
		ledger: lg,
		uow:    uow,
		db:     db,
		owner:  principal(testutils.SeedUser(t, uow, "olga", user.RoleOwner)),
		admin:  principal(testutils.SeedUser(t, uow, "adam", user.RoleAdmin)),
		alice:  principal(testutils.SeedUser(t, uow, "alice", user.RoleUser)),
	}
}

func (f *fixture) income(t *testing.T, p access.Principal, amount string) *dto.MovementRead {
	t.Helper()
	acct := testutils.SeedAccount(t, f.uow, p.UserID, "Cash "+uuid.NewString()[:8], account.KindCash, "0")
	mv, err := f.ledger.CreateMovement(context.Background(), p, dto.MovementCommand{
		AccountID: acct.ID,
		Type:      movement.TypeIncome,
		Amount:    decimal.RequireFromString(amount),
		Date:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return mv
}

func TestListUsersHidesOwnerFromAdmins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	page, err := f.svc.ListUsers(ctx, f.admin, dto.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, u := range page.Items {
		assert.NotEqual(t, user.RoleOwner, u.Role)
	}

	page, err = f.svc.ListUsers(ctx, f.owner, dto.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = f.svc.ListUsers(ctx, f.owner, dto.UserFilter{Search: "ali"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice", page.Items[0].Username)

	_, err = f.svc.ListUsers(ctx, f.owner, dto.UserFilter{Role: "root"})
	require.ErrorIs(t, err, user.ErrInvalidRole)

	_, err = f.svc.ListUsers(ctx, f.alice, dto.UserFilter{})
	require.ErrorIs(t, err, access.ErrInsufficientRole)

	_, err = f.svc.GetUser(ctx, f.admin, f.owner.UserID)
	require.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestChangeRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ChangeRole(ctx, f.admin, f.alice.UserID, user.RoleAdmin)
	require.ErrorIs(t, err, access.ErrRoleNotAssignable)

	_, err = f.svc.ChangeRole(ctx, f.owner, f.alice.UserID, user.RoleOwner)
	require.ErrorIs(t, err, user.ErrOwnerImmutable)

	_, err = f.svc.ChangeRole(ctx, f.owner, f.owner.UserID, user.RoleUser)
	require.ErrorIs(t, err, user.ErrOwnerImmutable)

	_, err = f.svc.ChangeRole(ctx, f.admin, f.admin.UserID, user.RoleUser)
	require.ErrorIs(t, err, access.ErrInsufficientRole, "administrators cannot act on administrators")

	u, err := f.svc.ChangeRole(ctx, f.admin, f.alice.UserID, user.RoleRequested)
	require.NoError(t, err)
	assert.Equal(t, user.RoleRequested, u.Role)

	u, err = f.svc.ChangeRole(ctx, f.owner, f.alice.UserID, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)

	u, err = f.svc.ChangeRole(ctx, f.owner, f.admin.UserID, user.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, u.Role)
}

func TestDeleteUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mv := f.income(t, f.alice, "25")
	require.Equal(t, int64(1), testutils.CountRows(t, f.db, "movements", f.alice.UserID))

	require.ErrorIs(t, f.svc.DeleteUser(ctx, f.alice, f.admin.UserID), access.ErrInsufficientRole)
	require.ErrorIs(t, f.svc.DeleteUser(ctx, f.admin, f.owner.UserID), user.ErrUserNotFound)
	require.ErrorIs(t, f.svc.DeleteUser(ctx, f.owner, f.owner.UserID), user.ErrOwnerImmutable)

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, f.alice.UserID))
	users, err := repository.Get[userrepo.Repository](f.uow)
	require.NoError(t, err)
	_, err = users.Get(ctx, f.alice.UserID)
	require.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Zero(t, testutils.CountRows(t, f.db, "accounts", f.alice.UserID))
	assert.Zero(t, testutils.CountMovements(t, f.db, mv.AccountID))

	require.NoError(t, f.svc.DeleteUser(ctx, f.owner, f.admin.UserID))
}

func TestDeleteUserMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mine := f.income(t, f.alice, "25")
	ownerMv := f.income(t, f.owner, "5")

	require.ErrorIs(t, f.svc.DeleteUserMovement(ctx, f.alice, ownerMv.ID), access.ErrInsufficientRole)
	require.ErrorIs(t, f.svc.DeleteUserMovement(ctx, f.admin, ownerMv.ID), access.ErrInsufficientRole)
	require.ErrorIs(t, f.svc.DeleteUserMovement(ctx, f.admin, uuid.New()), movement.ErrMovementNotFound)

	require.NoError(t, f.svc.DeleteUserMovement(ctx, f.admin, mine.ID))
	assert.Zero(t, testutils.CountRows(t, f.db, "movements", f.alice.UserID))
	assert.Equal(t, int64(1), testutils.CountMovements(t, f.db, ownerMv.AccountID))
	accounts, err := repository.Get[accountrepo.Repository](f.uow)
	require.NoError(t, err)
	acct, err := accounts.Get(ctx, mine.AccountID)
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())

	require.NoError(t, f.svc.DeleteUserMovement(ctx, f.owner, ownerMv.ID))
}

func TestActivityLogAndStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.income(t, f.alice, "25")

	_, err := f.svc.ActivityLog(ctx, f.admin, 1, 10)
	require.ErrorIs(t, err, access.ErrInsufficientRole)
	page, err := f.svc.ActivityLog(ctx, f.owner, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "alice", page.Items[0].Username)

	now := time.Now().UTC()
	users, err := repository.Get[userrepo.Repository](f.uow)
	require.NoError(t, err)
	require.NoError(t, users.Update(ctx, f.alice.UserID, dto.UserUpdate{LastLoginAt: &now}))
	enabled := true
	require.NoError(t, users.Update(ctx, f.admin.UserID, dto.UserUpdate{TwoFactorEnabled: &enabled}))

	_, err = f.svc.GlobalStats(ctx, f.admin)
	require.ErrorIs(t, err, access.ErrInsufficientRole)
	stats, err := f.svc.GlobalStats(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, dto.GlobalStats{
		Users:            3,
		ActiveLast30Days: 1,
		TwoFactorUsers:   1,
		Accounts:         1,
		Movements:        1,
	}, *stats)
}
