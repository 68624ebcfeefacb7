package user_test

import (
	"context"
	"os"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/gastos/infra/repository"
	infrastorage "github.com/amirasaad/gastos/infra/storage"
	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	usersvc "github.com/amirasaad/gastos/pkg/service/user"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	pngData = []byte("\x89PNG\r\n\x1a\nnot really an image")
	pdfData = []byte("%PDF-1.4\n%fake document\n")
)

type fixture struct {
	svc    *usersvc.Service
	ledger *ledger.Service
	uow    *infrarepo.UoW
	db     *gorm.DB
	dir    string
	alice  access.Principal
	bob    access.Principal
}

func setup(t *testing.T) *fixture {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	logger := testutils.DiscardLogger()
	dir := t.TempDir()
	store, err := infrastorage.NewLocalStore(dir, 0, logger)
	require.NoError(t, err)
	policy, err := account.NewPolicy()
	require.NoError(t, err)
	recorder := audit.New(uow, logger)

	alice := testutils.SeedUser(t, uow, "alice", user.RoleUser)
	bob := testutils.SeedUser(t, uow, "bob", user.RoleUser)
	return &fixture{
		svc:    usersvc.New(uow, store, recorder, logger),
		ledger: ledger.New(uow, store, recorder, policy, logger),
		uow:    uow,
		db:     db,
		dir:    dir,
		alice:  access.Principal{UserID: alice.ID, Role: alice.Role, Via: access.ViaSession},
		bob:    access.Principal{UserID: bob.ID, Role: bob.Role, Via: access.ViaSession},
	}
}

func (f *fixture) fileCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	return len(entries)
}

func ptr[T any](v T) *T { return &v }

func TestUpdateProfile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.UpdateProfile(ctx, f.alice, dto.ProfileUpdate{Username: ptr("alice")})
	require.NoError(t, err, "unchanged values need no password")
	assert.Equal(t, "alice", u.Username)

	_, err = f.svc.UpdateProfile(ctx, f.alice, dto.ProfileUpdate{Username: ptr("alicia")})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.UpdateProfile(ctx, f.alice, dto.ProfileUpdate{
		Username:        ptr("bob"),
		CurrentPassword: testutils.DefaultPassword,
	})
	require.ErrorIs(t, err, user.ErrUsernameTaken)

	_, err = f.svc.UpdateProfile(ctx, f.alice, dto.ProfileUpdate{
		Email:           ptr("bob@example.com"),
		CurrentPassword: testutils.DefaultPassword,
	})
	require.ErrorIs(t, err, user.ErrEmailTaken)

	_, err = f.svc.UpdateProfile(ctx, f.alice, dto.ProfileUpdate{Email: ptr("not-an-email")})
	require.ErrorIs(t, err, user.ErrInvalidEmail)

	u, err = f.svc.UpdateProfile(ctx, f.alice, dto.ProfileUpdate{
		Username:        ptr("  alicia "),
		Email:           ptr("alicia@example.com"),
		CurrentPassword: testutils.DefaultPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", u.Username)
	assert.Equal(t, "alicia@example.com", u.Email)
}

func TestSetTwoFactor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetTwoFactor(ctx, f.alice, true))
	u, err := f.svc.Profile(ctx, f.alice)
	require.NoError(t, err)
	assert.True(t, u.TwoFactorEnabled)

	require.NoError(t, f.svc.SetTwoFactor(ctx, f.alice, false))
	u, err = f.svc.Profile(ctx, f.alice)
	require.NoError(t, err)
	assert.False(t, u.TwoFactorEnabled)
}

func TestRequestAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestAdmin(ctx, f.alice))
	u, err := f.svc.Profile(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, user.RoleRequested, u.Role)

	require.ErrorIs(t, f.svc.RequestAdmin(ctx, f.alice), user.ErrAlreadyRequested)

	admin := testutils.SeedUser(t, f.uow, "carol", user.RoleAdmin)
	p := access.Principal{UserID: admin.ID, Role: admin.Role}
	require.ErrorIs(t, f.svc.RequestAdmin(ctx, p), user.ErrAlreadyAdmin)
}

func TestSetPhoto(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SetPhoto(ctx, f.alice, dto.Upload{Name: "cv.pdf", Data: pdfData})
	require.ErrorIs(t, err, attachment.ErrAttachmentRejected)
	_, err = f.svc.SetPhoto(ctx, f.alice, dto.Upload{Name: "empty.png"})
	require.ErrorIs(t, err, attachment.ErrEmpty)
	_, _, err = f.svc.Photo(ctx, f.alice)
	require.ErrorIs(t, err, attachment.ErrAttachmentNotFound)

	u, err := f.svc.SetPhoto(ctx, f.alice, dto.Upload{Name: "me.png", Data: pngData})
	require.NoError(t, err)
	first := u.Photo
	assert.NotEmpty(t, first)

	u, err = f.svc.SetPhoto(ctx, f.alice, dto.Upload{Name: "me2.png", Data: pngData})
	require.NoError(t, err)
	assert.NotEqual(t, first, u.Photo)
	assert.Equal(t, 1, f.fileCount(t), "previous photo is removed")

	data, mime, err := f.svc.Photo(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, pngData, data)
	assert.Equal(t, "image/png", mime)
}

func TestDeleteSelf(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner := testutils.SeedUser(t, f.uow, "olga", user.RoleOwner)
	require.ErrorIs(t,
		f.svc.DeleteSelf(ctx, access.Principal{UserID: owner.ID, Role: owner.Role}, testutils.DefaultPassword),
		user.ErrOwnerImmutable)

	acct := testutils.SeedAccount(t, f.uow, f.alice.UserID, "Cash", account.KindCash, "0")
	_, err := f.ledger.CreateMovement(ctx, f.alice, dto.MovementCommand{
		AccountID:  acct.ID,
		Type:       movement.TypeIncome,
		Amount:     decimal.RequireFromString("10"),
		Date:       time.Now().UTC(),
		Attachment: &dto.Upload{Name: "ticket.png", Data: pngData},
	})
	require.NoError(t, err)
	_, err = f.svc.SetPhoto(ctx, f.alice, dto.Upload{Name: "me.png", Data: pngData})
	require.NoError(t, err)
	testutils.SeedSession(t, f.uow, f.alice.UserID, time.Now().Add(time.Hour))
	testutils.SeedAccount(t, f.uow, f.bob.UserID, "Bob cash", account.KindCash, "5")
	require.Equal(t, 2, f.fileCount(t))

	require.ErrorIs(t, f.svc.DeleteSelf(ctx, f.alice, "wrong"), auth.ErrInvalidCredentials)
	require.NoError(t, f.svc.DeleteSelf(ctx, f.alice, testutils.DefaultPassword))

	users, err := repository.Get[userrepo.Repository](f.uow)
	require.NoError(t, err)
	_, err = users.Get(ctx, f.alice.UserID)
	require.ErrorIs(t, err, user.ErrUserNotFound)
	for _, table := range []string{"accounts", "movements", "sessions", "api_tokens", "activity_log"} {
		assert.Zero(t, testutils.CountRows(t, f.db, table, f.alice.UserID), table)
	}
	assert.Zero(t, testutils.CountMovements(t, f.db, acct.ID))
	assert.Equal(t, 0, f.fileCount(t))
	assert.Equal(t, int64(1), testutils.CountRows(t, f.db, "accounts", f.bob.UserID))
}
