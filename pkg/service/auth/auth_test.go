package auth_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	inframailer "github.com/amirasaad/gastos/infra/mailer"
	infrarepo "github.com/amirasaad/gastos/infra/repository"
	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/config"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var meta = dto.ClientMeta{IP: "203.0.113.7", UserAgent: "test"}

type fixture struct {
	svc    *authsvc.Service
	uow    *infrarepo.UoW
	outbox *inframailer.Outbox
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	uow, _ := testutils.NewTestUoW(t)
	logger := testutils.DiscardLogger()
	cfg := &config.Auth{
		SessionLifetime: 2 * time.Hour,
		TwoFactorTTL:    5 * time.Minute,
		TwoFactorDigits: 6,
		ResetTokenTTL:   time.Hour,
		ChallengeSecret: "test-secret",
		BcryptCost:      bcrypt.MinCost,
	}
	f := &fixture{
		uow:    uow,
		outbox: &inframailer.Outbox{},
		now:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = authsvc.New(uow, f.outbox, audit.New(uow, logger), cfg, "https://gastos.test", logger).
		WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) login(t *testing.T, username string) string {
	t.Helper()
	res, err := f.svc.Login(context.Background(), username, testutils.DefaultPassword, meta)
	require.NoError(t, err)
	require.False(t, res.TwoFactorRequired)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (f *fixture) principal(t *testing.T, token string) access.Principal {
	t.Helper()
	p, err := f.svc.Authenticate(context.Background(), token, meta)
	require.NoError(t, err)
	return p
}

func (f *fixture) mailed(t *testing.T, pattern string) string {
	t.Helper()
	msg, ok := f.outbox.Last()
	require.True(t, ok, "no mail sent")
	m := regexp.MustCompile(pattern).FindStringSubmatch(msg.Body)
	require.NotNil(t, m, "mail body %q", msg.Body)
	return m[len(m)-1]
}

func TestRegister(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, dto.Registration{Username: "alice", Email: "alice@example.com", Password: "Secreto123"}, meta)
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.NotEqual(t, "Secreto123", u.PasswordHash)

	_, err = f.svc.Register(ctx, dto.Registration{Username: "alice", Email: "other@example.com", Password: "Secreto123"}, meta)
	require.ErrorIs(t, err, user.ErrUsernameTaken)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.Register(ctx, dto.Registration{Username: "alicia", Email: "alice@example.com", Password: "Secreto123"}, meta)
	require.ErrorIs(t, err, user.ErrEmailTaken)

	_, err = f.svc.Register(ctx, dto.Registration{Username: "bob", Email: "bob@example.com", Password: "secret"}, meta)
	require.ErrorIs(t, err, user.ErrWeakPassword)

	_, err = f.svc.Register(ctx, dto.Registration{Username: "bob", Email: "bob", Password: "Secreto123"}, meta)
	require.ErrorIs(t, err, user.ErrInvalidEmail)
}

func TestCreateOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner, err := f.svc.CreateOwner(ctx, dto.Registration{Username: "olga", Email: "olga@example.com", Password: "Secreto123"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleOwner, owner.Role)

	_, err = f.svc.CreateOwner(ctx, dto.Registration{Username: "otra", Email: "otra@example.com", Password: "Secreto123"})
	require.ErrorIs(t, err, user.ErrOwnerExists)
	require.ErrorIs(t, err, domain.ErrConflict)

	res, err := f.svc.Login(ctx, "olga@example.com", "Secreto123", meta)
	require.NoError(t, err)
	assert.Equal(t, user.RoleOwner, f.principal(t, res.Token).Role)
}

func TestLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := testutils.SeedUser(t, f.uow, "alice", user.RoleUser)

	_, err := f.svc.Login(ctx, "alice", "Wrong12345", meta)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "nobody", testutils.DefaultPassword, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "Alice", testutils.DefaultPassword, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials, "usernames are case sensitive")

	res, err := f.svc.Login(ctx, "alice@example.com", testutils.DefaultPassword, meta)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, alice.ID, res.User.ID)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, f.now.Add(2*time.Hour), res.ExpiresAt.UTC())

	users, err := repository.Get[userrepo.Repository](f.uow)
	require.NoError(t, err)
	stored, err := users.Get(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(f.now))
}

func TestSlidingSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := testutils.SeedUser(t, f.uow, "alice", user.RoleUser)
	token := f.login(t, "alice")
	start := f.now

	p := f.principal(t, token)
	assert.Equal(t, alice.ID, p.UserID)
	assert.Equal(t, access.ViaSession, p.Via)
	assert.Equal(t, token, p.SessionToken)
	assert.Equal(t, meta.IP, p.IP)

	// Each use pushes the expiry two hours past that use.
	f.now = start.Add(90 * time.Minute)
	f.principal(t, token)
	f.now = start.Add(3 * time.Hour)
	f.principal(t, token)

	f.now = start.Add(5*time.Hour + time.Second)
	_, err := f.svc.Authenticate(ctx, token, meta)
	require.ErrorIs(t, err, auth.ErrSessionExpired)
	f.now = start
	_, err = f.svc.Authenticate(ctx, token, meta)
	require.ErrorIs(t, err, auth.ErrSessionExpired, "expired sessions are purged")

	_, err = f.svc.Authenticate(ctx, "", meta)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	_, err = f.svc.Authenticate(ctx, "unknown", meta)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTwoFactorLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := testutils.SeedUser(t, f.uow, "alice", user.RoleUser)
	users, err := repository.Get[userrepo.Repository](f.uow)
	require.NoError(t, err)
	enabled := true
	require.NoError(t, users.Update(ctx, alice.ID, dto.UserUpdate{TwoFactorEnabled: &enabled}))

	res, err := f.svc.Login(ctx, "alice", testutils.DefaultPassword, meta)
	require.NoError(t, err)
	require.True(t, res.TwoFactorRequired)
	assert.Empty(t, res.Token)
	require.NotEmpty(t, res.Challenge)
	code := f.mailed(t, `\b(\d{6})\b`)
	msg, _ := f.outbox.Last()
	assert.Equal(t, "alice@example.com", msg.To)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.svc.VerifyTwoFactor(ctx, res.Challenge, wrong, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCode)

	_, err = f.svc.VerifyTwoFactor(ctx, res.Challenge+"x", code, meta)
	require.ErrorIs(t, err, auth.ErrInvalidChallenge)

	session, err := f.svc.VerifyTwoFactor(ctx, res.Challenge, code, meta)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, f.principal(t, session.Token).UserID)

	_, err = f.svc.VerifyTwoFactor(ctx, res.Challenge, code, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCode, "codes are single use")

	res, err = f.svc.Login(ctx, "alice", testutils.DefaultPassword, meta)
	require.NoError(t, err)
	code = f.mailed(t, `\b(\d{6})\b`)
	f.now = f.now.Add(6 * time.Minute)
	_, err = f.svc.VerifyTwoFactor(ctx, res.Challenge, code, meta)
	require.ErrorIs(t, err, auth.ErrInvalidChallenge)
}

func TestPasswordReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutils.SeedUser(t, f.uow, "alice", user.RoleUser)
	first := f.login(t, "alice")
	second := f.login(t, "alice")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com", meta))
	assert.Empty(t, f.outbox.Messages(), "unknown emails get no mail")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com", meta))
	token := f.mailed(t, `reset-password\?token=([0-9a-f]+)`)

	require.ErrorIs(t, f.svc.ResetPassword(ctx, token, "weak", meta), user.ErrWeakPassword)
	require.NoError(t, f.svc.ResetPassword(ctx, token, "Nuevo12345", meta))

	for _, tok := range []string{first, second} {
		_, err := f.svc.Authenticate(ctx, tok, meta)
		require.ErrorIs(t, err, auth.ErrSessionExpired)
	}
	require.ErrorIs(t, f.svc.ResetPassword(ctx, token, "Otro123456", meta), auth.ErrInvalidToken)

	_, err := f.svc.Login(ctx, "alice", testutils.DefaultPassword, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice", "Nuevo12345", meta)
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "alice@example.com", meta))
	expired := f.mailed(t, `reset-password\?token=([0-9a-f]+)`)
	f.now = f.now.Add(2 * time.Hour)
	require.ErrorIs(t, f.svc.ResetPassword(ctx, expired, "Nuevo12345", meta), auth.ErrInvalidToken)
}

func TestChangePasswordKeepsCurrentSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutils.SeedUser(t, f.uow, "alice", user.RoleUser)
	current := f.login(t, "alice")
	other := f.login(t, "alice")
	p := f.principal(t, current)

	err := f.svc.ChangePassword(ctx, p, "Wrong12345", "Nuevo12345")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	err = f.svc.ChangePassword(ctx, p, testutils.DefaultPassword, "short")
	require.ErrorIs(t, err, user.ErrWeakPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, p, testutils.DefaultPassword, "Nuevo12345"))
	f.principal(t, current)
	_, err = f.svc.Authenticate(ctx, other, meta)
	require.ErrorIs(t, err, auth.ErrSessionExpired)
	require.NoError(t, f.svc.CheckPassword(ctx, p.UserID, "Nuevo12345"))
}

func TestSessionsListRevokeLogout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutils.SeedUser(t, f.uow, "alice", user.RoleUser)
	testutils.SeedUser(t, f.uow, "bob", user.RoleUser)
	current := f.login(t, "alice")
	other := f.login(t, "alice")
	bob := f.principal(t, f.login(t, "bob"))
	p := f.principal(t, current)

	list, err := f.svc.ListSessions(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 2)
	var currentCount int
	var otherID = list[0].ID
	for _, s := range list {
		if s.Current {
			currentCount++
		} else {
			otherID = s.ID
		}
	}
	assert.Equal(t, 1, currentCount)

	require.ErrorIs(t, f.svc.RevokeSession(ctx, bob, otherID), auth.ErrSessionNotFound)
	require.NoError(t, f.svc.RevokeSession(ctx, p, otherID))
	_, err = f.svc.Authenticate(ctx, other, meta)
	require.ErrorIs(t, err, auth.ErrSessionExpired)

	require.NoError(t, f.svc.Logout(ctx, p))
	_, err = f.svc.Authenticate(ctx, current, meta)
	require.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestAPITokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := testutils.SeedUser(t, f.uow, "alice", user.RoleAdmin)
	testutils.SeedUser(t, f.uow, "bob", user.RoleUser)
	p := f.principal(t, f.login(t, "alice"))
	bob := f.principal(t, f.login(t, "bob"))

	created, err := f.svc.CreateAPIToken(ctx, p, "  ")
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultAPITokenName, created.Name)
	require.NotEmpty(t, created.Token)
	assert.True(t, created.Active)

	_, err = f.svc.CreateAPIToken(ctx, p, strings.Repeat("x", 101))
	require.ErrorIs(t, err, auth.ErrInvalidTokenName)

	bot, err := f.svc.Authenticate(ctx, created.Token, meta)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, bot.UserID)
	assert.Equal(t, user.RoleAdmin, bot.Role)
	assert.Equal(t, access.ViaAPIToken, bot.Via)
	assert.Empty(t, bot.SessionToken)

	list, err := f.svc.ListAPITokens(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Token)
	require.NotNil(t, list[0].LastUsedAt)

	require.ErrorIs(t, f.svc.RevokeAPIToken(ctx, bob, created.ID), auth.ErrAPITokenNotFound)
	require.NoError(t, f.svc.RevokeAPIToken(ctx, p, created.ID))
	_, err = f.svc.Authenticate(ctx, created.Token, meta)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	list, err = f.svc.ListAPITokens(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)

	require.ErrorIs(t, f.svc.DeleteAPIToken(ctx, bob, created.ID), auth.ErrAPITokenNotFound)
	require.NoError(t, f.svc.DeleteAPIToken(ctx, p, created.ID))
	list, err = f.svc.ListAPITokens(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, list)
}
