package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/gastos/infra"
	infrarepo "github.com/amirasaad/gastos/infra/repository"
	"github.com/amirasaad/gastos/pkg/config"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword satisfies the password policy and is used for every seeded user.
const DefaultPassword = "Secreto123"

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens a private in-memory sqlite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := infra.NewDBConnection(&config.DB{Url: dsn}, "test")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewTestUoW returns a unit of work over a fresh test database.
func NewTestUoW(t testing.TB) (*infrarepo.UoW, *gorm.DB) {
	t.Helper()
	db := NewTestDB(t)
	return infrarepo.NewUoW(db), db
}

// SeedUser inserts a user with DefaultPassword and the given role.
func SeedUser(t testing.TB, uow repository.UnitOfWork, username string, role user.Role) *dto.UserRead {
	t.Helper()
	ctx := context.Background()
	repo, err := repository.Get[userrepo.Repository](uow)
	require.NoError(t, err)

	hash, err := utils.HashPassword(DefaultPassword, bcrypt.MinCost)
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, repo.Create(ctx, dto.UserCreate{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}))
	u, err := repo.Get(ctx, id)
	require.NoError(t, err)
	return u
}

// SeedAccount inserts an account with the given opening balance.
func SeedAccount(
	t testing.TB,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	name string,
	kind account.Kind,
	balance string,
) *dto.AccountRead {
	t.Helper()
	ctx := context.Background()
	repo, err := repository.Get[accountrepo.Repository](uow)
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, repo.Create(ctx, dto.AccountCreate{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Kind:      kind,
		Balance:   decimal.RequireFromString(balance),
		Currency:  account.DefaultCurrency,
		Color:     account.DefaultColor,
		CreatedAt: time.Now().UTC(),
	}))
	a, err := repo.Get(ctx, id)
	require.NoError(t, err)
	return a
}

// SeedSession inserts a session for userID that expires at expiresAt.
func SeedSession(t testing.TB, uow repository.UnitOfWork, userID uuid.UUID, expiresAt time.Time) *auth.Session {
	t.Helper()
	repo, err := repository.Get[sessionrepo.Repository](uow)
	require.NoError(t, err)
	token, err := auth.GenerateToken()
	require.NoError(t, err)
	s := &auth.Session{
		ID:         uuid.New(),
		UserID:     userID,
		Token:      token,
		ExpiresAt:  expiresAt,
		CreatedAt:  expiresAt.Add(-time.Hour),
		LastSeenAt: expiresAt.Add(-time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

// CountRows counts the rows of table that belong to userID. Movements have
// no user column and are counted through their accounts.
func CountRows(t testing.TB, db *gorm.DB, table string, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	q := db.Table(table).Where("user_id = ?", userID)
	if table == "movements" {
		q = db.Table("movements").
			Joins("JOIN accounts ON accounts.id = movements.account_id").
			Where("accounts.user_id = ?", userID)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// CountMovements counts the movements stored against the given accounts,
// whether or not the accounts still exist.
func CountMovements(t testing.TB, db *gorm.DB, accountIDs ...uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table("movements").Where("account_id IN ?", accountIDs).Count(&n).Error)
	return n
}

// MakeRequest is a helper for making HTTP requests in tests
func MakeRequest(app *fiber.App, method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// DecodeJSON decodes and closes an HTTP response body.
func DecodeJSON(t testing.TB, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// StartPostgres starts a Postgres container using Testcontainers and returns
// a migrated connection to it.
func StartPostgres(t testing.TB) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := infra.NewDBConnection(&config.DB{Url: dsn}, "test")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	return db
}
