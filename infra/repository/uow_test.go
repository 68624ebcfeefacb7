package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	infrarepo "github.com/amirasaad/gastos/infra/repository"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	activityrepo "github.com/amirasaad/gastos/pkg/repository/activity"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	tagrepo "github.com/amirasaad/gastos/pkg/repository/tag"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDb, DriverName: "postgres"}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestUoW_ResolvesEveryRepository(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	uow := infrarepo.NewUoW(db)
	err := uow.Do(context.Background(), func(uow repository.UnitOfWork) error {
		for _, get := range []func(repository.UnitOfWork) error{
			func(u repository.UnitOfWork) error { _, err := repository.Get[userrepo.Repository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[accountrepo.Repository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[movementrepo.Repository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[tagrepo.Repository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[sessionrepo.Repository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[credentialrepo.TwoFactorRepository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[credentialrepo.ResetTokenRepository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[credentialrepo.APITokenRepository](u); return err },
			func(u repository.UnitOfWork) error { _, err := repository.Get[activityrepo.Repository](u); return err },
		} {
			if err := get(uow); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_UnknownRepository(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := repository.Get[interface{ Unknown() }](infrarepo.NewUoW(db))
	require.Error(t, err)
}

func TestUoW_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := infrarepo.NewUoW(db).Do(context.Background(), func(repository.UnitOfWork) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_RollbackDiscardsWrites(t *testing.T) {
	uow, _ := testutils.NewTestUoW(t)
	ctx := context.Background()
	id := uuid.New()

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](tx)
		if err != nil {
			return err
		}
		if err := users.Create(ctx, dto.UserCreate{ID: id, Username: "ghost", Email: "ghost@example.com", PasswordHash: "h"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	users, err := repository.Get[userrepo.Repository](uow)
	require.NoError(t, err)
	_, err = users.Get(ctx, id)
	require.ErrorIs(t, err, user.ErrUserNotFound)

	require.NoError(t, uow.Do(ctx, func(tx repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](tx)
		if err != nil {
			return err
		}
		return users.Create(ctx, dto.UserCreate{ID: id, Username: "kept", Email: "kept@example.com", PasswordHash: "h"})
	}))
	got, err := users.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Username)
}
