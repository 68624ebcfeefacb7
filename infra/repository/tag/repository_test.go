package tag_test

import (
	"context"
	"testing"

	infratag "github.com/amirasaad/gastos/infra/repository/tag"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/tag"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	repo := infratag.New(db)

	home, err := tag.New("Hogar")
	require.NoError(t, err)
	travel, err := tag.New("Viajes")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, home))
	require.NoError(t, repo.Create(ctx, travel))

	dup, err := tag.New("Hogar")
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	require.ErrorIs(t, err, tag.ErrNameTaken)
	require.ErrorIs(t, err, domain.ErrConflict)

	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	a := testutils.SeedAccount(t, uow, ana.ID, "Casa", account.KindBank, "0")
	accounts, err := repository.Get[accountrepo.Repository](uow)
	require.NoError(t, err)
	require.NoError(t, accounts.Update(ctx, a.ID, dto.AccountUpdate{TagID: &home.ID}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Hogar", all[0].Name)
	assert.Equal(t, int64(1), all[0].Usage)
	assert.Equal(t, int64(0), all[1].Usage)

	unused, err := repo.Unused(ctx)
	require.NoError(t, err)
	require.Len(t, unused, 1)
	assert.Equal(t, travel.ID, unused[0].ID)

	n, err := repo.Usage(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByName(ctx, "Viajes")
	require.NoError(t, err)
	assert.Equal(t, travel.ID, got.ID)

	require.ErrorIs(t, repo.Rename(ctx, travel.ID, "Hogar"), tag.ErrNameTaken)
	require.NoError(t, repo.Rename(ctx, travel.ID, "Vacaciones"))
	got, err = repo.Get(ctx, travel.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vacaciones", got.Name)

	require.NoError(t, repo.Delete(ctx, travel.ID))
	require.ErrorIs(t, repo.Delete(ctx, travel.ID), tag.ErrTagNotFound)
	_, err = repo.Get(ctx, uuid.New())
	require.ErrorIs(t, err, tag.ErrTagNotFound)
	require.ErrorIs(t, repo.Rename(ctx, uuid.New(), "x"), tag.ErrTagNotFound)
}
