package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/gastos/infra/repository/activity"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository(t *testing.T) {
	uow, db := testutils.NewTestUoW(t)
	ctx := context.Background()
	ana := testutils.SeedUser(t, uow, "ana", user.RoleUser)
	repo := activity.New(db)
	now := time.Now().UTC()

	for i, action := range []string{"login", "imported 3 movements", "logout"} {
		require.NoError(t, repo.Append(ctx, &auth.ActivityEntry{
			ID:        uuid.New(),
			UserID:    &ana.ID,
			Action:    action,
			IP:        "10.0.0.1",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Append(ctx, &auth.ActivityEntry{ID: uuid.New(), Action: "failed login", CreatedAt: now.Add(-time.Hour)}))

	items, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, items, 2)
	assert.Equal(t, "logout", items[0].Action)
	assert.Equal(t, "ana", items[0].Username)

	items, _, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "failed login", items[1].Action)
	assert.Empty(t, items[1].Username)
	assert.Nil(t, items[1].UserID)

	require.NoError(t, repo.Detach(ctx, ana.ID))
	items, _, err = repo.List(ctx, 1, 10)
	require.NoError(t, err)
	for _, e := range items {
		assert.Nil(t, e.UserID)
	}
}
