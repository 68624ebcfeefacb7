package audit_test

import (
	"context"
	"testing"

	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	uow, _ := testutils.NewTestUoW(t)
	ctx := context.Background()
	alice := testutils.SeedUser(t, uow, "alice", user.RoleUser)
	rec := audit.New(uow, testutils.DiscardLogger())

	rec.Record(ctx, alice.ID, "login", "10.0.0.1")
	rec.Record(ctx, uuid.Nil, "sweep", "")

	page, err := rec.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, audit.DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 2)

	var withUser int
	for _, e := range page.Items {
		if e.UserID != nil {
			withUser++
			assert.Equal(t, "alice", e.Username)
			assert.Equal(t, "10.0.0.1", e.IP)
		}
	}
	assert.Equal(t, 1, withUser)
}

func TestRecordNilRecorder(t *testing.T) {
	var rec *audit.Recorder
	assert.NotPanics(t, func() { rec.Record(context.Background(), uuid.New(), "noop", "") })
}
