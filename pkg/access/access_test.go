package access_test

import (
	"testing"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principal(r user.Role) access.Principal {
	return access.Principal{UserID: uuid.New(), Role: r, Via: access.ViaSession}
}

func TestCapabilityTable(t *testing.T) {
	t.Parallel()
	admin := principal(user.RoleAdmin)
	owner := principal(user.RoleOwner)
	pending := principal(user.RoleRequested)

	assert.True(t, admin.Has(access.ListUsers))
	assert.False(t, admin.Has(access.GrantAdmin))
	assert.False(t, admin.Has(access.ManageTags))
	assert.False(t, admin.Has(access.ViewActivityLog))
	assert.True(t, owner.Has(access.ViewGlobalStats))
	assert.False(t, pending.Has(access.ListUsers), "pending request grants nothing")
	assert.False(t, owner.Has(access.Capability("unknown")))

	err := access.Require(admin, access.ManageTags)
	require.ErrorIs(t, err, access.ErrInsufficientRole)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRequireOwner(t *testing.T) {
	t.Parallel()
	p := principal(user.RoleUser)
	require.NoError(t, access.RequireOwner(p, p.UserID))
	require.ErrorIs(t, access.RequireOwner(p, uuid.New()), access.ErrNotOwner)
	require.ErrorIs(t, access.RequireOwner(access.Principal{}, uuid.Nil), access.ErrNotOwner)
}

func TestCanActOn(t *testing.T) {
	t.Parallel()
	admin := principal(user.RoleAdmin)
	owner := principal(user.RoleOwner)

	for _, actor := range []access.Principal{admin, owner} {
		require.ErrorIs(t, access.CanActOn(actor, user.RoleOwner), user.ErrOwnerImmutable)
	}
	require.NoError(t, access.CanActOn(admin, user.RoleUser))
	require.ErrorIs(t, access.CanActOn(admin, user.RoleAdmin), access.ErrInsufficientRole)
	require.NoError(t, access.CanActOn(owner, user.RoleAdmin))
	require.ErrorIs(t, access.CanActOn(principal(user.RoleUser), user.RoleUser), access.ErrInsufficientRole)
}

func TestCanDeleteMovementsOf(t *testing.T) {
	t.Parallel()
	admin := principal(user.RoleAdmin)
	require.NoError(t, access.CanDeleteMovementsOf(admin, user.RoleRequested))
	require.ErrorIs(t, access.CanDeleteMovementsOf(admin, user.RoleAdmin), access.ErrInsufficientRole)
	require.ErrorIs(t, access.CanDeleteMovementsOf(admin, user.RoleOwner), access.ErrInsufficientRole)
	require.NoError(t, access.CanDeleteMovementsOf(principal(user.RoleOwner), user.RoleAdmin))
	require.Error(t, access.CanDeleteMovementsOf(principal(user.RoleUser), user.RoleUser))
}

func TestAssignableRole(t *testing.T) {
	t.Parallel()
	admin := principal(user.RoleAdmin)
	owner := principal(user.RoleOwner)

	// Nobody can hand out the owner role.
	require.ErrorIs(t, access.AssignableRole(owner, user.RoleOwner), user.ErrOwnerImmutable)
	require.ErrorIs(t, access.AssignableRole(admin, user.RoleOwner), user.ErrOwnerImmutable)

	require.ErrorIs(t, access.AssignableRole(admin, user.RoleAdmin), access.ErrRoleNotAssignable)
	require.NoError(t, access.AssignableRole(owner, user.RoleAdmin))
	require.NoError(t, access.AssignableRole(admin, user.RoleUser))
	require.ErrorIs(t, access.AssignableRole(principal(user.RoleUser), user.RoleUser), access.ErrInsufficientRole)
	require.ErrorIs(t, access.AssignableRole(owner, user.Role("root")), user.ErrInvalidRole)
}
