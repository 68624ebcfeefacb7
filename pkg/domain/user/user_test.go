package user_test

import (
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	u, err := user.New(" alice ", "alice@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.False(t, u.TwoFactorEnabled)

	_, err = user.New("", "alice@example.com", "hash")
	require.ErrorIs(t, err, user.ErrInvalidUsername)

	_, err = user.New(strings.Repeat("a", 51), "alice@example.com", "hash")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = user.New("alice", "Alice <alice@example.com>", "hash")
	require.ErrorIs(t, err, user.ErrInvalidEmail)

	_, err = user.New("alice", "not-an-email", "hash")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRoleOrdering(t *testing.T) {
	t.Parallel()
	assert.True(t, user.RoleOwner.AtLeast(user.RoleAdmin))
	assert.True(t, user.RoleAdmin.AtLeast(user.RoleRequested))
	assert.True(t, user.RoleRequested.AtLeast(user.RoleUser))
	assert.False(t, user.RoleRequested.AtLeast(user.RoleAdmin))
	assert.False(t, user.RoleRequested.IsPrivileged())
	assert.True(t, user.RoleAdmin.IsPrivileged())
	assert.Equal(t, -1, user.Role("root").Rank())

	r, err := user.ParseRole("administrador")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, r)

	_, err = user.ParseRole("root")
	require.ErrorIs(t, err, user.ErrInvalidRole)
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		problems int
	}{
		{name: "valid", password: "Secret123", problems: 0},
		{name: "short", password: "Ab1", problems: 1},
		{name: "no upper", password: "secret123", problems: 1},
		{name: "no lower", password: "SECRET123", problems: 1},
		{name: "no digit", password: "SecretPass", problems: 1},
		{name: "empty", password: "", problems: 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, user.PasswordProblems(tc.password), tc.problems)
			err := user.ValidatePassword(tc.password)
			if tc.problems == 0 {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, user.ErrWeakPassword)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestInactivityOf(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(y, m, d int) *time.Time {
		ts := now.AddDate(-y, -m, -d)
		return &ts
	}
	tests := []struct {
		name      string
		role      user.Role
		lastLogin *time.Time
		want      user.Inactivity
	}{
		{name: "recent", role: user.RoleUser, lastLogin: ago(0, 1, 0), want: user.Active},
		{name: "never logged in", role: user.RoleUser, lastLogin: nil, want: user.Active},
		{name: "one year", role: user.RoleUser, lastLogin: ago(1, 0, 1), want: user.Reminder},
		{name: "eighteen months", role: user.RoleAdmin, lastLogin: ago(1, 6, 1), want: user.Warning},
		{name: "two years", role: user.RoleRequested, lastLogin: ago(2, 0, 1), want: user.Expired},
		{name: "owner is exempt", role: user.RoleOwner, lastLogin: ago(5, 0, 0), want: user.Active},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, user.InactivityOf(tc.role, tc.lastLogin, now))
		})
	}
	assert.Equal(t, 10, user.DaysInactive(now.AddDate(0, 0, -10), now))
}
