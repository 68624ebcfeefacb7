package dto

import (
	"time"

	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/google/uuid"
)

// UserCreate represents the data needed to persist a new user.
type UserCreate struct {
	ID               uuid.UUID
	Username         string
	Email            string
	PasswordHash     string
	Role             user.Role
	TwoFactorEnabled bool
	CreatedAt        time.Time
}

// UserUpdate represents the fields of a user that can change. Nil fields are left alone.
type UserUpdate struct {
	Username         *string
	Email            *string
	PasswordHash     *string
	Role             *user.Role
	TwoFactorEnabled *bool
	Photo            *string
	LastLoginAt      *time.Time
}

// UserRead represents a read-optimized view of a user.
type UserRead struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             user.Role  `json:"role"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	Photo            string     `json:"photo,omitempty"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role         user.Role
	Search       string
	ExcludeOwner bool
	Page         int
	PageSize     int
}

// Registration is the input of a self-service sign up.
type Registration struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdate is the input of a profile edit. CurrentPassword is required
// when Username or Email change.
type ProfileUpdate struct {
	Username        *string
	Email           *string
	CurrentPassword string
}

// GlobalStats are the installation-wide counters shown to the owner.
type GlobalStats struct {
	Users            int64 `json:"users"`
	ActiveLast30Days int64 `json:"active_last_30_days"`
	TwoFactorUsers   int64 `json:"two_factor_users"`
	Accounts         int64 `json:"accounts"`
	Movements        int64 `json:"movements"`
}
