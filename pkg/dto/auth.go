package dto

import (
	"time"

	"github.com/google/uuid"
)

// ClientMeta describes where a request came from.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// LoginResult is either an opened session or a pending second-factor
// challenge.
type LoginResult struct {
	Token             string     `json:"token,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	TwoFactorRequired bool       `json:"two_factor_required"`
	Challenge         string     `json:"challenge,omitempty"`
	User              *UserRead  `json:"user,omitempty"`
}

// SessionRead is a session as shown to its owner. The token is never listed.
type SessionRead struct {
	ID         uuid.UUID `json:"id"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Current    bool      `json:"current"`
}

// APITokenRead is an API token as shown to its owner. Token is only set in
// the response that creates it.
type APITokenRead struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Token      string     `json:"token,omitempty"`
	Active     bool       `json:"active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
