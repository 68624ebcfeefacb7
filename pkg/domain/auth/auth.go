// Package auth holds the credential records issued to users: sessions,
// second-factor codes, password reset tokens, API tokens and the activity
// log entries written around them.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/google/uuid"
)

// TokenBytes is the entropy of session, reset and API tokens.
const TokenBytes = 32

// DefaultAPITokenName is used when an API token is created without name.
const DefaultAPITokenName = "Bot Telegram"

var (
	// ErrInvalidCredentials is returned for a wrong username or password.
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "invalid username or password")
	// ErrUnauthenticated is returned when no usable credential is presented.
	ErrUnauthenticated = domain.NewError(domain.ErrUnauthorized, "authentication required")
	// ErrSessionExpired is returned for unknown or expired session tokens.
	ErrSessionExpired = domain.NewError(domain.ErrUnauthorized, "session expired")
	// ErrInvalidCode is returned for wrong, used or expired second-factor codes.
	ErrInvalidCode = domain.NewError(domain.ErrUnauthorized, "invalid or expired verification code")
	// ErrInvalidChallenge is returned when the login challenge cannot be verified.
	ErrInvalidChallenge = domain.NewError(domain.ErrUnauthorized, "invalid or expired login challenge")
	// ErrInvalidToken is returned for wrong, used or expired reset tokens.
	ErrInvalidToken = domain.NewError(domain.ErrValidation, "invalid or expired token")
	// ErrSessionNotFound is returned when a session cannot be found.
	ErrSessionNotFound = domain.NewError(domain.ErrNotFound, "session not found")
	// ErrAPITokenNotFound is returned when an API token cannot be found.
	ErrAPITokenNotFound = domain.NewError(domain.ErrNotFound, "api token not found")
	// ErrInvalidTokenName is returned for oversized API token names.
	ErrInvalidTokenName = domain.NewError(domain.ErrValidation, "token name must be at most 100 characters")
)

// Session is a sliding bearer session.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Token      string
	IP         string
	UserAgent  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TwoFactorCode is a single-use numeric login code.
type TwoFactorCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Code      string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is no longer valid at now.
func (c *TwoFactorCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ResetToken is a single-use password reset secret.
type ResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (r *ResetToken) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// APIToken is a long-lived credential for non-interactive clients.
type APIToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Token      string
	Active     bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// ActivityEntry is one line of the audit log.
type ActivityEntry struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Action    string
	IP        string
	CreatedAt time.Time
}

// GenerateToken returns a hex encoded random token of TokenBytes bytes.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateNumericCode returns a uniformly random decimal code with the given
// number of digits, left padded with zeros.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("generate code: invalid length %d", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
