package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/google/uuid"
)

const (
	// MaxUsernameLength is the longest accepted username.
	MaxUsernameLength = 50
	// MaxEmailLength is the longest accepted email address.
	MaxEmailLength = 200
)

var (
	// ErrUserNotFound is returned when a user cannot be found in the
	// repository.
	ErrUserNotFound = domain.NewError(domain.ErrNotFound, "user not found")
	// ErrInvalidUsername is returned for empty or oversized usernames.
	ErrInvalidUsername = domain.NewError(domain.ErrValidation, "username must be between 1 and 50 characters")
	// ErrInvalidEmail is returned for malformed or oversized email addresses.
	ErrInvalidEmail = domain.NewError(domain.ErrValidation, "email address is not valid")
	// ErrUsernameTaken is returned when the username already belongs to another user.
	ErrUsernameTaken = domain.NewError(domain.ErrConflict, "username already in use")
	// ErrEmailTaken is returned when the email already belongs to another user.
	ErrEmailTaken = domain.NewError(domain.ErrConflict, "email already in use")
	// ErrOwnerImmutable is returned on any attempt to reassign, demote or delete the owner.
	ErrOwnerImmutable = domain.NewError(domain.ErrForbidden, "the owner cannot be modified or deleted")
	// ErrAlreadyRequested is returned when an admin request is already pending.
	ErrAlreadyRequested = domain.NewError(domain.ErrConflict, "administrator role already requested")
	// ErrAlreadyAdmin is returned when an administrator asks for the administrator role.
	ErrAlreadyAdmin = domain.NewError(domain.ErrConflict, "user already has administrator privileges")
	// ErrOwnerExists is returned when bootstrapping a second owner.
	ErrOwnerExists = domain.NewError(domain.ErrConflict, "an owner already exists")
)

// User represents a user in the system.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	PasswordHash     string
	Role             Role
	TwoFactorEnabled bool
	Photo            string
	LastLoginAt      *time.Time
	CreatedAt        time.Time
}

// New creates a user with the default role. The password must already be hashed.
func New(username, email, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ValidateUsername checks the username length.
func ValidateUsername(username string) error {
	n := len([]rune(username))
	if n == 0 || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail checks the email is a bare address of acceptable length.
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}
