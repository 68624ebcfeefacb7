package user

import (
	"fmt"

	"github.com/amirasaad/gastos/pkg/domain"
)

// Role is the privilege level of a user. Roles are totally ordered.
type Role string

const (
	// RoleUser is the default role.
	RoleUser Role = "usuario"
	// RoleRequested marks a pending administrator request. It grants nothing beyond RoleUser.
	RoleRequested Role = "solicita"
	// RoleAdmin can list and moderate users.
	RoleAdmin Role = "administrador"
	// RoleOwner is held by exactly one user and can never change.
	RoleOwner Role = "propietario"
)

// ErrInvalidRole is returned when parsing an unknown role name.
var ErrInvalidRole = domain.NewError(domain.ErrValidation, "unknown role")

var ranks = map[Role]int{
	RoleUser:      0,
	RoleRequested: 1,
	RoleAdmin:     2,
	RoleOwner:     3,
}

// ParseRole converts a stored or submitted role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ranks[r]
	return ok
}

// Rank is the position of r in the ordering; unknown roles rank below RoleUser.
func (r Role) Rank() int {
	if rank, ok := ranks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r is min or above.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// IsPrivileged reports whether r is administrador or propietario.
func (r Role) IsPrivileged() bool {
	return r.AtLeast(RoleAdmin)
}

func (r Role) String() string { return string(r) }
