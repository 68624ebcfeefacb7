// Package access centralises the authorisation rules. Every service call
// receives the authenticated Principal explicitly and checks it here.
package access

import (
	"fmt"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/google/uuid"
)

// Via says how a principal authenticated.
type Via string

const (
	// ViaSession is an interactive bearer session.
	ViaSession Via = "session"
	// ViaAPIToken is a long-lived API token.
	ViaAPIToken Via = "api_token"
	// ViaSystem is an internal caller such as the maintenance sweep.
	ViaSystem Via = "system"
)

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID       uuid.UUID
	Role         user.Role
	SessionToken string
	IP           string
	UserAgent    string
	Via          Via
}

// Capability is a privileged operation gated by role.
type Capability string

const (
	ListUsers           Capability = "list_users"
	ChangeRole          Capability = "change_role"
	GrantAdmin          Capability = "grant_admin"
	DeleteUser          Capability = "delete_user"
	DeleteUserMovements Capability = "delete_user_movements"
	ViewActivityLog     Capability = "view_activity_log"
	ViewGlobalStats     Capability = "view_global_stats"
	ManageTags          Capability = "manage_tags"
)

// capabilities maps each capability to the minimum role holding it.
var capabilities = map[Capability]user.Role{
	ListUsers:           user.RoleAdmin,
	ChangeRole:          user.RoleAdmin,
	GrantAdmin:          user.RoleOwner,
	DeleteUser:          user.RoleAdmin,
	DeleteUserMovements: user.RoleAdmin,
	ViewActivityLog:     user.RoleOwner,
	ViewGlobalStats:     user.RoleOwner,
	ManageTags:          user.RoleOwner,
}

var (
	// ErrInsufficientRole is returned when the principal's role is too low.
	ErrInsufficientRole = domain.NewError(domain.ErrForbidden, "insufficient privileges")
	// ErrNotOwner is returned when a principal touches a resource it does not own.
	ErrNotOwner = domain.NewError(domain.ErrForbidden, "resource belongs to another user")
	// ErrRoleNotAssignable is returned when a role cannot be granted by the principal.
	ErrRoleNotAssignable = domain.NewError(domain.ErrForbidden, "role cannot be assigned")
)

// MinimumRole returns the lowest role holding c.
func MinimumRole(c Capability) (user.Role, bool) {
	r, ok := capabilities[c]
	return r, ok
}

// Has reports whether p holds capability c. Unknown capabilities are denied.
func (p Principal) Has(c Capability) bool {
	min, ok := capabilities[c]
	if !ok {
		return false
	}
	return p.Role.AtLeast(min)
}

// IsOwner reports whether p is the propietario.
func (p Principal) IsOwner() bool {
	return p.Role == user.RoleOwner
}

// Require fails with ErrInsufficientRole unless p holds c.
func Require(p Principal, c Capability) error {
	if !p.Has(c) {
		return fmt.Errorf("%w: %s requires %s", ErrInsufficientRole, c, capabilities[c])
	}
	return nil
}

// RequireOwner fails with ErrNotOwner unless ownerID is p's own user.
func RequireOwner(p Principal, ownerID uuid.UUID) error {
	if p.UserID == uuid.Nil || p.UserID != ownerID {
		return ErrNotOwner
	}
	return nil
}

// CanActOn checks that actor may moderate target (change role or delete).
// Nobody acts on the owner; administrators only act on roles below their own.
func CanActOn(actor Principal, target user.Role) error {
	if target == user.RoleOwner {
		return user.ErrOwnerImmutable
	}
	if actor.IsOwner() {
		return nil
	}
	if !actor.Role.IsPrivileged() {
		return ErrInsufficientRole
	}
	if target.AtLeast(user.RoleAdmin) {
		return fmt.Errorf("%w: administrators cannot act on other administrators", ErrInsufficientRole)
	}
	return nil
}

// CanDeleteMovementsOf checks that actor may delete movements owned by a
// user with the target role.
func CanDeleteMovementsOf(actor Principal, target user.Role) error {
	if err := Require(actor, DeleteUserMovements); err != nil {
		return err
	}
	if actor.IsOwner() {
		return nil
	}
	if target.AtLeast(user.RoleAdmin) {
		return fmt.Errorf("%w: administrators cannot delete data of %s users", ErrInsufficientRole, target)
	}
	return nil
}

// AssignableRole checks that actor may move a user to role r.
func AssignableRole(actor Principal, r user.Role) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %q", user.ErrInvalidRole, r)
	}
	if r == user.RoleOwner {
		return user.ErrOwnerImmutable
	}
	if err := Require(actor, ChangeRole); err != nil {
		return err
	}
	if r == user.RoleAdmin {
		if err := Require(actor, GrantAdmin); err != nil {
			return fmt.Errorf("%w: only the owner grants %s", ErrRoleNotAssignable, r)
		}
	}
	return nil
}
