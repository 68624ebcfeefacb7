// Package admin provides the moderation operations available to
// administrators and the owner: user listing, role changes, deletions and
// the installation-wide views.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	usersvc "github.com/amirasaad/gastos/pkg/service/user"
	"github.com/google/uuid"
)

// ActiveWindow is how recent a login must be to count as active in the
// global statistics.
const ActiveWindow = 30 * 24 * time.Hour

// Service provides the administrative operations.
type Service struct {
	uow    repository.UnitOfWork
	users  *usersvc.Service
	ledger *ledger.Service
	audit  *audit.Recorder
	logger *slog.Logger
	now    func() time.Time
}

// New creates an admin Service.
func New(
	uow repository.UnitOfWork,
	users *usersvc.Service,
	ledger *ledger.Service,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		users:  users,
		ledger: ledger,
		audit:  recorder,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListUsers pages through users. Administrators never see the owner.
func (s *Service) ListUsers(ctx context.Context, p access.Principal, filter dto.UserFilter) (*dto.Page[*dto.UserRead], error) {
	if err := access.Require(p, access.ListUsers); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", user.ErrInvalidRole, filter.Role)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = audit.DefaultPageSize
	}
	filter.ExcludeOwner = !p.IsOwner()

	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	items, total, err := users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.Page[*dto.UserRead]{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// GetUser returns one user. The owner is invisible to administrators.
func (s *Service) GetUser(ctx context.Context, p access.Principal, id uuid.UUID) (*dto.UserRead, error) {
	if err := access.Require(p, access.ListUsers); err != nil {
		return nil, err
	}
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	u, err := users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == user.RoleOwner && !p.IsOwner() {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// ChangeRole moves a user to role.
func (s *Service) ChangeRole(ctx context.Context, p access.Principal, id uuid.UUID, role user.Role) (*dto.UserRead, error) {
	log := s.logger.With("context", "ChangeRole", "actor_id", p.UserID, "user_id", id, "role", role)
	log.Debug("ChangeRole started")

	if err := access.AssignableRole(p, role); err != nil {
		log.Warn("ChangeRole failed: role not assignable", "error", err)
		return nil, err
	}
	var target *dto.UserRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](uow)
		if err != nil {
			return err
		}
		target, err = users.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := access.CanActOn(p, target.Role); err != nil {
			return err
		}
		return users.Update(ctx, id, dto.UserUpdate{Role: &role})
	})
	if err != nil {
		log.Warn("ChangeRole failed", "error", err)
		return nil, err
	}
	s.audit.Record(ctx, p.UserID, fmt.Sprintf("changed role of %q from %s to %s", target.Username, target.Role, role), p.IP)
	log.Info("ChangeRole successful")
	return s.GetUser(ctx, p, id)
}

// DeleteUser erases another user together with all their data.
func (s *Service) DeleteUser(ctx context.Context, p access.Principal, id uuid.UUID) error {
	log := s.logger.With("context", "DeleteUser", "actor_id", p.UserID, "user_id", id)
	log.Debug("DeleteUser started")

	if err := access.Require(p, access.DeleteUser); err != nil {
		return err
	}
	target, err := s.GetUser(ctx, p, id)
	if err != nil {
		return err
	}
	if err := access.CanActOn(p, target.Role); err != nil {
		log.Warn("DeleteUser failed: not allowed", "error", err)
		return err
	}
	if err := s.users.Erase(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, p.UserID, fmt.Sprintf("deleted user %q", target.Username), p.IP)
	log.Info("DeleteUser successful")
	return nil
}

// DeleteUserMovement removes any user's movement, subject to the
// moderation rules for the movement owner's role.
func (s *Service) DeleteUserMovement(ctx context.Context, p access.Principal, movementID uuid.UUID) error {
	if err := access.Require(p, access.DeleteUserMovements); err != nil {
		return err
	}
	return s.ledger.RemoveMovement(ctx, p, movementID,
		func(ctx context.Context, uow repository.UnitOfWork, mv *dto.MovementRead) error {
			users, err := repository.Get[userrepo.Repository](uow)
			if err != nil {
				return err
			}
			role := user.RoleUser
			owner, err := users.Get(ctx, mv.UserID)
			switch {
			case err == nil:
				role = owner.Role
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			return access.CanDeleteMovementsOf(p, role)
		})
}

// ActivityLog returns one page of the audit log, newest first.
func (s *Service) ActivityLog(ctx context.Context, p access.Principal, page, pageSize int) (*dto.Page[*dto.ActivityRead], error) {
	if err := access.Require(p, access.ViewActivityLog); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, page, pageSize)
}

// GlobalStats counts users, recent logins, two-factor adoption, accounts
// and movements across the installation.
func (s *Service) GlobalStats(ctx context.Context, p access.Principal) (*dto.GlobalStats, error) {
	if err := access.Require(p, access.ViewGlobalStats); err != nil {
		return nil, err
	}
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}

	var stats dto.GlobalStats
	stats.Users, stats.ActiveLast30Days, stats.TwoFactorUsers, err = users.Stats(ctx, s.now().Add(-ActiveWindow))
	if err != nil {
		return nil, err
	}
	if stats.Accounts, err = accounts.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.Movements, err = movements.CountAll(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}
