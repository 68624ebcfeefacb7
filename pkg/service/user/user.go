// Package user provides the self-service operations on a user's own
// profile, and the account erasure shared with administration and the
// inactivity sweep.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/storage"
	"github.com/amirasaad/gastos/pkg/utils"
	"github.com/google/uuid"
)

// Service provides business logic for the user's own profile.
type Service struct {
	uow    repository.UnitOfWork
	store  storage.Store
	audit  *audit.Recorder
	logger *slog.Logger
}

// New creates a new Service.
func New(
	uow repository.UnitOfWork,
	store storage.Store,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, store: store, audit: recorder, logger: logger}
}

// Profile returns p's own user.
func (s *Service) Profile(ctx context.Context, p access.Principal) (*dto.UserRead, error) {
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return users.Get(ctx, p.UserID)
}

// UpdateProfile changes p's username or email. Either change requires the
// current password.
func (s *Service) UpdateProfile(ctx context.Context, p access.Principal, in dto.ProfileUpdate) (*dto.UserRead, error) {
	log := s.logger.With("context", "UpdateProfile", "user_id", p.UserID)
	log.Debug("UpdateProfile started")

	current, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	var update dto.UserUpdate
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := user.ValidateUsername(name); err != nil {
			return nil, err
		}
		if name != current.Username {
			update.Username = &name
		}
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := user.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != current.Email {
			update.Email = &email
		}
	}
	if update.Username == nil && update.Email == nil {
		return current, nil
	}
	if !utils.CheckPasswordHash(in.CurrentPassword, current.PasswordHash) {
		log.Warn("UpdateProfile failed: wrong current password")
		return nil, auth.ErrInvalidCredentials
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](uow)
		if err != nil {
			return err
		}
		if update.Username != nil {
			taken, err := users.ExistsByUsername(ctx, *update.Username)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %q", user.ErrUsernameTaken, *update.Username)
			}
		}
		if update.Email != nil {
			taken, err := users.ExistsByEmail(ctx, *update.Email)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %q", user.ErrEmailTaken, *update.Email)
			}
		}
		return users.Update(ctx, p.UserID, update)
	})
	if err != nil {
		log.Warn("UpdateProfile failed", "error", err)
		return nil, err
	}
	s.audit.Record(ctx, p.UserID, "updated profile", p.IP)
	log.Info("UpdateProfile successful")
	return s.Profile(ctx, p)
}

// SetTwoFactor turns the emailed login code on or off for p.
func (s *Service) SetTwoFactor(ctx context.Context, p access.Principal, enabled bool) error {
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return err
	}
	if err := users.Update(ctx, p.UserID, dto.UserUpdate{TwoFactorEnabled: &enabled}); err != nil {
		return err
	}
	action := "disabled two-factor authentication"
	if enabled {
		action = "enabled two-factor authentication"
	}
	s.audit.Record(ctx, p.UserID, action, p.IP)
	return nil
}

// RequestAdmin marks p as asking for the administrator role.
func (s *Service) RequestAdmin(ctx context.Context, p access.Principal) error {
	log := s.logger.With("context", "RequestAdmin", "user_id", p.UserID)
	log.Debug("RequestAdmin started")

	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](uow)
		if err != nil {
			return err
		}
		u, err := users.Get(ctx, p.UserID)
		if err != nil {
			return err
		}
		switch {
		case u.Role == user.RoleRequested:
			return user.ErrAlreadyRequested
		case u.Role.IsPrivileged():
			return user.ErrAlreadyAdmin
		}
		role := user.RoleRequested
		return users.Update(ctx, p.UserID, dto.UserUpdate{Role: &role})
	})
	if err != nil {
		log.Warn("RequestAdmin failed", "error", err)
		return err
	}
	s.audit.Record(ctx, p.UserID, "requested administrator role", p.IP)
	log.Info("RequestAdmin successful")
	return nil
}

// SetPhoto stores an image as p's profile photo and drops the previous one.
func (s *Service) SetPhoto(ctx context.Context, p access.Principal, upload dto.Upload) (*dto.UserRead, error) {
	log := s.logger.With("context", "SetPhoto", "user_id", p.UserID)
	log.Debug("SetPhoto started")

	if len(upload.Data) == 0 {
		return nil, attachment.ErrEmpty
	}
	if mime := http.DetectContentType(upload.Data); !attachment.IsImage(mime) {
		return nil, fmt.Errorf("%w: profile photos must be images", attachment.ErrAttachmentRejected)
	}
	current, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	name, err := s.store.Save(ctx, upload.Data, upload.Name)
	if err != nil {
		log.Warn("SetPhoto failed: upload rejected", "error", err)
		return nil, err
	}
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	if err := users.Update(ctx, p.UserID, dto.UserUpdate{Photo: &name}); err != nil {
		log.Error("SetPhoto failed", "error", err)
		if derr := s.store.Delete(ctx, name); derr != nil {
			log.Warn("orphaned photo not removed", "file", name, "error", derr)
		}
		return nil, err
	}
	if current.Photo != "" {
		if err := s.store.Delete(ctx, current.Photo); err != nil {
			log.Warn("previous photo not removed", "file", current.Photo, "error", err)
		}
	}
	log.Info("SetPhoto successful", "file", name)
	return s.Profile(ctx, p)
}

// Photo returns p's profile photo and its MIME type.
func (s *Service) Photo(ctx context.Context, p access.Principal) ([]byte, string, error) {
	u, err := s.Profile(ctx, p)
	if err != nil {
		return nil, "", err
	}
	if u.Photo == "" {
		return nil, "", attachment.ErrAttachmentNotFound
	}
	return s.store.Open(ctx, u.Photo)
}

// DeleteSelf erases p after confirming the password. The owner cannot
// delete their own account.
func (s *Service) DeleteSelf(ctx context.Context, p access.Principal, password string) error {
	log := s.logger.With("context", "DeleteSelf", "user_id", p.UserID)
	log.Debug("DeleteSelf started")

	u, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	if u.Role == user.RoleOwner {
		return user.ErrOwnerImmutable
	}
	if !utils.CheckPasswordHash(password, u.PasswordHash) {
		log.Warn("DeleteSelf failed: wrong password")
		return auth.ErrInvalidCredentials
	}
	if err := s.Erase(ctx, u.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, uuid.Nil, fmt.Sprintf("user %q deleted their account", u.Username), p.IP)
	log.Info("DeleteSelf successful")
	return nil
}
