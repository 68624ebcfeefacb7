package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/utils"
	"github.com/google/uuid"
)

// RequestPasswordReset mails a single-use reset link to the owner of email.
// It reports success for unknown addresses so callers cannot test for
// registered emails.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, meta dto.ClientMeta) error {
	log := s.logger.With("context", "RequestPasswordReset")
	log.Debug("RequestPasswordReset started")

	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return err
	}
	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("RequestPasswordReset ignored: unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	now := s.now()
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tokens, err := repository.Get[credentialrepo.ResetTokenRepository](uow)
		if err != nil {
			return err
		}
		if err := tokens.DeleteUnused(ctx, u.ID); err != nil {
			return err
		}
		return tokens.Create(ctx, &auth.ResetToken{
			ID:        uuid.New(),
			UserID:    u.ID,
			Token:     token,
			ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
			CreatedAt: now,
		})
	})
	if err != nil {
		log.Error("RequestPasswordReset failed", "error", err)
		return err
	}

	link := s.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Follow this link to choose a new password:\n\n%s\n\nThe link expires in %d minutes.",
		link, int(s.cfg.ResetTokenTTL.Minutes()))
	if err := s.mailer.Send(ctx, u.Email, "Password reset", body); err != nil {
		log.Error("reset link not mailed", "user_id", u.ID, "error", err)
	}
	s.audit.Record(ctx, u.ID, "requested a password reset", meta.IP)
	log.Info("RequestPasswordReset successful", "user_id", u.ID)
	return nil
}

// ResetPassword consumes a reset token and sets a new password. Every
// session of the user ends.
func (s *Service) ResetPassword(ctx context.Context, token, password string, meta dto.ClientMeta) error {
	log := s.logger.With("context", "ResetPassword")
	log.Debug("ResetPassword started")

	if err := user.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	var userID uuid.UUID
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tokens, err := repository.Get[credentialrepo.ResetTokenRepository](uow)
		if err != nil {
			return err
		}
		t, err := tokens.FindValid(ctx, token, s.now())
		if err != nil {
			return err
		}
		userID = t.UserID
		if err := tokens.MarkUsed(ctx, t.ID); err != nil {
			return err
		}
		return s.setPassword(ctx, uow, userID, hash, "")
	})
	if err != nil {
		log.Warn("ResetPassword failed", "error", err)
		return err
	}
	s.audit.Record(ctx, userID, "reset password", meta.IP)
	log.Info("ResetPassword successful", "user_id", userID)
	return nil
}

// ChangePassword replaces p's password after checking the current one.
// Every other session of p ends; the one in use survives.
func (s *Service) ChangePassword(ctx context.Context, p access.Principal, current, password string) error {
	log := s.logger.With("context", "ChangePassword", "user_id", p.UserID)
	log.Debug("ChangePassword started")

	if err := user.ValidatePassword(password); err != nil {
		return err
	}
	u, err := s.user(ctx, p.UserID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(current, u.PasswordHash) {
		log.Warn("ChangePassword failed: wrong current password")
		return auth.ErrInvalidCredentials
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		return s.setPassword(ctx, uow, p.UserID, hash, p.SessionToken)
	})
	if err != nil {
		log.Error("ChangePassword failed", "error", err)
		return err
	}
	s.audit.Record(ctx, p.UserID, "changed password", p.IP)
	log.Info("ChangePassword successful")
	return nil
}

// CheckPassword fails with ErrInvalidCredentials unless password is the
// user's current password.
func (s *Service) CheckPassword(ctx context.Context, userID uuid.UUID, password string) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(password, u.PasswordHash) {
		return auth.ErrInvalidCredentials
	}
	return nil
}

func (s *Service) setPassword(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	hash, keepSession string,
) error {
	users, err := repository.Get[userrepo.Repository](uow)
	if err != nil {
		return err
	}
	sessions, err := repository.Get[sessionrepo.Repository](uow)
	if err != nil {
		return err
	}
	if err := users.Update(ctx, userID, dto.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	_, err = sessions.DeleteAllByUser(ctx, userID, keepSession)
	return err
}
