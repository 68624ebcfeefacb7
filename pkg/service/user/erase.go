package user

import (
	"context"

	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	activityrepo "github.com/amirasaad/gastos/pkg/repository/activity"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/google/uuid"
)

// Erase deletes a user and everything they own in one transaction: movements,
// accounts, sessions, codes, tokens and the user row. Their activity log
// entries stay, detached from the account. Stored files are removed after
// the commit. No authorisation is checked here.
func (s *Service) Erase(ctx context.Context, id uuid.UUID) error {
	log := s.logger.With("context", "EraseUser", "user_id", id)
	log.Debug("EraseUser started")

	var files []string
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](uow)
		if err != nil {
			return err
		}
		u, err := users.Get(ctx, id)
		if err != nil {
			return err
		}
		movements, err := repository.Get[movementrepo.Repository](uow)
		if err != nil {
			return err
		}
		files, err = movements.Attachments(ctx, id)
		if err != nil {
			return err
		}
		if u.Photo != "" {
			files = append(files, u.Photo)
		}
		if err := movements.DeleteByUser(ctx, id); err != nil {
			return err
		}
		accounts, err := repository.Get[accountrepo.Repository](uow)
		if err != nil {
			return err
		}
		if err := accounts.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := eraseCredentials(ctx, uow, id); err != nil {
			return err
		}
		activity, err := repository.Get[activityrepo.Repository](uow)
		if err != nil {
			return err
		}
		if err := activity.Detach(ctx, id); err != nil {
			return err
		}
		return users.Delete(ctx, id)
	})
	if err != nil {
		log.Error("EraseUser failed", "error", err)
		return err
	}

	for _, name := range files {
		if err := s.store.Delete(ctx, name); err != nil {
			log.Warn("stored file not removed", "file", name, "error", err)
		}
	}
	log.Info("EraseUser successful", "files", len(files))
	return nil
}

func eraseCredentials(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) error {
	sessions, err := repository.Get[sessionrepo.Repository](uow)
	if err != nil {
		return err
	}
	if _, err := sessions.DeleteAllByUser(ctx, id, ""); err != nil {
		return err
	}
	codes, err := repository.Get[credentialrepo.TwoFactorRepository](uow)
	if err != nil {
		return err
	}
	if err := codes.DeleteByUser(ctx, id); err != nil {
		return err
	}
	resets, err := repository.Get[credentialrepo.ResetTokenRepository](uow)
	if err != nil {
		return err
	}
	if err := resets.DeleteByUser(ctx, id); err != nil {
		return err
	}
	tokens, err := repository.Get[credentialrepo.APITokenRepository](uow)
	if err != nil {
		return err
	}
	return tokens.DeleteByUser(ctx, id)
}
