// Package ledger records movements against accounts and keeps every
// account balance equal to the signed sum of its movements.
//
// Each mutation reads the account with a row lock, adjusts the balance in
// memory under the overdraft policy and writes both the balance and the
// movement in the same transaction. Attachments are stored before the
// transaction starts and removed again if it rolls back.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service provides the movement operations.
type Service struct {
	uow    repository.UnitOfWork
	store  storage.Store
	audit  *audit.Recorder
	policy account.Policy
	logger *slog.Logger
}

// New creates a ledger Service.
func New(
	uow repository.UnitOfWork,
	store storage.Store,
	recorder *audit.Recorder,
	policy account.Policy,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, store: store, audit: recorder, policy: policy, logger: logger}
}

// Policy returns the overdraft policy the ledger enforces.
func (s *Service) Policy() account.Policy {
	return s.policy
}

// CreateMovement records a movement on one of p's accounts.
func (s *Service) CreateMovement(
	ctx context.Context,
	p access.Principal,
	cmd dto.MovementCommand,
) (*dto.MovementRead, error) {
	log := s.logger.With("context", "CreateMovement", "user_id", p.UserID, "account_id", cmd.AccountID)
	log.Debug("CreateMovement started", "type", cmd.Type, "amount", cmd.Amount.String())

	m, acct, err := s.create(ctx, p.UserID, cmd)
	if err != nil {
		log.Error("CreateMovement failed", "error", err)
		return nil, err
	}
	s.audit.Record(ctx, p.UserID, fmt.Sprintf("created %s of %s on account %q", m.Type, money.Format(m.Amount), acct.Name), p.IP)
	log.Info("CreateMovement successful", "movement_id", m.ID)
	return s.read(ctx, m.ID)
}

// ReplayMovement records a movement for ownerID on behalf of an import. It
// enforces the same rules as CreateMovement but writes no activity entry.
func (s *Service) ReplayMovement(
	ctx context.Context,
	ownerID uuid.UUID,
	cmd dto.MovementCommand,
) (*dto.MovementRead, error) {
	m, _, err := s.create(ctx, ownerID, cmd)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, m.ID)
}

func (s *Service) create(
	ctx context.Context,
	ownerID uuid.UUID,
	cmd dto.MovementCommand,
) (*movement.Movement, *account.Account, error) {
	m, err := movement.New(cmd.AccountID, cmd.Type, cmd.Amount, cmd.Date, cmd.Note)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Attachment != nil {
		name, err := s.store.Save(ctx, cmd.Attachment.Data, cmd.Attachment.Name)
		if err != nil {
			return nil, nil, err
		}
		m.Attachment = name
	}

	var acct *account.Account
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, movements, err := repos(uow)
		if err != nil {
			return err
		}
		acct, err = lockOwned(ctx, accounts, m.AccountID, ownerID)
		if err != nil {
			return err
		}
		if err := acct.Adjust(m.Signed(), s.policy); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, acct.ID, acct.Balance); err != nil {
			return err
		}
		return movements.Create(ctx, dto.MovementCreate{
			ID:         m.ID,
			AccountID:  m.AccountID,
			Type:       m.Type,
			Amount:     m.Amount,
			Note:       m.Note,
			Date:       m.Date,
			Attachment: m.Attachment,
			CreatedAt:  m.CreatedAt,
		})
	})
	if err != nil {
		s.discard(ctx, m.Attachment)
		return nil, nil, err
	}
	return m, acct, nil
}

// UpdateMovement edits a movement of p. When type or amount change, the old
// contribution is reversed and the new one applied in a single balance write.
func (s *Service) UpdateMovement(
	ctx context.Context,
	p access.Principal,
	id uuid.UUID,
	cmd dto.MovementUpdateCommand,
) (*dto.MovementRead, error) {
	log := s.logger.With("context", "UpdateMovement", "user_id", p.UserID, "movement_id", id)
	log.Debug("UpdateMovement started")

	update, err := validateUpdate(cmd)
	if err != nil {
		log.Error("UpdateMovement failed: validation error", "error", err)
		return nil, err
	}

	var stored string
	if cmd.Attachment != nil {
		stored, err = s.store.Save(ctx, cmd.Attachment.Data, cmd.Attachment.Name)
		if err != nil {
			log.Error("UpdateMovement failed: attachment rejected", "error", err)
			return nil, err
		}
		update.Attachment = &stored
	} else if cmd.RemoveAttachment {
		empty := ""
		update.Attachment = &empty
	}

	var previous string
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, movements, err := repos(uow)
		if err != nil {
			return err
		}
		acct, current, err := lockMovement(ctx, accounts, movements, id)
		if err != nil {
			return err
		}
		if current.UserID != p.UserID {
			return movement.ErrMovementNotFound
		}
		previous = current.Attachment

		typ, amount := current.Type, current.Amount
		if update.Type != nil {
			typ = *update.Type
		}
		if update.Amount != nil {
			amount = *update.Amount
		}
		delta := movement.Contribution(typ, amount).Sub(current.Entity().Signed())
		if !delta.IsZero() {
			if err := acct.Adjust(delta, s.policy); err != nil {
				return err
			}
			if err := accounts.UpdateBalance(ctx, acct.ID, acct.Balance); err != nil {
				return err
			}
		}
		return movements.Update(ctx, id, update)
	})
	if err != nil {
		s.discard(ctx, stored)
		log.Error("UpdateMovement failed", "error", err)
		return nil, err
	}
	if update.Attachment != nil && previous != "" && previous != *update.Attachment {
		s.discard(ctx, previous)
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("updated movement %s", id), p.IP)
	log.Info("UpdateMovement successful")
	return s.read(ctx, id)
}

// DeleteMovement removes a movement of p and reverses its contribution.
func (s *Service) DeleteMovement(ctx context.Context, p access.Principal, id uuid.UUID) error {
	return s.RemoveMovement(ctx, p, id, func(_ context.Context, _ repository.UnitOfWork, mv *dto.MovementRead) error {
		if mv.UserID != p.UserID {
			return movement.ErrMovementNotFound
		}
		return nil
	})
}

// Authorizer decides inside the deleting transaction whether the movement
// may be removed.
type Authorizer func(ctx context.Context, uow repository.UnitOfWork, mv *dto.MovementRead) error

// RemoveMovement deletes a movement once authorize accepts it. A movement
// whose account is missing is an integrity violation and nothing is changed.
func (s *Service) RemoveMovement(
	ctx context.Context,
	p access.Principal,
	id uuid.UUID,
	authorize Authorizer,
) error {
	log := s.logger.With("context", "DeleteMovement", "user_id", p.UserID, "movement_id", id)
	log.Debug("DeleteMovement started")

	var removed *dto.MovementRead
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, movements, err := repos(uow)
		if err != nil {
			return err
		}
		acct, mv, err := lockMovement(ctx, accounts, movements, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, uow, mv); err != nil {
			return err
		}
		if err := acct.Adjust(mv.Entity().Signed().Neg(), s.policy); err != nil {
			return err
		}
		if err := accounts.UpdateBalance(ctx, acct.ID, acct.Balance); err != nil {
			return err
		}
		if err := movements.Delete(ctx, id); err != nil {
			return err
		}
		removed = mv
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrIntegrity) {
			log.Error("DeleteMovement failed: integrity violation", "error", err)
		} else {
			log.Warn("DeleteMovement failed", "error", err)
		}
		return err
	}
	s.discard(ctx, removed.Attachment)

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("deleted %s of %s from account %q", removed.Type, money.Format(removed.Amount), removed.AccountName), p.IP)
	log.Info("DeleteMovement successful")
	return nil
}

func validateUpdate(cmd dto.MovementUpdateCommand) (dto.MovementUpdate, error) {
	var update dto.MovementUpdate
	if cmd.Type != nil {
		t, err := movement.ParseType(string(*cmd.Type))
		if err != nil {
			return update, err
		}
		update.Type = &t
	}
	if cmd.Amount != nil {
		amount, err := movement.ValidateAmount(*cmd.Amount)
		if err != nil {
			return update, err
		}
		update.Amount = &amount
	}
	if cmd.Note != nil {
		if err := movement.ValidateNote(*cmd.Note); err != nil {
			return update, err
		}
		update.Note = cmd.Note
	}
	if cmd.Date != nil && !cmd.Date.IsZero() {
		d := cmd.Date.UTC()
		update.Date = &d
	}
	return update, nil
}

func repos(uow repository.UnitOfWork) (accountrepo.Repository, movementrepo.Repository, error) {
	accounts, err := repository.Get[accountrepo.Repository](uow)
	if err != nil {
		return nil, nil, err
	}
	movements, err := repository.Get[movementrepo.Repository](uow)
	if err != nil {
		return nil, nil, err
	}
	return accounts, movements, nil
}

// lockOwned locks an account and hides accounts of other users.
func lockOwned(
	ctx context.Context,
	accounts accountrepo.Repository,
	id, ownerID uuid.UUID,
) (*account.Account, error) {
	a, err := accounts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != ownerID {
		return nil, account.ErrAccountNotFound
	}
	return a.Entity(), nil
}

// lockMovement locks the account of a movement and reads the movement again
// under that lock. Every writer of a movement holds its account lock, so the
// returned row cannot change until the transaction ends.
func lockMovement(
	ctx context.Context,
	accounts accountrepo.Repository,
	movements movementrepo.Repository,
	id uuid.UUID,
) (*account.Account, *dto.MovementRead, error) {
	mv, err := movements.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	a, err := accounts.GetForUpdate(ctx, mv.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: movement %s, account %s", movement.ErrOrphaned, mv.ID, mv.AccountID)
	}
	if err != nil {
		return nil, nil, err
	}
	if mv, err = movements.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	return a.Entity(), mv, nil
}

// discard removes a stored file, logging failures.
func (s *Service) discard(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.store.Delete(ctx, name); err != nil {
		s.logger.Warn("attachment cleanup failed", "name", name, "error", err)
	}
}

func (s *Service) read(ctx context.Context, id uuid.UUID) (*dto.MovementRead, error) {
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return movements.Get(ctx, id)
}

// signedSum is the balance implied by a list of movements.
func signedSum(items []*dto.MovementRead) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range items {
		sum = sum.Add(m.Entity().Signed())
	}
	return sum
}
