// Package account provides the account operations of the ledger: creating,
// editing, searching and summarising the accounts a user owns.
//
// Balances are never written here. An opening balance given at creation is
// recorded through the ledger as the account's first movement, so the
// balance keeps matching the movement history.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/domain/tag"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	tagrepo "github.com/amirasaad/gastos/pkg/repository/tag"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpeningBalanceNote marks the movement that carries an opening balance.
const OpeningBalanceNote = "opening balance"

// Service provides business logic for account operations.
type Service struct {
	uow    repository.UnitOfWork
	ledger *ledger.Service
	audit  *audit.Recorder
	logger *slog.Logger
}

// New creates a new account Service.
func New(uow repository.UnitOfWork, ledger *ledger.Service, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{uow: uow, ledger: ledger, audit: recorder, logger: logger}
}

// Create opens an account for p.
func (s *Service) Create(ctx context.Context, p access.Principal, cmd dto.AccountCommand) (*dto.AccountRead, error) {
	log := s.logger.With("context", "CreateAccount", "user_id", p.UserID, "name", cmd.Name)
	log.Debug("CreateAccount started")

	a, err := account.New().
		WithUserID(p.UserID).
		WithName(cmd.Name).
		WithKind(cmd.Kind).
		WithCurrency(cmd.Currency).
		WithColor(cmd.Color).
		WithDescription(cmd.Description).
		WithTag(cmd.TagID).
		WithGoal(cmd.Goal).
		Build()
	if err != nil {
		log.Error("CreateAccount failed: domain error", "error", err)
		return nil, err
	}
	opening := money.Round(cmd.OpeningBalance)
	trial := *a
	if err := trial.Adjust(opening, s.ledger.Policy()); err != nil {
		log.Error("CreateAccount failed: opening balance rejected", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := repository.Get[accountrepo.Repository](uow)
		if err != nil {
			return err
		}
		if err := checkName(ctx, accounts, p.UserID, a.Name, uuid.Nil); err != nil {
			return err
		}
		if err := checkTag(ctx, uow, a.TagID); err != nil {
			return err
		}
		return accounts.Create(ctx, dto.AccountCreate{
			ID:          a.ID,
			UserID:      a.UserID,
			Name:        a.Name,
			Kind:        a.Kind,
			Balance:     a.Balance,
			Currency:    a.Currency,
			TagID:       a.TagID,
			Color:       a.Color,
			Description: a.Description,
			Goal:        a.Goal,
			CreatedAt:   a.CreatedAt,
		})
	})
	if err != nil {
		log.Error("CreateAccount failed", "error", err)
		return nil, err
	}

	if !opening.IsZero() {
		if err := s.recordOpening(ctx, p, a, opening); err != nil {
			log.Error("CreateAccount failed: opening balance not recorded", "error", err)
			return nil, err
		}
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("created account %q", a.Name), p.IP)
	log.Info("CreateAccount successful", "account_id", a.ID)
	return s.Get(ctx, p, a.ID)
}

func (s *Service) recordOpening(ctx context.Context, p access.Principal, a *account.Account, amount decimal.Decimal) error {
	typ := movement.TypeIncome
	if amount.IsNegative() {
		typ = movement.TypeWithdrawal
		amount = amount.Neg()
	}
	_, err := s.ledger.ReplayMovement(ctx, p.UserID, dto.MovementCommand{
		AccountID: a.ID,
		Type:      typ,
		Amount:    amount,
		Date:      a.CreatedAt,
		Note:      OpeningBalanceNote,
	})
	if err == nil {
		return nil
	}
	accounts, rerr := repository.Get[accountrepo.Repository](s.uow)
	if rerr == nil {
		rerr = accounts.Delete(ctx, a.ID)
	}
	if rerr != nil {
		s.logger.Error("rollback of account without opening balance failed", "account_id", a.ID, "error", rerr)
	}
	return err
}

// Get returns one account of p.
func (s *Service) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*dto.AccountRead, error) {
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return owned(ctx, accounts, p, id)
}

// List returns p's accounts, optionally narrowed by kind or tag.
func (s *Service) List(ctx context.Context, p access.Principal, filter dto.AccountFilter) ([]*dto.AccountRead, error) {
	if filter.Kind != "" {
		if _, err := account.ParseKind(string(filter.Kind)); err != nil {
			return nil, err
		}
	}
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return accounts.ListByUser(ctx, p.UserID, filter)
}

// Search finds p's accounts whose name or description contains query.
func (s *Service) Search(ctx context.Context, p access.Principal, query string) ([]*dto.AccountRead, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, p, dto.AccountFilter{})
	}
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return accounts.Search(ctx, p.UserID, query)
}

// Summary aggregates p's accounts.
func (s *Service) Summary(ctx context.Context, p access.Principal) (*dto.AccountSummary, error) {
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return accounts.Summary(ctx, p.UserID)
}

// Update edits one account of p. The balance and the owner never change here.
func (s *Service) Update(
	ctx context.Context,
	p access.Principal,
	id uuid.UUID,
	update dto.AccountUpdate,
) (*dto.AccountRead, error) {
	log := s.logger.With("context", "UpdateAccount", "user_id", p.UserID, "account_id", id)
	log.Debug("UpdateAccount started")

	if err := validateUpdate(&update); err != nil {
		log.Error("UpdateAccount failed: validation error", "error", err)
		return nil, err
	}

	var name string
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := repository.Get[accountrepo.Repository](uow)
		if err != nil {
			return err
		}
		current, err := owned(ctx, accounts, p, id)
		if err != nil {
			return err
		}
		name = current.Name
		if update.Name != nil && *update.Name != current.Name {
			if err := checkName(ctx, accounts, p.UserID, *update.Name, id); err != nil {
				return err
			}
		}
		if update.Kind != nil && *update.Kind != current.Kind && current.Balance.IsNegative() &&
			!s.ledger.Policy().AllowsNegative(*update.Kind) {
			return fmt.Errorf("%w: a negative balance is not allowed for %s accounts",
				account.ErrInsufficientFunds, *update.Kind)
		}
		if err := checkTag(ctx, uow, update.TagID); err != nil {
			return err
		}
		return accounts.Update(ctx, id, update)
	})
	if err != nil {
		log.Error("UpdateAccount failed", "error", err)
		return nil, err
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("updated account %q", name), p.IP)
	log.Info("UpdateAccount successful")
	return s.Get(ctx, p, id)
}

// Delete removes an account of p that has no movements.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	log := s.logger.With("context", "DeleteAccount", "user_id", p.UserID, "account_id", id)
	log.Debug("DeleteAccount started")

	var name string
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := repository.Get[accountrepo.Repository](uow)
		if err != nil {
			return err
		}
		movements, err := repository.Get[movementrepo.Repository](uow)
		if err != nil {
			return err
		}
		a, err := owned(ctx, accounts, p, id)
		if err != nil {
			return err
		}
		name = a.Name
		n, err := movements.CountByAccount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d movements", account.ErrHasMovements, n)
		}
		return accounts.Delete(ctx, id)
	})
	if err != nil {
		log.Error("DeleteAccount failed", "error", err)
		return err
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("deleted account %q", name), p.IP)
	log.Info("DeleteAccount successful")
	return nil
}

func validateUpdate(update *dto.AccountUpdate) error {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := account.ValidateName(name); err != nil {
			return err
		}
		update.Name = &name
	}
	if update.Kind != nil {
		if _, err := account.ParseKind(string(*update.Kind)); err != nil {
			return err
		}
	}
	if update.Currency != nil {
		code := money.Code(strings.ToUpper(strings.TrimSpace(string(*update.Currency))))
		if err := account.ValidateCurrency(code); err != nil {
			return err
		}
		update.Currency = &code
	}
	if update.Color != nil {
		if err := account.ValidateColor(*update.Color); err != nil {
			return err
		}
	}
	if update.Description != nil {
		if err := account.ValidateDescription(*update.Description); err != nil {
			return err
		}
	}
	if update.Goal != nil {
		if err := account.ValidateGoal(update.Goal); err != nil {
			return err
		}
	}
	return nil
}

func owned(
	ctx context.Context,
	accounts accountrepo.Repository,
	p access.Principal,
	id uuid.UUID,
) (*dto.AccountRead, error) {
	a, err := accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.UserID {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

// checkName fails when userID already has another account called name.
func checkName(ctx context.Context, accounts accountrepo.Repository, userID uuid.UUID, name string, self uuid.UUID) error {
	existing, err := accounts.GetByName(ctx, userID, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: %q", account.ErrNameTaken, name)
	default:
		return nil
	}
}

func checkTag(ctx context.Context, uow repository.UnitOfWork, tagID *uuid.UUID) error {
	if tagID == nil {
		return nil
	}
	tags, err := repository.Get[tagrepo.Repository](uow)
	if err != nil {
		return err
	}
	if _, err := tags.Get(ctx, *tagID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return tag.ErrTagNotFound
		}
		return err
	}
	return nil
}
