package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/domain/movement"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/amirasaad/gastos/pkg/repository"
	accountrepo "github.com/amirasaad/gastos/pkg/repository/account"
	movementrepo "github.com/amirasaad/gastos/pkg/repository/movement"
	"github.com/google/uuid"
)

const (
	// DefaultPageSize is used when a listing asks for no limit.
	DefaultPageSize = 50
	// MaxPageSize caps a single listing page.
	MaxPageSize = 500
)

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = domain.NewError(domain.ErrValidation, "date range ends before it starts")

// GetMovement returns one movement of p.
func (s *Service) GetMovement(ctx context.Context, p access.Principal, id uuid.UUID) (*dto.MovementRead, error) {
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return ownedMovement(ctx, movements, id, p.UserID)
}

func ownedMovement(
	ctx context.Context,
	movements movementrepo.Repository,
	id, ownerID uuid.UUID,
) (*dto.MovementRead, error) {
	mv, err := movements.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if mv.UserID != ownerID {
		return nil, movement.ErrMovementNotFound
	}
	return mv, nil
}

// ListMovements returns one page of p's movements.
func (s *Service) ListMovements(
	ctx context.Context,
	p access.Principal,
	filter dto.MovementFilter,
) (*dto.Page[*dto.MovementRead], error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidRange
	}
	if filter.Type != "" {
		if _, err := movement.ParseType(string(filter.Type)); err != nil {
			return nil, err
		}
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.SortBy == "" {
		filter.SortBy = dto.SortByDate
	}

	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	items, total, err := movements.List(ctx, p.UserID, filter)
	if err != nil {
		return nil, err
	}
	return &dto.Page[*dto.MovementRead]{
		Items:    items,
		Total:    total,
		Page:     filter.Offset/filter.Limit + 1,
		PageSize: filter.Limit,
	}, nil
}

// AccountStats aggregates the movements of one of p's accounts.
func (s *Service) AccountStats(ctx context.Context, p access.Principal, accountID uuid.UUID) (*dto.AccountStats, error) {
	if _, err := s.ownedAccount(ctx, p, accountID); err != nil {
		return nil, err
	}
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return movements.AccountStats(ctx, accountID)
}

// UserStats aggregates p's movements dated within the optional range.
func (s *Service) UserStats(ctx context.Context, p access.Principal, from, to *time.Time) (*dto.UserStats, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrInvalidRange
	}
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return movements.UserStats(ctx, p.UserID, from, to)
}

// GoalProgress reports how far one of p's accounts is from its goal. It
// returns nil when the account has no goal.
func (s *Service) GoalProgress(ctx context.Context, p access.Principal, accountID uuid.UUID) (*account.Progress, error) {
	a, err := s.ownedAccount(ctx, p, accountID)
	if err != nil {
		return nil, err
	}
	return account.GoalProgress(a.Balance, a.Goal), nil
}

// VerifyBalance recomputes the balance of one of p's accounts from its
// movements and fails with an integrity error when the stored one differs.
func (s *Service) VerifyBalance(ctx context.Context, p access.Principal, accountID uuid.UUID) error {
	a, err := s.ownedAccount(ctx, p, accountID)
	if err != nil {
		return err
	}
	movements, err := repository.Get[movementrepo.Repository](s.uow)
	if err != nil {
		return err
	}
	items, _, err := movements.List(ctx, a.UserID, dto.MovementFilter{AccountID: &accountID})
	if err != nil {
		return err
	}
	if sum := signedSum(items); !sum.Equal(a.Balance) {
		s.logger.Error("balance mismatch", "account_id", accountID, "stored", a.Balance.String(), "computed", sum.String())
		return fmt.Errorf("%w: account %s stores %s but its movements sum to %s",
			domain.ErrIntegrity, accountID, money.Format(a.Balance), money.Format(sum))
	}
	return nil
}

func (s *Service) ownedAccount(ctx context.Context, p access.Principal, id uuid.UUID) (*dto.AccountRead, error) {
	accounts, err := repository.Get[accountrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	a, err := accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.UserID {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

// Attachment returns the file attached to one of p's movements and its
// MIME type.
func (s *Service) Attachment(ctx context.Context, p access.Principal, id uuid.UUID) ([]byte, string, error) {
	m, err := s.GetMovement(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	if m.Attachment == "" {
		return nil, "", attachment.ErrAttachmentNotFound
	}
	return s.store.Open(ctx, m.Attachment)
}
