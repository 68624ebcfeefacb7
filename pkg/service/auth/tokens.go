package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	"github.com/google/uuid"
)

const maxTokenNameLength = 100

// CreateAPIToken issues a long-lived token for p. The secret is only
// returned here.
func (s *Service) CreateAPIToken(ctx context.Context, p access.Principal, name string) (*dto.APITokenRead, error) {
	log := s.logger.With("context", "CreateAPIToken", "user_id", p.UserID)
	log.Debug("CreateAPIToken started")

	name = strings.TrimSpace(name)
	if name == "" {
		name = auth.DefaultAPITokenName
	}
	if len([]rune(name)) > maxTokenNameLength {
		return nil, auth.ErrInvalidTokenName
	}
	secret, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}
	t := &auth.APIToken{
		ID:        uuid.New(),
		UserID:    p.UserID,
		Name:      name,
		Token:     secret,
		Active:    true,
		CreatedAt: s.now(),
	}
	tokens, err := repository.Get[credentialrepo.APITokenRepository](s.uow)
	if err != nil {
		return nil, err
	}
	if err := tokens.Create(ctx, t); err != nil {
		log.Error("CreateAPIToken failed", "error", err)
		return nil, err
	}

	s.audit.Record(ctx, p.UserID, fmt.Sprintf("created API token %q", name), p.IP)
	log.Info("CreateAPIToken successful", "token_id", t.ID)
	read := tokenRead(t)
	read.Token = secret
	return read, nil
}

// ListAPITokens lists p's tokens without their secrets.
func (s *Service) ListAPITokens(ctx context.Context, p access.Principal) ([]*dto.APITokenRead, error) {
	tokens, err := repository.Get[credentialrepo.APITokenRepository](s.uow)
	if err != nil {
		return nil, err
	}
	list, err := tokens.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.APITokenRead, 0, len(list))
	for _, t := range list {
		out = append(out, tokenRead(t))
	}
	return out, nil
}

// RevokeAPIToken deactivates one of p's tokens and keeps it listed.
func (s *Service) RevokeAPIToken(ctx context.Context, p access.Principal, id uuid.UUID) error {
	tokens, err := repository.Get[credentialrepo.APITokenRepository](s.uow)
	if err != nil {
		return err
	}
	ok, err := tokens.Deactivate(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrAPITokenNotFound
	}
	s.audit.Record(ctx, p.UserID, "revoked an API token", p.IP)
	return nil
}

// DeleteAPIToken removes one of p's tokens.
func (s *Service) DeleteAPIToken(ctx context.Context, p access.Principal, id uuid.UUID) error {
	tokens, err := repository.Get[credentialrepo.APITokenRepository](s.uow)
	if err != nil {
		return err
	}
	ok, err := tokens.Delete(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrAPITokenNotFound
	}
	s.audit.Record(ctx, p.UserID, "deleted an API token", p.IP)
	return nil
}

func tokenRead(t *auth.APIToken) *dto.APITokenRead {
	return &dto.APITokenRead{
		ID:         t.ID,
		Name:       t.Name,
		Active:     t.Active,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt,
	}
}
