// Package tag manages the global tag catalogue. Anyone may read it; only
// the owner changes it, and a tag referenced by an account is frozen.
package tag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/tag"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	tagrepo "github.com/amirasaad/gastos/pkg/repository/tag"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/google/uuid"
)

// Service provides the tag operations.
type Service struct {
	uow    repository.UnitOfWork
	audit  *audit.Recorder
	logger *slog.Logger
}

// New creates a tag Service.
func New(uow repository.UnitOfWork, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{uow: uow, audit: recorder, logger: logger}
}

// List returns every tag with the number of accounts using it.
func (s *Service) List(ctx context.Context) ([]*dto.TagRead, error) {
	tags, err := repository.Get[tagrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return tags.List(ctx)
}

// Unused returns the tags no account references.
func (s *Service) Unused(ctx context.Context) ([]*dto.TagRead, error) {
	tags, err := repository.Get[tagrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return tags.Unused(ctx)
}

// Create adds a tag.
func (s *Service) Create(ctx context.Context, p access.Principal, name string) (*dto.TagRead, error) {
	log := s.logger.With("context", "CreateTag", "user_id", p.UserID)
	log.Debug("CreateTag started")

	if err := access.Require(p, access.ManageTags); err != nil {
		return nil, err
	}
	t, err := tag.New(name)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tags, err := repository.Get[tagrepo.Repository](uow)
		if err != nil {
			return err
		}
		return tags.Create(ctx, t)
	})
	if err != nil {
		log.Warn("CreateTag failed", "error", err)
		return nil, err
	}
	s.audit.Record(ctx, p.UserID, fmt.Sprintf("created tag %q", t.Name), p.IP)
	log.Info("CreateTag successful", "tag_id", t.ID)
	return &dto.TagRead{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}, nil
}

// Rename changes the name of an unused tag.
func (s *Service) Rename(ctx context.Context, p access.Principal, id uuid.UUID, name string) (*dto.TagRead, error) {
	log := s.logger.With("context", "RenameTag", "user_id", p.UserID, "tag_id", id)
	log.Debug("RenameTag started")

	if err := access.Require(p, access.ManageTags); err != nil {
		return nil, err
	}
	name, err := tag.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	var old string
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tags, err := repository.Get[tagrepo.Repository](uow)
		if err != nil {
			return err
		}
		current, err := unused(ctx, tags, id)
		if err != nil {
			return err
		}
		old = current.Name
		return tags.Rename(ctx, id, name)
	})
	if err != nil {
		log.Warn("RenameTag failed", "error", err)
		return nil, err
	}
	s.audit.Record(ctx, p.UserID, fmt.Sprintf("renamed tag %q to %q", old, name), p.IP)
	log.Info("RenameTag successful")

	tags, err := repository.Get[tagrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return tags.Get(ctx, id)
}

// Delete removes an unused tag.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	log := s.logger.With("context", "DeleteTag", "user_id", p.UserID, "tag_id", id)
	log.Debug("DeleteTag started")

	if err := access.Require(p, access.ManageTags); err != nil {
		return err
	}
	var name string
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tags, err := repository.Get[tagrepo.Repository](uow)
		if err != nil {
			return err
		}
		current, err := unused(ctx, tags, id)
		if err != nil {
			return err
		}
		name = current.Name
		return tags.Delete(ctx, id)
	})
	if err != nil {
		log.Warn("DeleteTag failed", "error", err)
		return err
	}
	s.audit.Record(ctx, p.UserID, fmt.Sprintf("deleted tag %q", name), p.IP)
	log.Info("DeleteTag successful")
	return nil
}

// unused loads a tag and fails with ErrTagInUse if any account references it.
func unused(ctx context.Context, tags tagrepo.Repository, id uuid.UUID) (*dto.TagRead, error) {
	t, err := tags.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := tags.Usage(ctx, id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %q is used by %d accounts", tag.ErrTagInUse, t.Name, n)
	}
	return t, nil
}
