// Package maintenance holds the periodic housekeeping run from an external
// scheduler: expired credential cleanup and the inactive user retention
// policy.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/mailer"
	"github.com/amirasaad/gastos/pkg/repository"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	usersvc "github.com/amirasaad/gastos/pkg/service/user"
	"github.com/google/uuid"
)

// Report summarises one sweep.
type Report struct {
	Reminded    int   `json:"reminded"`
	Warned      int   `json:"warned"`
	Deleted     int   `json:"deleted"`
	Failed      int   `json:"failed"`
	Sessions    int64 `json:"sessions"`
	Codes       int64 `json:"codes"`
	ResetTokens int64 `json:"reset_tokens"`
}

// Service runs the sweep.
type Service struct {
	uow     repository.UnitOfWork
	users   *usersvc.Service
	mailer  mailer.Mailer
	audit   *audit.Recorder
	baseURL string
	logger  *slog.Logger
}

// New creates a maintenance Service.
func New(
	uow repository.UnitOfWork,
	users *usersvc.Service,
	m mailer.Mailer,
	recorder *audit.Recorder,
	baseURL string,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, users: users, mailer: m, audit: recorder, baseURL: baseURL, logger: logger}
}

// Sweep applies the retention policy as of now and purges expired
// sessions, codes and reset tokens. A failure on one user is counted and
// the sweep goes on; only store-wide failures abort it.
func (s *Service) Sweep(ctx context.Context, now time.Time) (*Report, error) {
	log := s.logger.With("context", "Sweep", "now", now)
	log.Debug("Sweep started")

	report := &Report{}
	if err := s.sweepUsers(ctx, now, report); err != nil {
		log.Error("Sweep failed: inactive users", "error", err)
		return report, err
	}
	if err := s.purgeExpired(ctx, now, report); err != nil {
		log.Error("Sweep failed: expired credentials", "error", err)
		return report, err
	}
	log.Info("Sweep successful",
		"reminded", report.Reminded,
		"warned", report.Warned,
		"deleted", report.Deleted,
		"failed", report.Failed,
		"sessions", report.Sessions,
		"codes", report.Codes,
		"reset_tokens", report.ResetTokens,
	)
	return report, nil
}

func (s *Service) sweepUsers(ctx context.Context, now time.Time, report *Report) error {
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return err
	}
	inactive, err := users.InactiveSince(ctx, now.AddDate(-1, 0, 0))
	if err != nil {
		return err
	}
	for _, u := range inactive {
		log := s.logger.With("user_id", u.ID, "username", u.Username)
		days := user.DaysInactive(*u.LastLoginAt, now)

		switch user.InactivityOf(u.Role, u.LastLoginAt, now) {
		case user.Expired:
			if err := s.users.Erase(ctx, u.ID); err != nil {
				log.Error("inactive user not deleted", "error", err)
				report.Failed++
				continue
			}
			s.audit.Record(ctx, uuid.Nil, fmt.Sprintf("deleted user %q after %d days of inactivity", u.Username, days), "")
			report.Deleted++
		case user.Warning:
			if err := s.mailer.Send(ctx, u.Email, fmt.Sprintf("Your account will be deleted in %d days", remaining(days)), s.warningBody(u, days)); err != nil {
				log.Error("inactivity warning not mailed", "error", err)
				report.Failed++
				continue
			}
			report.Warned++
		case user.Reminder:
			if err := s.mailer.Send(ctx, u.Email, "We have not seen you in a while", s.reminderBody(u, days)); err != nil {
				log.Error("inactivity reminder not mailed", "error", err)
				report.Failed++
				continue
			}
			report.Reminded++
		}
	}
	return nil
}

func (s *Service) purgeExpired(ctx context.Context, now time.Time, report *Report) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		sessions, err := repository.Get[sessionrepo.Repository](uow)
		if err != nil {
			return err
		}
		if report.Sessions, err = sessions.DeleteExpired(ctx, now); err != nil {
			return err
		}
		codes, err := repository.Get[credentialrepo.TwoFactorRepository](uow)
		if err != nil {
			return err
		}
		if report.Codes, err = codes.DeleteExpired(ctx, now); err != nil {
			return err
		}
		resets, err := repository.Get[credentialrepo.ResetTokenRepository](uow)
		if err != nil {
			return err
		}
		report.ResetTokens, err = resets.DeleteExpired(ctx, now)
		return err
	})
}

func remaining(days int) int {
	if r := user.RetentionDays - days; r > 0 {
		return r
	}
	return 0
}

func (s *Service) reminderBody(u *dto.UserRead, days int) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYou have not logged in for %d days. Your account is still active and ready to use:\n\n%s\n\n"+
			"Accounts inactive for more than two years are deleted automatically.",
		u.Username, days, s.baseURL)
}

func (s *Service) warningBody(u *dto.UserRead, days int) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYou have not logged in for %d days. Unless you log in within the next %d days "+
			"your account and all of its data will be deleted.\n\n%s",
		u.Username, days, remaining(days), s.baseURL)
}
