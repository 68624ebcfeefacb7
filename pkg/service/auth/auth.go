// Package auth signs users up and in, runs the second-factor challenge and
// resolves bearer credentials into a Principal.
//
// Sessions slide: every successful Authenticate pushes the expiry forward by
// the configured lifetime. API tokens never expire but can be revoked.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/config"
	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/mailer"
	"github.com/amirasaad/gastos/pkg/repository"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	sessionrepo "github.com/amirasaad/gastos/pkg/repository/session"
	userrepo "github.com/amirasaad/gastos/pkg/repository/user"
	"github.com/amirasaad/gastos/pkg/service/audit"
	"github.com/amirasaad/gastos/pkg/utils"
	"github.com/google/uuid"
)

// Service provides authentication and credential management.
type Service struct {
	uow     repository.UnitOfWork
	mailer  mailer.Mailer
	audit   *audit.Recorder
	cfg     *config.Auth
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
	// dummyHash is compared against when the user does not exist so both
	// paths cost one bcrypt comparison.
	dummyHash func() string
}

// New creates an auth Service.
func New(
	uow repository.UnitOfWork,
	m mailer.Mailer,
	recorder *audit.Recorder,
	cfg *config.Auth,
	baseURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:     uow,
		mailer:  m,
		audit:   recorder,
		cfg:     cfg,
		baseURL: baseURL,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		dummyHash: sync.OnceValue(func() string {
			h, err := utils.HashPassword(uuid.NewString(), cfg.BcryptCost)
			if err != nil {
				return ""
			}
			return h
		}),
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HashPassword hashes with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	return utils.HashPassword(password, s.cfg.BcryptCost)
}

// Register creates a usuario account.
func (s *Service) Register(ctx context.Context, reg dto.Registration, meta dto.ClientMeta) (*dto.UserRead, error) {
	return s.register(ctx, "Register", reg, user.RoleUser, meta)
}

// CreateOwner bootstraps the propietario. It fails once an owner exists.
func (s *Service) CreateOwner(ctx context.Context, reg dto.Registration) (*dto.UserRead, error) {
	return s.register(ctx, "CreateOwner", reg, user.RoleOwner, dto.ClientMeta{})
}

func (s *Service) register(
	ctx context.Context,
	op string,
	reg dto.Registration,
	role user.Role,
	meta dto.ClientMeta,
) (*dto.UserRead, error) {
	log := s.logger.With("context", op, "username", reg.Username)
	log.Debug(op + " started")

	if err := user.ValidatePassword(reg.Password); err != nil {
		log.Error(op+" failed: weak password", "error", err)
		return nil, err
	}
	u, err := user.New(reg.Username, reg.Email, "")
	if err != nil {
		log.Error(op+" failed: domain error", "error", err)
		return nil, err
	}
	u.Role = role
	if u.PasswordHash, err = s.HashPassword(reg.Password); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := repository.Get[userrepo.Repository](uow)
		if err != nil {
			return err
		}
		if role == user.RoleOwner {
			_, err := users.Owner(ctx)
			switch {
			case err == nil:
				return user.ErrOwnerExists
			case !errors.Is(err, user.ErrUserNotFound):
				return err
			}
		}
		if err := checkUnique(ctx, users, u.Username, u.Email); err != nil {
			return err
		}
		return users.Create(ctx, dto.UserCreate{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
			CreatedAt:    u.CreatedAt,
		})
	})
	if err != nil {
		log.Error(op+" failed", "error", err)
		return nil, err
	}

	s.audit.Record(ctx, u.ID, "registered as "+string(role), meta.IP)
	log.Info(op+" successful", "user_id", u.ID)
	return s.user(ctx, u.ID)
}

// Login checks a username (or email) and password. Users with two-factor
// enabled get a signed challenge and a code by mail instead of a session.
func (s *Service) Login(ctx context.Context, identity, password string, meta dto.ClientMeta) (*dto.LoginResult, error) {
	log := s.logger.With("context", "Login", "identity", identity)
	log.Debug("Login started")

	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	var u *dto.UserRead
	if user.ValidateEmail(identity) == nil {
		u, err = users.GetByEmail(ctx, identity)
	} else {
		u, err = users.GetByUsername(ctx, identity)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_ = utils.CheckPasswordHash(password, s.dummyHash())
		log.Warn("Login failed: unknown user")
		return nil, auth.ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, u.PasswordHash) {
		s.audit.Record(ctx, u.ID, "failed login attempt", meta.IP)
		log.Warn("Login failed: wrong password", "user_id", u.ID)
		return nil, auth.ErrInvalidCredentials
	}

	if u.TwoFactorEnabled {
		challenge, err := s.startChallenge(ctx, u)
		if err != nil {
			log.Error("Login failed: challenge", "error", err)
			return nil, err
		}
		log.Info("Login pending second factor", "user_id", u.ID)
		return &dto.LoginResult{TwoFactorRequired: true, Challenge: challenge}, nil
	}

	res, err := s.openSession(ctx, u, meta)
	if err != nil {
		log.Error("Login failed: session", "error", err)
		return nil, err
	}
	log.Info("Login successful", "user_id", u.ID)
	return res, nil
}

// VerifyTwoFactor completes a login started by Login.
func (s *Service) VerifyTwoFactor(ctx context.Context, challenge, code string, meta dto.ClientMeta) (*dto.LoginResult, error) {
	log := s.logger.With("context", "VerifyTwoFactor")
	log.Debug("VerifyTwoFactor started")

	userID, err := s.parseChallenge(challenge)
	if err != nil {
		log.Warn("VerifyTwoFactor failed: challenge", "error", err)
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		codes, err := repository.Get[credentialrepo.TwoFactorRepository](uow)
		if err != nil {
			return err
		}
		c, err := codes.FindValid(ctx, userID, code, s.now())
		if err != nil {
			return err
		}
		return codes.MarkUsed(ctx, c.ID)
	})
	if err != nil {
		s.audit.Record(ctx, userID, "failed two-factor verification", meta.IP)
		log.Warn("VerifyTwoFactor failed", "user_id", userID, "error", err)
		return nil, err
	}

	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, auth.ErrInvalidChallenge
	}
	res, err := s.openSession(ctx, u, meta)
	if err != nil {
		log.Error("VerifyTwoFactor failed: session", "error", err)
		return nil, err
	}
	log.Info("VerifyTwoFactor successful", "user_id", userID)
	return res, nil
}

// Authenticate resolves a bearer token. Sessions are tried first and renewed
// on success, then API tokens.
func (s *Service) Authenticate(ctx context.Context, token string, meta dto.ClientMeta) (access.Principal, error) {
	if token == "" {
		return access.Principal{}, auth.ErrUnauthenticated
	}
	now := s.now()
	sessions, err := repository.Get[sessionrepo.Repository](s.uow)
	if err != nil {
		return access.Principal{}, err
	}

	sess, err := sessions.GetByToken(ctx, token)
	switch {
	case err == nil:
		if sess.Expired(now) {
			if err := sessions.DeleteByToken(ctx, token); err != nil {
				s.logger.Warn("expired session not purged", "session_id", sess.ID, "error", err)
			}
			return access.Principal{}, auth.ErrSessionExpired
		}
		if err := sessions.Extend(ctx, token, now.Add(s.cfg.SessionLifetime), now); err != nil {
			return access.Principal{}, err
		}
		return s.principal(ctx, sess.UserID, token, access.ViaSession, meta)
	case !errors.Is(err, auth.ErrSessionExpired):
		return access.Principal{}, err
	}

	tokens, err := repository.Get[credentialrepo.APITokenRepository](s.uow)
	if err != nil {
		return access.Principal{}, err
	}
	t, err := tokens.GetActive(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return access.Principal{}, auth.ErrSessionExpired
		}
		return access.Principal{}, err
	}
	if err := tokens.Touch(ctx, t.ID, now); err != nil {
		s.logger.Warn("api token last use not recorded", "token_id", t.ID, "error", err)
	}
	return s.principal(ctx, t.UserID, "", access.ViaAPIToken, meta)
}

// Logout ends the session with token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, p access.Principal) error {
	log := s.logger.With("context", "Logout", "user_id", p.UserID)
	log.Debug("Logout started")
	if p.SessionToken == "" {
		return nil
	}
	sessions, err := repository.Get[sessionrepo.Repository](s.uow)
	if err != nil {
		return err
	}
	if err := sessions.DeleteByToken(ctx, p.SessionToken); err != nil {
		log.Error("Logout failed", "error", err)
		return err
	}
	s.audit.Record(ctx, p.UserID, "logged out", p.IP)
	log.Info("Logout successful")
	return nil
}

// ListSessions lists p's unexpired sessions, flagging the one p uses.
func (s *Service) ListSessions(ctx context.Context, p access.Principal) ([]*dto.SessionRead, error) {
	sessions, err := repository.Get[sessionrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	active, err := sessions.ListActive(ctx, p.UserID, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SessionRead, 0, len(active))
	for _, a := range active {
		out = append(out, &dto.SessionRead{
			ID:         a.ID,
			IP:         a.IP,
			UserAgent:  a.UserAgent,
			CreatedAt:  a.CreatedAt,
			LastSeenAt: a.LastSeenAt,
			ExpiresAt:  a.ExpiresAt,
			Current:    p.SessionToken != "" && a.Token == p.SessionToken,
		})
	}
	return out, nil
}

// RevokeSession ends one of p's sessions.
func (s *Service) RevokeSession(ctx context.Context, p access.Principal, id uuid.UUID) error {
	sessions, err := repository.Get[sessionrepo.Repository](s.uow)
	if err != nil {
		return err
	}
	ok, err := sessions.DeleteByID(ctx, p.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrSessionNotFound
	}
	s.audit.Record(ctx, p.UserID, "revoked a session", p.IP)
	return nil
}

func (s *Service) openSession(ctx context.Context, u *dto.UserRead, meta dto.ClientMeta) (*dto.LoginResult, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &auth.Session{
		ID:         uuid.New(),
		UserID:     u.ID,
		Token:      token,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		ExpiresAt:  now.Add(s.cfg.SessionLifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		sessions, err := repository.Get[sessionrepo.Repository](uow)
		if err != nil {
			return err
		}
		users, err := repository.Get[userrepo.Repository](uow)
		if err != nil {
			return err
		}
		if err := sessions.Create(ctx, sess); err != nil {
			return err
		}
		return users.Update(ctx, u.ID, dto.UserUpdate{LastLoginAt: &now})
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, u.ID, "logged in", meta.IP)
	u.LastLoginAt = &now
	return &dto.LoginResult{Token: token, ExpiresAt: &sess.ExpiresAt, User: u}, nil
}

func (s *Service) principal(
	ctx context.Context,
	userID uuid.UUID,
	sessionToken string,
	via access.Via,
	meta dto.ClientMeta,
) (access.Principal, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return access.Principal{}, auth.ErrSessionExpired
		}
		return access.Principal{}, err
	}
	return access.Principal{
		UserID:       u.ID,
		Role:         u.Role,
		SessionToken: sessionToken,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Via:          via,
	}, nil
}

func (s *Service) user(ctx context.Context, id uuid.UUID) (*dto.UserRead, error) {
	users, err := repository.Get[userrepo.Repository](s.uow)
	if err != nil {
		return nil, err
	}
	return users.Get(ctx, id)
}

// checkUnique fails when username or email already belong to a user.
func checkUnique(ctx context.Context, users userrepo.Repository, username, email string) error {
	exists, err := users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", user.ErrUsernameTaken, username)
	}
	exists, err = users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return user.ErrEmailTaken
	}
	return nil
}
