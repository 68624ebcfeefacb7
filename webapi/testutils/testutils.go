// Package testutils builds a complete HTTP application over an in-memory
// database for end-to-end handler tests.
package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	inframailer "github.com/amirasaad/gastos/infra/mailer"
	infrastorage "github.com/amirasaad/gastos/infra/storage"
	"github.com/amirasaad/gastos/pkg/app"
	"github.com/amirasaad/gastos/pkg/config"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/testutils"
	"github.com/amirasaad/gastos/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// E2ETestSuite provides a test suite with a fresh application per test.
type E2ETestSuite struct {
	suite.Suite
	App    *fiber.App
	Core   *app.App
	Outbox *inframailer.Outbox
	DB     *gorm.DB
	Cfg    *config.App
}

// TestConfig returns a configuration suited to tests: cheap hashing and
// generous rate limits.
func TestConfig(uploads string) *config.App {
	return &config.App{
		Env: "test",
		Auth: &config.Auth{
			SessionLifetime: 2 * time.Hour,
			TwoFactorTTL:    5 * time.Minute,
			TwoFactorDigits: 6,
			ResetTokenTTL:   time.Hour,
			ChallengeSecret: "test-secret",
			BcryptCost:      bcrypt.MinCost,
		},
		Ledger:    &config.Ledger{},
		Storage:   &config.Storage{UploadsPath: uploads, MaxFileSize: 5 << 20},
		Redis:     &config.Redis{},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute, AuthMaxRequests: 1000},
		Mail:      &config.Mail{From: "no-reply@gastos.test", BaseURL: "https://gastos.test"},
	}
}

// SetupTest builds the application before each test.
func (s *E2ETestSuite) SetupTest() {
	s.Build(TestConfig(s.T().TempDir()), nil)
}

// Build wires the application for cfg. A nil limiter storage keeps rate
// limit counters in memory.
func (s *E2ETestSuite) Build(cfg *config.App, limiterStorage fiber.Storage) {
	uow, db := testutils.NewTestUoW(s.T())
	logger := testutils.DiscardLogger()
	store, err := infrastorage.NewLocalStore(cfg.Storage.UploadsPath, cfg.Storage.MaxFileSize, logger)
	s.Require().NoError(err)
	s.Outbox = &inframailer.Outbox{}
	core, err := app.New(&app.Deps{
		Uow:            uow,
		Store:          store,
		Mailer:         s.Outbox,
		LimiterStorage: limiterStorage,
		Logger:         logger,
	}, cfg)
	s.Require().NoError(err)
	s.Core, s.DB, s.Cfg = core, db, cfg
	s.App = webapi.SetupApp(core)
}

// Seed inserts a user with the given role and returns a session token for it.
func (s *E2ETestSuite) Seed(username string, role user.Role) string {
	testutils.SeedUser(s.T(), s.Core.Deps.Uow, username, role)
	return s.Login(username, testutils.DefaultPassword)
}

// Login opens a session through the HTTP API.
func (s *E2ETestSuite) Login(identity, password string) string {
	body := fmt.Sprintf(`{"identity":%q,"password":%q}`, identity, password)
	resp := s.Do(http.MethodPost, "/auth/login", body, "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.Decode(resp, &out)
	s.Require().NotEmpty(out.Data.Token)
	return out.Data.Token
}

// Do sends a JSON request.
func (s *E2ETestSuite) Do(method, path, body, token string) *http.Response {
	return testutils.MakeRequest(s.App, method, path, body, token)
}

// Decode reads a JSON response into v.
func (s *E2ETestSuite) Decode(resp *http.Response, v any) {
	testutils.DecodeJSON(s.T(), resp, v)
}

// Data decodes the data field of a success envelope.
func (s *E2ETestSuite) Data(resp *http.Response, v any) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	s.Decode(resp, &env)
	s.Require().NoError(json.Unmarshal(env.Data, v))
}

// Problem decodes an error response and returns its detail.
func (s *E2ETestSuite) Problem(resp *http.Response) string {
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var pd struct {
		Detail string `json:"detail"`
	}
	s.Require().NoError(json.Unmarshal(raw, &pd), string(raw))
	return pd.Detail
}
