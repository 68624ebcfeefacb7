// Package webapi provides HTTP handlers and API endpoints for the gastos application.
// It is organized into sub-packages for different domains:
// - auth: registration, login, sessions and API tokens
// - account: accounts, goals and balance checks
// - movement: incomes, withdrawals and attachments
// - backup: JSON and CSV export and import
// - user: the caller's own profile
// - admin: user moderation, activity log and global statistics
// - tag: shared account tags
package webapi

import (
	"errors"
	"strings"
	"time"

	_ "github.com/amirasaad/gastos/docs/swagger"
	"github.com/amirasaad/gastos/pkg/app"
	accountweb "github.com/amirasaad/gastos/webapi/account"
	adminweb "github.com/amirasaad/gastos/webapi/admin"
	authweb "github.com/amirasaad/gastos/webapi/auth"
	backupweb "github.com/amirasaad/gastos/webapi/backup"
	"github.com/amirasaad/gastos/webapi/common"
	movementweb "github.com/amirasaad/gastos/webapi/movement"
	tagweb "github.com/amirasaad/gastos/webapi/tag"
	userweb "github.com/amirasaad/gastos/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
)

// bodyLimit leaves room for a base64 encoded attachment of the maximum size.
const bodyLimit = 8 << 20

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	log := a.Deps.Logger
	fiberApp := fiber.New(fiber.Config{
		AppName:   "gastos",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if common.StatusFor(err) == fiber.StatusInternalServerError {
				log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			}
			return common.ErrorHandler(c, err)
		},
	})

	fiberApp.Use(requestid.New())
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	rl := a.Config.RateLimit
	fiberApp.Use(rateLimiter(a, "global", rl.MaxRequests, rl.Window))
	// Stricter limit against credential stuffing.
	fiberApp.Use("/auth", rateLimiter(a, "auth", rl.AuthMaxRequests, rl.Window))

	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("gastos API is running")
	})

	authweb.Routes(fiberApp, a.AuthService)
	userweb.Routes(fiberApp, a.UserService, a.AuthService)
	accountweb.Routes(fiberApp, a.AccountService, a.Ledger, a.AuthService)
	movementweb.Routes(fiberApp, a.Ledger, a.AuthService)
	backupweb.Routes(fiberApp, a.BackupService, a.AuthService)
	adminweb.Routes(fiberApp, a.AdminService, a.AuthService)
	tagweb.Routes(fiberApp, a.TagService, a.AuthService)
	return fiberApp
}

// rateLimiter counts requests per client address. Counters live in the
// shared limiter storage when one is configured.
func rateLimiter(a *app.App, scope string, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    a.Deps.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return scope + ":" + ClientIP(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	})
}

// ClientIP uses the first X-Forwarded-For address when behind a proxy and
// falls back to X-Real-IP, then to the connection address.
func ClientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get(fiber.HeaderXForwardedFor); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
