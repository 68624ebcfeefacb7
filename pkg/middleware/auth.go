// Package middleware provides the fiber middleware that authenticates
// requests and exposes the resulting principal to handlers.
package middleware

import (
	"context"
	"strings"

	"github.com/amirasaad/gastos/pkg/access"
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Authenticator resolves a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, meta dto.ClientMeta) (access.Principal, error)
}

// Protected requires an `Authorization: Bearer <token>` header holding a
// valid session or API token. Authentication errors are passed to the
// app's error handler.
func Protected(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		p, err := auth.Authenticate(c.UserContext(), token, ClientMeta(c))
		if err != nil {
			return err
		}
		c.Locals(principalKey, p)
		return c.Next()
	}
}

// RequireRole rejects principals below min. It must run after Protected.
func RequireRole(min user.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Principal(c).Role.AtLeast(min) {
			return access.ErrInsufficientRole
		}
		return c.Next()
	}
}

// Principal returns the authenticated caller, or the zero principal on
// unprotected routes.
func Principal(c *fiber.Ctx) access.Principal {
	p, _ := c.Locals(principalKey).(access.Principal)
	return p
}

// BearerToken extracts the token of an Authorization header.
func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ClientMeta describes the caller's network origin for sessions and the
// activity log.
func ClientMeta(c *fiber.Ctx) dto.ClientMeta {
	return dto.ClientMeta{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}
