package auth

import (
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/middleware"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the authentication endpoints.
func Routes(app *fiber.App, authSvc *authsvc.Service) {
	app.Post("/auth/register", Register(authSvc))
	app.Post("/auth/login", Login(authSvc))
	app.Post("/auth/2fa", VerifyTwoFactor(authSvc))
	app.Post("/auth/password/forgot", ForgotPassword(authSvc))
	app.Post("/auth/password/reset", ResetPassword(authSvc))

	protected := middleware.Protected(authSvc)
	app.Post("/auth/logout", protected, Logout(authSvc))
	app.Get("/auth/sessions", protected, ListSessions(authSvc))
	app.Delete("/auth/sessions/:id", protected, RevokeSession(authSvc))
	app.Get("/auth/tokens", protected, ListTokens(authSvc))
	app.Post("/auth/tokens", protected, CreateToken(authSvc))
	app.Post("/auth/tokens/:id/revoke", protected, RevokeToken(authSvc))
	app.Delete("/auth/tokens/:id", protected, DeleteToken(authSvc))
}

// Register creates a user account.
// @Summary Register
// @Description Create a usuario account with username, email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterInput true "Registration data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/register [post]
func Register(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RegisterInput](c)
		if input == nil {
			return err
		}
		u, err := authSvc.Register(c.UserContext(), dto.Registration{
			Username: input.Username,
			Email:    input.Email,
			Password: input.Password,
		}, middleware.ClientMeta(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't register", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Registered", u)
	}
}

// Login handles user authentication and opens a session.
// @Summary User login
// @Description Authenticate with identity (username or email) and password. Users with two-factor enabled receive a challenge instead of a token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/login [post]
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		res, err := authSvc.Login(c.UserContext(), input.Identity, input.Password, middleware.ClientMeta(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid identity or password", err)
		}
		if res.TwoFactorRequired {
			return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Verification code sent", res)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", res)
	}
}

// VerifyTwoFactor completes a two-factor login.
// @Summary Verify two-factor code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TwoFactorInput true "Challenge and code"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /auth/2fa [post]
func VerifyTwoFactor(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TwoFactorInput](c)
		if input == nil {
			return err
		}
		res, err := authSvc.VerifyTwoFactor(c.UserContext(), input.Challenge, input.Code, middleware.ClientMeta(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Verification failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", res)
	}
}

// ForgotPassword mails a reset link. It answers the same for unknown emails.
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordInput true "Account email"
// @Success 202 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /auth/password/forgot [post]
func ForgotPassword(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ForgotPasswordInput](c)
		if input == nil {
			return err
		}
		if err := authSvc.RequestPasswordReset(c.UserContext(), input.Email, middleware.ClientMeta(c)); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't request password reset", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "If the address is registered a reset link was sent", nil)
	}
}

// ResetPassword sets a new password using a reset token.
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordInput true "Token and new password"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /auth/password/reset [post]
func ResetPassword(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ResetPasswordInput](c)
		if input == nil {
			return err
		}
		if err := authSvc.ResetPassword(c.UserContext(), input.Token, input.Password, middleware.ClientMeta(c)); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't reset password", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Password updated", nil)
	}
}

// Logout closes the current session.
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /auth/logout [post]
// @Security Bearer
func Logout(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authSvc.Logout(c.UserContext(), middleware.Principal(c)); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't log out", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Logged out", nil)
	}
}

// ListSessions lists the caller's open sessions.
// @Summary List sessions
// @Tags auth
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /auth/sessions [get]
// @Security Bearer
func ListSessions(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions, err := authSvc.ListSessions(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list sessions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Sessions fetched", sessions)
	}
}

// RevokeSession closes one of the caller's sessions.
// @Summary Revoke session
// @Tags auth
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /auth/sessions/{id} [delete]
// @Security Bearer
func RevokeSession(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := authSvc.RevokeSession(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't revoke session", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Session revoked", nil)
	}
}

// ListTokens lists the caller's API tokens.
// @Summary List API tokens
// @Tags auth
// @Produce json
// @Success 200 {object} common.Response
// @Router /auth/tokens [get]
// @Security Bearer
func ListTokens(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokens, err := authSvc.ListAPITokens(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list tokens", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Tokens fetched", tokens)
	}
}

// CreateToken issues an API token. The secret is only shown in this response.
// @Summary Create API token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body APITokenInput true "Token name"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /auth/tokens [post]
// @Security Bearer
func CreateToken(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[APITokenInput](c)
		if input == nil {
			return err
		}
		token, err := authSvc.CreateAPIToken(c.UserContext(), middleware.Principal(c), input.Name)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create token", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Token created", token)
	}
}

// RevokeToken deactivates an API token and keeps it listed.
// @Summary Revoke API token
// @Tags auth
// @Produce json
// @Param id path string true "Token ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /auth/tokens/{id}/revoke [post]
// @Security Bearer
func RevokeToken(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := authSvc.RevokeAPIToken(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't revoke token", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Token revoked", nil)
	}
}

// DeleteToken removes an API token.
// @Summary Delete API token
// @Tags auth
// @Produce json
// @Param id path string true "Token ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /auth/tokens/{id} [delete]
// @Security Bearer
func DeleteToken(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := authSvc.DeleteAPIToken(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete token", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Token deleted", nil)
	}
}
