package user

import (
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/middleware"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	usersvc "github.com/amirasaad/gastos/pkg/service/user"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the endpoints of the caller's own profile.
func Routes(app *fiber.App, userSvc *usersvc.Service, authSvc *authsvc.Service) {
	g := app.Group("/me", middleware.Protected(authSvc))
	g.Get("/", GetProfile(userSvc))
	g.Patch("/", UpdateProfile(userSvc))
	g.Delete("/", DeleteSelf(userSvc))
	g.Put("/password", ChangePassword(authSvc))
	g.Put("/2fa", SetTwoFactor(userSvc))
	g.Post("/request-admin", RequestAdmin(userSvc))
	g.Get("/photo", GetPhoto(userSvc))
	g.Put("/photo", SetPhoto(userSvc))
}

// GetProfile returns the authenticated user.
// @Summary Get profile
// @Tags users
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /me [get]
// @Security Bearer
func GetProfile(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := userSvc.Profile(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get profile", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", u)
	}
}

// UpdateProfile changes the caller's username or email.
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileInput true "Profile changes"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /me [patch]
// @Security Bearer
func UpdateProfile(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[UpdateProfileInput](c)
		if input == nil {
			return err
		}
		u, err := userSvc.UpdateProfile(c.UserContext(), middleware.Principal(c), dto.ProfileUpdate{
			Username:        input.Username,
			Email:           input.Email,
			CurrentPassword: input.CurrentPassword,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't update profile", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Profile updated", u)
	}
}

// ChangePassword replaces the caller's password and closes their other sessions.
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param request body ChangePasswordInput true "Current and new password"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /me/password [put]
// @Security Bearer
func ChangePassword(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ChangePasswordInput](c)
		if input == nil {
			return err
		}
		if err := authSvc.ChangePassword(c.UserContext(), middleware.Principal(c), input.CurrentPassword, input.NewPassword); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't change password", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Password updated", nil)
	}
}

// SetTwoFactor enables or disables the emailed login code.
// @Summary Toggle two-factor login
// @Tags users
// @Accept json
// @Produce json
// @Param request body TwoFactorInput true "Enabled flag"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /me/2fa [put]
// @Security Bearer
func SetTwoFactor(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TwoFactorInput](c)
		if input == nil {
			return err
		}
		if err := userSvc.SetTwoFactor(c.UserContext(), middleware.Principal(c), *input.Enabled); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't update two-factor setting", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Two-factor setting updated", fiber.Map{"enabled": *input.Enabled})
	}
}

// RequestAdmin asks the owner for administrator rights.
// @Summary Request administrator role
// @Tags users
// @Produce json
// @Success 200 {object} common.Response
// @Failure 409 {object} common.ProblemDetails
// @Router /me/request-admin [post]
// @Security Bearer
func RequestAdmin(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := userSvc.RequestAdmin(c.UserContext(), middleware.Principal(c)); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't request administrator role", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Request recorded", nil)
	}
}

// GetPhoto downloads the caller's profile photo.
// @Summary Get profile photo
// @Tags users
// @Produce image/png
// @Success 200 {file} file
// @Failure 404 {object} common.ProblemDetails
// @Router /me/photo [get]
// @Security Bearer
func GetPhoto(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, mime, err := userSvc.Photo(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get photo", err)
		}
		return common.SendFile(c, data, mime)
	}
}

// SetPhoto replaces the caller's profile photo.
// @Summary Set profile photo
// @Tags users
// @Accept json
// @Produce json
// @Param request body PhotoInput true "Photo as data URI"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /me/photo [put]
// @Security Bearer
func SetPhoto(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[PhotoInput](c)
		if input == nil {
			return err
		}
		upload, err := common.DecodeUpload(input.Photo, input.Name)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid photo", err)
		}
		u, err := userSvc.SetPhoto(c.UserContext(), middleware.Principal(c), *upload)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't set photo", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Photo updated", u)
	}
}

// DeleteSelf erases the caller and all of their data.
// @Summary Delete own account
// @Tags users
// @Accept json
// @Produce json
// @Param request body PasswordInput true "Password confirmation"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /me [delete]
// @Security Bearer
func DeleteSelf(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[PasswordInput](c)
		if input == nil {
			return err
		}
		if err := userSvc.DeleteSelf(c.UserContext(), middleware.Principal(c), input.Password); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account deleted", nil)
	}
}
