package admin

import (
	"github.com/amirasaad/gastos/pkg/domain/user"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/middleware"
	adminsvc "github.com/amirasaad/gastos/pkg/service/admin"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// RoleInput is the request body of a role change.
type RoleInput struct {
	Role string `json:"role" validate:"required"`
}

// Routes registers the administration endpoints. Every route needs at least
// the administrator role; finer checks happen in the service.
func Routes(app *fiber.App, adminSvc *adminsvc.Service, authSvc *authsvc.Service) {
	g := app.Group("/admin", middleware.Protected(authSvc), middleware.RequireRole(user.RoleAdmin))
	g.Get("/users", ListUsers(adminSvc))
	g.Get("/users/:id", GetUser(adminSvc))
	g.Put("/users/:id/role", ChangeRole(adminSvc))
	g.Delete("/users/:id", DeleteUser(adminSvc))
	g.Delete("/movements/:id", DeleteMovement(adminSvc))
	g.Get("/activity", ActivityLog(adminSvc))
	g.Get("/stats", GlobalStats(adminSvc))
}

// ListUsers returns one page of users. The owner is only listed for itself.
// @Summary List users
// @Tags admin
// @Produce json
// @Param role query string false "Role filter"
// @Param q query string false "Username or email search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/users [get]
// @Security Bearer
func ListUsers(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, size := common.Pagination(c)
		users, err := adminSvc.ListUsers(c.UserContext(), middleware.Principal(c), dto.UserFilter{
			Role:     user.Role(c.Query("role")),
			Search:   c.Query("q"),
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list users", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Users fetched", users)
	}
}

// GetUser returns one user.
// @Summary Get user by ID
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/users/{id} [get]
// @Security Bearer
func GetUser(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		u, err := adminSvc.GetUser(c.UserContext(), middleware.Principal(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", u)
	}
}

// ChangeRole sets the role of a user.
// @Summary Change role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body RoleInput true "New role"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/users/{id}/role [put]
// @Security Bearer
func ChangeRole(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[RoleInput](c)
		if input == nil {
			return err
		}
		role, err := user.ParseRole(input.Role)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid role", err)
		}
		u, err := adminSvc.ChangeRole(c.UserContext(), middleware.Principal(c), id, role)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't change role", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Role changed", u)
	}
}

// DeleteUser erases a user and all of their data.
// @Summary Delete user
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/users/{id} [delete]
// @Security Bearer
func DeleteUser(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := adminSvc.DeleteUser(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User deleted", nil)
	}
}

// DeleteMovement removes a movement of another user.
// @Summary Delete a user's movement
// @Tags admin
// @Produce json
// @Param id path string true "Movement ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/movements/{id} [delete]
// @Security Bearer
func DeleteMovement(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := adminSvc.DeleteUserMovement(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete movement", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Movement deleted", nil)
	}
}

// ActivityLog returns one page of the activity log, newest first.
// @Summary Activity log
// @Tags admin
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/activity [get]
// @Security Bearer
func ActivityLog(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, size := common.Pagination(c)
		entries, err := adminSvc.ActivityLog(c.UserContext(), middleware.Principal(c), page, size)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't read activity log", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Activity fetched", entries)
	}
}

// GlobalStats returns installation-wide counters.
// @Summary Global statistics
// @Tags admin
// @Produce json
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/stats [get]
// @Security Bearer
func GlobalStats(adminSvc *adminsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := adminSvc.GlobalStats(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't compute statistics", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Statistics fetched", stats)
	}
}
