package movement

import (
	"github.com/amirasaad/gastos/pkg/middleware"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the movement endpoints.
func Routes(app *fiber.App, ledgerSvc *ledger.Service, authSvc *authsvc.Service) {
	g := app.Group("/movements", middleware.Protected(authSvc))
	g.Get("/", ListMovements(ledgerSvc))
	g.Post("/", CreateMovement(ledgerSvc))
	g.Get("/stats", Stats(ledgerSvc))
	g.Get("/:id", GetMovement(ledgerSvc))
	g.Patch("/:id", UpdateMovement(ledgerSvc))
	g.Delete("/:id", DeleteMovement(ledgerSvc))
	g.Get("/:id/attachment", Attachment(ledgerSvc))
}

// CreateMovement records a movement and updates the account balance.
// @Summary Create movement
// @Description Record an ingreso or retirada on one of the caller's accounts
// @Tags movements
// @Accept json
// @Produce json
// @Param request body CreateMovementRequest true "Movement data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /movements [post]
// @Security Bearer
func CreateMovement(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateMovementRequest](c)
		if input == nil {
			return err
		}
		cmd, err := input.command()
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid movement", err)
		}
		m, err := ledgerSvc.CreateMovement(c.UserContext(), middleware.Principal(c), cmd)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create movement", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Movement created", m)
	}
}

// ListMovements returns one page of the caller's movements.
// @Summary List movements
// @Tags movements
// @Produce json
// @Param account_id query string false "Account ID"
// @Param type query string false "ingreso or retirada"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param min query string false "Minimum amount"
// @Param max query string false "Maximum amount"
// @Param sort query string false "fecha or cantidad"
// @Param order query string false "asc or desc"
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /movements [get]
// @Security Bearer
func ListMovements(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := ParseFilter(c)
		if err != nil {
			return err
		}
		page, err := ledgerSvc.ListMovements(c.UserContext(), middleware.Principal(c), filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list movements", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Movements fetched", page)
	}
}

// Stats aggregates the caller's movements within an optional date range.
// @Summary Movement statistics
// @Tags movements
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /movements/stats [get]
// @Security Bearer
func Stats(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := common.QueryTime(c, "from")
		if err != nil {
			return err
		}
		to, err := common.QueryTime(c, "to")
		if err != nil {
			return err
		}
		stats, err := ledgerSvc.UserStats(c.UserContext(), middleware.Principal(c), from, to)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't compute statistics", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Statistics fetched", stats)
	}
}

// GetMovement returns one of the caller's movements.
// @Summary Get movement
// @Tags movements
// @Produce json
// @Param id path string true "Movement ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /movements/{id} [get]
// @Security Bearer
func GetMovement(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		m, err := ledgerSvc.GetMovement(c.UserContext(), middleware.Principal(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get movement", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Movement fetched", m)
	}
}

// UpdateMovement edits a movement and rebalances its account.
// @Summary Update movement
// @Tags movements
// @Accept json
// @Produce json
// @Param id path string true "Movement ID"
// @Param request body UpdateMovementRequest true "Fields to change"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /movements/{id} [patch]
// @Security Bearer
func UpdateMovement(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[UpdateMovementRequest](c)
		if input == nil {
			return err
		}
		cmd, err := input.command()
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid movement", err)
		}
		m, err := ledgerSvc.UpdateMovement(c.UserContext(), middleware.Principal(c), id, cmd)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't update movement", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Movement updated", m)
	}
}

// DeleteMovement removes a movement and reverses its effect on the balance.
// @Summary Delete movement
// @Tags movements
// @Produce json
// @Param id path string true "Movement ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /movements/{id} [delete]
// @Security Bearer
func DeleteMovement(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := ledgerSvc.DeleteMovement(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete movement", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Movement deleted", nil)
	}
}

// Attachment downloads the file attached to a movement.
// @Summary Download attachment
// @Tags movements
// @Produce application/octet-stream
// @Param id path string true "Movement ID"
// @Success 200 {file} file
// @Failure 404 {object} common.ProblemDetails
// @Router /movements/{id}/attachment [get]
// @Security Bearer
func Attachment(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		data, mime, err := ledgerSvc.Attachment(c.UserContext(), middleware.Principal(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get attachment", err)
		}
		return common.SendFile(c, data, mime)
	}
}
