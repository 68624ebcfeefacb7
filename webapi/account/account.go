package account

import (
	"github.com/amirasaad/gastos/pkg/domain/account"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/middleware"
	accountsvc "github.com/amirasaad/gastos/pkg/service/account"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	"github.com/amirasaad/gastos/pkg/service/ledger"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the account endpoints.
func Routes(app *fiber.App, accountSvc *accountsvc.Service, ledgerSvc *ledger.Service, authSvc *authsvc.Service) {
	g := app.Group("/accounts", middleware.Protected(authSvc))
	g.Get("/", ListAccounts(accountSvc))
	g.Post("/", CreateAccount(accountSvc))
	g.Get("/search", SearchAccounts(accountSvc))
	g.Get("/summary", Summary(accountSvc))
	g.Get("/:id", GetAccount(accountSvc))
	g.Patch("/:id", UpdateAccount(accountSvc))
	g.Delete("/:id", DeleteAccount(accountSvc))
	g.Get("/:id/stats", Stats(ledgerSvc))
	g.Get("/:id/goal", Goal(ledgerSvc))
	g.Get("/:id/verify", Verify(ledgerSvc))
}

// CreateAccount opens an account for the caller.
// @Summary Create a new account
// @Description Open a cash or bank account. A non-zero opening balance is recorded as its first movement.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account data"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /accounts [post]
// @Security Bearer
func CreateAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateAccountRequest](c)
		if input == nil {
			return err
		}
		cmd, err := input.command()
		if err != nil {
			return err
		}
		a, err := accountSvc.Create(c.UserContext(), middleware.Principal(c), cmd)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account created", a)
	}
}

// ListAccounts lists the caller's accounts.
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param kind query string false "efectivo or bancaria"
// @Param tag_id query string false "Tag ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /accounts [get]
// @Security Bearer
func ListAccounts(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter dto.AccountFilter
		if kind := c.Query("kind"); kind != "" {
			k, err := account.ParseKind(kind)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid filter", err)
			}
			filter.Kind = k
		}
		tag := c.Query("tag_id")
		tagID, err := common.OptionalUUID("tag_id", &tag)
		if err != nil {
			return err
		}
		filter.TagID = tagID
		accounts, err := accountSvc.List(c.UserContext(), middleware.Principal(c), filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", accounts)
	}
}

// SearchAccounts finds the caller's accounts by name or description.
// @Summary Search accounts
// @Tags accounts
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} common.Response
// @Router /accounts/search [get]
// @Security Bearer
func SearchAccounts(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accounts, err := accountSvc.Search(c.UserContext(), middleware.Principal(c), c.Query("q"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't search accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", accounts)
	}
}

// Summary aggregates the caller's accounts.
// @Summary Account summary
// @Tags accounts
// @Produce json
// @Success 200 {object} common.Response
// @Router /accounts/summary [get]
// @Security Bearer
func Summary(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := accountSvc.Summary(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't summarise accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Summary fetched", summary)
	}
}

// GetAccount returns one of the caller's accounts.
// @Summary Get account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /accounts/{id} [get]
// @Security Bearer
func GetAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		a, err := accountSvc.Get(c.UserContext(), middleware.Principal(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't get account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account fetched", a)
	}
}

// UpdateAccount edits one of the caller's accounts. The balance cannot be set.
// @Summary Update account
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body UpdateAccountRequest true "Fields to change"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /accounts/{id} [patch]
// @Security Bearer
func UpdateAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[UpdateAccountRequest](c)
		if input == nil {
			return err
		}
		update, err := input.update()
		if err != nil {
			return err
		}
		a, err := accountSvc.Update(c.UserContext(), middleware.Principal(c), id, update)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't update account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account updated", a)
	}
}

// DeleteAccount removes an account that has no movements.
// @Summary Delete account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /accounts/{id} [delete]
// @Security Bearer
func DeleteAccount(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := accountSvc.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account deleted", nil)
	}
}

// Stats aggregates the movements of one account.
// @Summary Account statistics
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /accounts/{id}/stats [get]
// @Security Bearer
func Stats(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		stats, err := ledgerSvc.AccountStats(c.UserContext(), middleware.Principal(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't compute statistics", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Statistics fetched", stats)
	}
}

// Goal reports the progress of an account towards its savings goal.
// @Summary Goal progress
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /accounts/{id}/goal [get]
// @Security Bearer
func Goal(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		progress, err := ledgerSvc.GoalProgress(c.UserContext(), middleware.Principal(c), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't compute goal progress", err)
		}
		if progress == nil {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Account has no goal", nil)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Goal progress fetched", progress)
	}
}

// Verify checks that an account's balance matches its movements.
// @Summary Verify balance
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Failure 500 {object} common.ProblemDetails
// @Router /accounts/{id}/verify [get]
// @Security Bearer
func Verify(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := ledgerSvc.VerifyBalance(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Balance mismatch", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance matches movements", nil)
	}
}
