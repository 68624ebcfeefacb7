package backup

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/middleware"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	backupsvc "github.com/amirasaad/gastos/pkg/service/backup"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/amirasaad/gastos/webapi/movement"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the export and import endpoints.
func Routes(app *fiber.App, backupSvc *backupsvc.Service, authSvc *authsvc.Service) {
	g := app.Group("/backup", middleware.Protected(authSvc))
	g.Get("/export", Export(backupSvc))
	g.Post("/import", Import(backupSvc))
	g.Get("/csv", ExportCSV(backupSvc))
	g.Post("/csv", ImportCSV(backupSvc))
}

// Export downloads every account and movement of the caller as JSON.
// @Summary Export backup
// @Tags backup
// @Produce json
// @Success 200 {object} dto.BackupDocument
// @Router /backup/export [get]
// @Security Bearer
func Export(backupSvc *backupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := backupSvc.Export(c.UserContext(), middleware.Principal(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't export backup", err)
		}
		c.Attachment(filename("gastos-backup", "json"))
		return c.JSON(doc)
	}
}

// Import replays a JSON backup into the caller's ledger. The body is the
// document itself or a multipart form with a "file" field.
// @Summary Import backup
// @Tags backup
// @Accept json
// @Produce json
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /backup/import [post]
// @Security Bearer
func Import(backupSvc *backupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := payload(c)
		if err != nil {
			return err
		}
		summary, err := backupSvc.Import(c.UserContext(), middleware.Principal(c), raw)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't import backup", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Backup imported", summary)
	}
}

// ExportCSV downloads the caller's movements as CSV. It accepts the same
// filters as the movement listing.
// @Summary Export movements as CSV
// @Tags backup
// @Produce text/csv
// @Success 200 {file} file
// @Failure 400 {object} common.ProblemDetails
// @Router /backup/csv [get]
// @Security Bearer
func ExportCSV(backupSvc *backupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := movement.ParseFilter(c)
		if err != nil {
			return err
		}
		data, err := backupSvc.ExportCSV(c.UserContext(), middleware.Principal(c), filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't export movements", err)
		}
		c.Attachment(filename("gastos-movements", "csv"))
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(data)
	}
}

// ImportCSV records the movements of a CSV file on the caller's accounts.
// @Summary Import movements from CSV
// @Tags backup
// @Accept text/csv
// @Produce json
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /backup/csv [post]
// @Security Bearer
func ImportCSV(backupSvc *backupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := payload(c)
		if err != nil {
			return err
		}
		summary, err := backupSvc.ImportCSV(c.UserContext(), middleware.Principal(c), raw)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't import movements", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Movements imported", summary)
	}
}

func payload(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "missing file field")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return io.ReadAll(f)
}

func filename(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, time.Now().UTC().Format("20060102-150405"), ext)
}
