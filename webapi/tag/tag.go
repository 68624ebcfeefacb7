package tag

import (
	"github.com/amirasaad/gastos/pkg/middleware"
	authsvc "github.com/amirasaad/gastos/pkg/service/auth"
	tagsvc "github.com/amirasaad/gastos/pkg/service/tag"
	"github.com/amirasaad/gastos/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// TagInput names a tag.
type TagInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

// Routes registers the tag endpoints. Any user can read tags; only the
// owner manages them.
func Routes(app *fiber.App, tagSvc *tagsvc.Service, authSvc *authsvc.Service) {
	g := app.Group("/tags", middleware.Protected(authSvc))
	g.Get("/", ListTags(tagSvc))
	g.Get("/unused", UnusedTags(tagSvc))
	g.Post("/", CreateTag(tagSvc))
	g.Put("/:id", RenameTag(tagSvc))
	g.Delete("/:id", DeleteTag(tagSvc))
}

// ListTags lists every tag with the number of accounts using it.
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {object} common.Response
// @Router /tags [get]
// @Security Bearer
func ListTags(tagSvc *tagsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := tagSvc.List(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list tags", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Tags fetched", tags)
	}
}

// UnusedTags lists the tags no account references.
// @Summary List unused tags
// @Tags tags
// @Produce json
// @Success 200 {object} common.Response
// @Router /tags/unused [get]
// @Security Bearer
func UnusedTags(tagSvc *tagsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := tagSvc.Unused(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list tags", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Tags fetched", tags)
	}
}

// CreateTag adds a tag.
// @Summary Create tag
// @Tags tags
// @Accept json
// @Produce json
// @Param request body TagInput true "Tag name"
// @Success 201 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /tags [post]
// @Security Bearer
func CreateTag(tagSvc *tagsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TagInput](c)
		if input == nil {
			return err
		}
		t, err := tagSvc.Create(c.UserContext(), middleware.Principal(c), input.Name)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create tag", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Tag created", t)
	}
}

// RenameTag renames an unused tag.
// @Summary Rename tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path string true "Tag ID"
// @Param request body TagInput true "New name"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /tags/{id} [put]
// @Security Bearer
func RenameTag(tagSvc *tagsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[TagInput](c)
		if input == nil {
			return err
		}
		t, err := tagSvc.Rename(c.UserContext(), middleware.Principal(c), id, input.Name)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't rename tag", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Tag renamed", t)
	}
}

// DeleteTag removes an unused tag.
// @Summary Delete tag
// @Tags tags
// @Produce json
// @Param id path string true "Tag ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /tags/{id} [delete]
// @Security Bearer
func DeleteTag(tagSvc *tagsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := tagSvc.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't delete tag", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Tag deleted", nil)
	}
}
