// Package common holds the response envelope, RFC 9457 problem details and
// request binding shared by every HTTP handler.
package common

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// StatusFor maps an error to its HTTP status by domain error class.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch domain.Class(err) {
	case domain.ErrValidation:
		return fiber.StatusBadRequest
	case domain.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case domain.ErrForbidden:
		return fiber.StatusForbidden
	case domain.ErrNotFound:
		return fiber.StatusNotFound
	case domain.ErrConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ProblemDetailsJSON writes a problem response. The optional args are a
// detail string, which replaces err's message, and an explicit status.
// Without a status it is derived from err. Internal errors never leak their
// message.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := fiber.StatusBadRequest
	if err != nil {
		status = StatusFor(err)
	}
	detail := ""
	for _, a := range args {
		switch v := a.(type) {
		case string:
			detail = v
		case int:
			status = v
		}
	}
	if detail == "" && err != nil && status != fiber.StatusInternalServerError {
		detail = err.Error()
	}
	if title == "" {
		title = utils.StatusMessage(status)
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		pd.Errors = fieldErrors(verrs)
	}
	return c.Status(status).JSON(pd, ProblemContentType)
}

// ProblemContentType is the media type of every error response.
const ProblemContentType = "application/problem+json"

// ErrorJSON writes err as a problem titled after its status.
func ErrorJSON(c *fiber.Ctx, err error) error {
	return ProblemDetailsJSON(c, "", err)
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ErrorHandler renders errors returned by handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return ErrorJSON(c, err)
}

// BindAndValidate parses the request body and validates it with
// go-playground/validator. On failure the problem response is already
// written and the returned input is nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
	}
	return &input, nil
}

// ParseID reads a uuid path parameter.
func ParseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+": must be a UUID")
	}
	return id, nil
}

// Pagination reads page and page_size query parameters.
func Pagination(c *fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size", "0"))
	return page, pageSize
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// ParseTime accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// Dates are taken as UTC midnight.
func ParseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+field+": expected YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

// QueryTime reads an optional date query parameter.
func QueryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := ParseTime(name, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodeUpload turns a base64 data URI into an upload.
func DecodeUpload(dataURI, name string) (*dto.Upload, error) {
	mime, data, err := attachment.ParseDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	return &dto.Upload{Name: name, MIME: mime, Data: data}, nil
}

// SendFile writes raw file content with its MIME type.
func SendFile(c *fiber.Ctx, data []byte, mime string) error {
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderCacheControl, "private, max-age=0")
	return c.Send(data)
}

// ParseAmount reads a monetary amount written with '.' or ',' as decimal
// separator.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	d, err := money.Parse(s)
	if err != nil {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "invalid "+field+": "+err.Error())
	}
	return d, nil
}

// OptionalAmount is ParseAmount for fields that may be absent.
func OptionalAmount(field string, s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := ParseAmount(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// OptionalUUID parses an optional id field.
func OptionalUUID(field string, s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+field+": must be a UUID")
	}
	return &id, nil
}
