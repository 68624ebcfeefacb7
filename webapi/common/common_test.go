package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewError(domain.ErrValidation, "bad"), fiber.StatusBadRequest},
		{domain.NewError(domain.ErrUnauthorized, "who"), fiber.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", domain.NewError(domain.ErrForbidden, "no")), fiber.StatusForbidden},
		{domain.NewError(domain.ErrNotFound, "gone"), fiber.StatusNotFound},
		{domain.NewError(domain.ErrConflict, "dup"), fiber.StatusConflict},
		{domain.NewError(domain.ErrIntegrity, "mismatch"), fiber.StatusInternalServerError},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

type input struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/bind", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[input](c)
		if in == nil {
			return err
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", in)
	})
	app.Get("/fail/:kind", func(c *fiber.Ctx) error {
		switch c.Params("kind") {
		case "conflict":
			return ProblemDetailsJSON(c, "Couldn't create", domain.NewError(domain.ErrConflict, "name taken"))
		case "internal":
			return errors.New("connection refused to 10.0.0.1")
		default:
			_, err := ParseID(c, "kind")
			return err
		}
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp, out
}

func TestBindAndValidate(t *testing.T) {
	app := newApp()

	resp, out := do(t, app, http.MethodPost, "/bind", `{"name":"ana"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["message"])

	resp, out = do(t, app, http.MethodPost, "/bind", `{"name":"toolongname","email":"nope"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "Validation failed", out["title"])
	assert.Equal(t, map[string]any{"Name": "max", "Email": "email"}, out["errors"])

	resp, out = do(t, app, http.MethodPost, "/bind", `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", out["title"])
}

func TestProblemDetails(t *testing.T) {
	app := newApp()

	resp, out := do(t, app, http.MethodGet, "/fail/conflict", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, ProblemContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "Couldn't create", out["title"])
	assert.Equal(t, "name taken", out["detail"])
	assert.Equal(t, "/fail/conflict", out["instance"])

	resp, out = do(t, app, http.MethodGet, "/fail/internal", "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, ProblemContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "Internal Server Error", out["title"])
	assert.NotContains(t, out, "detail")

	resp, out = do(t, app, http.MethodGet, "/fail/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid kind: must be a UUID", out["detail"])
}

func TestParseTime(t *testing.T) {
	d, err := ParseTime("date", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T00:00:00Z", d.Format("2006-01-02T15:04:05Z07:00"))

	ts, err := ParseTime("date", "2024-03-01T10:30:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, 9, ts.UTC().Hour())

	_, err = ParseTime("date", "01/03/2024")
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(err))
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("amount", "12,5")
	require.NoError(t, err)
	assert.Equal(t, "12.50", d.StringFixed(2))

	_, err = ParseAmount("amount", "abc")
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(err))

	none, err := OptionalAmount("goal", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}
