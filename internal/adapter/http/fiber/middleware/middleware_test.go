package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

func failingApp(log *zap.Logger, err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Get("/boom", func(*fiber.Ctx) error { return err })
	return app
}

func decode(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandler_Envelope(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantKind  string
		wantField string
		wantMsg   string
	}{
		{
			name:      "validation carries the field",
			err:       apperrors.Invalid("email", apperrors.ErrInvalidEmail, "email %q is not valid", "x@"),
			wantCode:  422,
			wantKind:  "validation",
			wantField: "email",
		},
		{
			name:     "not found",
			err:      &apperrors.NotFoundError{Entity: "customer", ID: "c-9"},
			wantCode: 404,
			wantKind: "not_found",
		},
		{
			name:     "wrapped duplicate",
			err:      fmt.Errorf("create: %w", &apperrors.DuplicateRecordError{Field: "email", Value: "a@b.cl"}),
			wantCode: 409,
			wantKind: "conflict",
		},
		{
			name:     "internal errors are masked",
			err:      errors.New("near \"SELEC\": syntax error"),
			wantCode: 500,
			wantKind: "internal",
			wantMsg:  "internal server error",
		},
		{
			name:     "fiber errors keep their code",
			err:      fiber.NewError(fiber.StatusRequestEntityTooLarge, "body too large"),
			wantCode: 413,
			wantKind: "http",
			wantMsg:  "body too large",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := decode(t, failingApp(zap.NewNop(), tt.err), "/boom")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.wantKind, body["kind"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, body["field"])
			} else {
				assert.NotContains(t, body, "field")
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["error"])
			}
		})
	}
}

func TestErrorHandler_LogsServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := failingApp(zap.New(core), &apperrors.ConnectionError{Err: errors.New("database is locked")})

	code, _ := decode(t, app, "/boom")

	assert.Equal(t, 503, code)
	entries := logs.FilterMessage("Request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 200, StatusOf(nil))
	assert.Equal(t, 404, StatusOf(fiber.ErrNotFound))
	assert.Equal(t, 504, StatusOf(&apperrors.ExternalServiceTimeoutError{Service: "identity"}))
}

func TestAPIKeyRequired(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		header   string
		wantCode int
	}{
		{"disabled", "", "", 200},
		{"missing", "s3cret", "", 401},
		{"wrong", "s3cret", "guess", 403},
		{"right", "s3cret", "s3cret", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(APIKeyRequired(tt.key))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestNewCORS(t *testing.T) {
	preflight := func(h fiber.Handler) *httptest.ResponseRecorder {
		app := fiber.New()
		app.Use(h)
		app.Get("/api/customers", func(c *fiber.Ctx) error { return c.SendString("ok") })

		req := httptest.NewRequest("OPTIONS", "/api/customers", nil)
		req.Header.Set("Origin", "https://crm.example.cl")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		resp, err := app.Test(req)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		rec.Code = resp.StatusCode
		for k, v := range resp.Header {
			rec.Header()[k] = v
		}
		return rec
	}

	on := preflight(NewCORS(config.CORSConfig{Enabled: true, Credentials: true}))
	assert.Equal(t, fiber.StatusNoContent, on.Code)
	assert.Equal(t, "*", on.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, on.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Empty(t, on.Header().Get("Access-Control-Allow-Credentials"), "no credentials with a wildcard origin")

	off := preflight(NewCORS(config.CORSConfig{Enabled: false}))
	assert.Empty(t, off.Header().Get("Access-Control-Allow-Origin"))
}
