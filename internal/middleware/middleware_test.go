package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/models"
	"github.com/soltixdb/udlc/internal/services"
)

const testKey = "0123456789abcdef0123456789abcdef"

func decodeError(t *testing.T, body io.Reader) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return resp
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"short", false},
		{strings.Repeat(" ", MinAPIKeyLength), false},
		{testKey, true},
		{testKey + "extra", true},
	}
	for _, tt := range tests {
		if got := ValidateAPIKey(tt.key); got != tt.want {
			t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("abc"); got != "****" {
		t.Errorf("maskAPIKey short = %q", got)
	}
	if got := maskAPIKey(testKey); got != "0123****" {
		t.Errorf("maskAPIKey = %q", got)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	logger := logging.NewNop()
	enabled := config.AuthConfig{Enabled: true, APIKeys: []string{testKey, "weak"}}

	tests := []struct {
		name    string
		cfg     config.AuthConfig
		headers map[string]string
		status  int
	}{
		{name: "disabled", cfg: config.AuthConfig{}, status: fiber.StatusOK},
		{name: "missing key", cfg: enabled, status: fiber.StatusUnauthorized},
		{name: "x-api-key", cfg: enabled, headers: map[string]string{"X-API-Key": testKey}, status: fiber.StatusOK},
		{name: "bearer", cfg: enabled, headers: map[string]string{"Authorization": "Bearer " + testKey}, status: fiber.StatusOK},
		{name: "plain authorization", cfg: enabled, headers: map[string]string{"Authorization": testKey}, status: fiber.StatusOK},
		{name: "wrong key", cfg: enabled, headers: map[string]string{"X-API-Key": testKey[:31] + "x"}, status: fiber.StatusUnauthorized},
		{name: "weak key ignored", cfg: enabled, headers: map[string]string{"X-API-Key": "weak"}, status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(APIKeyAuth(logger, tt.cfg))
			app.Get("/v1/methods", func(c *fiber.Ctx) error { return c.SendString("ok") })

			req := httptest.NewRequest("GET", "/v1/methods", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.status == fiber.StatusUnauthorized {
				if got := decodeError(t, resp.Body); got.Error.Code != "UNAUTHORIZED" {
					t.Errorf("Expected UNAUTHORIZED, got %q", got.Error.Code)
				}
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid request", services.NewServiceError(services.CodeInvalidRequest, "bad"), fiber.StatusBadRequest, services.CodeInvalidRequest},
		{"job not found", services.NewServiceError(services.CodeJobNotFound, "gone"), fiber.StatusNotFound, services.CodeJobNotFound},
		{"not ready", services.NewServiceError(services.CodeJobNotReady, "wait"), fiber.StatusConflict, services.CodeJobNotReady},
		{"too large", services.NewServiceError(services.CodeTooLarge, "big"), fiber.StatusRequestEntityTooLarge, services.CodeTooLarge},
		{"fiber error", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, services.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
			app.Get("/fail", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			body := decodeError(t, resp.Body)
			if body.Error.Code != tt.code {
				t.Errorf("Expected code %q, got %q", tt.code, body.Error.Code)
			}
			if body.Error.Path != "/fail" {
				t.Errorf("Expected path /fail, got %q", body.Error.Path)
			}
		})
	}
}

func TestErrorHandler_KeepsDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return services.NewServiceErrorWithDetails(services.CodeTooLarge, "too many periods",
			map[string]interface{}{"limit": 50})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	body := decodeError(t, resp.Body)
	if body.Error.Details["limit"] != float64(50) {
		t.Errorf("Expected limit detail 50, got %v", body.Error.Details["limit"])
	}
}
