// Package middleware holds the fiber middlewares shared by the limits service.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/models"
)

// MinAPIKeyLength is the minimum accepted API key length
const MinAPIKeyLength = 32

// ValidateAPIKey reports whether a configured key is long enough to be used
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// APIKeyAuth returns a middleware that requires one of the configured keys in
// X-API-Key or Authorization (optionally "Bearer "). Disabled auth passes
// every request through.
func APIKeyAuth(logger *logging.Logger, cfg config.AuthConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if !ValidateAPIKey(key) {
			logger.Warn("Ignoring weak API key", "key_prefix", maskAPIKey(key), "min_length", MinAPIKeyLength)
			continue
		}
		keys = append(keys, []byte(key))
	}
	if len(keys) == 0 {
		logger.Error("Authentication enabled without a usable API key; every request will be rejected",
			"configured", len(cfg.APIKeys))
	}

	return func(c *fiber.Ctx) error {
		key := requestKey(c)
		if key == "" {
			return unauthorized(c, "API key is required. Provide it via X-API-Key or Authorization header.")
		}
		for _, k := range keys {
			if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
				return c.Next()
			}
		}
		logger.Warn("Invalid API key",
			"path", c.Path(),
			"ip", c.IP(),
			"key_prefix", maskAPIKey(key),
		)
		return unauthorized(c, "Invalid API key.")
	}
}

func requestKey(c *fiber.Ctx) string {
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "UNAUTHORIZED",
			Message: message,
			Path:    c.Path(),
		},
	})
}

// maskAPIKey keeps the first four characters for logs
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
