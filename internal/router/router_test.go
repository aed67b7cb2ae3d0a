package router

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/udlc/internal/compression"
	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/queue"
	"github.com/soltixdb/udlc/internal/services"
	"github.com/soltixdb/udlc/internal/storage"
)

const apiKey = "router-test-key-0123456789abcdef0123"

func newApp(t *testing.T, auth config.AuthConfig) *fiber.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth = auth

	q, err := queue.NewQueue(cfg.Queue)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	store, err := storage.NewResultStore(t.TempDir(), compression.NoneCompressor{})
	require.NoError(t, err)

	jobs := services.NewJobService(logging.NewNop(), cfg, q, store)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = jobs.Stop(ctx)
	})
	return New(logging.NewNop(), jobs, cfg)
}

func TestRouter_Routes(t *testing.T) {
	app := newApp(t, config.AuthConfig{})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/health", fiber.StatusOK},
		{"GET", "/v1/methods", fiber.StatusOK},
		{"GET", "/v1/sweeps", fiber.StatusOK},
		{"GET", "/v1/sweeps/none", fiber.StatusNotFound},
		{"GET", "/v1/sweeps/none/results", fiber.StatusNotFound},
		{"GET", "/v2/anything", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestRouter_Auth(t *testing.T) {
	app := newApp(t, config.AuthConfig{Enabled: true, APIKeys: []string{apiKey}})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "health stays open")

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/methods", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/methods", nil)
	req.Header.Set("X-API-Key", apiKey)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
