package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/handlers"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/middleware"
	"github.com/soltixdb/udlc/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, jobs *services.JobService, cfg *config.Config) *handlers.Handler {
	h := handlers.New(logger, jobs)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	v1.Get("/methods", h.Methods)

	// Synchronous searches
	v1.Post("/search", h.Search)
	v1.Post("/sweep", h.Sweep)

	// Queued sweep jobs
	v1.Post("/sweeps", h.CreateSweep)
	v1.Get("/sweeps", h.ListSweeps)
	v1.Get("/sweeps/:id", h.GetSweep)
	v1.Get("/sweeps/:id/results", h.SweepResults)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, jobs *services.JobService, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "UDLC Limits",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, jobs, cfg)

	return app
}
