package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/antique-appraiser/internal/config"
	"github.com/noah-isme/antique-appraiser/internal/handler"
	"github.com/noah-isme/antique-appraiser/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AppraisalHandler *handler.AppraisalHandler
	PageHandler      *handler.PageHandler
	Model            string
	EventsEnabled    bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Model, deps.EventsEnabled))
	api.Get("/examples", handler.ListExamples())

	if deps.AppraisalHandler != nil {
		deps.AppraisalHandler.Register(api.Group("/appraisals"))
	}

	// Server-rendered page
	if deps.PageHandler != nil {
		deps.PageHandler.Register(app)
	}
}
