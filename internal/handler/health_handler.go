package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/antique-appraiser/internal/config"
	"github.com/noah-isme/antique-appraiser/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Events      bool      `json:"events"`
}

// HealthCheck returns a handler that reports application health information.
// The model provider is not contacted.
func HealthCheck(cfg config.Config, model string, eventsEnabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Provider:    cfg.AIProvider,
			Model:       model,
			Events:      eventsEnabled,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
