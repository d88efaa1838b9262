package worker

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/telemetry"
)

// NewHealthApp builds the worker's monitoring endpoints
func NewHealthApp(metrics *Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "Birb Academy Worker",
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if !metrics.IsHealthy() {
			status, code = "unhealthy", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":    status,
			"service":   "birb-academy-worker",
			"timestamp": time.Now().UTC(),
		})
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(metrics.GetStats())
	})

	app.Get("/metrics", telemetry.PrometheusHandler())

	return app
}
