package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/features/notifications/socket"
)

// BaseRoutes: "/" dan "/health" (publik, tanpa token).
func BaseRoutes(app *fiber.App, ping func() error, hub *socket.Hub) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Akademiku backend is running 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		code, storage := fiber.StatusOK, "up"
		if ping != nil {
			if err := ping(); err != nil {
				code, storage = fiber.StatusServiceUnavailable, "down"
			}
		}

		body := fiber.Map{
			"status":         map[bool]string{true: "OK", false: "DOWN"}[code == fiber.StatusOK],
			"storage":        storage,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		}
		if hub != nil {
			body["socket_connections"] = hub.Count()
		}
		return c.Status(code).JSON(body)
	})
}
