package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/configs"
	"akademiku_backend/internals/middlewares/logger"
)

// SetupMiddlewares: urutan recover → cors → access log → limiter → zona akademi.
func SetupMiddlewares(app *fiber.App, cfg configs.AppConfig, loc *time.Location) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware(cfg.CorsOrigins))
	app.Use(logger.LoggerMiddleware(cfg.Timezone))
	app.Use(GlobalRateLimiter())
	app.Use(AcademyLocation(loc))
}
