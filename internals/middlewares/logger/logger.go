package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// path yang terlalu ramai untuk access log
var quietPaths = map[string]struct{}{
	"/health": {},
	"/ws":     {},
}

// LoggerMiddleware: access log per request dalam zona akademi, dengan request id.
func LoggerMiddleware(timezone string) fiber.Handler {
	return logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			_, quiet := quietPaths[c.Path()]
			return quiet
		},
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   timezone,
		Format:     "[${time}] rid=${locals:requestid} ${ip} ${method} ${path} -> ${status} (${latency})\n",
	})
}
