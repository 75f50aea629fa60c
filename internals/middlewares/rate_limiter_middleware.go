package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "akademiku_backend/internals/helpers"
)

func newLimiter(max int, window time.Duration, msg string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, msg)
		},
	})
}

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(100, 1*time.Minute, "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.")
}

// Limiter untuk endpoint booking (create / batch / change), lebih ketat
func BookingRateLimiter() fiber.Handler {
	return newLimiter(20, 1*time.Minute, "❌ Terlalu banyak percobaan reservasi. Coba beberapa saat lagi.")
}
