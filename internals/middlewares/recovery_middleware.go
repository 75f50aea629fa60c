package middlewares

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware: panic di handler → 500 (lewat ErrorHandler), dicatat bersama request id
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			rid, _ := c.Locals("requestid").(string)
			log.Printf("[PANIC] rid=%s %s %s: %v", rid, c.Method(), c.Path(), e)
		},
	})
}
