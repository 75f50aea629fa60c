package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/helpers/dbtime"
)

// AcademyLocation menaruh zona waktu akademi di c.Locals untuk controller/DTO.
func AcademyLocation(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(dbtime.LocAcademyLoc, loc)
		return c.Next()
	}
}
