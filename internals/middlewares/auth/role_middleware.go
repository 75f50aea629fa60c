package auth

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

const defaultForbidden = "Forbidden: kamu tidak punya akses ke resource ini"

// OnlyRoles: lolos kalau role di locals (diisi AuthJWT) ada di daftar roles.
// msg kosong = pesan 403 default.
func OnlyRoles(msg string, roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	if strings.TrimSpace(msg) == "" {
		msg = defaultForbidden
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(helperAuth.LocRole).(string)
		if role == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Role tidak ditemukan di token")
		}
		if _, ok := allowed[role]; ok {
			return c.Next()
		}
		log.Printf("[AUTH] role %q ditolak: %s %s", role, c.Method(), c.Path())
		return helper.JsonError(c, fiber.StatusForbidden, msg)
	}
}
