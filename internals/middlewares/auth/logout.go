package auth

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

// Revoker menyimpan token ke blacklist selama ttl.
type Revoker func(ctx context.Context, rawToken string, ttl time.Duration) error

// fallback kalau token tidak punya klaim exp
const defaultRevokeTTL = 24 * time.Hour

// LogoutHandler: revoke token yang sedang dipakai (harus dipasang setelah AuthJWT).
func LogoutHandler(revoke Revoker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if revoke == nil {
			return helper.JsonError(c, fiber.StatusServiceUnavailable, "Blacklist token tidak tersedia")
		}
		raw, _ := c.Locals(helperAuth.LocRawToken).(string)
		if raw == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
		}

		ttl := defaultRevokeTTL
		if claims, ok := c.Locals(helperAuth.LocJWTClaims).(jwt.MapClaims); ok {
			if exp, ok := claims["exp"].(float64); ok {
				ttl = time.Until(time.Unix(int64(exp), 0))
			}
		}
		if ttl <= 0 {
			return helper.JsonOK(c, "Logout berhasil", nil)
		}

		if err := revoke(c.UserContext(), raw, ttl); err != nil {
			log.Printf("[Auth] revoke gagal: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal logout")
		}
		return helper.JsonOK(c, "Logout berhasil", nil)
	}
}
