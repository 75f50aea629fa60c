package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"akademiku_backend/internals/constants"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret           string
	BlacklistChecker func(rawToken string) (bool, error) // return true if blacklisted
	AllowQueryToken  bool                                // ?token= (dipakai handshake websocket)
}

func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil token: Authorization: Bearer xxx (atau ?token= jika diizinkan)
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowQueryToken {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		// 2) Cek blacklist (opsional)
		if o.BlacklistChecker != nil {
			if black, err := o.BlacklistChecker(raw); err == nil && black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		// 3) Parse + verifikasi algoritma
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		c.Locals(helperAuth.LocJWTClaims, claims)
		c.Locals(helperAuth.LocRawToken, raw)

		// user_id: id / sub / user_id (urutan preferensi)
		uid := firstNonEmpty(strClaim(claims, "id"), strClaim(claims, "sub"), strClaim(claims, "user_id"))
		if _, err := uuid.Parse(uid); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id pada token tidak valid")
		}
		c.Locals(helperAuth.LocUserID, uid)

		// role: klaim "role", fallback roles_global (ambil yang tertinggi)
		role := strings.ToLower(strClaim(claims, "role"))
		if role == "" {
			role = pick(readStringSlice(claims["roles_global"]), constants.RoleAdmin, constants.RoleTeacher, constants.RoleStudent)
		}
		if role == "" {
			role = constants.RoleStudent
		}
		c.Locals(helperAuth.LocRole, role)

		return c.Next()
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func readStringSlice(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			out = append(out, strings.ToLower(strings.TrimSpace(s)))
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				out = append(out, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	}
	return out
}

func pick(have []string, prefer ...string) string {
	set := map[string]struct{}{}
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, p := range prefer {
		if _, ok := set[p]; ok {
			return p
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
