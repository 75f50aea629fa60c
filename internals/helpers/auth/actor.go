// file: internals/helpers/auth/actor.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/constants"
	helper "akademiku_backend/internals/helpers"
)

// Nama locals yang di-set middleware AuthJWT
const (
	LocUserID    = "user_id"
	LocRole      = "userRole"
	LocJWTClaims = "jwt_claims"
	LocRawToken  = "jwt_raw"
)

// Actor: identitas pemanggil yang diteruskan ke service.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool   { return a.Role == constants.RoleAdmin }
func (a Actor) IsTeacher() bool { return a.Role == constants.RoleTeacher }
func (a Actor) IsStudent() bool { return a.Role == constants.RoleStudent }

// ActorFromCtx membaca user_id + role dari c.Locals.
func ActorFromCtx(c *fiber.Ctx) (Actor, error) {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return Actor{}, err
	}
	role, _ := c.Locals(LocRole).(string)
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Role tidak ditemukan di token")
	}
	return Actor{UserID: uid, Role: role}, nil
}
