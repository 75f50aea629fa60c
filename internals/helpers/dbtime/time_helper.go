// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Nama locals yang di-set middleware (lihat middlewares/auth)
const LocAcademyLoc = "academy_loc" // *time.Location

// GetAcademyLocation: zona waktu akademi dari c.Locals, fallback UTC.
func GetAcademyLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return time.UTC
	}
	if v := c.Locals(LocAcademyLoc); v != nil {
		if loc, ok := v.(*time.Location); ok && loc != nil {
			return loc
		}
	}
	return time.UTC
}

// ToAcademyTime mengonversi waktu (biasanya dari DB = UTC) ke zona akademi.
func ToAcademyTime(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() || loc == nil {
		return t
	}
	return t.In(loc)
}

// Versi pointer, biar gampang dipakai di DTO yg pakai *time.Time
func ToAcademyTimePtr(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := ToAcademyTime(*t, loc)
	return &v
}
