package helper

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError merender error dari service (biasanya *fiber.Error) via JsonError.
// Error lain dianggap internal: dicatat di log, pesan aslinya tidak dikirim ke client.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
}

// StatusOf: status HTTP dari error service (500 kalau bukan *fiber.Error).
func StatusOf(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "Terjadi kesalahan pada server"
}
