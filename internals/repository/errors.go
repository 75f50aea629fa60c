package repository

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	helper "akademiku_backend/internals/helpers"
)

var (
	// ErrNotFound dikembalikan kalau baris tidak ada.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate dikembalikan kalau unique constraint dilanggar.
	ErrDuplicate = errors.New("duplicate record")
)

// ToFiberError: error storage → *fiber.Error untuk dikembalikan service.
// *fiber.Error diteruskan apa adanya; error tak dikenal dibiarkan (jadi 500 di controller).
func ToFiberError(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case errors.Is(err, ErrDuplicate):
		return fiber.NewError(fiber.StatusConflict, "Data duplikat")
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Data tidak ditemukan")
	}
	if code, msg := helper.MapPGError(err); code < fiber.StatusInternalServerError {
		return fiber.NewError(code, msg)
	}
	return err
}
