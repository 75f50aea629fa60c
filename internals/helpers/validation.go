// file: internals/helpers/validation.go
package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Validator: instance bersama (thread-safe, cache struct info).
func Validator() *validator.Validate { return validate }

// ValidationErrors: validator.ValidationErrors → map field → pesan.
func ValidationErrors(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_error"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "field is required"
		case "min", "gt", "gte":
			msg = "must be at least " + fe.Param()
		case "max", "lt", "lte":
			msg = "must be at most " + fe.Param()
		case "oneof":
			msg = "must be one of: " + fe.Param()
		case "uuid", "uuid4":
			msg = "must be a valid UUID"
		case "datetime":
			msg = "must match format " + fe.Param()
		default:
			msg = "invalid value (" + fe.Tag() + ")"
		}
		out[field] = append(out[field], msg)
	}
	return out
}

// BindAndValidate: BodyParser + validator; kalau gagal langsung tulis response.
// handled=true berarti response sudah dikirim; return err apa adanya.
func BindAndValidate(c *fiber.Ctx, dst any) (handled bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return true, JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := validate.Struct(dst); err != nil {
		return true, JsonValidationError(c, ValidationErrors(err))
	}
	return false, nil
}
