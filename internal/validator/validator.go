package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// New creates a validator instance with the custom validations registered,
// shared between the application and its tests.
func New() *validator.Validate {
	v := validator.New()

	// "notblank" rejects whitespace-only strings. Coupon codes and item IDs
	// must carry meaningful content, not just satisfy "required".
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	return v
}
