// Package validation wires the project's custom validator rules.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Digits10 validates contact numbers: exactly ten ASCII digits.
var Digits10 = func(fl validator.FieldLevel) bool {
	matched, _ := regexp.MatchString(`^\d{10}$`, fl.Field().String())
	return matched
}

// New returns a validator with all custom rules registered.
func New() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("digits10", Digits10)
	// Report field names as they appear on the wire.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return validate
}
