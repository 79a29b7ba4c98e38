// Package apperror maps validation failures to field-scoped messages.
package apperror

import (
	"errors"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldErrors converts validator errors into a field -> message map. Keys in
// messages are "<Namespace>.<tag>" using reported field names, e.g.
// "OrganisationRequest.hrDetails.email.email". Unmapped failures fall back to
// a generic message so no failed field is ever silently dropped.
func FieldErrors(err error, messages map[string]string) map[string]string {
	fieldErrors := make(map[string]string)

	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) {
		return fieldErrors
	}

	for _, e := range validationErr {
		key := e.Namespace() + "." + e.Tag()
		msg, ok := messages[key]
		if !ok {
			msg = e.Field() + " is invalid"
		}
		fieldErrors[lowerFirst(e.Field())] = msg
	}
	return fieldErrors
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
