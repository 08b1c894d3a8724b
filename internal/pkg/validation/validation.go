package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FieldErrors turns a gin binding error into a field-to-rule map for the
// error envelope's details, e.g. {"BookID": "required"}. Errors that did not
// come from struct validation (malformed JSON, wrong types) yield nil and the
// envelope's message has to carry the story alone.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// Struct validates v with the same rule set gin binding applies, for writes
// that enter through the CLI or tests rather than an HTTP body.
func Struct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return FieldErrors(err)
}

var validate = validator.New(validator.WithRequiredStructEnabled())
