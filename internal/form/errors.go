package form

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload means no JSON object could be recovered from the
	// request body after every unwrapping attempt.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrValidation is the base error every field-level failure wraps.
	ErrValidation = errors.New("validation failed")

	// ErrSpam is returned when the honeypot field is populated. Callers must
	// report it as a generic rejection, never as a honeypot hit.
	ErrSpam = errors.New("spam detected")
)

// FieldError reports which field failed validation and the user-facing reason.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

func fieldErr(field, message string) error {
	return &FieldError{Field: field, Message: message}
}
