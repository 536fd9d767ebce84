package core

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no expense matches the requested id.
var ErrNotFound = errors.New("expense not found")

// FieldViolation describes one rejected input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError carries every field violation found in a payload or query.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether a violation was recorded for field.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type violations []FieldViolation

func (v *violations) add(field, typ, msg string) {
	*v = append(*v, FieldViolation{Field: field, Message: msg, Type: typ})
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}
