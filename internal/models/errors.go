package models

import "fmt"

// ValidationError describes a malformed domain object. Field identifies the
// offending field; for plan exercises it includes the failing index.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
