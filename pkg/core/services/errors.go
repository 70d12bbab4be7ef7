package services

import "fmt"

// ValidationError reports malformed input rejected before any side effect:
// an unknown reason code, missing mandatory notes, or an empty required
// identifier.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
