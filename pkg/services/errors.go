// Package services contains the persistence layer for workflow definitions
// and execution records. Handlers and the engine never touch SQL directly —
// they go through these services.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when an operation collides with existing state
	ErrConflict = errors.New("conflicting state")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
