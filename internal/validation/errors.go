package validation

import (
	"fmt"

	"github.com/bcnelson/erp-console/internal/domain"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e[0].Error(), len(e)-1)
}

// Unwrap classifies every validation failure as invalid input.
func (e ValidationErrors) Unwrap() error {
	return domain.ErrInvalidInput
}

// Add adds a validation error to the collection.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, NewValidationError(field, value, message))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ByField indexes the messages by field name for form rendering.
func (e ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, v := range e {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// OrNil returns nil when there are no errors so callers can return it as error.
func (e ValidationErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
