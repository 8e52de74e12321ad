package validator

import (
	"github.com/BrightPath-Learning/course-progress-service/internal/errors"
)

// Use shared validation errors from errors package
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// NewValidationError creates a new validation error
var NewValidationError = errors.NewValidationError

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}
