package models

import "fmt"

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

func invalid(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: fmt.Sprint(value), Message: message}
}
