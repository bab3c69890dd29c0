package validation

import (
	"errors"
	"fmt"
)

// Sentinel kinds for validation errors.
var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrOutOfRange     = errors.New("value out of range")
)

// FieldError names the field and bound that failed a range check.
// It unwraps to ErrOutOfRange.
type FieldError struct {
	Field string
	Min   float64
	Max   float64
	Value float64
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrOutOfRange }
