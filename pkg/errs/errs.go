package errs

import (
	"errors"
	"fmt"
)

// Sentinel error categories. Callers match with errors.Is; components wrap
// with context using the helpers below.
var (
	// ErrValidation indicates malformed or conflicting input
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates an unknown model, version, test or alert
	ErrNotFound = errors.New("not found")

	// ErrMissingReference indicates a drift check before a reference was set
	ErrMissingReference = errors.New("missing reference")

	// ErrInsufficientData indicates not enough samples for a statistical result
	ErrInsufficientData = errors.New("insufficient data")

	// ErrPersistence indicates a storage layer failure; callers may retry
	ErrPersistence = errors.New("persistence error")
)

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func MissingReferencef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrMissingReference}, args...)...)
}

func InsufficientDataf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInsufficientData}, args...)...)
}

// Persistence wraps a storage error, preserving the underlying cause.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
