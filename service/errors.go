package service

import (
	"errors"
	"fmt"
)

// Error taxonomy of the order lifecycle. Handlers translate these to
// response codes with errors.Is; everything unwrapped is an internal
// failure.
var (
	ErrNotFound   = errors.New("entity not found")
	ErrForbidden  = errors.New("not enough privileges, this entity does not belong to you")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")

	// ErrStaleWrite reports a lost read-modify-write race: the order
	// changed between load and persist. Surfaces as a Conflict.
	ErrStaleWrite = fmt.Errorf("%w: the order was modified concurrently", ErrConflict)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// conflict keeps the engine's specific reason visible to errors.Is while
// classifying it under ErrConflict.
func conflict(reason error) error {
	return fmt.Errorf("%w: %w", ErrConflict, reason)
}
