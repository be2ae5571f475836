// Package records implements the row-level operations applied to loaded
// tables: key resolution, generic create/update/delete, and the movement
// rules (identifier generation and calendar fields derived from the date).
package records

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no row matches a key.
	ErrNotFound = errors.New("record not found")

	// ErrMissingField is returned when a required field is absent or null.
	ErrMissingField = errors.New("missing field")

	// ErrMalformedDate is returned when a date is not YYYY-MM-DD.
	ErrMalformedDate = errors.New("malformed date")

	// ErrNotNumeric is returned when a numeric field holds something else.
	ErrNotNumeric = errors.New("not a number")
)

// ValidationError reports an invalid field value.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
