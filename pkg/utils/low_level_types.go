package utils

import (
	"errors"
	"fmt"
)

type Range[T any] struct {
	Min *T
	Max *T
}

// XError is a failure reported by a remote collaborator. Meta carries whatever
// the remote side returned (status code, body excerpt) for logging.
type XError struct {
	Reason string
	Meta   any
	Err    error
}

func (xe XError) Error() string {
	if xe.Meta == nil {
		return "xerror: " + xe.Reason
	}
	return fmt.Sprintf("xerror: %v (meta: %v)", xe.Reason, xe.Meta)
}

func (xe XError) Unwrap() error {
	return xe.Err
}

func (xe XError) ToError() error {
	return xe
}

// AsXError reports whether err carries an XError and returns it.
func AsXError(err error) (XError, bool) {
	var xe XError
	if errors.As(err, &xe) {
		return xe, true
	}
	return XError{}, false
}

// Clamp bounds v to the range, ignoring nil ends.
func (r Range[T]) Clamp(v T, less func(a, b T) bool) T {
	if r.Min != nil && less(v, *r.Min) {
		return *r.Min
	}
	if r.Max != nil && less(*r.Max, v) {
		return *r.Max
	}
	return v
}
