package geom

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when an argument is not a numeric scalar or
	// an ordered numeric sequence, or when a required argument is missing.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidShape is returned when an argument has the right type but an
	// unusable value: wrong dimension, empty vector or unknown metric.
	ErrInvalidShape = errors.New("invalid shape")
)

// Error kinds reported by outer surfaces.
const (
	KindTypeError  = "type_error"
	KindValueError = "value_error"
)

// ErrorKind classifies err as a type or value error. It returns the empty
// string for errors that did not originate in this package.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTypeMismatch):
		return KindTypeError
	case errors.Is(err, ErrInvalidShape):
		return KindValueError
	default:
		return ""
	}
}

func typeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}

func shapeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidShape, fmt.Sprintf(format, args...))
}
