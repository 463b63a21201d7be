package helpers

import (
	"fmt"
)

// WrapError wraps err with a context message using %w. Returns nil for a nil err.
//
// Example:
//
//	return helpers.WrapError(err, "failed to open audit store")
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps err with a formatted context message. Returns nil for a nil err.
//
// Example:
//
//	return helpers.WrapErrorf(err, "failed to read config %s", path)
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// NewError creates a new error with a formatted message.
func NewError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
