package ragate

import (
	"context"
	"fmt"
	"log/slog"
)

// Error is a context-aware error that carries metadata for logging and tracing.
//
// It implements the standard error interface and supports Go's error wrapping
// (errors.Is, errors.As, errors.Unwrap). Metadata includes trace ID, request ID,
// and arbitrary tags as slog.Attr for structured logging.
//
// Example:
//
//	err := ragate.WrapErr(ctx, originalErr, "similarity search failed")
//	err.Tag(slog.Int("limit", limit))
//	return err
type Error struct {
	msg       string
	cause     error
	traceID   string
	requestID string
	attrs     []slog.Attr
}

// WrapErr wraps an existing error with context metadata.
//
// The trace ID and request ID are automatically extracted from context.
//
// Example:
//
//	return ragate.WrapErr(ctx, err, "qdrant query failed").
//	    Tag(slog.String("collection", collection))
func WrapErr(ctx context.Context, err error, msg string) *Error {
	return &Error{
		msg:       msg,
		cause:     err,
		traceID:   TraceID(ctx),
		requestID: RequestID(ctx),
		attrs:     make([]slog.Attr, 0),
	}
}

// NewErr creates a new error with context metadata (no underlying cause).
func NewErr(ctx context.Context, msg string) *Error {
	return WrapErr(ctx, nil, msg)
}

// Tag adds a slog.Attr to the error for structured logging.
// Returns the error for fluent chaining.
func (e *Error) Tag(attr slog.Attr) *Error {
	e.attrs = append(e.attrs, attr)
	return e
}

// Tags adds multiple slog.Attr to the error.
func (e *Error) Tags(attrs ...slog.Attr) *Error {
	e.attrs = append(e.attrs, attrs...)
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// TraceID returns the trace ID associated with this error.
func (e *Error) TraceID() string {
	return e.traceID
}

// RequestID returns the request ID associated with this error.
func (e *Error) RequestID() string {
	return e.requestID
}

// Attrs returns the slog attributes associated with this error.
func (e *Error) Attrs() []slog.Attr {
	return e.attrs
}

// Cause returns the wrapped error, or nil.
func (e *Error) Cause() error {
	return e.cause
}

// Message returns the error message without the cause.
func (e *Error) Message() string {
	return e.msg
}

// LogAttrs returns all attributes including the cause, trace_id and request_id.
func (e *Error) LogAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.cause != nil {
		attrs = append(attrs, slog.Any("error", e.cause))
	}
	if e.traceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.traceID))
	}
	if e.requestID != "" {
		attrs = append(attrs, slog.String("request_id", e.requestID))
	}

	return append(attrs, e.attrs...)
}

// Log logs this error at error level with all metadata.
//
// Uses the logger from context or slog.Default().
func (e *Error) Log(ctx context.Context) {
	logger := Logger(ctx)
	if !logger.Enabled(ctx, slog.LevelError) {
		return
	}
	// trace and request ids are already part of LogAttrs
	logger.LogAttrs(ctx, slog.LevelError, e.msg, e.LogAttrs()...)
}

// Is reports whether target is an *Error with the same message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.msg == t.msg
	}
	return false
}
