// Package ragate holds the request-scoped plumbing shared by the gate, the
// retrieval engine and the query pipeline: context metadata (logger, trace id,
// request id), context-aware logging helpers and the context-aware Error type.
//
// Gate and retrieval state are never stored in the context. Only metadata that
// identifies a request travels this way, so a passed gate check can never leak
// into another request.
package ragate

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey string

const (
	loggerKey    ctxKey = "ragate.logger"
	traceIDKey   ctxKey = "ragate.trace_id"
	requestIDKey ctxKey = "ragate.request_id"
	identityKey  ctxKey = "ragate.identity"
)

// WithLogger stores a slog.Logger in the context.
//
// The logger will be used by LogInfo, LogDebug, LogWarn, LogError functions.
// If no logger is set, slog.Default() is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	ctx = ragate.WithLogger(ctx, logger)
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger retrieves the slog.Logger from context, or slog.Default() when none is set.
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID retrieves the trace ID from context. Returns empty string if none is set.
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID stores a request ID in the context.
//
// Example:
//
//	ctx = ragate.WithRequestID(ctx, ragate.NewRequestID())
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID from context. Returns empty string if none is set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureRequestID returns ctx unchanged if it already carries a request ID,
// otherwise a child context with a freshly generated one.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestID(ctx); id != "" {
		return ctx, id
	}
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}

// NewRequestID generates a random (v4) request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// WithIdentity stores the requester identity in the context for log correlation.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Identity retrieves the requester identity from context. Returns empty string if none is set.
func Identity(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey).(string); ok {
		return id
	}
	return ""
}
