package ragate

import (
	"context"
	"log/slog"
)

// LogInfo logs an info-level message with context metadata.
//
// Automatically appends trace_id, request_id and identity from context if present.
// Uses the logger from context, or slog.Default() if not set.
//
// Example:
//
//	ragate.LogInfo(ctx, "query admitted", "k", 5)
func LogInfo(ctx context.Context, msg string, args ...any) {
	logger := Logger(ctx)
	if !logger.Enabled(ctx, slog.LevelInfo) {
		return
	}
	args = appendContextFields(ctx, args)
	logger.InfoContext(ctx, msg, args...)
}

// LogDebug logs a debug-level message with context metadata.
func LogDebug(ctx context.Context, msg string, args ...any) {
	logger := Logger(ctx)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	args = appendContextFields(ctx, args)
	logger.DebugContext(ctx, msg, args...)
}

// LogWarn logs a warning-level message with context metadata.
func LogWarn(ctx context.Context, msg string, args ...any) {
	logger := Logger(ctx)
	if !logger.Enabled(ctx, slog.LevelWarn) {
		return
	}
	args = appendContextFields(ctx, args)
	logger.WarnContext(ctx, msg, args...)
}

// LogError logs an error-level message with context metadata.
//
// If err is not nil, it's added to the log with key "error".
//
// Example:
//
//	ragate.LogError(ctx, "similarity search failed", err, "limit", 10)
func LogError(ctx context.Context, msg string, err error, args ...any) {
	logger := Logger(ctx)
	if !logger.Enabled(ctx, slog.LevelError) {
		return
	}
	args = appendContextFields(ctx, args)
	if err != nil {
		args = append(args, "error", err)
	}
	logger.ErrorContext(ctx, msg, args...)
}

// appendContextFields adds trace_id, request_id and identity to args if present in context.
func appendContextFields(ctx context.Context, args []any) []any {
	if traceID := TraceID(ctx); traceID != "" {
		args = append(args, "trace_id", traceID)
	}
	if requestID := RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if identity := Identity(ctx); identity != "" {
		args = append(args, "identity", identity)
	}
	return args
}

// LogWith returns a logger with pre-attached context fields.
//
// Example:
//
//	logger := ragate.LogWith(ctx, "component", "retrieval")
//	logger.Info("fetched", "count", len(candidates))
func LogWith(ctx context.Context, args ...any) *slog.Logger {
	logger := Logger(ctx)
	args = appendContextFields(ctx, args)
	return logger.With(args...)
}

// LogAttr logs with slog.Attr for structured logging.
//
// Automatically appends trace_id and request_id as attributes.
func LogAttr(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	logger := Logger(ctx)
	if !logger.Enabled(ctx, level) {
		return
	}

	if traceID := TraceID(ctx); traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if requestID := RequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	logger.LogAttrs(ctx, level, msg, attrs...)
}

// LogErrorAttr logs error-level with slog.Attr.
func LogErrorAttr(ctx context.Context, msg string, attrs ...slog.Attr) {
	LogAttr(ctx, slog.LevelError, msg, attrs...)
}
