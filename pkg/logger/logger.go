// Package logger provides a small leveled logging facade over pluggable
// backends (zerolog, slog, the standard log package) and a slog.Handler that
// routes ragate's context logging into any of them.
package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// LogLevel represents logging levels (Debug < Info < Warn < Error)
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the lower-case level name.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Attribute represents a structured logging attribute for key-value pairs
type Attribute struct {
	Key   string
	Value any
}

// Attr creates an Attribute
func Attr(key string, value any) Attribute {
	return Attribute{Key: key, Value: value}
}

// Adapter defines the contract for logging backends (zerolog, slog, standard log, etc.)
type Adapter interface {
	Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) // Structured logging with level
	IsLevelEnabled(ctx context.Context, level LogLevel) bool                 // Performance check - skip work if disabled
	Printf(format string, v ...any)                                          // Simple printf-style logging
}

// Logger wraps an Adapter backend and provides the leveled API
type Logger struct {
	backend Adapter
}

// New creates a Logger with a custom backend (zerolog, slog, etc.)
func New(backend Adapter) *Logger {
	return &Logger{backend: backend}
}

// Default creates a Logger using the standard library log package (simple, no levels)
func Default() *Logger {
	return New(NewStandardAdapter(log.Default()))
}

// Backend returns the underlying adapter.
func (l *Logger) Backend() Adapter {
	return l.backend
}

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, DebugLevel, msg, attrs)
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, InfoLevel, msg, attrs)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, WarnLevel, msg, attrs)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, ErrorLevel, msg, attrs)
}

// Log writes msg at the given level if the backend has it enabled.
func (l *Logger) Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) {
	l.log(ctx, level, msg, attrs)
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, attrs []Attribute) {
	if l.backend.IsLevelEnabled(ctx, level) {
		l.backend.Log(ctx, level, msg, attrs...)
	}
}
