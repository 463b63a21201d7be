package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter adapts slog.Logger to Adapter
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new adapter for slog
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) {
	slogAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		slogAttrs[i] = slog.Any(attr.Key, attr.Value)
	}
	s.logger.LogAttrs(ctx, logLevelToSlog(level), msg, slogAttrs...)
}

func (s *SlogAdapter) IsLevelEnabled(ctx context.Context, level LogLevel) bool {
	return s.logger.Enabled(ctx, logLevelToSlog(level))
}

func (s *SlogAdapter) Printf(format string, v ...any) {
	s.logger.Info(fmt.Sprintf(format, v...))
}

func logLevelToSlog(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func slogToLogLevel(level slog.Level) LogLevel {
	switch {
	case level < slog.LevelInfo:
		return DebugLevel
	case level < slog.LevelWarn:
		return InfoLevel
	case level < slog.LevelError:
		return WarnLevel
	default:
		return ErrorLevel
	}
}
