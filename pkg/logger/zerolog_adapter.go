package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter adapts zerolog.Logger to Adapter
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a new adapter for zerolog
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewZerolog builds a timestamped zerolog.Logger writing to w at the given level.
// Format "console" writes human-readable lines; anything else writes JSON.
// A nil w writes to stderr.
func NewZerolog(w io.Writer, format string, level LogLevel) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(logLevelToZerolog(level)).With().Timestamp().Logger()
}

// Log writes a structured event; context trace fields are added by callers
func (z *ZerologAdapter) Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) {
	var evt *zerolog.Event

	switch level {
	case DebugLevel:
		evt = z.logger.Debug()
	case InfoLevel:
		evt = z.logger.Info()
	case WarnLevel:
		evt = z.logger.Warn()
	case ErrorLevel:
		evt = z.logger.Error()
	default:
		evt = z.logger.Info()
	}

	for _, attr := range attrs {
		if err, ok := attr.Value.(error); ok {
			evt = evt.AnErr(attr.Key, err)
			continue
		}
		evt = evt.Interface(attr.Key, attr.Value)
	}

	evt.Ctx(ctx).Msg(msg)
}

// IsLevelEnabled checks if the given level is enabled in zerolog
func (z *ZerologAdapter) IsLevelEnabled(_ context.Context, level LogLevel) bool {
	return z.logger.GetLevel() <= logLevelToZerolog(level)
}

func (z *ZerologAdapter) Printf(format string, v ...any) {
	z.logger.Printf(format, v...)
}

func logLevelToZerolog(level LogLevel) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
