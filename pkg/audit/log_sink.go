package audit

import (
	"context"
	"time"

	"github.com/calque-ai/ragate/pkg/logger"
)

// LogSink writes each event as one structured log line. Admissions log at
// info, denials at warn and errors at error.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a LogSink.
//
// Example:
//
//	zl := logger.NewZerolog(os.Stderr, "json", logger.InfoLevel)
//	sink := audit.NewLogSink(logger.New(logger.NewZerologAdapter(zl)))
func NewLogSink(l *logger.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) Record(e Event) {
	attrs := []logger.Attribute{
		logger.Attr("event_type", string(e.Type)),
		logger.Attr("identity", e.Identity),
		logger.Attr("severity", string(e.Severity)),
		logger.Attr("event_time", e.Timestamp.Format(time.RFC3339Nano)),
	}
	if e.Detail != "" {
		attrs = append(attrs, logger.Attr("detail", e.Detail))
	}
	if e.RequestID != "" {
		attrs = append(attrs, logger.Attr("request_id", e.RequestID))
	}
	for k, v := range e.Fields {
		attrs = append(attrs, logger.Attr(k, v))
	}

	level := logger.InfoLevel
	switch {
	case e.Type == EventQueryError:
		level = logger.ErrorLevel
	case e.Denied():
		level = logger.WarnLevel
	}
	s.log.Log(context.Background(), level, "audit event", attrs...)
}
