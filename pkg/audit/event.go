// Package audit carries gate and pipeline decisions to their observers: the
// structured log, Prometheus counters, the in-memory recent-events journal and
// the persistent badger store.
//
// Recording must never fail or block the request path. Sinks that do I/O are
// wrapped in an AsyncSink, which drops (and counts) events when its buffer is
// full.
package audit

import (
	"time"
)

// EventType names what happened.
type EventType string

const (
	EventQueryAdmitted       EventType = "QUERY_ADMITTED"
	EventRateLimitExceeded   EventType = "RATE_LIMIT_EXCEEDED"
	EventInvalidQuery        EventType = "INVALID_QUERY"
	EventAdversarialDetected EventType = "ADVERSARIAL_DETECTED"
	EventQueryError          EventType = "QUERY_ERROR"
)

// Severity of an event.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Event is one audit record.
type Event struct {
	Type      EventType         `json:"type"`
	Identity  string            `json:"identity"`
	Severity  Severity          `json:"severity"`
	Detail    string            `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Denied reports whether the event records a rejected request.
func (e Event) Denied() bool {
	switch e.Type {
	case EventRateLimitExceeded, EventInvalidQuery, EventAdversarialDetected:
		return true
	}
	return false
}
