package gate

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/observability"
	"github.com/calque-ai/ragate/pkg/ragate"
)

// RequestGate runs the rate, validation and adversarial checks in that order
// and stops at the first denial. It is safe for concurrent use.
type RequestGate struct {
	rate      *RateGate
	validator *QueryValidator
	detector  *AdversarialDetector

	sink    audit.Sink
	tracer  observability.TracerProvider
	metrics *observability.Recorder
}

// Option configures a RequestGate
type Option func(*RequestGate)

// WithAuditSink sets where verdict events go. The default discards them.
func WithAuditSink(sink audit.Sink) Option {
	return func(g *RequestGate) {
		if sink != nil {
			g.sink = sink
		}
	}
}

// WithTracer opens a "gate.evaluate" span per request.
func WithTracer(tracer observability.TracerProvider) Option {
	return func(g *RequestGate) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// WithMetrics records ragate_gate_verdicts_total{outcome} and
// ragate_gate_evaluate_duration_seconds.
func WithMetrics(provider observability.MetricsProvider) Option {
	return func(g *RequestGate) {
		g.metrics = observability.NewRecorder(provider, observability.WithMetricsSubsystem("gate"))
	}
}

// New builds a RequestGate over its three checks, which are shared by pointer
// and never copied.
//
// Example:
//
//	rate, _ := gate.NewRateGate(60, time.Minute)
//	validator, _ := gate.NewQueryValidator()
//	detector, _ := gate.NewAdversarialDetector(nil)
//	g, err := gate.New(rate, validator, detector, gate.WithAuditSink(recorder))
//
//	v := g.Evaluate(ctx, "alice", query, time.Now())
//	if !v.Admitted {
//	    return v
//	}
func New(rate *RateGate, validator *QueryValidator, detector *AdversarialDetector, opts ...Option) (*RequestGate, error) {
	if rate == nil {
		return nil, helpers.NewError("request gate requires a rate gate")
	}
	if validator == nil {
		return nil, helpers.NewError("request gate requires a query validator")
	}
	if detector == nil {
		return nil, helpers.NewError("request gate requires an adversarial detector")
	}

	g := &RequestGate{
		rate:      rate,
		validator: validator,
		detector:  detector,
		sink:      audit.Discard,
		tracer:    &observability.NoopTracerProvider{},
		metrics:   observability.NewRecorder(nil),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Rate returns the gate's rate limiter.
func (g *RequestGate) Rate() *RateGate { return g.rate }

// Evaluate decides whether query from identity may proceed at now. A request
// denied by the validator or detector still counts against the rate limit.
// Every verdict is sent to the audit sink.
func (g *RequestGate) Evaluate(ctx context.Context, identity Identity, query string, now time.Time) Verdict {
	start := time.Now()
	ctx, span := g.tracer.StartSpan(ctx, "gate.evaluate", observability.WithAttributes(map[string]any{
		"identity":     string(identity),
		"query_length": utf8.RuneCountInString(query),
	}))

	v := g.evaluate(identity, query, now)

	span.SetAttribute("admitted", v.Admitted)
	span.SetAttribute("reason", v.Reason.String())
	if !v.Admitted {
		span.SetStatus(observability.SpanStatusError, v.Detail)
	} else {
		span.SetStatus(observability.SpanStatusOK, "")
	}
	span.End(nil)

	outcome := observability.Labels{"outcome": outcomeLabel(v)}
	g.metrics.Count(ctx, "verdicts_total", outcome)
	g.metrics.Since(ctx, "evaluate_duration_seconds", start, outcome)

	g.sink.Record(g.event(ctx, identity, query, now, v))

	if v.Admitted {
		ragate.LogDebug(ctx, "query admitted", "identity", string(identity))
	} else {
		ragate.LogWarn(ctx, "query denied",
			"identity", string(identity),
			"reason", v.Reason.String(),
			"severity", v.Severity.String(),
			"detail", v.Detail,
		)
	}
	return v
}

func (g *RequestGate) evaluate(identity Identity, query string, now time.Time) Verdict {
	if !g.rate.Admit(identity, now) {
		return Deny(ReasonRateLimited, SeverityMedium, fmt.Sprintf(
			"rate limit exceeded: %d requests per %s", g.rate.MaxRequests(), g.rate.Window()))
	}

	if res := g.validator.Validate(query); !res.OK {
		v := Deny(ReasonInvalidQuery, SeverityLow, res.Reason)
		v.Rule = res.Rule
		return v
	}

	if c := g.detector.Classify(query); c.IsAttack {
		v := Deny(ReasonAdversarial, SeverityHigh, fmt.Sprintf("potential %s attack detected", c.Family))
		v.Family = c.Family
		v.Pattern = c.Pattern
		v.Confidence = c.Confidence
		return v
	}

	return Admit()
}

// event never carries the raw query text, only its length.
func (g *RequestGate) event(ctx context.Context, identity Identity, query string, now time.Time, v Verdict) audit.Event {
	fields := map[string]string{
		"query_length": strconv.Itoa(utf8.RuneCountInString(query)),
	}
	if v.Rule != "" {
		fields["rule"] = v.Rule
	}
	if v.Family != "" {
		fields["family"] = v.Family
		fields["pattern"] = v.Pattern
		fields["confidence"] = strconv.FormatFloat(v.Confidence, 'f', 2, 64)
	}

	detail := v.Detail
	if v.Admitted {
		detail = "query passed security checks"
	}

	return audit.Event{
		Type:      v.eventType(),
		Identity:  string(identity),
		Severity:  v.Severity.audit(),
		Detail:    detail,
		Timestamp: now,
		RequestID: ragate.RequestID(ctx),
		Fields:    fields,
	}
}

func outcomeLabel(v Verdict) string {
	if v.Admitted {
		return "admitted"
	}
	return v.Reason.String()
}
