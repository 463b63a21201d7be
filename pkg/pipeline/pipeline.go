// Package pipeline runs one query end to end: the request gate, then, on
// admission, the retrieval engine. Denials come back as values in the Outcome;
// retrieval faults come back as errors alongside a partial Outcome.
package pipeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/observability"
	"github.com/calque-ai/ragate/pkg/ragate"
	"github.com/calque-ai/ragate/pkg/retrieval"
)

// DefaultK is used when Request.K is not positive.
const DefaultK = 5

// Request is one query from one identity.
type Request struct {
	Identity gate.Identity
	Query    string

	// K is the number of passages wanted; <= 0 uses the pipeline default.
	K int
}

// Outcome is what Handle produced for a request.
type Outcome struct {
	RequestID string
	Verdict   gate.Verdict
	// DecidedAt is the clock reading the gate evaluated the request at.
	DecidedAt time.Time

	// Result is nil when the request was denied or retrieval faulted.
	Result  *retrieval.Result
	Elapsed time.Duration
}

// Admitted reports whether the gate let the request through.
func (o *Outcome) Admitted() bool { return o != nil && o.Verdict.Admitted }

// Pipeline is safe for concurrent use.
type Pipeline struct {
	gate     *gate.RequestGate
	engine   *retrieval.Engine
	sink     audit.Sink
	defaultK int
	now      func() time.Time

	tracer  observability.TracerProvider
	metrics *observability.Recorder
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithAuditSink receives QUERY_ERROR events for retrieval faults. Gate
// verdicts are emitted by the gate's own sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithDefaultK sets the k used for requests that do not set one.
func WithDefaultK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.defaultK = k
		}
	}
}

// WithClock replaces time.Now for gate decisions.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTracer opens a "pipeline.handle" span around each request.
func WithTracer(tracer observability.TracerProvider) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithMetrics records ragate_pipeline_requests_total{outcome} and
// ragate_pipeline_handle_duration_seconds{outcome}.
func WithMetrics(provider observability.MetricsProvider) Option {
	return func(p *Pipeline) {
		p.metrics = observability.NewRecorder(provider, observability.WithMetricsSubsystem("pipeline"))
	}
}

// New builds a pipeline over g and engine.
//
// Example:
//
//	p, err := pipeline.New(g, engine, pipeline.WithAuditSink(sink))
//	out, err := p.Handle(ctx, pipeline.Request{Identity: "alice", Query: q, K: 5})
//	if err != nil {
//	    return err // retrieval fault
//	}
//	if !out.Admitted() {
//	    return out.Verdict
//	}
func New(g *gate.RequestGate, engine *retrieval.Engine, opts ...Option) (*Pipeline, error) {
	if g == nil {
		return nil, helpers.NewError("pipeline requires a request gate")
	}
	if engine == nil {
		return nil, helpers.NewError("pipeline requires a retrieval engine")
	}

	p := &Pipeline{
		gate:     g,
		engine:   engine,
		sink:     audit.Discard,
		defaultK: DefaultK,
		now:      time.Now,
		tracer:   &observability.NoopTracerProvider{},
		metrics:  observability.NewRecorder(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Handle gates req and, if admitted, retrieves passages for it. The request id
// already in ctx is kept; otherwise a new one is assigned. The gate runs
// exactly once per call, also when retrieval fails.
func (p *Pipeline) Handle(ctx context.Context, req Request, opts ...retrieval.RetrieveOption) (out *Outcome, err error) {
	start := time.Now()
	ctx, requestID := ragate.EnsureRequestID(ctx)
	ctx = ragate.WithIdentity(ctx, string(req.Identity))

	ctx, span := p.tracer.StartSpan(ctx, "pipeline.handle", observability.WithAttributes(map[string]any{
		"request_id": requestID,
		"identity":   string(req.Identity),
	}))
	out = &Outcome{RequestID: requestID}
	defer func() {
		out.Elapsed = time.Since(start)
		labels := observability.Labels{"outcome": outcomeLabel(out, err)}
		p.metrics.Count(ctx, "requests_total", labels)
		p.metrics.Since(ctx, "handle_duration_seconds", start, labels)
		span.SetAttribute("admitted", out.Verdict.Admitted)
		span.End(err)
	}()

	out.DecidedAt = p.now()
	out.Verdict = p.gate.Evaluate(ctx, req.Identity, req.Query, out.DecidedAt)
	if !out.Verdict.Admitted {
		return out, nil
	}

	k := req.K
	if k <= 0 {
		k = p.defaultK
	}

	result, err := p.engine.Retrieve(ctx, req.Query, k, opts...)
	if err != nil {
		p.sink.Record(faultEvent(ctx, req, k, p.now(), err))
		ragate.LogError(ctx, "retrieval failed", err, "k", k)
		return out, err
	}
	out.Result = result

	ragate.LogInfo(ctx, "query served",
		"k", k,
		"returned", result.Len(),
		"timed_out", result.TimedOut,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func faultEvent(ctx context.Context, req Request, k int, now time.Time, err error) audit.Event {
	kind := "unknown"
	var fault *retrieval.Fault
	if errors.As(err, &fault) && fault.Kind != nil {
		kind = fault.Kind.Error()
	}
	return audit.Event{
		Type:      audit.EventQueryError,
		Identity:  string(req.Identity),
		Severity:  audit.SeverityHigh,
		Detail:    err.Error(),
		Timestamp: now,
		RequestID: ragate.RequestID(ctx),
		Fields: map[string]string{
			"kind": kind,
			"k":    strconv.Itoa(k),
		},
	}
}

func outcomeLabel(out *Outcome, err error) string {
	switch {
	case err != nil:
		return "fault"
	case !out.Verdict.Admitted:
		return "denied"
	case out.Result != nil && out.Result.TimedOut:
		return "timeout"
	default:
		return "served"
	}
}
