package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/observability"
	"github.com/calque-ai/ragate/pkg/ragate"
)

// DefaultSimilarityThreshold is the minimum 1 - distance a candidate needs.
const DefaultSimilarityThreshold = 0.5

// RetrieveOption adjusts a single Retrieve call.
type RetrieveOption func(*retrieveConfig)

type retrieveConfig struct {
	similarityThreshold float64
	diversityThreshold  float64
}

// WithSimilarityThreshold sets the minimum similarity (1 - distance).
func WithSimilarityThreshold(t float64) RetrieveOption {
	return func(c *retrieveConfig) { c.similarityThreshold = t }
}

// WithDiversityThreshold sets the diversity threshold.
func WithDiversityThreshold(t float64) RetrieveOption {
	return func(c *retrieveConfig) { c.diversityThreshold = t }
}

// Engine runs Fetch, the similarity prefilter, DiversityFilter and
// QualityRanker in sequence.
type Engine struct {
	retriever *CandidateRetriever
	filter    *DiversityFilter
	ranker    *QualityRanker

	defaults []RetrieveOption
	tracer   observability.TracerProvider
	metrics  *observability.Recorder
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithSimilarity sets the diversity similarity function.
func WithSimilarity(s Similarity) EngineOption {
	return func(e *Engine) { e.filter = NewDiversityFilter(s) }
}

// WithTimestampKeys sets the metadata keys that earn the recency bonus.
func WithTimestampKeys(keys ...string) EngineOption {
	return func(e *Engine) { e.ranker = NewQualityRanker(keys...) }
}

// WithDefaults sets options applied before each call's own options.
func WithDefaults(opts ...RetrieveOption) EngineOption {
	return func(e *Engine) { e.defaults = append(e.defaults, opts...) }
}

// WithEngineTracer opens a span per Retrieve and per stage.
func WithEngineTracer(tracer observability.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithEngineMetrics records stage counts and durations under ragate_retrieval_*.
func WithEngineMetrics(provider observability.MetricsProvider) EngineOption {
	return func(e *Engine) {
		e.metrics = observability.NewRecorder(provider, observability.WithMetricsSubsystem("retrieval"))
	}
}

// NewEngine creates an Engine over searcher.
//
// Example:
//
//	engine, err := retrieval.NewEngine(qdrantClient)
//	res, err := engine.Retrieve(ctx, "how are embeddings stored", 5,
//	    retrieval.WithSimilarityThreshold(0.6))
func NewEngine(searcher Searcher, opts ...EngineOption) (*Engine, error) {
	if searcher == nil {
		return nil, helpers.NewError("retrieval engine requires a searcher")
	}

	e := &Engine{
		retriever: NewCandidateRetriever(searcher),
		filter:    NewDiversityFilter(nil),
		ranker:    NewQualityRanker(),
		tracer:    &observability.NoopTracerProvider{},
		metrics:   observability.NewRecorder(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Retrieve returns at most k ranked candidates for query. An empty result is
// valid. If the caller's deadline expires during search the result is empty
// with TimedOut set and no error; cancellation and backend failures return a
// *Fault.
func (e *Engine) Retrieve(ctx context.Context, query string, k int, opts ...RetrieveOption) (result *Result, err error) {
	cfg := retrieveConfig{
		similarityThreshold: DefaultSimilarityThreshold,
		diversityThreshold:  DefaultDiversityThreshold,
	}
	for _, opt := range e.defaults {
		opt(&cfg)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	ctx, span := e.tracer.StartSpan(ctx, "retrieval.retrieve", observability.WithAttributes(map[string]any{
		"k":                    k,
		"similarity_threshold": cfg.similarityThreshold,
		"diversity_threshold":  cfg.diversityThreshold,
	}))
	defer func() {
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "fault"
		case result.TimedOut:
			outcome = "timeout"
		}
		e.metrics.Count(ctx, "retrievals_total", observability.Labels{"outcome": outcome})
		e.metrics.Since(ctx, "retrieve_duration_seconds", start, observability.Labels{"outcome": outcome})
		span.SetAttribute("results", result.Len())
		span.End(err)
	}()

	result = &Result{Query: query, Candidates: []RankedCandidate{}}

	candidates, err := e.fetch(ctx, query, k)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			ragate.LogWarn(ctx, "similarity search timed out", "k", k)
			result.TimedOut = true
			return result, nil
		}
		return nil, err
	}
	result.Fetched = len(candidates)

	relevant := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity() >= cfg.similarityThreshold {
			relevant = append(relevant, c)
		}
	}
	result.Relevant = len(relevant)

	diverse := e.filter.Filter(relevant, cfg.diversityThreshold)
	result.Diverse = len(diverse)

	result.Candidates = e.ranker.Rank(diverse, query, k)

	e.metrics.Observe(ctx, "candidates", float64(result.Fetched), observability.Labels{"stage": "fetched"})
	e.metrics.Observe(ctx, "candidates", float64(result.Relevant), observability.Labels{"stage": "relevant"})
	e.metrics.Observe(ctx, "candidates", float64(result.Diverse), observability.Labels{"stage": "diverse"})

	ragate.LogDebug(ctx, "retrieval complete",
		"fetched", result.Fetched,
		"relevant", result.Relevant,
		"diverse", result.Diverse,
		"returned", len(result.Candidates),
	)
	return result, nil
}

func (e *Engine) fetch(ctx context.Context, query string, k int) ([]Candidate, error) {
	ctx, span := e.tracer.StartSpan(ctx, "retrieval.fetch", observability.WithSpanKind(observability.SpanKindClient))
	candidates, err := e.retriever.Fetch(ctx, query, k)
	span.SetAttribute("candidates", len(candidates))
	span.End(err)
	return candidates, err
}
