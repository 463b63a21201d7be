package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// OTLPTracerProvider implements TracerProvider with an OpenTelemetry OTLP
// exporter (Jaeger, Tempo or any OTLP collector).
type OTLPTracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// OTLPConfig configures the OTLP tracer provider.
type OTLPConfig struct {
	ServiceName    string
	ServiceVersion string

	// Endpoint is the collector address; 4317 is gRPC, 4318 is HTTP.
	Endpoint string

	UseHTTP  bool
	Insecure bool
	Headers  map[string]string

	// SampleRate: 1.0 records every trace, 0 records none.
	SampleRate float64

	BatchTimeout time.Duration
}

// DefaultOTLPConfig returns the default OTLP configuration
func DefaultOTLPConfig(serviceName, endpoint string) OTLPConfig {
	return OTLPConfig{
		ServiceName:    serviceName,
		ServiceVersion: "unknown",
		Endpoint:       endpoint,
		Insecure:       true,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// OTLPOption configures the OTLP tracer provider
type OTLPOption func(*OTLPConfig)

// WithServiceVersion sets the service version
func WithServiceVersion(version string) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.ServiceVersion = version
	}
}

// WithHTTPExporter uses HTTP instead of gRPC
func WithHTTPExporter() OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.UseHTTP = true
	}
}

// WithSecure enables TLS
func WithSecure() OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.Insecure = false
	}
}

// WithHeaders sets additional headers for the exporter
func WithHeaders(headers map[string]string) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.Headers = headers
	}
}

// WithSampleRate sets the sampling rate
func WithSampleRate(rate float64) OTLPOption {
	return func(cfg *OTLPConfig) {
		cfg.SampleRate = rate
	}
}

// NewOTLPTracerProvider creates a tracer provider exporting to endpoint and
// installs it as the global OpenTelemetry provider. Call Shutdown before exit
// to flush pending spans.
//
//	provider, err := observability.NewOTLPTracerProvider(ctx, "ragate", "localhost:4317")
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(context.Background())
func NewOTLPTracerProvider(ctx context.Context, serviceName, endpoint string, opts ...OTLPOption) (*OTLPTracerProvider, error) {
	cfg := DefaultOTLPConfig(serviceName, endpoint)
	for _, opt := range opts {
		opt(&cfg)
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build otlp resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &OTLPTracerProvider{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
	}, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func (p *OTLPTracerProvider) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := newSpanConfig(opts)

	otelKind := trace.SpanKindInternal
	switch cfg.kind {
	case SpanKindServer:
		otelKind = trace.SpanKindServer
	case SpanKindClient:
		otelKind = trace.SpanKindClient
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.attributes))
	for k, v := range cfg.attributes {
		attrs = append(attrs, anyToAttribute(k, v))
	}

	ctx, otelSpan := p.tracer.Start(ctx, name, trace.WithSpanKind(otelKind), trace.WithAttributes(attrs...))
	return ctx, &otlpSpan{span: otelSpan}
}

func (p *OTLPTracerProvider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

type otlpSpan struct {
	span trace.Span
}

func (s *otlpSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s *otlpSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(anyToAttribute(key, value))
}

func (s *otlpSpan) AddEvent(name string, attrs map[string]any) {
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, anyToAttribute(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(otelAttrs...))
}

func (s *otlpSpan) SetStatus(code SpanStatus, description string) {
	switch code {
	case SpanStatusOK:
		s.span.SetStatus(codes.Ok, description)
	case SpanStatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *otlpSpan) SpanContext() SpanContext {
	sc := s.span.SpanContext()
	return SpanContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// anyToAttribute converts a value to an OpenTelemetry attribute. Unknown types
// are formatted with %v.
func anyToAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int:
		return attribute.IntSlice(key, v)
	case []float64:
		return attribute.Float64Slice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

func createExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	if cfg.UseHTTP {
		options := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			options = append(options, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			options = append(options, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, options...)
	}

	options := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		options = append(options, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		options = append(options, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(ctx, options...)
}
