package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/audit/badger"
	"github.com/calque-ai/ragate/pkg/cache"
	"github.com/calque-ai/ragate/pkg/config"
	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/logger"
	"github.com/calque-ai/ragate/pkg/observability"
	"github.com/calque-ai/ragate/pkg/pipeline"
	"github.com/calque-ai/ragate/pkg/ragate"
	"github.com/calque-ai/ragate/pkg/retrieval"
)

const shutdownTimeout = 5 * time.Second

// app is everything a command needs, built from one Config.
type app struct {
	cfg *config.Config
	ctx context.Context
	log *logger.Logger

	metrics *observability.PrometheusProvider
	tracer  observability.TracerProvider
	health  *observability.HealthCheckRegistry

	recent *audit.Recorder
	store  *badger.Store
	async  *audit.AsyncSink
	sink   audit.Sink

	cache    *cache.InMemoryStore
	backend  *config.SearchBackend
	gate     *gate.RequestGate
	pipeline *pipeline.Pipeline
}

type appOptions struct {
	// search opens the configured backend and builds the engine and pipeline.
	search bool
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, err
	}
	return config.Load(flags.configPath)
}

// newApp wires logging, observability, audit sinks and the gate. With
// opts.search it also opens the backend and builds the pipeline. The caller
// must call close.
func newApp(cmd *cobra.Command, flags *rootFlags, opts appOptions) (a *app, err error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	adapter := logger.NewZerologAdapter(logger.NewZerolog(cmd.ErrOrStderr(), cfg.Logging.Format, level))

	a = &app{
		cfg:     cfg,
		log:     logger.New(adapter),
		ctx:     ragate.WithLogger(cmd.Context(), slog.New(logger.NewHandler(adapter))),
		metrics: observability.NewPrometheusProvider(),
		tracer:  &observability.NoopTracerProvider{},
		health:  observability.NewHealthCheckRegistry(),
		recent:  audit.NewRecorder(cfg.Audit.RecentEvents),
	}
	defer func() {
		if err != nil {
			a.close()
			a = nil
		}
	}()

	if obs := cfg.Observability; obs.OTLPEndpoint != "" {
		otlpOpts := []observability.OTLPOption{
			observability.WithServiceVersion(Version),
			observability.WithSampleRate(obs.SampleRate),
		}
		if obs.OTLPHTTP {
			otlpOpts = append(otlpOpts, observability.WithHTTPExporter())
		}
		tp, err := observability.NewOTLPTracerProvider(a.ctx, obs.ServiceName, obs.OTLPEndpoint, otlpOpts...)
		if err != nil {
			return a, helpers.WrapError(err, "start tracing")
		}
		a.tracer = tp
	}

	sinks := []audit.Sink{a.recent, audit.NewLogSink(a.log), audit.NewMetricsSink(a.metrics)}
	if cfg.Audit.Path != "" {
		if a.store, err = openAuditStore(cfg); err != nil {
			return a, err
		}
		a.async = audit.NewAsyncSink(a.ctx, audit.NewStoreSink(a.ctx, a.store), cfg.Audit.BufferSize)
		sinks = append(sinks, a.async)
		a.health.Register(&observability.FuncHealthCheck{CheckName: "audit-store", CheckFunc: a.store.Health})
	}
	a.sink = audit.Multi(sinks...)

	a.gate, err = cfg.RequestGate(
		gate.WithAuditSink(a.sink),
		gate.WithTracer(a.tracer),
		gate.WithMetrics(a.metrics),
	)
	if err != nil {
		return a, err
	}

	if !opts.search {
		return a, nil
	}

	a.cache = cache.NewInMemoryStore(time.Minute)
	if a.backend, err = cfg.SearchBackend(a.ctx, a.cache); err != nil {
		return a, err
	}
	a.health.Register(&observability.FuncHealthCheck{
		CheckName: "search:" + a.backend.Name,
		CheckFunc: a.backend.Health,
	})

	engine, err := cfg.Engine(a.backend,
		retrieval.WithEngineTracer(a.tracer),
		retrieval.WithEngineMetrics(a.metrics),
	)
	if err != nil {
		return a, err
	}
	a.pipeline, err = pipeline.New(a.gate, engine,
		pipeline.WithAuditSink(a.sink),
		pipeline.WithDefaultK(cfg.Retrieval.K),
		pipeline.WithTracer(a.tracer),
		pipeline.WithMetrics(a.metrics),
	)
	if err != nil {
		return a, err
	}
	return a, nil
}

func openAuditStore(cfg *config.Config) (*badger.Store, error) {
	var opts []badger.Option
	if h := cfg.Audit.RetentionHours; h > 0 {
		opts = append(opts, badger.WithRetention(time.Duration(h)*time.Hour))
	}
	return badger.Open(cfg.Audit.Path, opts...)
}

// close flushes the audit queue before the store goes away.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.async != nil {
		errs = append(errs, a.async.Close(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.tracer.Shutdown(ctx))
	return errors.Join(errs...)
}
