// Package server exposes the query pipeline over HTTP using gin.
//
// Routes:
//
//	POST /v1/query            gate and retrieve; 429, 400 or 403 on denial
//	GET  /v1/security-stats   audit counters and the most recent events
//	GET  /healthz             health report for the registered checks
//	GET  /metrics             Prometheus exposition
//
// Requester identity is taken from the X-Ragate-Identity header and falls
// back to the client IP. Credential verification is left to a proxy in front.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/observability"
	"github.com/calque-ai/ragate/pkg/pipeline"
	"github.com/calque-ai/ragate/pkg/ragate"
	"github.com/calque-ai/ragate/pkg/retrieval"
)

// Header names.
const (
	IdentityHeader  = "X-Ragate-Identity"
	RequestIDHeader = "X-Request-ID"
	RemainingHeader = "X-RateLimit-Remaining"
)

const (
	DefaultSweepInterval = time.Minute
	DefaultQueryTimeout  = 10 * time.Second
	DefaultRecentLimit   = 20
	DefaultServiceName   = "ragate"

	shutdownTimeout = 5 * time.Second
)

// Server is an http.Handler over a Pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	rate     *gate.RateGate
	recent   *audit.Recorder
	health   *observability.HealthCheckRegistry
	metrics  http.Handler

	serviceName   string
	sweepInterval time.Duration
	queryTimeout  time.Duration
	now           func() time.Time

	router *gin.Engine
}

// Option configures a Server
type Option func(*Server)

// WithRateGate enables the remaining-requests header and the periodic sweep
// of idle rate windows.
func WithRateGate(rate *gate.RateGate) Option {
	return func(s *Server) { s.rate = rate }
}

// WithRecorder serves /v1/security-stats from rec.
func WithRecorder(rec *audit.Recorder) Option {
	return func(s *Server) { s.recent = rec }
}

// WithHealth serves /healthz from registry.
func WithHealth(registry *observability.HealthCheckRegistry) Option {
	return func(s *Server) { s.health = registry }
}

// WithMetricsHandler serves /metrics from h, usually PrometheusProvider.Handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithServiceName names the server spans.
func WithServiceName(name string) Option {
	return func(s *Server) { s.serviceName = helpers.DefaultString(name, s.serviceName) }
}

// WithSweepInterval sets how often idle rate windows are reclaimed.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithQueryTimeout bounds the search of each query. A search that outlives d
// is answered with an empty result; 0 disables the deadline.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.queryTimeout = d
		}
	}
}

// New builds the router.
//
// Example:
//
//	srv, err := server.New(p,
//	    server.WithRateGate(g.Rate()),
//	    server.WithRecorder(recent),
//	    server.WithMetricsHandler(prom.Handler()),
//	)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx, ":8080")
func New(p *pipeline.Pipeline, opts ...Option) (*Server, error) {
	if p == nil {
		return nil, helpers.NewError("server: pipeline is required")
	}
	s := &Server{
		pipeline:      p,
		serviceName:   DefaultServiceName,
		sweepInterval: DefaultSweepInterval,
		queryTimeout:  DefaultQueryTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(s.serviceName), requestLogger())

	r.POST("/v1/query", s.handleQuery)
	if s.recent != nil {
		r.GET("/v1/security-stats", s.handleStats)
	}
	if s.health != nil {
		r.GET("/healthz", gin.WrapH(s.health))
	}
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// Run serves on addr until ctx is done, then shuts down gracefully. Request
// contexts inherit ctx values (the logger) but not its cancellation.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	if s.rate != nil {
		go s.sweep(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		ragate.LogInfo(ctx, "http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return helpers.WrapErrorf(err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	ragate.LogInfo(ctx, "http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.rate.Sweep(now); n > 0 {
				ragate.LogDebug(ctx, "swept idle rate windows", "count", n, "tracked", s.rate.Tracked())
			}
		}
	}
}

func (s *Server) identity(c *gin.Context) gate.Identity {
	if id := c.GetHeader(IdentityHeader); id != "" {
		return gate.Identity(id)
	}
	return gate.Identity(c.ClientIP())
}

func (s *Server) handleQuery(c *gin.Context) {
	var body QueryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if id := c.GetHeader(RequestIDHeader); id != "" {
		ctx = ragate.WithRequestID(ctx, id)
	}
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	req := pipeline.Request{Identity: s.identity(c), Query: body.Query, K: body.K}
	out, err := s.pipeline.Handle(ctx, req)
	if out != nil {
		if s.rate != nil {
			c.Header(RemainingHeader, strconv.Itoa(s.rate.Remaining(req.Identity, out.DecidedAt)))
		}
		c.Header(RequestIDHeader, out.RequestID)
	}

	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, retrieval.ErrMalformedResponse) {
			status = http.StatusBadGateway
		}
		resp := ErrorResponse{Error: "query failed"}
		if out != nil {
			resp.RequestID = out.RequestID
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(statusFor(out.Verdict), NewQueryResponse(req, out))
}

// statusFor maps a verdict to its HTTP status.
func statusFor(v gate.Verdict) int {
	if v.Admitted {
		return http.StatusOK
	}
	switch v.Reason {
	case gate.ReasonRateLimited:
		return http.StatusTooManyRequests
	case gate.ReasonAdversarial:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleStats(c *gin.Context) {
	limit := DefaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, SecurityStats{
		Status:       "operational",
		Metrics:      s.recent.Stats(),
		RecentEvents: s.recent.Recent(limit),
		Timestamp:    s.now().UTC(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ragate.LogDebug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
