package observability

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthCheckConfig configures a HealthCheckRegistry.
type HealthCheckConfig struct {
	// Timeout applies to checks that do not define their own. Default: 5 seconds
	Timeout time.Duration
}

// DefaultHealthCheckConfig returns the default health check configuration
func DefaultHealthCheckConfig() HealthCheckConfig {
	return HealthCheckConfig{Timeout: 5 * time.Second}
}

// HealthCheckOption configures the health check registry
type HealthCheckOption func(*HealthCheckConfig)

// WithHealthCheckTimeout sets the default timeout for health checks
func WithHealthCheckTimeout(timeout time.Duration) HealthCheckOption {
	return func(cfg *HealthCheckConfig) {
		cfg.Timeout = timeout
	}
}

// HealthCheckRegistry holds the named dependency checks of a deployment.
type HealthCheckRegistry struct {
	mu     sync.RWMutex
	checks map[string]HealthChecker
	config HealthCheckConfig
}

// NewHealthCheckRegistry creates a new health check registry
//
// Example:
//
//	registry := observability.NewHealthCheckRegistry(observability.WithHealthCheckTimeout(2 * time.Second))
//	registry.Register(&observability.FuncHealthCheck{CheckName: "qdrant", CheckFunc: store.Health})
//	report := registry.RunAll(ctx)
func NewHealthCheckRegistry(opts ...HealthCheckOption) *HealthCheckRegistry {
	cfg := DefaultHealthCheckConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &HealthCheckRegistry{
		checks: make(map[string]HealthChecker),
		config: cfg,
	}
}

// Register adds a check, replacing any check with the same name
func (r *HealthCheckRegistry) Register(check HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[check.Name()] = check
}

// Unregister removes a health check from the registry
func (r *HealthCheckRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checks, name)
}

// Names returns the registered check names in sorted order.
func (r *HealthCheckRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RunAll runs every registered check concurrently and returns a report. Any
// failing check makes the overall status unhealthy.
func (r *HealthCheckRegistry) RunAll(ctx context.Context) HealthReport {
	r.mu.RLock()
	checks := make([]HealthChecker, 0, len(r.checks))
	for _, check := range r.checks {
		checks = append(checks, check)
	}
	r.mu.RUnlock()

	return runHealthChecks(ctx, checks, r.config)
}

// ServeHTTP writes the JSON health report; 503 when unhealthy.
func (r *HealthCheckRegistry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	report := r.RunAll(req.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status != HealthStatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}

func runHealthChecks(ctx context.Context, checks []HealthChecker, cfg HealthCheckConfig) HealthReport {
	report := HealthReport{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]HealthCheckResult, len(checks)),
		Uptime:    time.Since(startTime),
		Timestamp: time.Now(),
	}

	results := make(chan HealthCheckResult, len(checks))
	var wg sync.WaitGroup

	for _, check := range checks {
		wg.Go(func() {
			timeout := check.Timeout()
			if timeout == 0 {
				timeout = cfg.Timeout
			}

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := check.Check(checkCtx)

			result := HealthCheckResult{
				Name:    check.Name(),
				Status:  "ok",
				Latency: time.Since(start),
			}
			if err != nil {
				result.Status = "error"
				result.Error = err.Error()
			}
			results <- result
		})
	}

	wg.Wait()
	close(results)

	for result := range results {
		report.Checks[result.Name] = result
		if result.Status != "ok" {
			report.Status = HealthStatusUnhealthy
		}
	}

	return report
}

// TCPHealthCheck passes when a TCP connection to Addr can be opened.
type TCPHealthCheck struct {
	CheckName    string
	Addr         string
	CheckTimeout time.Duration
}

func (c *TCPHealthCheck) Name() string { return c.CheckName }

func (c *TCPHealthCheck) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *TCPHealthCheck) Timeout() time.Duration { return c.CheckTimeout }

// FuncHealthCheck wraps a custom function as a health check.
type FuncHealthCheck struct {
	CheckName    string
	CheckFunc    func(ctx context.Context) error
	CheckTimeout time.Duration
}

func (c *FuncHealthCheck) Name() string { return c.CheckName }

func (c *FuncHealthCheck) Check(ctx context.Context) error { return c.CheckFunc(ctx) }

func (c *FuncHealthCheck) Timeout() time.Duration { return c.CheckTimeout }
