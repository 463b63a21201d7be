package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"
)

func TestHealthCheckRegistry_RunAll(t *testing.T) {
	t.Parallel()

	registry := NewHealthCheckRegistry(WithHealthCheckTimeout(time.Second))
	registry.Register(&FuncHealthCheck{CheckName: "mock", CheckFunc: func(context.Context) error { return nil }})

	report := registry.RunAll(context.Background())
	if report.Status != HealthStatusHealthy {
		t.Fatalf("status = %s, want healthy", report.Status)
	}
	if report.Checks["mock"].Status != "ok" {
		t.Errorf("mock check = %+v", report.Checks["mock"])
	}

	registry.Register(&FuncHealthCheck{CheckName: "qdrant", CheckFunc: func(context.Context) error {
		return errors.New("connection refused")
	}})
	report = registry.RunAll(context.Background())
	if report.Status != HealthStatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", report.Status)
	}
	if report.Checks["qdrant"].Error != "connection refused" {
		t.Errorf("qdrant check = %+v", report.Checks["qdrant"])
	}

	if got := registry.Names(); !slices.Equal(got, []string{"mock", "qdrant"}) {
		t.Errorf("Names() = %v", got)
	}
	registry.Unregister("qdrant")
	if got := registry.Names(); !slices.Equal(got, []string{"mock"}) {
		t.Errorf("Names() after unregister = %v", got)
	}
}

func TestHealthCheckRegistry_Timeout(t *testing.T) {
	t.Parallel()

	registry := NewHealthCheckRegistry()
	registry.Register(&FuncHealthCheck{
		CheckName:    "slow",
		CheckTimeout: 20 * time.Millisecond,
		CheckFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	report := registry.RunAll(context.Background())
	if report.Checks["slow"].Status != "error" {
		t.Errorf("slow check should time out, got %+v", report.Checks["slow"])
	}
}

func TestHealthCheckRegistry_ServeHTTP(t *testing.T) {
	t.Parallel()

	registry := NewHealthCheckRegistry()
	registry.Register(&FuncHealthCheck{CheckName: "audit", CheckFunc: func(context.Context) error {
		return errors.New("closed")
	}})

	rr := httptest.NewRecorder()
	registry.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rr.Code)
	}
	var report HealthReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if report.Status != HealthStatusUnhealthy {
		t.Errorf("status = %s", report.Status)
	}
}

func TestTCPHealthCheck(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	check := &TCPHealthCheck{CheckName: "pg", Addr: ln.Addr().String(), CheckTimeout: time.Second}
	if err := check.Check(context.Background()); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}
	if check.Name() != "pg" || check.Timeout() != time.Second {
		t.Error("unexpected name or timeout")
	}
}
