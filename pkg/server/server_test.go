package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/telemetry/health"
	"eunomia-hq/eunomia/pkg/telemetry/metrics"
)

func testServer() *Server {
	cfg := &config.MetricsConfig{Enabled: true, Path: "/metrics"}
	collector := metrics.NewCollector(cfg, nil)
	checker := health.New(time.Second)
	return NewServer(cfg, collector, checker, "1.0.0", "abc123", "2026-07-31")
}

func TestServerRoutesServeMetrics(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServerRoutesServeHealth(t *testing.T) {
	srv := testServer()

	for _, path := range []string{"/health", "/ready", "/version"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestServerDisabledMetricsNotRegistered(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: false, Path: "/metrics"}
	collector := metrics.NewCollector(cfg, nil)
	checker := health.New(time.Second)
	srv := NewServer(cfg, collector, checker, "1.0.0", "abc123", "2026-07-31")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code == http.StatusOK {
		t.Error("expected metrics route to be absent when disabled")
	}
}

func TestServerStartShutdown(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true, Path: "/metrics", ListenAddress: "127.0.0.1:0"}
	collector := metrics.NewCollector(cfg, nil)
	checker := health.New(time.Second)
	srv := NewServer(cfg, collector, checker, "1.0.0", "abc123", "2026-07-31")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	if !srv.IsRunning() {
		t.Fatal("expected server to be running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}

	if srv.IsRunning() {
		t.Error("expected server to report not running after shutdown")
	}
}
