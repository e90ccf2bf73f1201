// Package server provides the operational HTTP server for the policy
// distribution control plane.
//
// This package ties together the metrics collector and health checker and
// provides server lifecycle management including start, shutdown, and
// OS signal handling.
//
// # Architecture
//
// The server package is the top-level orchestrator for operational traffic
// (scrapers, orchestrator probes). It never terminates instance traffic —
// that goes through the mTLS control plane in pkg/distributor instead.
//
// # Basic Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("bundle_cache", cache.HealthCheck)
//
//	srv := server.NewServer(&cfg.Telemetry.Metrics, collector, checker, "1.0.0", "abc123", "2026-07-31")
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The server handles graceful shutdown automatically on SIGTERM or SIGINT,
// or it can be triggered programmatically via Shutdown.
//
// # Routes
//
//   - GET /metrics  - Prometheus exposition (when MetricsConfig.Enabled)
//   - GET /health   - Liveness probe
//   - GET /ready    - Readiness probe, backed by registered health checks
//   - GET /version  - Build version information
package server
