// Package telemetry provides observability for the policy distribution
// control plane.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// and health check endpoints. It provides visibility into rollout and
// instance-fleet behavior while keeping per-event overhead low.
//
// # Components
//
//   - logging: Structured logging with secret redaction
//   - metrics: Prometheus metrics collection
//   - health: Health check endpoints
//
// # Usage
//
//	// Logger
//	logger, err := logging.New(logging.Config{
//		Level:         cfg.Telemetry.Logging.Level,
//		Format:        cfg.Telemetry.Logging.Format,
//		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
//	})
//
//	// Metrics
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordPush("checkout", "canary", "success", elapsed, len(bundle))
//
//	// Health
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("bundle_cache", cache.HealthCheck)
//	http.HandleFunc("/healthz", checker.LivenessHandler())
//
// # Performance
//
// The telemetry package is designed for minimal overhead:
//
//   - Logging: <10µs when enabled, <1µs when disabled
//   - Metrics: <50µs per metric update
//
// # Secret redaction
//
// The logging package redacts secret material from log output, never
// end-user data: the control plane never sees end-user PII, only signing
// keys, registry credentials, and bearer/basic auth tokens.
//
//   - Signing keys: ed25519:MC4CAQAw... → ***
//   - Bearer tokens: Bearer abc123 → Bearer ***
//   - Basic auth: Basic dXNlcjpwYXNz → Basic ***
//   - password/secret fields: password=hunter2 → password: ***
//
// Custom redaction patterns can be configured via
// TelemetryConfig.Logging.RedactPatterns.
package telemetry
