// Package metrics provides Prometheus metrics collection for the eunomia
// control plane.
//
// # Overview
//
// The metrics package covers the observable surface of policy
// distribution: pushes to instances, rollout/rollback outcomes, instance
// health, and the local bundle cache.
//
// # Metrics Categories
//
//   - Push Metrics: push count, duration, and bundle size by service/strategy
//   - Instance Metrics: instance health gauge and check-in counts
//   - Deployment Metrics: rollout count/duration and rollback counts
//   - Cache Metrics: cache hits, misses, evictions, and size
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordPush("checkout", "canary", "success", elapsed, len(archive))
//	collector.UpdateInstanceHealth("i-042", "checkout", true)
//	collector.RecordRollout("checkout", "canary", "completed", totalElapsed)
//
// # Prometheus Endpoint
//
// All metrics are exposed in the standard Prometheus exposition format via
// Collector.Handler(), typically mounted at the path configured in
// TelemetryConfig.Metrics.Path.
//
// # Cardinality Management
//
// The collector limits service/strategy label cardinality to 10,000 unique
// combinations, aggregating overflow into "other" to prevent memory growth
// from misbehaving or unbounded service names.
package metrics
