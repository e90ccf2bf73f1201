package metrics

import (
	"time"

	"eunomia-hq/eunomia/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PushMetrics tracks metrics related to pushing policy bundles to
// enforcement instances.
//
// Metrics:
//   - eunomia_distributor_pushes_total: Total pushes by service, strategy, status
//   - eunomia_distributor_push_duration_seconds: Push attempt duration histogram
//   - eunomia_distributor_bundle_size_bytes: Pushed bundle size
type PushMetrics struct {
	pushesTotal     *prometheus.CounterVec
	pushDuration    *prometheus.HistogramVec
	bundleSizeBytes *prometheus.HistogramVec
}

// NewPushMetrics creates and registers push metrics with the provided registry.
func NewPushMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PushMetrics {
	pm := &PushMetrics{
		pushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pushes_total",
				Help:      "Total number of bundle pushes to instances",
			},
			[]string{"service", "strategy", "status"},
		),

		pushDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "push_duration_seconds",
				Help:      "Duration of a single instance push attempt in seconds",
				Buckets:   cfg.PushDurationBuckets,
			},
			[]string{"service", "strategy"},
		),

		bundleSizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "bundle_size_bytes",
				Help:      "Size of the pushed bundle archive in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to 4MB
			},
			[]string{"service"},
		),
	}

	registry.MustRegister(
		pm.pushesTotal,
		pm.pushDuration,
		pm.bundleSizeBytes,
	)

	return pm
}

// RecordPush records a single push attempt's outcome, latency, and bundle
// size. status is "success", "transient_error", or "rejected".
func (pm *PushMetrics) RecordPush(service, strategy, status string, duration time.Duration, bundleSize int) {
	pm.pushesTotal.WithLabelValues(service, strategy, status).Inc()
	pm.pushDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
	if bundleSize > 0 {
		pm.bundleSizeBytes.WithLabelValues(service).Observe(float64(bundleSize))
	}
}
