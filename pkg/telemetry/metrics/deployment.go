package metrics

import (
	"time"

	"eunomia-hq/eunomia/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DeploymentMetrics tracks metrics related to rollouts of a policy version
// across a service's instances.
//
// Metrics:
//   - eunomia_distributor_rollouts_total: Completed rollouts by service, strategy, result
//   - eunomia_distributor_rollout_duration_seconds: Rollout wall-clock duration
//   - eunomia_distributor_rollbacks_total: Automatic/manual rollbacks by reason
type DeploymentMetrics struct {
	rolloutsTotal   *prometheus.CounterVec
	rolloutDuration *prometheus.HistogramVec
	rollbacksTotal  *prometheus.CounterVec
}

// NewDeploymentMetrics creates and registers deployment metrics.
func NewDeploymentMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DeploymentMetrics {
	dm := &DeploymentMetrics{
		rolloutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rollouts_total",
				Help:      "Total number of completed rollouts",
			},
			[]string{"service", "strategy", "result"},
		),

		rolloutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rollout_duration_seconds",
				Help:      "Wall-clock duration of a rollout from start to terminal state",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5h
			},
			[]string{"service", "strategy"},
		),

		rollbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rollbacks_total",
				Help:      "Total number of rollbacks triggered, by reason",
			},
			[]string{"service", "reason"},
		),
	}

	registry.MustRegister(dm.rolloutsTotal, dm.rolloutDuration, dm.rollbacksTotal)

	return dm
}

// RecordRollout records a terminal rollout outcome. result is "completed",
// "failed", or "rolled_back".
func (dm *DeploymentMetrics) RecordRollout(service, strategy, result string, duration time.Duration) {
	dm.rolloutsTotal.WithLabelValues(service, strategy, result).Inc()
	dm.rolloutDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
}

// RecordRollback records a rollback and its triggering reason, e.g.
// "error_rate_exceeded_threshold".
func (dm *DeploymentMetrics) RecordRollback(service, reason string) {
	dm.rollbacksTotal.WithLabelValues(service, reason).Inc()
}
