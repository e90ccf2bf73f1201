package metrics

import (
	"eunomia-hq/eunomia/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// InstanceMetrics tracks metrics related to enforcement instance health as
// seen by the control plane's health tracker.
//
// Metrics:
//   - eunomia_distributor_instance_health: 1=healthy, 0=unhealthy
//   - eunomia_distributor_instance_checkins_total: Health check-ins received
type InstanceMetrics struct {
	health        *prometheus.GaugeVec
	checkinsTotal *prometheus.CounterVec
}

// NewInstanceMetrics creates and registers instance health metrics.
func NewInstanceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *InstanceMetrics {
	im := &InstanceMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "instance_health",
				Help:      "Instance health status (1=healthy, 0=unhealthy)",
			},
			[]string{"instance", "service"},
		),

		checkinsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "instance_checkins_total",
				Help:      "Total number of health check-ins received from instances",
			},
			[]string{"instance", "service"},
		),
	}

	registry.MustRegister(im.health, im.checkinsTotal)

	return im
}

// UpdateHealth sets the health gauge for instance in service.
func (im *InstanceMetrics) UpdateHealth(instanceID, service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	im.health.WithLabelValues(instanceID, service).Set(value)
}

// RecordCheckin increments the check-in counter for instance in service.
func (im *InstanceMetrics) RecordCheckin(instanceID, service string) {
	im.checkinsTotal.WithLabelValues(instanceID, service).Inc()
}
