package metrics

import (
	"fmt"
	"sync"
	"time"

	"eunomia-hq/eunomia/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics the control
// plane emits: bundle pushes, deployment rollouts, instance health, and the
// local bundle cache.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	pushMetrics       *PushMetrics
	instanceMetrics   *InstanceMetrics
	deploymentMetrics *DeploymentMetrics
	cacheMetrics      *CacheMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new, empty registry is
// created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "eunomia"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "distributor"
	}
	if len(cfg.PushDurationBuckets) == 0 {
		cfg.PushDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000),
	}

	c.pushMetrics = NewPushMetrics(cfg, registry)
	c.instanceMetrics = NewInstanceMetrics(cfg, registry)
	c.deploymentMetrics = NewDeploymentMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	return c
}

// RecordPush records the outcome of pushing a bundle to a single instance.
func (c *Collector) RecordPush(service, strategy, status string, duration time.Duration, bundleSize int) {
	if !c.config.Enabled {
		return
	}

	labelSet := fmt.Sprintf("push:%s:%s:%s", service, strategy, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		strategy = "other"
	}

	c.pushMetrics.RecordPush(service, strategy, status, duration, bundleSize)
}

// UpdateInstanceHealth updates the health gauge for one instance.
func (c *Collector) UpdateInstanceHealth(instanceID, service string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.instanceMetrics.UpdateHealth(instanceID, service, healthy)
}

// RecordInstanceCheckin records a health check-in from an instance.
func (c *Collector) RecordInstanceCheckin(instanceID, service string) {
	if !c.config.Enabled {
		return
	}
	c.instanceMetrics.RecordCheckin(instanceID, service)
}

// RecordRollout records a completed rollout (success, failure, or rollback).
func (c *Collector) RecordRollout(service, strategy, result string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.deploymentMetrics.RecordRollout(service, strategy, result, duration)
}

// RecordRollback records an automatic or operator-triggered rollback.
func (c *Collector) RecordRollback(service, reason string) {
	if !c.config.Enabled {
		return
	}
	c.deploymentMetrics.RecordRollback(service, reason)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordCacheEviction records a cache eviction.
func (c *Collector) RecordCacheEviction(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordEviction(cacheName)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
