package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func Benchmark_Collector_RecordPush(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordPush("checkout", "canary", "success", 200*time.Millisecond, 4096)
	}
}

func Benchmark_Collector_RecordPush_Parallel(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.RecordPush("checkout", "canary", "success", 200*time.Millisecond, 4096)
		}
	})
}

func Benchmark_Collector_UpdateInstanceHealth(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.UpdateInstanceHealth("i-1", "checkout", true)
	}
}

func Benchmark_Collector_RecordRollout(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRollout("checkout", "canary", "completed", 90*time.Second)
	}
}

func Benchmark_Collector_CacheHit(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordCacheHit("bundle")
	}
}

func Benchmark_CardinalityLimiter_Allow(b *testing.B) {
	limiter := NewCardinalityLimiter(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("checkout:canary:success")
	}
}
