// Package storage provides sqlite-backed and in-memory audit.Sink
// implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"eunomia-hq/eunomia/pkg/audit"
)

// MemorySink is an in-memory audit.Sink, intended for tests and for
// short-lived CLI invocations that don't need a durable log. It also
// implements audit.DeploymentStore so callers that construct a Sink
// generically get deployment persistence without a type switch.
type MemorySink struct {
	mu          sync.RWMutex
	events      []audit.Event
	deployments map[string]audit.DeploymentRecord
	instances   map[string]audit.InstanceVersionRecord
}

// NewMemorySink builds an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{deployments: make(map[string]audit.DeploymentRecord)}
}

func (s *MemorySink) SaveDeployment(_ context.Context, rec audit.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[rec.ID] = rec
	return nil
}

func (s *MemorySink) GetDeployment(_ context.Context, id string) (*audit.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.deployments[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemorySink) ListDeployments(_ context.Context, q audit.DeploymentQuery) ([]audit.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]audit.DeploymentRecord, 0, len(s.deployments))
	for _, rec := range s.deployments {
		if q.Service == "" || rec.Service == q.Service {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartedAt.After(matched[j].StartedAt) })

	start := q.Offset
	if start > len(matched) {
		return []audit.DeploymentRecord{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return append([]audit.DeploymentRecord(nil), matched[start:end]...), nil
}

func (s *MemorySink) Log(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) List(_ context.Context, q audit.Query) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]audit.Event, 0, len(s.events))
	for _, e := range s.events {
		if matches(e, q) {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	start := q.Offset
	if start > len(matched) {
		return []audit.Event{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return append([]audit.Event(nil), matched[start:end]...), nil
}

func (s *MemorySink) Count(_ context.Context, q audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.events {
		if matches(e, q) {
			n++
		}
	}
	return n, nil
}

// SaveCacheMetrics is a no-op for the in-memory sink: short-lived CLI
// invocations and tests have no need to recover cache counters across
// a restart that never happens.
func (s *MemorySink) SaveCacheMetrics(_ context.Context, _ string, _, _, _, _ int64) error {
	return nil
}

func (s *MemorySink) UpdateInstanceVersion(_ context.Context, rec audit.InstanceVersionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instances == nil {
		s.instances = make(map[string]audit.InstanceVersionRecord)
	}
	s.instances[rec.Service+"/"+rec.InstanceID] = rec
	return nil
}

func (s *MemorySink) ListInstanceVersions(_ context.Context, service string) ([]audit.InstanceVersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.InstanceVersionRecord, 0, len(s.instances))
	for _, rec := range s.instances {
		if service == "" || rec.Service == service {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].InstanceID < out[j].InstanceID
	})
	return out, nil
}

func (s *MemorySink) Close() error { return nil }

func matches(e audit.Event, q audit.Query) bool {
	if q.Service != "" && e.Service != q.Service {
		return false
	}
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	if q.Since != nil && e.Timestamp.Before(*q.Since) {
		return false
	}
	if q.Until != nil && e.Timestamp.After(*q.Until) {
		return false
	}
	return true
}
