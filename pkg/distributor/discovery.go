package distributor

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// StaticSource serves a fixed, operator-configured instance list.
type StaticSource struct {
	mu        sync.RWMutex
	instances map[string][]Instance
}

// NewStaticSource builds a StaticSource seeded with instances.
func NewStaticSource(instances map[string][]Instance) *StaticSource {
	s := &StaticSource{instances: map[string][]Instance{}}
	for svc, list := range instances {
		s.instances[svc] = append([]Instance(nil), list...)
	}
	return s
}

func (s *StaticSource) List(_ context.Context, service string) ([]Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Instance(nil), s.instances[service]...), nil
}

func (s *StaticSource) Resolve(ctx context.Context, service, id string) (Instance, error) {
	list, err := s.List(ctx, service)
	if err != nil {
		return Instance{}, err
	}
	for _, inst := range list {
		if inst.ID == id {
			return inst, nil
		}
	}
	return Instance{}, &eerrors.DistributeError{InstanceID: id, Reason: "instance not found in static source"}
}

// Refresh is a no-op: a static source has nothing to re-discover.
func (s *StaticSource) Refresh(context.Context, string) error { return nil }

// Set replaces the instance list for service, e.g. from a reloaded
// config file.
func (s *StaticSource) Set(service string, instances []Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[service] = append([]Instance(nil), instances...)
}

// DNSResolver is the subset of net.Resolver that DNSSource depends on,
// so tests can stub lookups without a real resolver.
type DNSResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// DNSSource discovers instances via DNS SRV records, one query per
// service per List call; Refresh performs no lookup.
type DNSSource struct {
	resolver DNSResolver
	domain   string
	useTLS   bool
}

// NewDNSSource builds a DNSSource resolving SRV records under domain
// (e.g. with domain "svc.cluster.local", List for service "checkout"
// looks up "_eunomia._tcp.checkout.svc.cluster.local").
func NewDNSSource(resolver DNSResolver, domain string, useTLS bool) *DNSSource {
	return &DNSSource{resolver: resolver, domain: domain, useTLS: useTLS}
}

func (s *DNSSource) List(ctx context.Context, service string) ([]Instance, error) {
	_, records, err := s.resolver.LookupSRV(ctx, "eunomia", "tcp", fmt.Sprintf("%s.%s", service, s.domain))
	if err != nil {
		return nil, &eerrors.DistributeError{Reason: fmt.Sprintf("DNS SRV lookup for %s", service), Cause: err, Transient: true}
	}

	instances := make([]Instance, 0, len(records))
	for _, rec := range records {
		id := fmt.Sprintf("%s:%d", rec.Target, rec.Port)
		instances = append(instances, Instance{
			ID:       id,
			Endpoint: fmt.Sprintf("%s:%d", rec.Target, rec.Port),
			TLS:      s.useTLS,
			Status:   StatusUnknown,
		})
	}
	return instances, nil
}

func (s *DNSSource) Resolve(ctx context.Context, service, id string) (Instance, error) {
	list, err := s.List(ctx, service)
	if err != nil {
		return Instance{}, err
	}
	for _, inst := range list {
		if inst.ID == id {
			return inst, nil
		}
	}
	return Instance{}, &eerrors.DistributeError{InstanceID: id, Reason: "instance not found via DNS"}
}

// Refresh is a no-op: DNSSource has no cache of its own; List always
// performs a fresh lookup. CachedSource adds the caching layer.
func (s *DNSSource) Refresh(context.Context, string) error { return nil }

// CachedSource wraps a Source with a TTL cache, so a flaky or rate
// limited upstream (typically DNSSource) doesn't block every push
// attempt on a live lookup.
type CachedSource struct {
	inner Source
	ttl   time.Duration

	mu        sync.Mutex
	cache     map[string][]Instance
	fetchedAt map[string]time.Time
}

// NewCachedSource wraps inner with a cache of the given TTL.
func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner:     inner,
		ttl:       ttl,
		cache:     map[string][]Instance{},
		fetchedAt: map[string]time.Time{},
	}
}

func (s *CachedSource) List(ctx context.Context, service string) ([]Instance, error) {
	s.mu.Lock()
	fetched, ok := s.fetchedAt[service]
	if ok && time.Since(fetched) < s.ttl {
		instances := append([]Instance(nil), s.cache[service]...)
		s.mu.Unlock()
		return instances, nil
	}
	s.mu.Unlock()

	if err := s.Refresh(ctx, service); err != nil {
		s.mu.Lock()
		stale, ok := s.cache[service]
		s.mu.Unlock()
		if ok {
			return append([]Instance(nil), stale...), nil
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Instance(nil), s.cache[service]...), nil
}

func (s *CachedSource) Resolve(ctx context.Context, service, id string) (Instance, error) {
	list, err := s.List(ctx, service)
	if err != nil {
		return Instance{}, err
	}
	for _, inst := range list {
		if inst.ID == id {
			return inst, nil
		}
	}
	return Instance{}, &eerrors.DistributeError{InstanceID: id, Reason: "instance not found in cached source"}
}

func (s *CachedSource) Refresh(ctx context.Context, service string) error {
	instances, err := s.inner.List(ctx, service)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[service] = instances
	s.fetchedAt[service] = time.Now()
	s.mu.Unlock()
	return nil
}

// CombinedSource merges instances from multiple sources, deduplicating
// by instance ID (first source wins on conflict).
type CombinedSource struct {
	sources []Source
}

// NewCombinedSource merges sources in priority order.
func NewCombinedSource(sources ...Source) *CombinedSource {
	return &CombinedSource{sources: sources}
}

func (s *CombinedSource) List(ctx context.Context, service string) ([]Instance, error) {
	seen := map[string]bool{}
	var out []Instance
	var lastErr error
	for _, src := range s.sources {
		list, err := src.List(ctx, service)
		if err != nil {
			lastErr = err
			continue
		}
		for _, inst := range list {
			if seen[inst.ID] {
				continue
			}
			seen[inst.ID] = true
			out = append(out, inst)
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (s *CombinedSource) Resolve(ctx context.Context, service, id string) (Instance, error) {
	list, err := s.List(ctx, service)
	if err != nil {
		return Instance{}, err
	}
	for _, inst := range list {
		if inst.ID == id {
			return inst, nil
		}
	}
	return Instance{}, &eerrors.DistributeError{InstanceID: id, Reason: "instance not found in any combined source"}
}

func (s *CombinedSource) Refresh(ctx context.Context, service string) error {
	var lastErr error
	for _, src := range s.sources {
		if err := src.Refresh(ctx, service); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
