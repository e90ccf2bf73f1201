package audit

import (
	"context"
	"time"
)

// InstanceResultRecord is one instance's outcome within a persisted
// deployment, mirroring pkg/distributor.PushResult without importing
// that package (audit sits below distributor in the dependency graph).
type InstanceResultRecord struct {
	InstanceID string `json:"instance_id"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}

// DeploymentRecord is the durable record of one rollout, persisted
// alongside the audit log so `status` and future tooling can recover
// full deployment history (instance-level outcomes included) across
// process restarts, not just the summary events emitted during the
// rollout.
type DeploymentRecord struct {
	ID          string                 `json:"id"`
	Service     string                 `json:"service"`
	Version     string                 `json:"version"`
	Digest      string                 `json:"digest,omitempty"`
	Strategy    string                 `json:"strategy"`
	State       string                 `json:"state"`
	Actor       string                 `json:"actor"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Results     []InstanceResultRecord `json:"results,omitempty"`
}

// DeploymentQuery filters a DeploymentStore's List call.
type DeploymentQuery struct {
	Service string
	Limit   int
	Offset  int
}

// DeploymentStore persists deployment records for recall independent
// of the audit event stream. Implementations must be safe for
// concurrent use.
type DeploymentStore interface {
	SaveDeployment(ctx context.Context, rec DeploymentRecord) error
	GetDeployment(ctx context.Context, id string) (*DeploymentRecord, error)
	ListDeployments(ctx context.Context, q DeploymentQuery) ([]DeploymentRecord, error)
}

// CacheMetricsSink records periodic snapshots of the local bundle
// cache's counters, independent of whatever live Prometheus scrape
// window an operator happens to have open.
type CacheMetricsSink interface {
	SaveCacheMetrics(ctx context.Context, cacheName string, hits, misses, evictions, entries int64) error
}

// InstanceVersionRecord is the control plane's last-known view of the
// policy version an instance is running, refreshed on every health
// check-in.
type InstanceVersionRecord struct {
	Service    string    `json:"service"`
	InstanceID string    `json:"instance_id"`
	Version    string    `json:"version"`
	Digest     string    `json:"digest,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// InstanceCacheStore persists the per-instance policy version
// projection backing the "what is actually deployed where" view,
// distinct from the deployment history in DeploymentStore.
type InstanceCacheStore interface {
	UpdateInstanceVersion(ctx context.Context, rec InstanceVersionRecord) error
	ListInstanceVersions(ctx context.Context, service string) ([]InstanceVersionRecord, error)
}
