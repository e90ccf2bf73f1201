package distributor

import (
	"sync"
	"time"
)

// HealthTrackerConfig mirrors pkg/config.HealthTrackerConfig so this
// package has no dependency on the config package directly.
type HealthTrackerConfig struct {
	HealthyThreshold   int
	UnhealthyThreshold int
}

// HealthTracker maintains a HealthRecord per instance and applies the
// consecutive-success/failure state machine: Unhealthy -> Healthy after
// HealthyThreshold consecutive successes, Healthy -> Unhealthy after
// UnhealthyThreshold consecutive failures. A first report moves an
// Unknown instance to Healthy when it is a success that already meets
// HealthyThreshold, to Unhealthy when it is a failure that already meets
// UnhealthyThreshold, and to Degraded otherwise.
type HealthTracker struct {
	cfg HealthTrackerConfig

	mu      sync.Mutex
	records map[string]*HealthRecord
}

// NewHealthTracker builds a tracker using cfg's thresholds.
func NewHealthTracker(cfg HealthTrackerConfig) *HealthTracker {
	if cfg.HealthyThreshold <= 0 {
		cfg.HealthyThreshold = 3
	}
	if cfg.UnhealthyThreshold <= 0 {
		cfg.UnhealthyThreshold = 3
	}
	return &HealthTracker{cfg: cfg, records: map[string]*HealthRecord{}}
}

// ReportSuccess records a successful health check or push for instanceID
// at policyVersion and returns the resulting record.
func (t *HealthTracker) ReportSuccess(instanceID, policyVersion string) HealthRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.recordLocked(instanceID)
	r.PolicyVersion = policyVersion
	r.LastSeen = time.Now()
	r.ConsecutiveSuccess++
	r.ConsecutiveFailure = 0

	if r.State != StatusHealthy && r.ConsecutiveSuccess >= t.cfg.HealthyThreshold {
		r.State = StatusHealthy
	} else if r.State == StatusUnknown {
		r.State = StatusDegraded
	}

	return *r
}

// ReportFailure records a failed health check or push for instanceID and
// returns the resulting record.
func (t *HealthTracker) ReportFailure(instanceID string) HealthRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.recordLocked(instanceID)
	r.LastSeen = time.Now()
	r.ConsecutiveFailure++
	r.ConsecutiveSuccess = 0

	if r.ConsecutiveFailure >= t.cfg.UnhealthyThreshold {
		r.State = StatusUnhealthy
	} else if r.State == StatusUnknown {
		r.State = StatusDegraded
	}

	return *r
}

// Get returns the current record for instanceID, or a fresh Unknown
// record if none has been reported yet.
func (t *HealthTracker) Get(instanceID string) HealthRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.recordLocked(instanceID)
}

// MarkOffline forces instanceID's state to Offline, e.g. after its push
// connection could not be established at all.
func (t *HealthTracker) MarkOffline(instanceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.recordLocked(instanceID)
	r.State = StatusOffline
	r.LastSeen = time.Now()
}

func (t *HealthTracker) recordLocked(instanceID string) *HealthRecord {
	r, ok := t.records[instanceID]
	if !ok {
		r = &HealthRecord{InstanceID: instanceID, State: StatusUnknown}
		t.records[instanceID] = r
	}
	return r
}
