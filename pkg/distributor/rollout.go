package distributor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/eerrors"
)

// RolloutConfig bundles everything one Rollout call needs.
type RolloutConfig struct {
	Service  string
	Version  string
	Digest   string
	Strategy StrategyKind
	Options  StrategyOptions
	Push     PushPolicy
	Rollback RollbackTrigger
	Actor    string     // identity recorded on the audit trail, e.g. a CI principal
	Audit    audit.Sink // optional; nil disables audit logging
}

func (cfg RolloutConfig) logEvent(ctx context.Context, kind audit.EventKind, extra map[string]any) {
	if cfg.Audit == nil {
		return
	}
	actor := cfg.Actor
	if actor == "" {
		actor = "unknown"
	}
	_ = cfg.Audit.Log(ctx, audit.Event{
		Kind:      kind,
		Service:   cfg.Service,
		Version:   cfg.Version,
		Digest:    cfg.Digest,
		Actor:     actor,
		Timestamp: time.Now(),
		Context:   extra,
	})
}

// Rollout drives one deployment of archive to instances, pushing wave by
// wave per cfg.Strategy, tracking health, and rolling back automatically
// if cfg.Rollback's thresholds are crossed mid-flight. previousArchive is
// pushed to every already-updated instance if a rollback triggers; it
// may be nil if no prior version exists (first deploy).
func Rollout(ctx context.Context, pusher Pusher, tracker *HealthTracker, instances []Instance, archive []byte, previousArchive []byte, cfg RolloutConfig) (*Deployment, error) {
	dep := &Deployment{
		ID:        uuid.NewString(),
		Service:   cfg.Service,
		Version:   cfg.Version,
		Strategy:  cfg.Strategy,
		StartedAt: time.Now(),
		State:     StatePending,
	}

	if err := dep.Transition(StateInProgress); err != nil {
		return dep, err
	}

	waves := Wave(cfg.Strategy, instances, cfg.Options)
	var latencies []time.Duration
	var pushed []Instance
	consecutiveCanaryFailures := 0

	for i, wave := range waves {
		for _, inst := range wave {
			start := time.Now()
			res := PushWithRetry(ctx, pusher, inst, archive, cfg.Push)
			latencies = append(latencies, time.Since(start))
			dep.Results = append(dep.Results, res)
			pushed = append(pushed, inst)

			if res.Err != nil {
				tracker.ReportFailure(inst.ID)
				if cfg.Strategy == StrategyCanary && i == 0 {
					consecutiveCanaryFailures++
				}
			} else {
				tracker.ReportSuccess(inst.ID, cfg.Version)
				if cfg.Strategy == StrategyCanary && i == 0 {
					consecutiveCanaryFailures = 0
				}
			}
		}

		if shouldRollback, reason := cfg.Rollback.ShouldRollback(dep.Results, latencies, consecutiveCanaryFailures); shouldRollback {
			dep, err := rollback(ctx, pusher, dep, pushed, previousArchive, reason)
			cfg.logEvent(ctx, audit.EventPolicyRollback, map[string]any{"reason": reason, "wave": i})
			return dep, err
		}

		if i < len(waves)-1 {
			if err := Sleep(ctx, PauseBetweenWaves(cfg.Strategy, i, cfg.Options)); err != nil {
				_ = dep.Transition(StateCancelled)
				return dep, err
			}
		}
	}

	failed := 0
	for _, r := range dep.Results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		_ = dep.Transition(StateFailed)
		return dep, &eerrors.DistributeError{Reason: "one or more instance pushes failed permanently"}
	}

	_ = dep.Transition(StateCompleted)
	cfg.logEvent(ctx, audit.EventPolicyDeployed, map[string]any{"instances": len(instances), "waves": len(waves)})
	return dep, nil
}

func rollback(ctx context.Context, pusher Pusher, dep *Deployment, pushed []Instance, previousArchive []byte, reason string) (*Deployment, error) {
	if previousArchive != nil {
		for _, inst := range pushed {
			PushWithRetry(ctx, pusher, inst, previousArchive, PushPolicy{MaxRetries: 1})
		}
	}
	_ = dep.Transition(StateRolledBack)
	return dep, &eerrors.DistributeError{Reason: "rollout rolled back: " + reason}
}
