package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/distributor"
)

var pushFlags struct {
	bundlePath      string
	previousPath    string
	instancesPath   string
	service         string
	version         string
	digest          string
	strategy        string
	canaryPercent   int
	batchSize       int
	actor           string
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Roll a built bundle out to the service's instances",
	RunE:  runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().StringVar(&pushFlags.bundlePath, "bundle", "", "path to the bundle archive to push")
	pushCmd.Flags().StringVar(&pushFlags.previousPath, "previous", "", "path to the prior bundle archive, pushed back out if this rollout auto-rolls-back")
	pushCmd.Flags().StringVar(&pushFlags.instancesPath, "instances", "", "path to a JSON file listing target instances")
	pushCmd.Flags().StringVar(&pushFlags.service, "service", "", "service name (default: bundle.service from config)")
	pushCmd.Flags().StringVar(&pushFlags.version, "version", "", "version string recorded on the audit trail")
	pushCmd.Flags().StringVar(&pushFlags.digest, "digest", "", "digest string recorded on the audit trail")
	pushCmd.Flags().StringVar(&pushFlags.strategy, "strategy", "rolling", "rollout strategy: immediate, canary, or rolling")
	pushCmd.Flags().IntVar(&pushFlags.canaryPercent, "canary-percent", 10, "percent of instances in the canary wave (strategy=canary)")
	pushCmd.Flags().IntVar(&pushFlags.batchSize, "batch-size", 1, "instances pushed per batch (strategy=rolling)")
	pushCmd.Flags().StringVar(&pushFlags.actor, "actor", "", "identity recorded on the audit trail")
	_ = pushCmd.MarkFlagRequired("bundle")
	_ = pushCmd.MarkFlagRequired("instances")
}

type pushResult struct {
	DeploymentID string           `json:"deployment_id"`
	Service      string           `json:"service"`
	Version      string           `json:"version"`
	State        string           `json:"state"`
	Results      []pushInstanceResult `json:"results"`
}

type pushInstanceResult struct {
	InstanceID string `json:"instance_id"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}

func (r pushResult) String() string {
	out := fmt.Sprintf("deployment %s: %s@%s -> %s\n", r.DeploymentID, r.Service, r.Version, r.State)
	for _, ir := range r.Results {
		status := "ok"
		if ir.Error != "" {
			status = ir.Error
		}
		out += fmt.Sprintf("  %s (%d attempts): %s\n", ir.InstanceID, ir.Attempts, status)
	}
	return out
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	service := firstNonEmpty(pushFlags.service, cfg.Bundle.Service)

	if err := config.ValidateCanaryPercentage(pushFlags.canaryPercent); err != nil {
		return &cli.CommandError{Command: "push", Cause: err}
	}

	archive, err := os.ReadFile(pushFlags.bundlePath)
	if err != nil {
		return &cli.CommandError{Command: "push", Cause: fmt.Errorf("read bundle: %w", err)}
	}
	var previousArchive []byte
	if pushFlags.previousPath != "" {
		previousArchive, err = os.ReadFile(pushFlags.previousPath)
		if err != nil {
			return &cli.CommandError{Command: "push", Cause: fmt.Errorf("read previous bundle: %w", err)}
		}
	}

	instances, err := loadInstances(pushFlags.instancesPath)
	if err != nil {
		return &cli.CommandError{Command: "push", Cause: err}
	}

	pusher, err := distributor.NewMTLSPushClient(
		cfg.Security.PushTLS.CertFile,
		cfg.Security.PushTLS.KeyFile,
		cfg.Security.PushTLS.ClientCAFile,
		cfg.Distribution.AttemptTimeout,
	)
	if err != nil {
		return &cli.CommandError{Command: "push", Cause: err}
	}

	sink, err := openAuditSink(cfg.Audit)
	if err != nil {
		return &cli.CommandError{Command: "push", Cause: err}
	}
	defer sink.Close()

	tracker := distributor.NewHealthTracker(distributor.HealthTrackerConfig{
		HealthyThreshold:   cfg.Distribution.Health.HealthyThreshold,
		UnhealthyThreshold: cfg.Distribution.Health.UnhealthyThreshold,
	})

	rolloutCfg := distributor.RolloutConfig{
		Service:  service,
		Version:  pushFlags.version,
		Digest:   pushFlags.digest,
		Strategy: strategyKind(pushFlags.strategy),
		Options: distributor.StrategyOptions{
			CanaryPercent: pushFlags.canaryPercent,
			CanarySoak:    cfg.Distribution.Rollback.Window,
			BatchSize:     pushFlags.batchSize,
			BatchPause:    cfg.Distribution.BackoffBase,
		},
		Push: distributor.PushPolicy{
			MaxRetries:     cfg.Distribution.MaxRetries,
			AttemptTimeout: cfg.Distribution.AttemptTimeout,
			BackoffBase:    cfg.Distribution.BackoffBase,
		},
		Rollback: distributor.RollbackTrigger{
			ErrorRateThreshold:        cfg.Distribution.Rollback.ErrorRateThreshold,
			LatencyP99Threshold:       cfg.Distribution.Rollback.LatencyThresholdP99,
			ConsecutiveHealthFailures: cfg.Distribution.Rollback.ConsecutiveHealthFailures,
		},
		Actor: firstNonEmpty(pushFlags.actor, "cli"),
		Audit: sink,
	}

	dep, err := distributor.Rollout(cmd.Context(), pusher, tracker, instances, archive, previousArchive, rolloutCfg)

	result := pushResult{Service: service, Version: pushFlags.version}
	if dep != nil {
		result.DeploymentID = dep.ID
		result.State = string(dep.State)
		for _, r := range dep.Results {
			ir := pushInstanceResult{InstanceID: r.InstanceID, Attempts: r.Attempts}
			if r.Err != nil {
				ir.Error = r.Err.Error()
			}
			result.Results = append(result.Results, ir)
		}
		if store, ok := sink.(audit.DeploymentStore); ok {
			saveDeploymentRecord(cmd.Context(), store, dep, rolloutCfg)
		}
	}

	if emitErr := emit(result); emitErr != nil {
		return emitErr
	}
	return err
}

// saveDeploymentRecord persists the completed deployment so `status
// --deployments` can recover it after process restart; a failure here
// is logged but never fails the push itself, since the rollout already
// succeeded or failed on its own terms.
func saveDeploymentRecord(ctx context.Context, store audit.DeploymentStore, dep *distributor.Deployment, cfg distributor.RolloutConfig) {
	rec := audit.DeploymentRecord{
		ID:          dep.ID,
		Service:     dep.Service,
		Version:     dep.Version,
		Digest:      cfg.Digest,
		Strategy:    string(dep.Strategy),
		State:       string(dep.State),
		Actor:       cfg.Actor,
		StartedAt:   dep.StartedAt,
		CompletedAt: dep.CompletedAt,
	}
	for _, r := range dep.Results {
		ir := audit.InstanceResultRecord{InstanceID: r.InstanceID, Attempts: r.Attempts}
		if r.Err != nil {
			ir.Error = r.Err.Error()
		}
		rec.Results = append(rec.Results, ir)
	}
	if err := store.SaveDeployment(ctx, rec); err != nil {
		slog.Warn("failed to persist deployment record", "deployment_id", dep.ID, "error", err)
	}
}

func strategyKind(s string) distributor.StrategyKind {
	switch s {
	case "immediate":
		return distributor.StrategyImmediate
	case "canary":
		return distributor.StrategyCanary
	default:
		return distributor.StrategyRolling
	}
}
