package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/distributor"
)

var rollbackFlags struct {
	bundlePath    string
	instancesPath string
	service       string
	version       string
	digest        string
	reason        string
	actor         string
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Push a known-good bundle back out to every instance immediately",
	Long: `rollback re-deploys a previously built and signed bundle archive
(typically the one a prior "eunomia push" pushed before a bad deploy) to
every target instance using the immediate strategy, bypassing canary and
rolling wave pacing. It records an explicit policy_rollback audit event
ahead of the push so the reason for the redeploy survives independent of
any automatic rollback trigger.`,
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().StringVar(&rollbackFlags.bundlePath, "bundle", "", "path to the known-good bundle archive to roll back to")
	rollbackCmd.Flags().StringVar(&rollbackFlags.instancesPath, "instances", "", "path to a JSON file listing target instances")
	rollbackCmd.Flags().StringVar(&rollbackFlags.service, "service", "", "service name (default: bundle.service from config)")
	rollbackCmd.Flags().StringVar(&rollbackFlags.version, "version", "", "version string recorded on the audit trail")
	rollbackCmd.Flags().StringVar(&rollbackFlags.digest, "digest", "", "digest string recorded on the audit trail")
	rollbackCmd.Flags().StringVar(&rollbackFlags.reason, "reason", "manual rollback", "reason recorded on the audit trail")
	rollbackCmd.Flags().StringVar(&rollbackFlags.actor, "actor", "", "identity recorded on the audit trail")
	_ = rollbackCmd.MarkFlagRequired("bundle")
	_ = rollbackCmd.MarkFlagRequired("instances")
}

func runRollback(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	service := firstNonEmpty(rollbackFlags.service, cfg.Bundle.Service)
	actor := firstNonEmpty(rollbackFlags.actor, "cli")

	archive, err := os.ReadFile(rollbackFlags.bundlePath)
	if err != nil {
		return &cli.CommandError{Command: "rollback", Cause: fmt.Errorf("read bundle: %w", err)}
	}

	instances, err := loadInstances(rollbackFlags.instancesPath)
	if err != nil {
		return &cli.CommandError{Command: "rollback", Cause: err}
	}

	pusher, err := distributor.NewMTLSPushClient(
		cfg.Security.PushTLS.CertFile,
		cfg.Security.PushTLS.KeyFile,
		cfg.Security.PushTLS.ClientCAFile,
		cfg.Distribution.AttemptTimeout,
	)
	if err != nil {
		return &cli.CommandError{Command: "rollback", Cause: err}
	}

	sink, err := openAuditSink(cfg.Audit)
	if err != nil {
		return &cli.CommandError{Command: "rollback", Cause: err}
	}
	defer sink.Close()

	if err := sink.Log(cmd.Context(), audit.Event{
		Kind:      audit.EventPolicyRollback,
		Service:   service,
		Version:   rollbackFlags.version,
		Digest:    rollbackFlags.digest,
		Actor:     actor,
		Timestamp: time.Now(),
		Context:   map[string]any{"reason": rollbackFlags.reason, "manual": true},
	}); err != nil {
		return &cli.CommandError{Command: "rollback", Cause: err}
	}

	tracker := distributor.NewHealthTracker(distributor.HealthTrackerConfig{
		HealthyThreshold:   cfg.Distribution.Health.HealthyThreshold,
		UnhealthyThreshold: cfg.Distribution.Health.UnhealthyThreshold,
	})

	rolloutCfg := distributor.RolloutConfig{
		Service:  service,
		Version:  rollbackFlags.version,
		Digest:   rollbackFlags.digest,
		Strategy: distributor.StrategyImmediate,
		Push: distributor.PushPolicy{
			MaxRetries:     cfg.Distribution.MaxRetries,
			AttemptTimeout: cfg.Distribution.AttemptTimeout,
			BackoffBase:    cfg.Distribution.BackoffBase,
		},
		Actor: actor,
		Audit: sink,
	}

	dep, err := distributor.Rollout(cmd.Context(), pusher, tracker, instances, archive, nil, rolloutCfg)

	result := pushResult{Service: service, Version: rollbackFlags.version}
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
