package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/distributor"
	"eunomia-hq/eunomia/pkg/registry"
	"eunomia-hq/eunomia/pkg/security/auth"
	"eunomia-hq/eunomia/pkg/server"
	"eunomia-hq/eunomia/pkg/telemetry/health"
	"eunomia-hq/eunomia/pkg/telemetry/metrics"
)

var controlPlaneFlags struct {
	listenAddress string
}

var controlPlaneCmd = &cobra.Command{
	Use:   "controlplane",
	Short: "Run the long-lived control plane: instance health check-ins, decision audit relay, metrics, and cache pruning",
	Long: `controlplane starts three long-running components together:

  - the mTLS health check-in and decision-audit listener
    (pkg/distributor.ControlPlane) that enforcement instances call back
    into,
  - the plaintext operational server (pkg/server) exposing /metrics,
    /health, /ready, and /version for scrapers, and
  - the registry cache prune scheduler (pkg/registry.PruneScheduler)
    sweeping expired local bundle cache entries on distribution.prune_schedule.

It runs until SIGINT or SIGTERM, then shuts down every component with
the configured grace period.`,
	RunE: runControlPlane,
}

func init() {
	rootCmd.AddCommand(controlPlaneCmd)
	controlPlaneCmd.Flags().StringVar(&controlPlaneFlags.listenAddress, "listen", "", "override the mTLS control-plane listen address")
}

func runControlPlane(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sink, err := openAuditSink(cfg.Audit)
	if err != nil {
		return &cli.CommandError{Command: "controlplane", Cause: err}
	}
	defer sink.Close()

	tracker := distributor.NewHealthTracker(distributor.HealthTrackerConfig{
		HealthyThreshold:   cfg.Distribution.Health.HealthyThreshold,
		UnhealthyThreshold: cfg.Distribution.Health.UnhealthyThreshold,
	})

	listenAddress := firstNonEmpty(controlPlaneFlags.listenAddress, cfg.Distribution.ControlPlaneListenAddress)

	cpConfig := distributor.ControlPlaneConfig{
		ListenAddress:      listenAddress,
		CertFile:           cfg.Security.ControlPlaneTLS.CertFile,
		KeyFile:            cfg.Security.ControlPlaneTLS.KeyFile,
		ClientCAFile:       cfg.Security.ControlPlaneTLS.ClientCAFile,
		IdentitySource:     cfg.Security.ControlPlaneTLS.IdentitySource,
		AllowedIdentity:    allowlistChecker(cfg.Security.WorkloadAllowlist),
		ShutdownTimeout:    10 * time.Second,
		Audit:              sink,
		CertReloadInterval: cfg.Security.ControlPlaneTLS.ReloadInterval,
	}
	if instanceCache, ok := sink.(audit.InstanceCacheStore); ok {
		cpConfig.InstanceCache = instanceCache
	}
	cp := distributor.NewControlPlane(cpConfig, tracker)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	checker := health.New(5 * time.Second)
	opsServer := server.NewServer(&cfg.Telemetry.Metrics, collector, checker, Version, GitCommit, BuildDate)
	if gate := opsAuthGate(cfg.Telemetry.Metrics.Auth); gate != nil {
		opsServer = opsServer.WithAuthGate(gate)
	}

	cacheDir := cfg.Registry.Cache.Dir
	cache, err := registry.NewFileCache(cacheDir, cfg.Registry.Cache.MaxSizeBytes, 4096)
	if err != nil {
		return &cli.CommandError{Command: "controlplane", Cause: fmt.Errorf("open bundle cache: %w", err)}
	}
	if err := applyCacheEncryption(cmd.Context(), cache, cfg.Security.SigningKey); err != nil {
		return &cli.CommandError{Command: "controlplane", Cause: fmt.Errorf("configure cache encryption: %w", err)}
	}
	cache.SetMetricsRecorder(collector)

	pruner := registry.NewPruneScheduler(cache)
	if metricsSink, ok := sink.(audit.CacheMetricsSink); ok {
		pruner.OnSweep(func() {
			hits, misses, evictions, entries := cache.Stats()
			if err := metricsSink.SaveCacheMetrics(context.Background(), "bundle", hits, misses, evictions, int64(entries)); err != nil {
				slog.Warn("failed to snapshot cache metrics", "error", err)
			}
		})
	}

	ctx := cli.SetupSignalHandler()

	errCh := make(chan error, 2)
	go func() {
		if err := cp.Start(ctx); err != nil {
			errCh <- fmt.Errorf("control plane: %w", err)
		}
	}()
	if cfg.Telemetry.Metrics.Enabled {
		go func() {
			if err := opsServer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("ops server: %w", err)
			}
		}()
	}
	if err := pruner.Start(ctx, cfg.Distribution.PruneSchedule); err != nil {
		return &cli.CommandError{Command: "controlplane", Cause: err}
	}
	defer pruner.Stop()

	slog.Info("control plane running", "listen", listenAddress, "metrics_enabled", cfg.Telemetry.Metrics.Enabled)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = cp.Shutdown(shutdownCtx)
		_ = opsServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return &cli.CommandError{Command: "controlplane", Cause: err}
	}
}

// opsAuthGate builds the API key middleware guarding the operational
// server, or nil if telemetry.metrics.auth.enabled is false.
func opsAuthGate(cfg config.OpsAuthConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return nil
	}

	keys := make([]*auth.APIKeyInfo, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys = append(keys, &auth.APIKeyInfo{
			Key:     k.Key,
			UserID:  k.UserID,
			TeamID:  k.TeamID,
			Enabled: k.Enabled,
		})
	}
	validator := auth.NewAPIKeyValidator(keys)

	sources := make([]auth.APIKeySource, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, auth.APIKeySource{Type: s.Type, Name: s.Name, Scheme: s.Scheme})
	}
	if len(sources) == 0 {
		sources = []auth.APIKeySource{{Type: "header", Name: "Authorization", Scheme: "Bearer"}}
	}

	mw := auth.NewAPIKeyMiddleware(validator, sources)
	return mw.Handle
}

// allowlistChecker builds an identity predicate from a static allowlist.
// An empty allowlist permits any presented identity, since mutual TLS
// itself (when ClientCAFile is set) already restricts callers to holders
// of a certificate signed by the configured CA.
func allowlistChecker(allowlist []string) func(string) bool {
	if len(allowlist) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowlist))
	for _, id := range allowlist {
		set[id] = true
	}
	return func(identity string) bool { return set[identity] }
}
