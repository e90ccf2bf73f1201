package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/cli"
)

var statusFlags struct {
	service     string
	kind        string
	limit       int
	since       string
	deployments bool
	instances   bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent deployment and authorization-decision history from the audit trail",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusFlags.service, "service", "", "limit to this service (default: all services)")
	statusCmd.Flags().StringVar(&statusFlags.kind, "kind", "", "limit to this event kind: policy_created, policy_deployed, policy_rollback, authorization_decision")
	statusCmd.Flags().IntVar(&statusFlags.limit, "limit", 20, "maximum events to show")
	statusCmd.Flags().StringVar(&statusFlags.since, "since", "", "only events at or after this RFC3339 timestamp")
	statusCmd.Flags().BoolVar(&statusFlags.deployments, "deployments", false, "show persisted deployment records (instance-level results) instead of audit events")
	statusCmd.Flags().BoolVar(&statusFlags.instances, "instances", false, "show each instance's last known policy version from the control plane's health check-in cache")
}

type statusResult struct {
	Total  int64              `json:"total"`
	Events []statusEventEntry `json:"events"`
}

type statusEventEntry struct {
	Kind      string `json:"kind"`
	Service   string `json:"service"`
	Version   string `json:"version,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Actor     string `json:"actor"`
	Timestamp string `json:"timestamp"`
}

func (r statusResult) String() string {
	out := fmt.Sprintf("%d matching event(s)\n", r.Total)
	for _, e := range r.Events {
		out += fmt.Sprintf("  %s  %-22s  %s@%s  by %s\n", e.Timestamp, e.Kind, e.Service, e.Version, e.Actor)
	}
	return out
}

type deploymentsResult struct {
	Total       int                      `json:"total"`
	Deployments []audit.DeploymentRecord `json:"deployments"`
}

func (r deploymentsResult) String() string {
	out := fmt.Sprintf("%d deployment(s)\n", r.Total)
	for _, d := range r.Deployments {
		out += fmt.Sprintf("  %s  %s@%s  %s  strategy=%s  actor=%s\n", d.ID, d.Service, d.Version, d.State, d.Strategy, d.Actor)
		for _, ir := range d.Results {
			status := "ok"
			if ir.Error != "" {
				status = ir.Error
			}
			out += fmt.Sprintf("      %s (%d attempts): %s\n", ir.InstanceID, ir.Attempts, status)
		}
	}
	return out
}

type instanceVersionsResult struct {
	Total     int                           `json:"total"`
	Instances []audit.InstanceVersionRecord `json:"instances"`
}

func (r instanceVersionsResult) String() string {
	out := fmt.Sprintf("%d instance(s)\n", r.Total)
	for _, i := range r.Instances {
		out += fmt.Sprintf("  %-20s  %-12s  version=%-10s  (updated %s)\n", i.Service, i.InstanceID, i.Version, i.UpdatedAt.Format(time.RFC3339))
	}
	return out
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sink, err := openAuditSink(cfg.Audit)
	if err != nil {
		return &cli.CommandError{Command: "status", Cause: err}
	}
	defer sink.Close()

	if statusFlags.deployments {
		store, ok := sink.(audit.DeploymentStore)
		if !ok {
			return &cli.CommandError{Command: "status", Cause: fmt.Errorf("audit backend does not support deployment records")}
		}
		recs, err := store.ListDeployments(cmd.Context(), audit.DeploymentQuery{Service: statusFlags.service, Limit: statusFlags.limit})
		if err != nil {
			return &cli.CommandError{Command: "status", Cause: err}
		}
		return emit(deploymentsResult{Total: len(recs), Deployments: recs})
	}

	if statusFlags.instances {
		store, ok := sink.(audit.InstanceCacheStore)
		if !ok {
			return &cli.CommandError{Command: "status", Cause: fmt.Errorf("audit backend does not support instance version records")}
		}
		recs, err := store.ListInstanceVersions(cmd.Context(), statusFlags.service)
		if err != nil {
			return &cli.CommandError{Command: "status", Cause: err}
		}
		return emit(instanceVersionsResult{Total: len(recs), Instances: recs})
	}

	q := audit.Query{
		Service: statusFlags.service,
		Kind:    audit.EventKind(statusFlags.kind),
		Limit:   statusFlags.limit,
	}
	if statusFlags.since != "" {
		since, err := time.Parse(time.RFC3339, statusFlags.since)
		if err != nil {
			return &cli.CommandError{Command: "status", Cause: fmt.Errorf("parse --since: %w", err)}
		}
		q.Since = &since
	}

	events, err := sink.List(cmd.Context(), q)
	if err != nil {
		return &cli.CommandError{Command: "status", Cause: err}
	}
	total, err := sink.Count(cmd.Context(), q)
	if err != nil {
		return &cli.CommandError{Command: "status", Cause: err}
	}

	result := statusResult{Total: total}
	for _, e := range events {
		result.Events = append(result.Events, statusEventEntry{
			Kind:      string(e.Kind),
			Service:   e.Service,
			Version:   e.Version,
			Digest:    e.Digest,
			Actor:     e.Actor,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}

	return emit(result)
}
