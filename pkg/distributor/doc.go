// Package distributor drives policy bundle rollouts across a discovered
// instance set: it selects a deployment strategy (immediate, canary, or
// rolling), pushes the bundle per instance with retry/backoff, tracks
// per-instance health, and triggers automatic rollback when a rollout's
// error rate, latency, or canary health crosses a configured threshold.
package distributor
