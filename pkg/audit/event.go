package audit

import (
	"context"
	"time"
)

// EventKind names the kind of operation an Event records.
type EventKind string

const (
	EventPolicyCreated         EventKind = "policy_created"
	EventPolicyDeployed        EventKind = "policy_deployed"
	EventPolicyRollback        EventKind = "policy_rollback"
	EventAuthorizationDecision EventKind = "authorization_decision"
)

// Event is one recorded occurrence. Context carries kind-specific
// detail (e.g. a decision's allow/deny result and matched rule, or a
// deployment's strategy and wave count) without forcing every kind
// through the same fixed schema.
type Event struct {
	Kind      EventKind      `json:"kind"`
	Service   string         `json:"service"`
	Version   string         `json:"version,omitempty"`
	Digest    string         `json:"digest,omitempty"`
	Actor     string         `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// Query filters a Sink's List call.
type Query struct {
	Service string
	Kind    EventKind
	Since   *time.Time
	Until   *time.Time
	Limit   int
	Offset  int
}

// Sink persists or forwards audit events and serves them back for the
// status/audit CLI surface. Implementations must be safe for
// concurrent use.
type Sink interface {
	Log(ctx context.Context, event Event) error
	List(ctx context.Context, query Query) ([]Event, error)
	Count(ctx context.Context, query Query) (int64, error)
	Close() error
}
