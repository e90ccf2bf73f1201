package distributor

import (
	"fmt"
	"time"
)

// State is a deployment's lifecycle stage.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateRolledBack State = "rolled_back"
	StateCancelled  State = "cancelled"
)

var terminal = map[State]bool{
	StateCompleted:  true,
	StateFailed:     true,
	StateRolledBack: true,
	StateCancelled:  true,
}

// IsTerminal reports whether s is a terminal deployment state.
func (s State) IsTerminal() bool { return terminal[s] }

var validTransitions = map[State][]State{
	StatePending:    {StateInProgress, StateCancelled},
	StateInProgress: {StateCompleted, StateFailed, StateRolledBack, StateCancelled},
}

// Deployment is one rollout of a service's policy bundle across its
// discovered instances.
type Deployment struct {
	ID          string
	Service     string
	Version     string
	Strategy    StrategyKind
	StartedAt   time.Time
	CompletedAt *time.Time
	State       State
	Results     []PushResult
}

// Transition moves d to next, rejecting any move not in
// validTransitions. A deployment already in a terminal state can never
// transition again.
func (d *Deployment) Transition(next State) error {
	if d.State.IsTerminal() {
		return fmt.Errorf("deployment %s is already terminal (%s)", d.ID, d.State)
	}
	for _, allowed := range validTransitions[d.State] {
		if allowed == next {
			d.State = next
			if next.IsTerminal() {
				now := time.Now()
				d.CompletedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("deployment %s cannot transition from %s to %s", d.ID, d.State, next)
}

// FailureRate returns the fraction of Results with a non-nil Err.
func (d *Deployment) FailureRate() float64 {
	if len(d.Results) == 0 {
		return 0
	}
	failed := 0
	for _, r := range d.Results {
		if r.Err != nil {
			failed++
		}
	}
	return float64(failed) / float64(len(d.Results))
}
