package distributor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploymentTransitionsThroughLifecycle(t *testing.T) {
	dep := &Deployment{ID: "d1", State: StatePending}

	require.NoError(t, dep.Transition(StateInProgress))
	assert.Equal(t, StateInProgress, dep.State)
	assert.Nil(t, dep.CompletedAt)

	require.NoError(t, dep.Transition(StateCompleted))
	assert.Equal(t, StateCompleted, dep.State)
	assert.NotNil(t, dep.CompletedAt)
}

func TestDeploymentRejectsInvalidTransition(t *testing.T) {
	dep := &Deployment{ID: "d1", State: StatePending}
	err := dep.Transition(StateCompleted)
	assert.Error(t, err)
	assert.Equal(t, StatePending, dep.State)
}

func TestDeploymentRejectsTransitionOnceTerminal(t *testing.T) {
	dep := &Deployment{ID: "d1", State: StatePending}
	require.NoError(t, dep.Transition(StateInProgress))
	require.NoError(t, dep.Transition(StateFailed))

	err := dep.Transition(StateInProgress)
	assert.Error(t, err)
}

func TestDeploymentFailureRate(t *testing.T) {
	dep := &Deployment{
		Results: []PushResult{
			{InstanceID: "a"},
			{InstanceID: "b", Err: assertErr("boom")},
			{InstanceID: "c"},
			{InstanceID: "d", Err: assertErr("boom")},
		},
	}
	assert.Equal(t, 0.5, dep.FailureRate())
}

func TestDeploymentFailureRateWithNoResults(t *testing.T) {
	dep := &Deployment{}
	assert.Equal(t, float64(0), dep.FailureRate())
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
