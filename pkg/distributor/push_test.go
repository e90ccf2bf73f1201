package distributor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eunomia-hq/eunomia/pkg/eerrors"
)

type stubPusher struct {
	failUntilAttempt int
	permanent        bool
	attempts         int
}

func (p *stubPusher) Push(ctx context.Context, inst Instance, archive []byte) error {
	p.attempts++
	if p.attempts <= p.failUntilAttempt {
		if p.permanent {
			return &eerrors.DistributeError{InstanceID: inst.ID, Transient: false, Reason: "rejected"}
		}
		return &eerrors.DistributeError{InstanceID: inst.ID, Transient: true, Reason: "unreachable"}
	}
	return nil
}

func TestPushWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	pusher := &stubPusher{failUntilAttempt: 2}
	res := PushWithRetry(context.Background(), pusher, Instance{ID: "i1"}, []byte("bundle"), PushPolicy{MaxRetries: 5, BackoffBase: time.Millisecond})

	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Attempts)
}

func TestPushWithRetryStopsImmediatelyOnPermanentError(t *testing.T) {
	pusher := &stubPusher{failUntilAttempt: 10, permanent: true}
	res := PushWithRetry(context.Background(), pusher, Instance{ID: "i1"}, []byte("bundle"), PushPolicy{MaxRetries: 5, BackoffBase: time.Millisecond})

	require.Error(t, res.Err)
	assert.Equal(t, 1, res.Attempts)
}

func TestPushWithRetryExhaustsMaxRetriesOnPersistentTransientError(t *testing.T) {
	pusher := &stubPusher{failUntilAttempt: 100}
	res := PushWithRetry(context.Background(), pusher, Instance{ID: "i1"}, []byte("bundle"), PushPolicy{MaxRetries: 3, BackoffBase: time.Millisecond})

	require.Error(t, res.Err)
	assert.Equal(t, 3, res.Attempts)
}

func TestIsTransientDefaultsTrueForUnknownErrorTypes(t *testing.T) {
	assert.True(t, isTransient(assertErr("some generic failure")))
}

func TestIsTransientReadsDistributeErrorFlag(t *testing.T) {
	assert.False(t, isTransient(&eerrors.DistributeError{Transient: false}))
	assert.True(t, isTransient(&eerrors.DistributeError{Transient: true}))
}
