package distributor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// Pusher delivers a bundle archive to a single instance. Implementations
// wrap the mTLS push client; tests supply a stub.
type Pusher interface {
	Push(ctx context.Context, inst Instance, archive []byte) error
}

// PushPolicy controls retry/backoff behavior for a single instance push.
type PushPolicy struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
}

// PushResult is the outcome of pushing a bundle to one instance.
type PushResult struct {
	InstanceID string
	Attempts   int
	Err        error
}

// PushWithRetry attempts to push archive to inst up to policy.MaxRetries
// times, using exponential backoff between attempts. A permanent
// DistributeError (Transient=false) aborts immediately without further
// retries; a transient one is retried until the cap is reached.
func PushWithRetry(ctx context.Context, pusher Pusher, inst Instance, archive []byte, policy PushPolicy) PushResult {
	attempts := 0

	operation := func() (struct{}, error) {
		attempts++
		attemptCtx := ctx
		var cancel context.CancelFunc
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
			defer cancel()
		}

		if err := pusher.Push(attemptCtx, inst, archive); err != nil {
			if !isTransient(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	base := policy.BackoffBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxRetries := policy.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(maxRetries)),
	)

	return PushResult{InstanceID: inst.ID, Attempts: attempts, Err: err}
}

func isTransient(err error) bool {
	var de *eerrors.DistributeError
	if as(err, &de) {
		return de.Transient
	}
	return true
}

func as(err error, target **eerrors.DistributeError) bool {
	for err != nil {
		if de, ok := err.(*eerrors.DistributeError); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
