package distributor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsAllEnqueuedJobs(t *testing.T) {
	sched := NewScheduler(4, 2)

	var mu sync.Mutex
	var ran []string
	var wg sync.WaitGroup
	wg.Add(3)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	for _, name := range []string{"a", "b", "c"} {
		n := name
		sched.Enqueue(&Job{Priority: PriorityNormal, Service: "svc", Run: func(ctx context.Context) error {
			mu.Lock()
			ran = append(ran, n)
			mu.Unlock()
			wg.Done()
			return nil
		}})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not complete in time")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ran)
}

func TestSchedulerRespectsPerServiceCap(t *testing.T) {
	sched := NewScheduler(8, 1)

	var mu sync.Mutex
	concurrent := 0
	maxConcurrent := 0
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)
	defer cancel()

	job := func(ctx context.Context) error {
		mu.Lock()
		concurrent++
		if concurrent > maxConcurrent {
			maxConcurrent = concurrent
		}
		mu.Unlock()

		<-release

		mu.Lock()
		concurrent--
		mu.Unlock()
		wg.Done()
		return nil
	}

	sched.Enqueue(&Job{Priority: PriorityNormal, Service: "svc", Run: job})
	sched.Enqueue(&Job{Priority: PriorityNormal, Service: "svc", Run: job})

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxConcurrent, "per-service cap of 1 should serialize same-service jobs")
}

func TestJobQueueOrdersByPriorityThenFIFO(t *testing.T) {
	q := jobQueue{
		{Priority: PriorityLow, seq: 0},
		{Priority: PriorityHigh, seq: 1},
		{Priority: PriorityHigh, seq: 0},
		{Priority: PriorityNormal, seq: 2},
	}

	require.True(t, q.Less(2, 1), "same priority, lower seq sorts first")
	require.True(t, q.Less(1, 3), "higher priority sorts first regardless of seq")
	require.False(t, q.Less(0, 3), "low priority never sorts before normal")
}
