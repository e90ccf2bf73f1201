package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Prunable is anything with an expired-entry sweep, e.g. a FileCache.
type Prunable interface {
	Prune() int
}

// PruneScheduler runs a Prunable's sweep on a cron schedule, e.g.
// "0 */6 * * *" for every six hours.
type PruneScheduler struct {
	target  Prunable
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
	onSweep func()
}

// OnSweep registers a hook run after every scheduled sweep completes,
// e.g. to snapshot cache counters alongside the prune.
func (s *PruneScheduler) OnSweep(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSweep = fn
}

// NewPruneScheduler builds a scheduler that sweeps target.
func NewPruneScheduler(target Prunable) *PruneScheduler {
	return &PruneScheduler{
		target: target,
		cron:   cron.New(),
		logger: slog.Default().With("component", "registry.prune"),
	}
}

// Start validates schedule and begins running the sweep on it. An empty
// schedule disables the scheduler entirely.
func (s *PruneScheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule == "" {
		s.logger.Info("cache prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.runPrune()
	}); err != nil {
		return fmt.Errorf("schedule cache prune: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("cache prune scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *PruneScheduler) runPrune() {
	start := time.Now()
	evicted := s.target.Prune()
	s.logger.Info("cache prune swept", "evicted", evicted, "duration", time.Since(start))

	s.mu.Lock()
	hook := s.onSweep
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *PruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("cache prune scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *PruneScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
