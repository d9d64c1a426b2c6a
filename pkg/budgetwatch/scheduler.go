package budgetwatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Poll interval bounds, in line with the setup wizard's allowed range.
const (
	MinPollInterval     = 5 * time.Minute
	MaxPollInterval     = 60 * time.Minute
	DefaultPollInterval = 10 * time.Minute
)

// ClampPollInterval bounds a configured interval to the supported range,
// substituting the default for a zero value.
func ClampPollInterval(interval time.Duration) time.Duration {
	switch {
	case interval == 0:
		return DefaultPollInterval
	case interval < MinPollInterval:
		return MinPollInterval
	case interval > MaxPollInterval:
		return MaxPollInterval
	default:
		return interval
	}
}

// Scheduler invokes the refresh engine on a fixed interval and on demand.
// Cycles never overlap for the same engine: a manual request that arrives
// while a cycle is in flight is coalesced into one pending run.
type Scheduler struct {
	engine   *RefreshEngine
	interval time.Duration
	logger   Logger

	manual  chan struct{}
	stopped atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a scheduler for one engine. The interval is clamped
// to the supported range.
func NewScheduler(engine *RefreshEngine, interval time.Duration, logger Logger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: ClampPollInterval(interval),
		logger:   logger,
		manual:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Interval returns the effective poll interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start begins the polling loop. The first refresh runs immediately; the
// loop stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.loop(runCtx)
	})
}

// Stop shuts the loop down and waits for any in-flight cycle to finish, so
// shutdown never leaves a dangling write.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
}

// ManualRefresh requests an out-of-band cycle. When a cycle is already in
// flight or pending, the request coalesces with it rather than running
// concurrently.
func (s *Scheduler) ManualRefresh() error {
	if s.stopped.Load() {
		return ErrSchedulerStopped
	}

	select {
	case s.manual <- struct{}{}:
	default:
		// A run is already pending; this request rides along with it.
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Force an update on startup so consumers have data immediately.
	s.runCycle(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, "scheduled")
		case <-s.manual:
			s.runCycle(ctx, "manual")
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}

	cycleID := uuid.NewString()
	start := time.Now()

	if s.logger != nil {
		s.logger.Debug("Refresh cycle starting", "cycle_id", cycleID, "trigger", trigger)
	}

	snap, err := s.engine.Refresh(ctx)
	duration := time.Since(start)

	if s.logger == nil {
		return
	}
	if err != nil {
		// The engine has already published a degraded snapshot; the next
		// scheduled tick is the retry.
		s.logger.Warn("Refresh cycle failed", "cycle_id", cycleID, "trigger", trigger, "duration", duration, "status", snap.APIStatus.Status)
		return
	}
	s.logger.Info("Refresh cycle complete", "cycle_id", cycleID, "trigger", trigger, "duration", duration, "accounts", len(snap.Accounts), "needs_attention", snap.NeedsAttentionCount)
}
