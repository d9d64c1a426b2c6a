package budgetwatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPollInterval(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, ClampPollInterval(0))
	assert.Equal(t, MinPollInterval, ClampPollInterval(time.Minute))
	assert.Equal(t, MaxPollInterval, ClampPollInterval(2*time.Hour))
	assert.Equal(t, 15*time.Minute, ClampPollInterval(15*time.Minute))
}

func TestScheduler_StartRefreshesImmediately(t *testing.T) {
	api := newFakeAPI()
	engine, _ := newTestEngine(t, api, openTestStore(t))

	var mu sync.Mutex
	published := 0
	engine.Subscribe(func(*BudgetSnapshot) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	scheduler := NewScheduler(engine, 0, nil)
	assert.Equal(t, DefaultPollInterval, scheduler.Interval())

	scheduler.Start(context.Background())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return published >= 1
	}, 2*time.Second, 10*time.Millisecond, "startup cycle publishes without waiting for a tick")

	scheduler.Stop()
	assert.NotNil(t, engine.Snapshot())
}

func TestScheduler_ManualRefresh(t *testing.T) {
	api := newFakeAPI()
	engine, _ := newTestEngine(t, api, openTestStore(t))

	var mu sync.Mutex
	published := 0
	engine.Subscribe(func(*BudgetSnapshot) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	scheduler := NewScheduler(engine, MinPollInterval, nil)

	// Queued before start; a second request coalesces into the pending one.
	require.NoError(t, scheduler.ManualRefresh())
	require.NoError(t, scheduler.ManualRefresh())

	scheduler.Start(context.Background())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return published >= 2
	}, 2*time.Second, 10*time.Millisecond, "startup cycle plus one coalesced manual cycle")

	scheduler.Stop()

	mu.Lock()
	got := published
	mu.Unlock()
	assert.Equal(t, 2, got, "two requests coalesced into one manual cycle")
}

func TestScheduler_StopRejectsManualRefresh(t *testing.T) {
	engine, _ := newTestEngine(t, newFakeAPI(), openTestStore(t))
	scheduler := NewScheduler(engine, MinPollInterval, nil)

	scheduler.Start(context.Background())
	scheduler.Stop()

	assert.ErrorIs(t, scheduler.ManualRefresh(), ErrSchedulerStopped)
}

func TestScheduler_ContextCancelStopsLoop(t *testing.T) {
	engine, _ := newTestEngine(t, newFakeAPI(), openTestStore(t))
	scheduler := NewScheduler(engine, MinPollInterval, nil)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()

	// Stop must not hang once the context is gone.
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
