package budgetwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRequestTracker_WindowTrimming(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	tracker := NewRequestTracker()

	// Insert one request 61 minutes ago and one 59 minutes ago.
	tracker.now = fixedClock(now.Add(-61 * time.Minute))
	tracker.Record()
	tracker.now = fixedClock(now.Add(-59 * time.Minute))
	tracker.Record()

	tracker.now = fixedClock(now)
	quota := tracker.Quota()

	// Exactly 61 minutes old is excluded; 59 minutes old is included.
	assert.Equal(t, 1, quota.RequestsThisHour)
	assert.Equal(t, int64(2), quota.RequestsMadeTotal, "lifetime counter is never trimmed")
	assert.Equal(t, hourlyRequestEstimate-1, quota.EstimatedRemaining)
}

func TestRequestTracker_ResetTime(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	tracker := NewRequestTracker()

	tracker.now = fixedClock(now)
	quota := tracker.Quota()
	assert.Equal(t, now.Add(time.Hour), quota.RateLimitResetsAt, "empty window resets one hour from now")

	oldest := now.Add(-20 * time.Minute)
	tracker.now = fixedClock(oldest)
	tracker.Record()
	tracker.now = fixedClock(now.Add(-5 * time.Minute))
	tracker.Record()

	tracker.now = fixedClock(now)
	quota = tracker.Quota()
	assert.Equal(t, oldest.Add(time.Hour), quota.RateLimitResetsAt, "reset is one hour after the oldest retained request")
}

func TestRequestTracker_QuotaExhaustionEstimate(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	tracker := NewRequestTracker()

	// 199 requests over the last 58 minutes.
	for i := 0; i < 199; i++ {
		tracker.now = fixedClock(now.Add(-58 * time.Minute).Add(time.Duration(i) * time.Second))
		tracker.Record()
	}

	tracker.now = fixedClock(now)
	assert.Equal(t, 1, tracker.Quota().EstimatedRemaining)

	tracker.Record()
	quota := tracker.Quota()
	assert.Equal(t, 200, quota.RequestsThisHour)
	assert.Equal(t, 0, quota.EstimatedRemaining)

	// Blowing past the estimate never goes negative.
	tracker.Record()
	assert.Equal(t, 0, tracker.Quota().EstimatedRemaining)
}

func TestRequestTracker_OrderedTrimIsComplete(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	tracker := NewRequestTracker()

	for i := 0; i < 10; i++ {
		tracker.now = fixedClock(now.Add(time.Duration(i-10) * 10 * time.Minute))
		tracker.Record()
	}

	tracker.now = fixedClock(now)
	quota := tracker.Quota()

	// Entries at -100..-70 minutes are evicted; -60 is exactly the cutoff
	// and retained, along with -50..-10.
	assert.Equal(t, 6, quota.RequestsThisHour)
	assert.Equal(t, int64(10), quota.RequestsMadeTotal)
}

func TestTrackerRegistry_SharedByFingerprint(t *testing.T) {
	registry := NewTrackerRegistry()

	a := registry.Tracker(Fingerprint("token-one"))
	b := registry.Tracker(Fingerprint("token-one"))
	c := registry.Tracker(Fingerprint("token-two"))

	assert.Same(t, a, b, "same credential shares one tracker")
	assert.NotSame(t, a, c, "different credentials get separate trackers")

	a.Record()
	b.Record()
	assert.Equal(t, int64(2), b.Quota().RequestsMadeTotal)
	assert.Equal(t, int64(0), c.Quota().RequestsMadeTotal)
}

func TestFingerprint_DoesNotLeakToken(t *testing.T) {
	token := "super-secret-access-token"
	fp := Fingerprint(token)

	assert.Len(t, fp, 8)
	assert.NotContains(t, token, fp)
	assert.Equal(t, fp, Fingerprint(token), "fingerprint is stable")
}
