package budgetwatch

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/budgetwatch/budgetwatch-go/internal/types"
)

// hourlyRequestEstimate mirrors the transport-layer quota estimate so the
// published status defaults line up with quota math.
const hourlyRequestEstimate = types.HourlyRequestEstimate

// quotaWindow is the trailing window the remote service is assumed to
// measure requests over.
const quotaWindow = time.Hour

// RequestTracker answers "how many requests has this credential made in the
// trailing hour, and when can it make more" with a trimmed-window counter.
// It is an estimate, not a token bucket: the remote service's exact quota
// algorithm is unknown.
//
// One tracker is shared by every budget instance configured with the same
// credential fingerprint, so all mutation happens under a mutex.
type RequestTracker struct {
	mu         sync.Mutex
	timestamps []time.Time
	total      int64
	now        func() time.Time
}

// NewRequestTracker creates an empty tracker.
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{now: time.Now}
}

// Record appends a request timestamp and bumps the lifetime counter, then
// trims entries that have aged out of the window.
func (t *RequestTracker) Record() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.timestamps = append(t.timestamps, now)
	t.total++
	t.trimLocked(now)
}

// trimLocked discards timestamps older than the window. The slice is
// time-ordered by construction, so trimming from the front is sufficient.
func (t *RequestTracker) trimLocked(now time.Time) {
	cutoff := now.Add(-quotaWindow)
	i := 0
	for i < len(t.timestamps) && t.timestamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		t.timestamps = append(t.timestamps[:0], t.timestamps[i:]...)
	}
}

// Quota returns the current quota view. The lifetime total is never trimmed;
// it exists for observability only.
func (t *RequestTracker) Quota() QuotaInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.trimLocked(now)

	thisHour := len(t.timestamps)

	remaining := hourlyRequestEstimate - thisHour
	if remaining < 0 {
		remaining = 0
	}

	resetsAt := now.Add(quotaWindow)
	if thisHour > 0 {
		resetsAt = t.timestamps[0].Add(quotaWindow)
	}

	return QuotaInfo{
		RequestsMadeTotal:  t.total,
		RequestsThisHour:   thisHour,
		EstimatedRemaining: remaining,
		RateLimitResetsAt:  resetsAt,
	}
}

// Fingerprint derives the short, non-secret credential identifier used to
// group quota tracking. The token itself is never stored.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:8]
}

// TrackerRegistry holds one RequestTracker per credential fingerprint, so
// multiple budget instances on the same credential share one quota view.
type TrackerRegistry struct {
	mu       sync.Mutex
	trackers map[string]*RequestTracker
}

// NewTrackerRegistry creates an empty registry.
func NewTrackerRegistry() *TrackerRegistry {
	return &TrackerRegistry{trackers: make(map[string]*RequestTracker)}
}

// Tracker returns the tracker for a fingerprint, creating it lazily on
// first use.
func (r *TrackerRegistry) Tracker(fingerprint string) *RequestTracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	tracker, ok := r.trackers[fingerprint]
	if !ok {
		tracker = NewRequestTracker()
		r.trackers[fingerprint] = tracker
	}
	return tracker
}
