// Package health tracks weather-provider outcomes in a sliding window so the
// health endpoint can report a degraded service when the collaborator is
// failing, without any failure ever aborting an ingestion sweep.
package health

import (
	"sync"
	"time"
)

// maxAge bounds how long outcome timestamps are retained.
const maxAge = 10 * time.Minute

// ProviderTracker maintains sliding windows of weather-provider fetch
// outcomes. Fallback substitutions count as errors: the sweep succeeded but
// the collaborator did not.
type ProviderTracker struct {
	mu        sync.Mutex
	successes []time.Time
	failures  []time.Time
}

// RecordSuccess records a provider fetch that returned a usable observation.
func (t *ProviderTracker) RecordSuccess() {
	t.record(&t.successes)
}

// RecordFailure records a provider fetch that was replaced by the fallback.
func (t *ProviderTracker) RecordFailure() {
	t.record(&t.failures)
}

func (t *ProviderTracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

// FailureRate returns (failures, total) within the window.
func (t *ProviderTracker) FailureRate(window time.Duration) (failures, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	f := countSince(t.failures, cutoff)
	s := countSince(t.successes, cutoff)
	return f, f + s
}

// Degraded reports whether the failure percentage within the window meets or
// exceeds thresholdPct. A window with no outcomes is not degraded.
func (t *ProviderTracker) Degraded(window time.Duration, thresholdPct int) bool {
	failures, total := t.FailureRate(window)
	if total == 0 || thresholdPct <= 0 {
		return false
	}
	return failures*100 >= thresholdPct*total
}

// Reset clears all recorded outcomes. For tests.
func (t *ProviderTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successes = nil
	t.failures = nil
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than maxAge. Caller holds the mutex.
func (t *ProviderTracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxAge)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&t.successes)
	prune(&t.failures)
}
