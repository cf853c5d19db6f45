package monitor

import "time"

const perfMaxSamples = 100

// PerformanceTracker keeps a rolling window of cycle durations. Accessed
// only from the scrape loop, so no locking is needed.
type PerformanceTracker struct {
	durations []time.Duration
}

// NewPerformanceTracker creates an empty tracker.
func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{}
}

// Record appends one cycle duration, dropping the oldest past the window.
func (t *PerformanceTracker) Record(d time.Duration) {
	t.durations = append(t.durations, d)
	if len(t.durations) > perfMaxSamples {
		t.durations = t.durations[len(t.durations)-perfMaxSamples:]
	}
}

// Average returns the mean duration over the window, or zero when empty.
func (t *PerformanceTracker) Average() time.Duration {
	if len(t.durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range t.durations {
		sum += d
	}
	return sum / time.Duration(len(t.durations))
}
