package monitor

import "time"

// failureResetWindow force-resets the consecutive-failure counter on a
// fixed wall-clock cadence so stale suppression state from an old burst of
// failures cannot linger across long healthy stretches.
const failureResetWindow = 6 * time.Hour

// FailureState tracks consecutive cycle failures. It is a plain value owned
// by the scheduler and mutated only at cycle boundaries.
type FailureState struct {
	Consecutive int
	LastReset   time.Time
}

// NewFailureState starts a clean counter window at now.
func NewFailureState(now time.Time) FailureState {
	return FailureState{LastReset: now}
}

// MaybeExpire applies the periodic wall-clock reset. Called at cycle start,
// before the cycle outcome is known.
func (s *FailureState) MaybeExpire(now time.Time) bool {
	if now.Sub(s.LastReset) < failureResetWindow {
		return false
	}
	s.Consecutive = 0
	s.LastReset = now
	return true
}

// Observe records one cycle outcome: success resets the counter, failure
// increments it.
func (s *FailureState) Observe(success bool) {
	if success {
		s.Consecutive = 0
		return
	}
	s.Consecutive++
}
