package blacklist

import "github.com/arpg/bobcat/geom"

// StuckTracker counts consecutive stationary ticks and collects the goals
// the robot was pursuing while it sat still.
type StuckTracker struct {
	threshold int
	spread    float64
	minCount  int

	count   int
	pending []geom.Point
}

// NewStuckTracker creates a tracker that reports stuck after threshold
// consecutive stationary ticks. Pending goals are consolidated with a spread
// of 2*deconflictRadius and need more than minCount survivors.
func NewStuckTracker(threshold int, deconflictRadius float64, minCount int) *StuckTracker {
	if threshold < 1 {
		threshold = 1
	}
	return &StuckTracker{
		threshold: threshold,
		spread:    2 * deconflictRadius,
		minCount:  minCount,
	}
}

// Observe records one tick. When the robot is stationary the goal joins the
// pending list; otherwise the counter and pending list reset. On the
// threshold and every multiple of it the pending goals are consolidated; a
// usable result is returned with ok=true and the pending list is cleared.
func (s *StuckTracker) Observe(stationary bool, goal geom.Point) (blacklisted geom.Point, ok bool) {
	if !stationary {
		s.count = 0
		s.pending = nil
		return geom.Point{}, false
	}

	s.count++
	s.pending = append(s.pending, goal)

	if s.count < s.threshold || s.count%s.threshold != 0 {
		return geom.Point{}, false
	}
	avg, ok := Consolidate(s.pending, s.spread, s.minCount)
	if !ok {
		return geom.Point{}, false
	}
	s.pending = nil
	return avg, true
}

// Stuck reports whether the counter has reached the threshold.
func (s *StuckTracker) Stuck() bool { return s.count >= s.threshold }

// Count returns the number of consecutive stationary ticks.
func (s *StuckTracker) Count() int { return s.count }

// Threshold returns the configured stuck threshold.
func (s *StuckTracker) Threshold() int { return s.threshold }

// Pending returns the number of goals waiting to be consolidated.
func (s *StuckTracker) Pending() int { return len(s.pending) }
