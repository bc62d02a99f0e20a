// Package blacklist tracks goal regions the robot failed to reach so goal
// selection can avoid them.
package blacklist

import (
	"time"

	"github.com/arpg/bobcat/geom"
)

// Point is an excluded region. Points are never removed once added.
type Point struct {
	ID       int64      `json:"id"`
	Position geom.Point `json:"position"`
	Radius   float64    `json:"radius"`
	AddedAt  time.Time  `json:"added_at"`
}

// List is the ordered set of blacklist points.
type List struct {
	radius float64
	points []Point
}

// New creates an empty list whose new points exclude radius units around them.
func New(radius float64) *List {
	return &List{radius: radius}
}

// Add appends a point at p and returns it.
func (l *List) Add(p geom.Point, now time.Time) Point {
	pt := Point{Position: p, Radius: l.radius, AddedAt: now}
	l.points = append(l.points, pt)
	return pt
}

// Restore appends previously persisted points.
func (l *List) Restore(pts []Point) {
	l.points = append(l.points, pts...)
}

// Points returns a copy of the list.
func (l *List) Points() []Point {
	out := make([]Point, len(l.points))
	copy(out, l.points)
	return out
}

// Len returns the number of points.
func (l *List) Len() int { return len(l.points) }

// Contains reports whether p falls inside any blacklisted region.
func (l *List) Contains(p geom.Point) bool {
	for _, bp := range l.points {
		if geom.Dist(p, bp.Position) < bp.Radius {
			return true
		}
	}
	return false
}

// Consolidate reduces the goals collected while stuck to one blacklist
// position. Goals farther than maxSpread from the mean of all goals are
// discarded in a single pass and the mean is taken again over the rest. The
// result is only usable when more than minCount goals survive and the mean
// is not the origin.
func Consolidate(goals []geom.Point, maxSpread float64, minCount int) (geom.Point, bool) {
	mean := geom.AveragePosition(goals)
	var kept []geom.Point
	for _, g := range goals {
		if geom.Dist(g, mean) < maxSpread {
			kept = append(kept, g)
		}
	}
	if len(kept) <= minCount {
		return geom.Point{}, false
	}
	avg := geom.AveragePosition(kept)
	if avg.IsOrigin() {
		return geom.Point{}, false
	}
	return avg, true
}
