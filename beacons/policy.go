package beacons

import (
	"math"

	"github.com/arpg/bobcat/geom"
)

// Reason labels why a beacon drop was requested.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonAnchor     Reason = "anchor distance"
	ReasonJunction   Reason = "at junction"
	ReasonTurn       Reason = "at turn"
	ReasonBeaconDist Reason = "beacon distance"
	ReasonGUI        Reason = "GUI Command"
	ReasonRegain     Reason = "Regain comms"
)

// MinAnchorDist is the radius around the anchor inside which no beacon is
// ever dropped.
const MinAnchorDist = 10.0

// TurnExtraDist is added to the junction distance for turn-triggered drops.
const TurnExtraDist = 5.0

// Deadband is the half-width of the lateral band around the outbound path
// in which drops are suppressed.
const Deadband = 1.0

// Params are the configured distances of the drop policy.
type Params struct {
	MaxAnchorDist float64 // anchor_drop_dist
	MaxDist       float64 // drop_dist
	JunctionDist  float64
	TurnDetect    bool
}

// Situation is everything the policy looks at on one tick.
type Situation struct {
	Position   geom.Point
	Anchor     geom.Point
	AtJunction bool
	Turning    bool
	DelayDrop  bool
	Active     []Beacon
}

// Decision is the outcome of Evaluate. Reason is kept even when Drop is
// false so cancelled drops can be logged.
type Decision struct {
	Drop       bool
	Reason     Reason
	CheckDist  float64
	AnchorDist float64
	InRange    int
	OutOfRange int
	Suppressed bool
}

// Evaluate applies the in-comm drop rules in order. Junction wins over turn,
// and both replace the anchor reason when they apply. Until the robot leaves
// anchor range, beacons are only out of range past the anchor distance.
func Evaluate(p Params, s Situation) Decision {
	d := Decision{AnchorDist: geom.Dist(s.Anchor, s.Position)}
	if d.AnchorDist < MinAnchorDist {
		return d
	}

	d.CheckDist = p.MaxAnchorDist
	if d.AnchorDist > p.MaxAnchorDist && !s.DelayDrop {
		d.Drop = true
		d.Reason = ReasonAnchor
		d.CheckDist = p.MaxDist
	}

	if s.AtJunction {
		d.Drop = true
		d.Reason = ReasonJunction
		d.CheckDist = p.JunctionDist
	} else if p.TurnDetect && s.Turning {
		d.Drop = true
		d.Reason = ReasonTurn
		d.CheckDist = p.JunctionDist + TurnExtraDist
	}

	d.Drop, d.InRange, d.OutOfRange = DistCheck(s.Position, s.Active, d.CheckDist, d.Drop, 1)
	strong := d.Reason == ReasonJunction || d.Reason == ReasonTurn
	if d.OutOfRange > 0 && !strong {
		d.Reason = ReasonBeaconDist
	}

	if ref, ok := pathBeacon(s.Active); ok && d.Drop && d.AnchorDist <= p.MaxAnchorDist {
		offset := geom.LateralOffset(s.Position, s.Anchor, ref.Position)
		if math.Abs(offset) < Deadband {
			d.Drop = false
			d.Suppressed = true
		}
	}
	return d
}

// pathBeacon picks the beacon that marks the outbound path: the first one
// this robot deployed, else the first active one.
func pathBeacon(active []Beacon) (Beacon, bool) {
	for _, b := range active {
		if b.Owner {
			return b, true
		}
	}
	if len(active) == 0 {
		return Beacon{}, false
	}
	return active[0], true
}

// DistCheck compares pos against every active beacon. Any beacon farther
// than checkDist flags a drop; more than maxInRange beacons within
// checkDist cancel it. It returns the resulting flag and the in-range and
// out-of-range counts.
func DistCheck(pos geom.Point, active []Beacon, checkDist float64, drop bool, maxInRange int) (bool, int, int) {
	var in, out int
	for _, b := range active {
		if geom.Dist(pos, b.Position) > checkDist {
			out++
			drop = true
		} else {
			in++
		}
	}
	if in > maxInRange {
		drop = false
	}
	return drop, in, out
}

// NearAny reports whether any of sites lies within dist of pos.
func NearAny(pos geom.Point, sites []geom.Point, dist float64) bool {
	for _, s := range sites {
		if geom.Dist(pos, s) < dist {
			return true
		}
	}
	return false
}
