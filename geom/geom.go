// Package geom holds the small amount of 3-D pose math the coordinator needs.
// Planar measurements go through paulmach/orb so map exports and distance
// checks agree on the same 2-D projection.
package geom

import (
	"math"
	"math/cmplx"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a position in the shared world frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation in the shared world frame.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is a position plus orientation.
type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Planar projects the point onto the XY plane.
func (p Point) Planar() orb.Point {
	return orb.Point{p.X, p.Y}
}

// IsOrigin reports whether the point is exactly the zero value, which is
// used as the "nothing received yet" sentinel for goals.
func (p Point) IsOrigin() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// Dist returns the 3-D euclidean distance.
func Dist(a, b Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Dist2D returns the distance between the planar projections.
func Dist2D(a, b Point) float64 {
	return planar.Distance(a.Planar(), b.Planar())
}

// Yaw returns the heading of q in radians.
func Yaw(q Quaternion) float64 {
	return math.Atan2(2.0*(q.X*q.Y+q.W*q.Z), 1.0-2.0*(q.Y*q.Y+q.Z*q.Z))
}

// YawDeg returns the heading of q in degrees.
func YawDeg(q Quaternion) float64 {
	return Yaw(q) * 180 / math.Pi
}

// FromYaw builds a level orientation with the given heading in radians.
func FromYaw(yaw float64) Quaternion {
	return Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
}

// AngleDiff computes a-b in degrees, wrapped to [-180, 180).
func AngleDiff(a, b float64) float64 {
	a = floorMod(360000+a, 360)
	b = floorMod(360000+b, 360)
	return floorMod(a-b+180, 360) - 180
}

func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// AveragePosition returns the centroid of pts. An empty slice yields the origin.
func AveragePosition(pts []Point) Point {
	var avg Point
	if len(pts) == 0 {
		return avg
	}
	for _, p := range pts {
		avg.X += p.X
		avg.Y += p.Y
		avg.Z += p.Z
	}
	n := float64(len(pts))
	avg.X /= n
	avg.Y /= n
	avg.Z /= n
	return avg
}

// AveragePose returns the centroid of the poses and their circular mean
// heading in degrees.
func AveragePose(poses []Pose) (Point, float64) {
	if len(poses) == 0 {
		return Point{}, 0
	}
	pts := make([]Point, len(poses))
	var heading complex128
	for i, p := range poses {
		pts[i] = p.Position
		heading += cmplx.Rect(1, Yaw(p.Orientation))
	}
	return AveragePosition(pts), cmplx.Phase(heading) * 180 / math.Pi
}

// Behind returns p moved dist units backwards along its heading.
func Behind(p Pose, dist float64) Pose {
	yaw := Yaw(p.Orientation)
	out := p
	out.Position.X -= math.Cos(yaw) * dist
	out.Position.Y -= math.Sin(yaw) * dist
	return out
}

// LateralOffset returns the signed planar distance of p from the line through
// a and b. When a and b coincide the Y offset from a is used instead.
func LateralOffset(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p.Y - a.Y
	}
	return (dx*(p.Y-a.Y) - dy*(p.X-a.X)) / length
}
