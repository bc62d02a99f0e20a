// Package history keeps the fixed-length window of recent poses used for
// stuck and turn detection.
package history

import (
	"math"

	"github.com/arpg/bobcat/geom"
)

// Thresholds used by the detectors.
const (
	// MissionStartDist is the displacement from the first pose that marks
	// the start of the mission.
	MissionStartDist = 5.0

	StuckDist     = 0.5
	StuckHeading  = 60.0
	TurnDist      = 4.0
	TurnHeading   = 30.0
	TurnLastStep  = 0.5
	turnWindowCut = 0.4
)

// Buffer is a bounded pose history. The zero value is not usable; call New.
type Buffer struct {
	capacity int
	poses    []geom.Pose

	initial *geom.Pose
	started bool
}

// New creates a history holding at most capacity poses.
func New(capacity int) *Buffer {
	if capacity < 2 {
		capacity = 2
	}
	return &Buffer{
		capacity: capacity,
		poses:    make([]geom.Pose, 0, capacity),
	}
}

// Capacity returns the maximum number of poses kept.
func (b *Buffer) Capacity() int { return b.capacity }

// Len returns the number of poses currently held.
func (b *Buffer) Len() int { return len(b.poses) }

// Full reports whether the window has reached capacity.
func (b *Buffer) Full() bool { return len(b.poses) == b.capacity }

// MissionStarted reports whether the robot has left the starting area.
func (b *Buffer) MissionStarted() bool { return b.started }

// Append records p, evicting the oldest sample when the window is full.
// The first pose ever appended becomes the mission start reference.
func (b *Buffer) Append(p geom.Pose) {
	if b.initial == nil {
		first := p
		b.initial = &first
	} else if !b.started && geom.Dist(p.Position, b.initial.Position) > MissionStartDist {
		b.started = true
	}

	if len(b.poses) == b.capacity {
		copy(b.poses, b.poses[1:])
		b.poses = b.poses[:len(b.poses)-1]
	}
	b.poses = append(b.poses, p)
}

// Poses returns a copy of the window, oldest first.
func (b *Buffer) Poses() []geom.Pose {
	out := make([]geom.Pose, len(b.poses))
	copy(out, b.poses)
	return out
}

// Oldest returns the oldest pose held.
func (b *Buffer) Oldest() (geom.Pose, bool) {
	if len(b.poses) == 0 {
		return geom.Pose{}, false
	}
	return b.poses[0], true
}

// Newest returns the most recent pose held.
func (b *Buffer) Newest() (geom.Pose, bool) {
	if len(b.poses) == 0 {
		return geom.Pose{}, false
	}
	return b.poses[len(b.poses)-1], true
}

// Stationary reports whether the robot barely moved or turned across the
// full window. It is false until the window is full.
func (b *Buffer) Stationary() bool {
	if !b.Full() {
		return false
	}
	first, last := b.poses[0], b.poses[len(b.poses)-1]
	if geom.Dist(first.Position, last.Position) >= StuckDist {
		return false
	}
	turn := geom.AngleDiff(geom.YawDeg(first.Orientation), geom.YawDeg(last.Orientation))
	return math.Abs(turn) < StuckHeading
}

// Turning reports whether the window looks like the robot rounded a corner:
// the mean pose of the first 40% and the last 40% of the window are far
// enough apart, point in different directions, and the robot is still moving.
func (b *Buffer) Turning() bool {
	if !b.Full() {
		return false
	}
	head := int(turnWindowCut * float64(b.capacity))
	tail := int((1 - turnWindowCut) * float64(b.capacity))
	if head < 1 || tail >= b.capacity {
		return false
	}
	pos1, yaw1 := geom.AveragePose(b.poses[:head])
	pos2, yaw2 := geom.AveragePose(b.poses[tail:])

	n := len(b.poses)
	lastStep := geom.Dist(b.poses[n-2].Position, b.poses[n-1].Position)
	return geom.Dist(pos1, pos2) > TurnDist &&
		math.Abs(geom.AngleDiff(yaw1, yaw2)) > TurnHeading &&
		lastStep > TurnLastStep
}
