package deploy

import (
	"fmt"
	"time"

	"github.com/arpg/bobcat/geom"
)

// Mechanism kinds.
const (
	KindTeleport = "teleport"
	KindSignal   = "signal"
	KindLive     = "live"
)

// Timing describes how long each phase of a mechanism takes.
type Timing struct {
	// StopSettle is how long the robot sits still before the trigger.
	StopSettle time.Duration
	// Settle is the minimum wait after the trigger.
	Settle time.Duration
	// Timeout bounds the wait after the trigger.
	Timeout time.Duration
	// AckRequired makes the sequence wait for an explicit Ack.
	AckRequired bool
}

// Request is what a mechanism is asked to do.
type Request struct {
	AttemptID string
	BeaconID  string
	Drop      geom.Pose
}

// Mechanism places a beacon. Trigger must not block.
type Mechanism interface {
	Kind() string
	Timing() Timing
	Trigger(req Request) error
}

// Publisher sends the mechanism commands to the local stack.
type Publisher interface {
	PublishBreadcrumb(beaconID string, pos geom.Point) error
	PublishTeleport(beaconID string, pose geom.Pose) error
	PublishDeployTrigger(on bool) error
}

// Teleport places a simulated beacon by asking the simulator to move its
// model to the drop pose. The simulator bridge answers with a deploy ack.
type Teleport struct {
	Pub Publisher
}

func (m *Teleport) Kind() string { return KindTeleport }

func (m *Teleport) Timing() Timing {
	return Timing{Settle: 3 * time.Second, Timeout: 10 * time.Second, AckRequired: true}
}

func (m *Teleport) Trigger(req Request) error {
	if err := m.Pub.PublishBreadcrumb(req.BeaconID, req.Drop.Position); err != nil {
		return fmt.Errorf("breadcrumb %s: %w", req.BeaconID, err)
	}
	if err := m.Pub.PublishTeleport(req.BeaconID, req.Drop); err != nil {
		return fmt.Errorf("teleport %s: %w", req.BeaconID, err)
	}
	return nil
}

// Signal marks a virtual beacon. Nothing physical happens so there is no
// acknowledgement to wait for.
type Signal struct {
	Pub Publisher
}

func (m *Signal) Kind() string { return KindSignal }

func (m *Signal) Timing() Timing {
	return Timing{StopSettle: 3 * time.Second, Timeout: 10 * time.Second}
}

func (m *Signal) Trigger(req Request) error {
	if err := m.Pub.PublishBreadcrumb(req.BeaconID, req.Drop.Position); err != nil {
		return fmt.Errorf("breadcrumb %s: %w", req.BeaconID, err)
	}
	return m.Pub.PublishDeployTrigger(true)
}

// Live drives the physical ejection hardware.
type Live struct {
	Pub Publisher
	// Ack waits for the hardware to confirm the drop instead of only
	// waiting out the settle time.
	Ack bool
}

func (m *Live) Kind() string { return KindLive }

func (m *Live) Timing() Timing {
	return Timing{
		StopSettle:  3 * time.Second,
		Settle:      10 * time.Second,
		Timeout:     20 * time.Second,
		AckRequired: m.Ack,
	}
}

func (m *Live) Trigger(req Request) error {
	if err := m.Pub.PublishBreadcrumb(req.BeaconID, req.Drop.Position); err != nil {
		return fmt.Errorf("breadcrumb %s: %w", req.BeaconID, err)
	}
	if err := m.Pub.PublishDeployTrigger(true); err != nil {
		return fmt.Errorf("deploy trigger: %w", err)
	}
	return nil
}

// NewMechanism returns the mechanism for kind.
func NewMechanism(kind string, pub Publisher, liveAck bool) (Mechanism, error) {
	switch kind {
	case KindTeleport:
		return &Teleport{Pub: pub}, nil
	case KindSignal, "":
		return &Signal{Pub: pub}, nil
	case KindLive:
		return &Live{Pub: pub, Ack: liveAck}, nil
	default:
		return nil, fmt.Errorf("unknown deploy mechanism %q", kind)
	}
}
