package engine

import (
	"time"

	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/coordinator"
	"github.com/arpg/bobcat/deploy"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Directives for the local stack
	EventCommand EventType = iota + 1

	// Decision events
	EventModeChanged
	EventBlacklistAdded
	EventBeaconActivated

	// Deployment events
	EventDeployStateChanged
	EventDeployFinished

	// Per-tick state
	EventSnapshot

	// Operator events
	EventTaskSubmitted
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// CommandEvent is one directive for the local stack. MsgType is a
// protocol cmd.* type and Payload its body.
type CommandEvent struct {
	MsgType string
	Payload interface{}
}

// ModeChangedEvent is emitted when the commanded mode changes.
type ModeChangedEvent struct {
	OldMode string `json:"old_mode"`
	NewMode string `json:"new_mode"`
}

// BlacklistAddedEvent is emitted when a goal region is blacklisted.
type BlacklistAddedEvent struct {
	Point blacklist.Point   `json:"point"`
	All   []blacklist.Point `json:"-"`
}

// BeaconActivatedEvent is emitted when a beacon becomes active, either
// dropped by this robot or learned from a teammate.
type BeaconActivatedEvent struct {
	Beacon       beacons.Beacon `json:"beacon"`
	DeployedHere bool           `json:"deployed_here"`
}

// DeployStateChangedEvent is emitted on deployment sequence transitions.
type DeployStateChangedEvent struct {
	AttemptID string `json:"attempt_id"`
	BeaconID  string `json:"beacon_id"`
	OldState  string `json:"old_state"`
	NewState  string `json:"new_state"`
}

// DeployFinishedEvent is emitted when a deployment attempt ends.
type DeployFinishedEvent struct {
	Attempt deploy.Attempt
}

// SnapshotEvent carries the state after a tick.
type SnapshotEvent struct {
	Snapshot coordinator.Snapshot
}

// TaskSubmittedEvent is emitted when an operator task is accepted through
// the web API.
type TaskSubmittedEvent struct {
	Target string `json:"target"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Actor  string `json:"actor"`
}
