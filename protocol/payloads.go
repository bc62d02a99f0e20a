package protocol

import (
	"time"

	"github.com/arpg/bobcat/geom"
)

// --- Local stack -> coordinator ---

// Odometry is the latest pose estimate.
type Odometry struct {
	Pose geom.Pose `json:"pose"`
}

// GoalInfo is a goal pose with the path leading to it.
type GoalInfo struct {
	Pose geom.Pose    `json:"pose"`
	Path []geom.Point `json:"path,omitempty"`
	Cost float64      `json:"cost"`
}

// Frontier is the planner's current exploration goal.
type Frontier struct {
	Goal GoalInfo `json:"goal"`
}

// GoalCandidates lists alternative frontier goals for deconfliction.
type GoalCandidates struct {
	Goals []GoalInfo `json:"goals"`
}

// Junction reports whether the robot sits on a topological junction.
type Junction struct {
	AtJunction bool `json:"at_junction"`
}

// PlannerStatus reports whether the path planner is healthy.
type PlannerStatus struct {
	OK bool `json:"ok"`
}

// LaunchStatus reports whether an aerial robot has launched.
type LaunchStatus struct {
	Launched bool `json:"launched"`
}

// CommPeer is one entry of the simulated link table.
type CommPeer struct {
	ID     string `json:"id"`
	InComm bool   `json:"in_comm"`
}

// CommStatus is the simulated direct-link table. With real radios every
// peer is reachable and this message is never sent.
type CommStatus struct {
	Peers []CommPeer `json:"peers"`
}

// OriginStatus reports whether the origin has been detected.
type OriginStatus struct {
	Detected bool `json:"detected"`
}

// ArtifactInfo describes one detected artifact.
type ArtifactInfo struct {
	ID       string     `json:"id"`
	Class    string     `json:"class"`
	Position geom.Point `json:"position"`
}

// ArtifactList carries new artifact detections.
type ArtifactList struct {
	Artifacts []ArtifactInfo `json:"artifacts"`
}

// DeployAck is the mechanism's answer to a deploy request.
type DeployAck struct {
	BeaconID string `json:"beacon_id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// --- Operator -> coordinator ---

// GUITask is an operator command addressed to one agent.
type GUITask struct {
	Target string `json:"target"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// GUIGoal is an operator goal point addressed to one agent.
type GUIGoal struct {
	Target string    `json:"target"`
	Seq    uint64    `json:"seq"`
	Pose   geom.Pose `json:"pose"`
}

// --- Team broadcast ---

// BeaconInfo is a beacon as reported by a teammate.
type BeaconInfo struct {
	ID       string     `json:"id"`
	Active   bool       `json:"active"`
	Position geom.Point `json:"position"`
}

// ArtifactAck is the base station's record of an agent's latest artifact
// digest.
type ArtifactAck struct {
	Agent  string `json:"agent"`
	Digest string `json:"digest"`
}

// GUIState is the operator state an agent relays to its neighbors.
type GUIState struct {
	Stamp     time.Time `json:"stamp"`
	TaskName  string    `json:"task_name,omitempty"`
	TaskValue string    `json:"task_value,omitempty"`
	GoalSeq   uint64    `json:"goal_seq,omitempty"`
	Goal      geom.Pose `json:"goal"`
}

// AgentState is broadcast by every agent each tick. Neighbors carries the
// sender's view of its own neighbors, one level deep.
type AgentState struct {
	ID     string    `json:"id"`
	Role   string    `json:"role"`
	Parent string    `json:"parent,omitempty"`
	Stamp  time.Time `json:"stamp"`

	Status string    `json:"status"`
	Mode   string    `json:"mode,omitempty"`
	Pose   geom.Pose `json:"pose"`
	Goal   GoalInfo  `json:"goal"`

	Beacons      []BeaconInfo   `json:"beacons,omitempty"`
	Artifacts    []ArtifactInfo `json:"artifacts,omitempty"`
	LastArtifact string         `json:"last_artifact,omitempty"`
	GUI          GUIState       `json:"gui"`

	BaseStamp     time.Time     `json:"base_stamp"`
	BaseArtifacts []ArtifactAck `json:"base_artifacts,omitempty"`

	Neighbors []AgentState `json:"neighbors,omitempty"`
}

// --- Coordinator -> local stack ---

// GoalCommand sends a goal and path to the guidance stack.
type GoalCommand struct {
	Goal GoalInfo `json:"goal"`
}

// StatusCommand publishes the displayed status string.
type StatusCommand struct {
	Status string `json:"status"`
}

// TaskCommand publishes the active task name.
type TaskCommand struct {
	Task string `json:"task"`
}

// CommCommand publishes the base link state.
type CommCommand struct {
	InComm bool `json:"in_comm"`
}

// NeighborsCommand tells the frontier planner how many teammates to
// deconflict against.
type NeighborsCommand struct {
	Count int `json:"count"`
}

// FlagCommand toggles a boolean switch on the local stack.
type FlagCommand struct {
	Value bool `json:"value"`
}

// BreadcrumbCommand asks the signal mechanism to drop a beacon.
type BreadcrumbCommand struct {
	BeaconID string     `json:"beacon_id"`
	Position geom.Point `json:"position"`
}

// TeleportCommand asks the simulator to place a beacon.
type TeleportCommand struct {
	BeaconID string    `json:"beacon_id"`
	Pose     geom.Pose `json:"pose"`
}

// GUIGoalCommand forwards an accepted operator goal to the planner.
type GUIGoalCommand struct {
	Pose geom.Pose `json:"pose"`
}

// GUITaskCommand forwards an operator task the coordinator does not handle.
type GUITaskCommand struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BlacklistEntry is one excluded goal region.
type BlacklistEntry struct {
	Position geom.Point `json:"position"`
	Radius   float64    `json:"radius"`
}

// BlacklistCommand publishes the full blacklist.
type BlacklistCommand struct {
	Points []BlacklistEntry `json:"points"`
}

// MapResetCommand gates map merging for an aerial robot.
type MapResetCommand struct {
	Agent  string `json:"agent"`
	Ignore bool   `json:"ignore"`
}
