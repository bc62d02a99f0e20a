package coordinator

import (
	"time"

	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/ledger"
	"github.com/arpg/bobcat/protocol"
)

// pathStride is the subsampling step for paths sent over the team link.
const pathStride = 20

// Snapshot is the full view of the coordinator after a tick. State is the
// broadcast sent to teammates; the rest feeds the operator surfaces.
type Snapshot struct {
	Time        time.Time           `json:"time"`
	State       protocol.AgentState `json:"state"`
	Mode        string              `json:"mode"`
	Reporting   bool                `json:"reporting"`
	Owned       int                 `json:"owned"`
	StuckCount  int                 `json:"stuck_count"`
	DeployState string              `json:"deploy_state"`
	BaseInComm  bool                `json:"base_in_comm"`
	Beacons     []beacons.Beacon    `json:"beacons"`
	Blacklist   []blacklist.Point   `json:"blacklist"`
	Neighbors   []ledger.Neighbor   `json:"neighbors"`
	Artifacts   []ledger.Artifact   `json:"artifacts"`
	GoalPath    []geom.Point        `json:"goal_path"`
}

// SubsamplePath keeps every pathStride-th point plus the final one.
func SubsamplePath(path []geom.Point) []geom.Point {
	if len(path) == 0 {
		return nil
	}
	out := make([]geom.Point, 0, len(path)/pathStride+2)
	for i := 0; i < len(path); i += pathStride {
		out = append(out, path[i])
	}
	if last := path[len(path)-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

func subsampleGoal(g protocol.GoalInfo) protocol.GoalInfo {
	g.Path = SubsamplePath(g.Path)
	return g
}

// agentState builds this robot's team broadcast.
func (c *Coordinator) agentState(status string) protocol.AgentState {
	base := c.ledger.Base()
	st := protocol.AgentState{
		ID:            c.id,
		Role:          protocol.RoleRobot,
		Parent:        c.id,
		Stamp:         c.now,
		Status:        status,
		Mode:          c.effectiveMode().String(),
		Pose:          c.pose,
		Goal:          subsampleGoal(c.goal),
		Artifacts:     c.ledger.MyArtifacts(),
		LastArtifact:  c.ledger.Digest(),
		GUI:           c.ledger.GUIState(),
		BaseStamp:     base.Stamp,
		BaseArtifacts: base.Acks,
	}
	for _, b := range c.beacons.Active() {
		st.Beacons = append(st.Beacons, protocol.BeaconInfo{ID: b.ID, Active: true, Position: b.Position})
	}
	for _, n := range c.ledger.Neighbors() {
		st.Neighbors = append(st.Neighbors, protocol.AgentState{
			ID:           n.ID,
			Role:         n.Role,
			Parent:       n.Parent,
			Stamp:        n.LastMessage,
			Status:       n.Status,
			Pose:         n.Pose,
			Goal:         subsampleGoal(n.Goal),
			Artifacts:    n.NewArtifacts,
			LastArtifact: n.LastArtifact,
			GUI:          n.GUI,
		})
	}
	return st
}

func (c *Coordinator) effectiveMode() Mode {
	if c.report {
		return ModeReport
	}
	return c.mode
}

// broadcast renders the status once and emits the tick snapshot.
func (c *Coordinator) broadcast() {
	status := c.renderStatus()
	c.emit.EmitStatus(status)
	c.emit.EmitSnapshot(c.snapshot(status))
}

func (c *Coordinator) snapshot(status string) Snapshot {
	return Snapshot{
		Time:        c.now,
		State:       c.agentState(status),
		Mode:        c.effectiveMode().String(),
		Reporting:   c.report,
		Owned:       c.beacons.Owned(),
		StuckCount:  c.stuck.Count(),
		DeployState: c.seq.State(),
		BaseInComm:  c.ledger.BaseInComm(),
		Beacons:     c.beacons.All(),
		Blacklist:   c.blacklist.Points(),
		Neighbors:   c.ledger.Neighbors(),
		Artifacts:   c.ledger.Artifacts(),
		GoalPath:    c.goal.Path,
	}
}
