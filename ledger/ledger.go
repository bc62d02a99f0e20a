// Package ledger keeps what this robot knows about its teammates, the base
// station, operator commands and artifacts.
package ledger

import (
	"time"

	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/protocol"
)

// CurrentFactor scales the comm threshold into the window in which a
// neighbor's goal is still used for deconfliction.
const CurrentFactor = 30

// Neighbor is a teammate heard from directly or through a relay.
type Neighbor struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	Parent string `json:"parent"`

	LastMessage time.Time `json:"last_message"`
	LastDirect  time.Time `json:"last_direct"`
	InComm      bool      `json:"in_comm"`
	SimComm     bool      `json:"sim_comm"`

	Status       string                  `json:"status"`
	Pose         geom.Pose               `json:"pose"`
	Goal         protocol.GoalInfo       `json:"goal"`
	Beacons      []protocol.BeaconInfo   `json:"beacons,omitempty"`
	NewArtifacts []protocol.ArtifactInfo `json:"-"`
	LastArtifact string                  `json:"last_artifact,omitempty"`
	GUI          protocol.GUIState       `json:"gui"`
}

// Base is the base station as seen by this robot.
type Base struct {
	Stamp        time.Time              `json:"stamp"`
	LastMessage  time.Time              `json:"last_message"`
	LastDirect   time.Time              `json:"last_direct"`
	InComm       bool                   `json:"in_comm"`
	SimComm      bool                   `json:"sim_comm"`
	LastArtifact string                 `json:"last_artifact,omitempty"`
	Acks         []protocol.ArtifactAck `json:"-"`
	Beacons      []protocol.BeaconInfo  `json:"-"`
}

// GUI is the operator state addressed to this robot.
type GUI struct {
	protocol.GUIState
	taskPending bool
	goalPending bool
}

// Ledger is owned by the coordinator and is not safe for concurrent use.
type Ledger struct {
	self      string
	solo      bool
	threshold time.Duration
	started   time.Time

	neighbors map[string]*Neighbor
	order     []string
	base      Base
	gui       GUI

	artifacts     map[string]*Artifact
	artifactOrder []string
	detections    []protocol.ArtifactInfo
	mine          []protocol.ArtifactInfo
	digest        string
}

// New creates a ledger for agent self. threshold is the comm timeout.
func New(self string, threshold time.Duration, solo bool, now time.Time) *Ledger {
	return &Ledger{
		self:      self,
		solo:      solo,
		threshold: threshold,
		started:   now,
		neighbors: make(map[string]*Neighbor),
		base: Base{
			LastMessage: now,
			LastDirect:  now,
			InComm:      true,
			SimComm:     true,
		},
		gui:       GUI{GUIState: protocol.GUIState{Stamp: now}},
		artifacts: make(map[string]*Artifact),
	}
}

// Self returns the id of the local agent.
func (l *Ledger) Self() string { return l.self }

// Solo reports whether the robot runs without a base station.
func (l *Ledger) Solo() bool { return l.solo }

func (l *Ledger) neighbor(id string, now time.Time) *Neighbor {
	n, ok := l.neighbors[id]
	if !ok {
		n = &Neighbor{ID: id, Role: protocol.RoleRobot, LastDirect: now, SimComm: true}
		l.neighbors[id] = n
		l.order = append(l.order, id)
	}
	return n
}

// Apply ingests a state broadcast heard directly from a robot or the base.
// It returns false when the sender is unreachable in simulation.
func (l *Ledger) Apply(st *protocol.AgentState, now time.Time) bool {
	if st.ID == l.self {
		return false
	}
	switch st.Role {
	case protocol.RoleBase:
		if !l.base.SimComm {
			return false
		}
		l.base.LastMessage = st.Stamp
		l.base.LastDirect = now
		l.base.Beacons = st.Beacons
		l.updateBase(st)
	default:
		n := l.neighbor(st.ID, now)
		if !n.SimComm {
			return false
		}
		n.Beacons = st.Beacons
		n.Parent = l.self
		n.LastMessage = st.Stamp
		n.LastDirect = now
		n.InComm = true
		l.updateCommon(n, st)
		if st.BaseStamp.After(l.base.Stamp) {
			l.updateBase(st)
		}
	}

	for i := range st.Neighbors {
		l.relay(&st.Neighbors[i], now)
	}
	return true
}

// relay folds in a second-hand report about a neighbor of a neighbor.
func (l *Ledger) relay(st *protocol.AgentState, now time.Time) {
	if st.ID == l.self {
		if st.GUI.Stamp.After(l.gui.Stamp) {
			l.acceptGUI(st.GUI)
		}
		return
	}
	if st.Role == protocol.RoleBase {
		return
	}
	n := l.neighbor(st.ID, now)
	newer := st.Stamp.After(n.LastMessage)
	notDirect := n.Parent != l.self
	switch {
	case newer && (notDirect || !n.InComm):
		l.updateCommon(n, st)
		n.Parent = st.Parent
		n.InComm = false
		n.LastMessage = st.Stamp
	case st.GUI.Stamp.After(n.GUI.Stamp):
		n.GUI = st.GUI
	}
}

func (l *Ledger) updateCommon(n *Neighbor, st *protocol.AgentState) {
	if st.Role != "" {
		n.Role = st.Role
	}
	n.Status = st.Status
	n.Pose = st.Pose
	n.Goal = st.Goal
	n.LastArtifact = st.LastArtifact
	if len(st.Artifacts) > 0 {
		n.NewArtifacts = st.Artifacts
	}
	if st.GUI.Stamp.After(n.GUI.Stamp) {
		n.GUI = st.GUI
	}
}

func (l *Ledger) updateBase(st *protocol.AgentState) {
	l.base.Stamp = st.BaseStamp
	l.base.Acks = st.BaseArtifacts
	for _, ack := range st.BaseArtifacts {
		if ack.Agent == l.self {
			l.base.LastArtifact = ack.Digest
			break
		}
	}
}

// SetSimComm applies the simulated direct-link table.
func (l *Ledger) SetSimComm(peers []protocol.CommPeer, now time.Time) {
	for _, p := range peers {
		switch {
		case p.ID == l.self:
		case p.ID == "Base":
			l.base.SimComm = p.InComm
		case isBeaconID(p.ID):
		default:
			l.neighbor(p.ID, now).SimComm = p.InComm
		}
	}
}

func isBeaconID(id string) bool {
	return len(id) > 0 && id[0] == 'B' && id != "Base"
}

// CommCheck refreshes in-comm flags from direct message age. It does
// nothing until one threshold has passed since startup, and returns the
// cutoff used so beacon links can be checked the same way.
func (l *Ledger) CommCheck(now time.Time) (time.Time, bool) {
	if now.Before(l.started.Add(l.threshold)) {
		return time.Time{}, false
	}
	cutoff := now.Add(-l.threshold)
	for _, n := range l.neighbors {
		n.InComm = n.LastDirect.After(cutoff)
	}
	if !l.solo {
		l.base.InComm = l.base.LastDirect.After(cutoff)
	}
	return cutoff, true
}

// BaseInComm reports whether the base station link is up.
func (l *Ledger) BaseInComm() bool { return l.base.InComm }

// Base returns a copy of the base station record.
func (l *Ledger) Base() Base { return l.base }

// CurrentNeighbors counts neighbors heard from, directly or not, within
// CurrentFactor comm thresholds.
func (l *Ledger) CurrentNeighbors(now time.Time) int {
	cutoff := now.Add(-CurrentFactor * l.threshold)
	count := 0
	for _, n := range l.neighbors {
		if n.LastMessage.After(cutoff) {
			count++
		}
	}
	return count
}

// Neighbors returns copies of all known neighbors in first-heard order.
func (l *Ledger) Neighbors() []Neighbor {
	out := make([]Neighbor, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.neighbors[id])
	}
	return out
}

// Neighbor returns a copy of one neighbor.
func (l *Ledger) Neighbor(id string) (Neighbor, bool) {
	n, ok := l.neighbors[id]
	if !ok {
		return Neighbor{}, false
	}
	return *n, true
}

// BeaconReports returns every beacon list reported by neighbors and the base.
func (l *Ledger) BeaconReports() []protocol.BeaconInfo {
	var out []protocol.BeaconInfo
	for _, id := range l.order {
		out = append(out, l.neighbors[id].Beacons...)
	}
	out = append(out, l.base.Beacons...)
	return out
}

// SetTask records an operator task. Tasks addressed to another agent are
// stored on that neighbor so they are relayed onward.
func (l *Ledger) SetTask(target, name, value string, now time.Time) {
	if target == l.self || target == "" {
		l.acceptGUI(protocol.GUIState{
			Stamp:     now,
			TaskName:  name,
			TaskValue: value,
			GoalSeq:   l.gui.GoalSeq,
			Goal:      l.gui.Goal,
		})
		return
	}
	n := l.neighbor(target, now)
	n.GUI.Stamp = now
	n.GUI.TaskName = name
	n.GUI.TaskValue = value
}

// SetGoal records an operator goal point, relaying it when addressed to
// another agent.
func (l *Ledger) SetGoal(target string, seq uint64, pose geom.Pose, now time.Time) {
	if target == l.self || target == "" {
		st := l.gui.GUIState
		st.Stamp = now
		st.TaskName, st.TaskValue = "", ""
		st.GoalSeq = seq
		st.Goal = pose
		l.acceptGUI(st)
		return
	}
	n := l.neighbor(target, now)
	if seq > n.GUI.GoalSeq {
		n.GUI.Stamp = now
		n.GUI.GoalSeq = seq
		n.GUI.Goal = pose
	}
}

func (l *Ledger) acceptGUI(st protocol.GUIState) {
	l.gui.Stamp = st.Stamp
	if st.TaskName != "" && st.TaskValue != "" {
		l.gui.TaskName = st.TaskName
		l.gui.TaskValue = st.TaskValue
		l.gui.taskPending = true
	}
	if st.GoalSeq > l.gui.GoalSeq {
		l.gui.GoalSeq = st.GoalSeq
		l.gui.Goal = st.Goal
		l.gui.goalPending = true
	}
}

// TakeTask returns a pending operator task once.
func (l *Ledger) TakeTask() (name, value string, ok bool) {
	if !l.gui.taskPending {
		return "", "", false
	}
	l.gui.taskPending = false
	return l.gui.TaskName, l.gui.TaskValue, true
}

// TakeGoal returns a pending operator goal once.
func (l *Ledger) TakeGoal() (geom.Pose, bool) {
	if !l.gui.goalPending {
		return geom.Pose{}, false
	}
	l.gui.goalPending = false
	return l.gui.Goal, true
}

// GUIState returns the operator state to relay in this agent's broadcast.
func (l *Ledger) GUIState() protocol.GUIState { return l.gui.GUIState }
