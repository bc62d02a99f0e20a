// Package coordinator is the per-robot decision engine. It fuses pose
// history, teammate state, comm status and planner health into a mode, a
// goal, beacon drops and goal blacklisting. All methods must be called from
// one goroutine.
package coordinator

import (
	"log"
	"strings"
	"time"

	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/config"
	"github.com/arpg/bobcat/deploy"
	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/history"
	"github.com/arpg/bobcat/ledger"
	"github.com/arpg/bobcat/protocol"
)

// Coordinator owns the whole agent state.
type Coordinator struct {
	cfg  *config.Config
	id   string
	emit Emitter
	now  time.Time

	history   *history.Buffer
	stuck     *blacklist.StuckTracker
	blacklist *blacklist.List
	beacons   *beacons.Registry
	ledger    *ledger.Ledger
	seq       *deploy.Sequencer

	pose       geom.Pose
	havePose   bool
	goal       protocol.GoalInfo
	frontier   protocol.GoalInfo
	candidates []protocol.GoalInfo
	guiGoal    geom.Pose
	atJunction bool
	plannerOK  bool

	aerial    bool
	launched  bool
	mapIgnore bool
	waiting   bool

	mode      Mode
	status    string
	aux       string
	auxCount  int
	report    bool
	stopStart bool
	deferred  *task

	delayDrop    bool
	reverseDrop  bool
	commLost     int
	regainBase   int
	reverseSites []geom.Point
}

type task struct {
	name, value string
}

// New builds a coordinator from cfg. The deployment mechanism is chosen by
// cfg.Deploy.Mechanism and publishes through emit.
func New(cfg *config.Config, emit Emitter, now time.Time) (*Coordinator, error) {
	c := &Coordinator{
		cfg:         cfg,
		id:          cfg.Agent.ID,
		emit:        emit,
		now:         now,
		history:     history.New(cfg.HistoryCapacity()),
		blacklist:   blacklist.New(cfg.Coordinator.DeconflictRadius),
		beacons:     beacons.NewRegistry(cfg.Beacons.Total, cfg.Beacons.Mine),
		ledger:      ledger.New(cfg.Agent.ID, cfg.Agent.CommThreshold, cfg.Agent.Solo, now),
		plannerOK:   true,
		aerial:      cfg.Agent.Aerial || strings.Contains(cfg.Agent.ID, "A"),
		waiting:     cfg.Agent.WaitForOrigin,
		mode:        ModeExplore,
		status:      "Explore",
		stopStart:   true,
		delayDrop:   cfg.Beacons.DelayDrop,
		reverseDrop: cfg.Beacons.ReverseDrop,
	}
	c.stuck = blacklist.NewStuckTracker(cfg.Coordinator.StopCheck, cfg.Coordinator.DeconflictRadius, c.history.Capacity()/2)

	mech, err := deploy.NewMechanism(cfg.Deploy.Mechanism, c, cfg.Deploy.LiveAck)
	if err != nil {
		return nil, err
	}
	c.seq = deploy.NewSequencer(mech, c.beacons, c, emit)
	return c, nil
}

// ID returns the agent id.
func (c *Coordinator) ID() string { return c.id }

// Mode returns the commanded mode.
func (c *Coordinator) Mode() Mode { return c.mode }

// Status returns the base status string without the auxiliary suffix.
func (c *Coordinator) Status() string { return c.status }

// Reporting reports whether the robot is returning to report artifacts.
func (c *Coordinator) Reporting() bool { return c.report }

// Beacons exposes the relay registry.
func (c *Coordinator) Beacons() *beacons.Registry { return c.beacons }

// Ledger exposes the teammate ledger.
func (c *Coordinator) Ledger() *ledger.Ledger { return c.ledger }

// Sequencer exposes the deployment sequencer.
func (c *Coordinator) Sequencer() *deploy.Sequencer { return c.seq }

// Blacklist returns the current blacklist points.
func (c *Coordinator) Blacklist() []blacklist.Point { return c.blacklist.Points() }

// Goal returns the currently selected goal.
func (c *Coordinator) Goal() protocol.GoalInfo { return c.goal }

func (c *Coordinator) setMode(m Mode) {
	if m == c.mode {
		return
	}
	old := c.mode
	c.mode = m
	c.emit.EmitModeChanged(old, m)
}

// --- restore ---

// RestoreBlacklist replays persisted blacklist points.
func (c *Coordinator) RestoreBlacklist(pts []blacklist.Point) {
	c.blacklist.Restore(pts)
}

// RestoreBeacon replays a persisted beacon activation.
func (c *Coordinator) RestoreBeacon(id string, pos geom.Point) {
	c.beacons.Restore(id, pos)
}

// --- inputs ---

// SetPose records the latest odometry.
func (c *Coordinator) SetPose(p geom.Pose) {
	c.pose = p
	c.havePose = true
}

// SetFrontier records the planner's exploration goal and path.
func (c *Coordinator) SetFrontier(g protocol.GoalInfo) {
	c.frontier = g
}

// SetCandidates records the alternative goals used for deconfliction.
func (c *Coordinator) SetCandidates(goals []protocol.GoalInfo) {
	c.candidates = goals
}

// SetJunction records whether the robot is at a junction.
func (c *Coordinator) SetJunction(at bool) {
	c.atJunction = at
}

// SetPlannerStatus records planner health.
func (c *Coordinator) SetPlannerStatus(ok bool) {
	c.plannerOK = ok
	if !ok {
		c.setAux("Unable to plan")
	}
}

// SetLaunch records the launch state. Only aerial robots send it.
func (c *Coordinator) SetLaunch(launched bool) {
	c.aerial = true
	c.launched = launched
}

// SetSimComm applies the simulated link table.
func (c *Coordinator) SetSimComm(peers []protocol.CommPeer, now time.Time) {
	c.ledger.SetSimComm(peers, now)
}

// SetOriginDetected releases the startup wait once the origin is found.
func (c *Coordinator) SetOriginDetected(detected bool) {
	if detected && c.waiting {
		log.Printf("coordinator: origin detected, starting")
		c.waiting = false
	}
}

// AddArtifacts queues this robot's artifact detections.
func (c *Coordinator) AddArtifacts(arts []protocol.ArtifactInfo) {
	c.ledger.AddDetections(arts)
}

// DeployAck forwards the mechanism answer to the sequencer.
func (c *Coordinator) DeployAck(ack protocol.DeployAck) {
	var err error
	if !ack.OK {
		err = &MechanismError{BeaconID: ack.BeaconID, Detail: ack.Error}
	}
	c.seq.Ack(ack.BeaconID, err)
}

// GUITask records an operator task. A Stop addressed to this robot halts
// motion right away even in the middle of a deployment.
func (c *Coordinator) GUITask(t protocol.GUITask, now time.Time) {
	c.ledger.SetTask(t.Target, t.Name, t.Value, now)
	if (t.Target == c.id || t.Target == "") && t.Name == "task" && t.Value == "Stop" && c.seq.Busy() {
		c.emit.EmitMotion(false)
	}
}

// GUIGoal records an operator goal point.
func (c *Coordinator) GUIGoal(g protocol.GUIGoal, now time.Time) {
	c.ledger.SetGoal(g.Target, g.Seq, g.Pose, now)
}

// AgentState ingests a teammate broadcast.
func (c *Coordinator) AgentState(st *protocol.AgentState, now time.Time) {
	if st.Role == protocol.RoleBeacon {
		c.beacons.SetComm(st.ID, now)
		return
	}
	c.ledger.Apply(st, now)
}

// MechanismError is a failure reported by the deploy mechanism.
type MechanismError struct {
	BeaconID string
	Detail   string
}

func (e *MechanismError) Error() string {
	if e.Detail == "" {
		return "beacon " + e.BeaconID + " not deployed"
	}
	return "beacon " + e.BeaconID + ": " + e.Detail
}
