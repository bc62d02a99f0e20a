package coordinator

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/config"
	"github.com/arpg/bobcat/deploy"
	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/protocol"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// recorder captures every coordinator output.
type recorder struct {
	calls     []string
	statuses  []string
	goals     []protocol.GoalInfo
	mapResets []bool
	activated []beacons.Beacon
	finished  []deploy.Attempt
	blacklist []blacklist.Point
	snapshots []Snapshot
}

func (r *recorder) add(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (r *recorder) reset() { r.calls = nil }

func (r *recorder) EmitDeployStateChanged(attemptID, beaconID, oldState, newState string) {
	r.add("deploy:%s", newState)
}

func (r *recorder) EmitDeployFinished(a deploy.Attempt) {
	r.finished = append(r.finished, a)
}

func (r *recorder) EmitGoal(goal protocol.GoalInfo) {
	r.goals = append(r.goals, goal)
}

func (r *recorder) EmitStatus(status string) {
	r.statuses = append(r.statuses, status)
}

func (r *recorder) EmitTrajectory(on bool)    { r.add("traj:%v", on) }
func (r *recorder) EmitTask(task string)      { r.add("task:%s", task) }
func (r *recorder) EmitComm(inComm bool)      { r.add("comm:%v", inComm) }
func (r *recorder) EmitNeighbors(count int)   { r.add("neighbors:%d", count) }
func (r *recorder) EmitMotion(enabled bool)   { r.add("motion:%v", enabled) }
func (r *recorder) EmitHome(home bool)        { r.add("home:%v", home) }
func (r *recorder) EmitDeployTrigger(on bool) { r.add("trigger:%v", on) }

func (r *recorder) EmitBreadcrumb(beaconID string, pos geom.Point) {
	r.add("breadcrumb:%s", beaconID)
}

func (r *recorder) EmitTeleport(beaconID string, pose geom.Pose) {
	r.add("teleport:%s", beaconID)
}

func (r *recorder) EmitGUIGoal(pose geom.Pose) { r.add("gui_goal") }

func (r *recorder) EmitGUITask(name, value string) {
	r.add("gui_task:%s=%s", name, value)
}

func (r *recorder) EmitMapReset(ignore bool) {
	r.mapResets = append(r.mapResets, ignore)
}

func (r *recorder) EmitBlacklistAdded(pt blacklist.Point, all []blacklist.Point) {
	r.blacklist = append(r.blacklist, pt)
}

func (r *recorder) EmitBeaconActivated(b beacons.Beacon, deployedHere bool) {
	if deployedHere {
		r.activated = append(r.activated, b)
	}
}

func (r *recorder) EmitModeChanged(oldMode, newMode Mode) {
	r.add("mode:%s", newMode)
}

func (r *recorder) EmitSnapshot(s Snapshot) {
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) lastStatus() string {
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func testConfig(mut func(*config.Config)) *config.Config {
	cfg := config.Defaults()
	cfg.Agent.ID = "H01"
	cfg.Agent.Solo = true
	if mut != nil {
		mut(cfg)
	}
	return cfg
}

func newTest(t *testing.T, mut func(*config.Config)) (*Coordinator, *recorder) {
	t.Helper()
	rec := &recorder{}
	c, err := New(testConfig(mut), rec, t0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, rec
}

func pose(x, y float64) geom.Pose {
	return geom.Pose{Position: geom.Point{X: x, Y: y}, Orientation: geom.FromYaw(0)}
}

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func baseState(now time.Time) *protocol.AgentState {
	return &protocol.AgentState{ID: "Base", Role: protocol.RoleBase, Stamp: now, BaseStamp: now}
}

func TestNewRejectsUnknownMechanism(t *testing.T) {
	_, err := New(testConfig(func(c *config.Config) { c.Deploy.Mechanism = "catapult" }), &recorder{}, t0)
	if err == nil {
		t.Fatal("expected error for unknown mechanism")
	}
}

func TestReportPrecedence(t *testing.T) {
	c, _ := newTest(t, func(c *config.Config) { c.Agent.Solo = false })
	c.SetPose(pose(20, 0))
	c.GUITask(protocol.GUITask{Target: "H01", Name: "task", Value: "Home"}, t0)
	c.AddArtifacts([]protocol.ArtifactInfo{{ID: "a1", Class: "backpack", Position: geom.Point{X: 15, Y: 4}}})

	c.Tick(t0)
	if !c.Reporting() {
		t.Fatal("new artifact should trigger a report")
	}
	if c.Status() != "Report" {
		t.Errorf("status = %q, want Report over commanded Home", c.Status())
	}
	if c.Mode() != ModeHome {
		t.Errorf("mode = %v, want Home kept underneath the report", c.Mode())
	}

	// The base acknowledges the digest.
	ack := baseState(at(1))
	ack.BaseArtifacts = []protocol.ArtifactAck{{Agent: "H01", Digest: c.Ledger().Digest()}}
	c.AgentState(ack, at(1))
	c.Tick(at(1))

	if c.Reporting() {
		t.Error("report should clear after the base acknowledges")
	}
	if c.Status() != "Home" {
		t.Errorf("status = %q, want Home", c.Status())
	}
	if c.Ledger().ReportPending() {
		t.Error("artifacts should be marked reported")
	}
}

func TestJunctionStartsDeploy(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) { c.Beacons.Mine = []string{"B01"} })
	c.SetPose(pose(20, 0))
	c.SetJunction(true)

	c.Tick(t0)
	a, ok := c.Sequencer().Current()
	if !ok {
		t.Fatal("expected a deployment to start")
	}
	if a.Reason != string(beacons.ReasonJunction) {
		t.Errorf("reason = %q, want %q", a.Reason, beacons.ReasonJunction)
	}
	if rec.count("motion:false") == 0 {
		t.Error("deploy should halt motion")
	}

	// Signal mechanism: settle 3s, no ack.
	c.Tick(at(3))
	if c.Sequencer().Busy() {
		t.Fatalf("deploy still busy in state %s", c.Sequencer().State())
	}
	if len(rec.activated) != 1 || rec.activated[0].ID != "B01" {
		t.Fatalf("activated = %+v, want B01", rec.activated)
	}
	if c.Beacons().Owned() != 0 {
		t.Errorf("owned = %d, want 0", c.Beacons().Owned())
	}
	if rec.count("trigger:false") == 0 {
		t.Error("deploy trigger should be cleared")
	}
}

func TestNearAnchorNeverDrops(t *testing.T) {
	c, _ := newTest(t, func(c *config.Config) { c.Beacons.Mine = []string{"B01"} })
	c.SetPose(pose(5, 0))
	c.SetJunction(true)
	c.Tick(t0)
	if c.Sequencer().Busy() {
		t.Error("no drop within the minimum anchor distance")
	}
}

func TestGUIDeploy(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) { c.Beacons.Mine = []string{"B01"} })
	c.SetPose(pose(5, 0))
	c.GUITask(protocol.GUITask{Target: "H01", Name: "task", Value: "Deploy"}, t0)

	c.Tick(t0)
	a, ok := c.Sequencer().Current()
	if !ok {
		t.Fatal("GUI Deploy should start a deployment even near the anchor")
	}
	if a.Reason != string(beacons.ReasonGUI) {
		t.Errorf("reason = %q, want %q", a.Reason, beacons.ReasonGUI)
	}
	if c.Mode() != ModeExplore {
		t.Errorf("mode = %v, want Explore", c.Mode())
	}
	if rec.count("motion:true") == 0 {
		t.Error("a task should release motion first")
	}
}

func TestGUIDeployWithoutBeacons(t *testing.T) {
	c, _ := newTest(t, nil)
	c.GUITask(protocol.GUITask{Target: "H01", Name: "task", Value: "Deploy"}, t0)
	c.Tick(t0)
	if c.Sequencer().Busy() {
		t.Error("no deployment without owned beacons")
	}
	if c.Mode() != ModeExplore {
		t.Errorf("mode = %v, want Explore", c.Mode())
	}
}

func TestStopDuringDeploy(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) { c.Beacons.Mine = []string{"B01"} })
	c.SetPose(pose(20, 0))
	c.SetJunction(true)
	c.Tick(t0)
	if !c.Sequencer().Busy() {
		t.Fatal("expected deployment")
	}

	rec.reset()
	c.GUITask(protocol.GUITask{Target: "H01", Name: "task", Value: "Stop"}, at(1))
	if rec.count("motion:false") != 1 {
		t.Fatalf("Stop should halt motion immediately, calls = %v", rec.calls)
	}
	c.Tick(at(1))
	if c.Mode() != ModeExplore {
		t.Errorf("mode changed to %v during deployment", c.Mode())
	}

	c.SetJunction(false)
	c.Tick(at(3))
	if c.Sequencer().Busy() {
		t.Fatal("deployment should be done")
	}
	if c.Mode() != ModeStop {
		t.Errorf("mode = %v, want deferred Stop applied", c.Mode())
	}
	if c.Status() != "Stop" {
		t.Errorf("status = %q, want Stop", c.Status())
	}
}

func TestGUITaskForwarding(t *testing.T) {
	c, rec := newTest(t, nil)
	c.GUITask(protocol.GUITask{Target: "H01", Name: "explore_mode", Value: "frontier"}, t0)
	c.Tick(t0)
	if rec.count("gui_task:explore_mode=frontier") != 1 {
		t.Errorf("calls = %v, want forwarded gui task", rec.calls)
	}
}

func TestGoalMode(t *testing.T) {
	c, rec := newTest(t, nil)
	c.SetPose(pose(0, 0))
	c.GUITask(protocol.GUITask{Target: "H01", Name: "task", Value: "Goal"}, t0)
	c.GUIGoal(protocol.GUIGoal{Target: "H01", Seq: 1, Pose: pose(40, 0)}, t0)

	c.Tick(t0)
	if c.Status() != "guiCommand" {
		t.Errorf("status = %q, want guiCommand", c.Status())
	}
	if rec.count("gui_goal") == 0 {
		t.Error("GUI goal should be forwarded to the planner")
	}

	c.SetPose(pose(39.5, 0))
	c.Tick(at(1))
	if c.Mode() != ModeExplore || c.Status() != "Explore" {
		t.Errorf("mode %v status %q, want Explore on arrival", c.Mode(), c.Status())
	}
}

func TestReverseDropDedup(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) {
		c.Agent.Solo = false
		c.Beacons.ReverseDrop = true
		c.Beacons.Mine = []string{"B01", "B02"}
	})
	c.SetPose(pose(50, 0))

	// The base goes quiet at t0; it reads out of comm from t0+2s.
	sec := 0
	for ; sec <= 6; sec++ {
		c.Tick(at(sec))
		if c.Mode() == ModeDeploy {
			t.Fatalf("reverse drop too early at t+%ds", sec)
		}
	}
	c.Tick(at(sec))
	if c.Mode() != ModeDeploy {
		t.Fatalf("mode = %v, want Deploy after lost comms", c.Mode())
	}
	if c.Status() != "Home" || !strings.Contains(rec.lastStatus(), "Regain comms deploy") {
		t.Errorf("status %q / %q, want Home with regain aux", c.Status(), rec.lastStatus())
	}

	// Comms come back: after a few solid ticks the beacon drops.
	for i := 0; i < 20 && len(rec.finished) == 0; i++ {
		sec++
		c.AgentState(baseState(at(sec)), at(sec))
		c.Tick(at(sec))
	}
	if len(rec.finished) != 1 {
		t.Fatal("expected a regain-comms deployment")
	}
	if rec.finished[0].Reason != string(beacons.ReasonRegain) {
		t.Errorf("reason = %q, want %q", rec.finished[0].Reason, beacons.ReasonRegain)
	}
	if c.Mode() != ModeExplore {
		t.Errorf("mode = %v, want Explore", c.Mode())
	}

	// Losing comms again at the same spot must not bounce back to Deploy.
	for i := 0; i < 15; i++ {
		sec++
		c.Tick(at(sec))
		if c.Mode() == ModeDeploy {
			t.Fatalf("reverse drop repeated at a previous site (t+%ds)", sec)
		}
	}
	if c.Beacons().Owned() != 1 {
		t.Errorf("owned = %d, want 1", c.Beacons().Owned())
	}
}

func TestStuckBlacklistsGoal(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) {
		c.Coordinator.HistorySeconds = 4
		c.Coordinator.StopCheck = 3
	})
	c.SetFrontier(protocol.GoalInfo{
		Pose: pose(20, 0),
		Path: []geom.Point{{X: 10}, {X: 20}},
	})

	c.SetPose(pose(0, 0))
	c.Tick(t0)
	c.SetPose(pose(10, 0))
	// Stationary from t+4s; the third stationary tick consolidates.
	for sec := 1; sec < 9; sec++ {
		c.Tick(at(sec))
	}

	if len(rec.blacklist) != 1 {
		t.Fatalf("blacklisted %d points, want 1", len(rec.blacklist))
	}
	if d := geom.Dist(rec.blacklist[0].Position, geom.Point{X: 20}); d > 1e-9 {
		t.Errorf("blacklisted %+v, want (20,0)", rec.blacklist[0].Position)
	}
	if !strings.Contains(rec.lastStatus(), "Stuck") {
		t.Errorf("status %q, want Stuck aux", rec.lastStatus())
	}
}

func TestAerialSkipsStuck(t *testing.T) {
	for _, id := range []string{"A01", "DA2"} {
		t.Run(id, func(t *testing.T) {
			c, rec := newTest(t, func(c *config.Config) {
				c.Agent.ID = id
				c.Coordinator.HistorySeconds = 4
				c.Coordinator.StopCheck = 3
			})
			c.SetFrontier(protocol.GoalInfo{Pose: pose(20, 0), Path: []geom.Point{{X: 20}}})
			c.SetPose(pose(0, 0))
			c.Tick(t0)
			c.SetPose(pose(10, 0))
			for sec := 1; sec < 10; sec++ {
				c.Tick(at(sec))
			}
			if len(rec.blacklist) != 0 {
				t.Errorf("aerial robot blacklisted %v", rec.blacklist)
			}
		})
	}
}

func TestNoPath(t *testing.T) {
	c, rec := newTest(t, nil)
	c.SetFrontier(protocol.GoalInfo{Pose: pose(20, 0)})
	c.SetPose(pose(0, 0))
	c.Tick(t0)
	c.SetPose(pose(10, 0))
	c.Tick(at(1))
	if got := rec.lastStatus(); got != "Explore+++No Path" {
		t.Errorf("status = %q, want Explore+++No Path", got)
	}
}

func TestAerialMapGate(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) { c.Agent.ID = "A01" })
	c.Tick(t0)
	c.Tick(at(1))
	if len(rec.mapResets) != 1 || !rec.mapResets[0] {
		t.Fatalf("map resets = %v, want [true]", rec.mapResets)
	}
	c.SetLaunch(true)
	c.Tick(at(2))
	c.Tick(at(3))
	if len(rec.mapResets) != 2 || rec.mapResets[1] {
		t.Fatalf("map resets = %v, want [true false]", rec.mapResets)
	}
}

func TestGroundRobotNoMapGate(t *testing.T) {
	c, rec := newTest(t, nil)
	c.Tick(t0)
	if len(rec.mapResets) != 0 {
		t.Errorf("ground robot sent map resets %v", rec.mapResets)
	}
}

func TestDeconflictGoals(t *testing.T) {
	near := protocol.GoalInfo{Pose: pose(30, 0), Path: []geom.Point{{X: 30}}, Cost: 10}
	far := protocol.GoalInfo{Pose: pose(0, 30), Path: []geom.Point{{Y: 30}}, Cost: 12}

	tests := []struct {
		name      string
		neighbor  protocol.GoalInfo
		blacklist []geom.Point
		want      geom.Point
	}{
		{"no conflict", protocol.GoalInfo{Pose: pose(-40, 0), Cost: 5}, nil, near.Pose.Position},
		{"cheaper neighbor", protocol.GoalInfo{Pose: pose(31, 0), Cost: 5}, nil, far.Pose.Position},
		{"costlier neighbor", protocol.GoalInfo{Pose: pose(31, 0), Cost: 50}, nil, near.Pose.Position},
		{"blacklisted", protocol.GoalInfo{Pose: pose(-40, 0), Cost: 5}, []geom.Point{{X: 30}}, far.Pose.Position},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTest(t, nil)
			for _, p := range tt.blacklist {
				c.blacklist.Add(p, t0)
			}
			c.SetCandidates([]protocol.GoalInfo{near, far})
			c.AgentState(&protocol.AgentState{ID: "H02", Role: protocol.RoleRobot, Stamp: t0, Goal: tt.neighbor}, t0)
			c.Tick(t0)
			if got := c.Goal().Pose.Position; got != tt.want {
				t.Errorf("goal = %+v, want %+v", got, tt.want)
			}
			if len(rec.goals) == 0 {
				t.Error("goal not emitted")
			}
		})
	}
}

func TestTrajectoryFallback(t *testing.T) {
	c, rec := newTest(t, nil)
	c.SetPose(pose(20, 0))
	c.SetFrontier(protocol.GoalInfo{Pose: pose(20.5, 0), Path: []geom.Point{{X: 20}, {X: 20.5}}})
	c.SetPlannerStatus(false)
	c.Tick(t0)

	if rec.count("traj:true") != 1 {
		t.Errorf("calls = %v, want trajectory follower", rec.calls)
	}
	if len(rec.blacklist) != 1 {
		t.Errorf("path end should be blacklisted, got %v", rec.blacklist)
	}
}

func TestWaitForOrigin(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) { c.Agent.WaitForOrigin = true })
	c.Tick(t0)
	if len(rec.goals) != 0 {
		t.Error("no goals before the origin is found")
	}
	if len(rec.snapshots) != 1 {
		t.Error("state is still broadcast while waiting")
	}
	c.SetOriginDetected(true)
	c.Tick(at(1))
	if len(rec.goals) == 0 {
		t.Error("exploration should start after origin detection")
	}
}

func TestSnapshotState(t *testing.T) {
	c, rec := newTest(t, func(c *config.Config) { c.Beacons.Mine = []string{"B01"} })
	c.RestoreBeacon("B01", geom.Point{X: 12})
	path := make([]geom.Point, 45)
	for i := range path {
		path[i] = geom.Point{X: float64(i)}
	}
	c.SetFrontier(protocol.GoalInfo{Pose: pose(44, 0), Path: path})
	c.Tick(t0)

	s := rec.snapshots[len(rec.snapshots)-1]
	if s.State.ID != "H01" || s.State.Role != protocol.RoleRobot {
		t.Errorf("state header = %s/%s", s.State.ID, s.State.Role)
	}
	if got := len(s.State.Goal.Path); got != 4 {
		t.Errorf("subsampled path has %d points, want 4", got)
	}
	if len(s.GoalPath) != 45 {
		t.Errorf("snapshot goal path has %d points, want 45", len(s.GoalPath))
	}
	if len(s.State.Beacons) != 1 || s.State.Beacons[0].ID != "B01" {
		t.Errorf("beacons = %+v", s.State.Beacons)
	}
	if s.Owned != 0 {
		t.Errorf("owned = %d, want 0 after restore", s.Owned)
	}
}

func TestSubsamplePath(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{1, 1},
		{20, 2},
		{21, 2},
		{22, 3},
		{41, 3},
	}
	for _, tt := range tests {
		path := make([]geom.Point, tt.n)
		for i := range path {
			path[i] = geom.Point{X: float64(i)}
		}
		if got := len(SubsamplePath(path)); got != tt.want {
			t.Errorf("SubsamplePath(%d) = %d points, want %d", tt.n, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"Start", ModeExplore, true},
		{"Explore", ModeExplore, true},
		{"Home", ModeHome, true},
		{"Stop", ModeStop, true},
		{"Dance", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, ok)
		}
	}
}
