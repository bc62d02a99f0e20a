package ledger

import (
	"testing"
	"time"

	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/protocol"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestApplyDirectAndRelay(t *testing.T) {
	l := New("H01", 2*time.Second, false, t0)

	l.Apply(&protocol.AgentState{
		ID: "H02", Role: protocol.RoleRobot, Stamp: t0, Status: "Explore",
		Neighbors: []protocol.AgentState{
			{ID: "H03", Role: protocol.RoleRobot, Parent: "H02", Stamp: t0, Status: "Home"},
		},
	}, t0)

	h3, ok := l.Neighbor("H03")
	if !ok {
		t.Fatal("relayed neighbor not created")
	}
	if h3.InComm || h3.Parent != "H02" || h3.Status != "Home" {
		t.Errorf("H03 = %+v", h3)
	}

	l.Apply(&protocol.AgentState{ID: "H03", Role: protocol.RoleRobot, Stamp: t0.Add(time.Second), Status: "Stop"}, t0.Add(time.Second))
	h3, _ = l.Neighbor("H03")
	if !h3.InComm || h3.Parent != "H01" {
		t.Errorf("direct H03 = %+v", h3)
	}

	// A newer relay must not override a live direct link.
	l.Apply(&protocol.AgentState{
		ID: "H02", Role: protocol.RoleRobot, Stamp: t0.Add(2 * time.Second),
		Neighbors: []protocol.AgentState{
			{ID: "H03", Role: protocol.RoleRobot, Parent: "H02", Stamp: t0.Add(2 * time.Second), Status: "Report"},
		},
	}, t0.Add(2*time.Second))
	h3, _ = l.Neighbor("H03")
	if h3.Status != "Stop" {
		t.Errorf("status = %q, want Stop", h3.Status)
	}
}

func TestApplyIgnoresSimCommLoss(t *testing.T) {
	l := New("H01", 2*time.Second, false, t0)
	l.SetSimComm([]protocol.CommPeer{{ID: "H02", InComm: false}, {ID: "Base", InComm: false}}, t0)

	if l.Apply(&protocol.AgentState{ID: "H02", Stamp: t0}, t0) {
		t.Error("expected unreachable neighbor to be ignored")
	}
	if l.Apply(&protocol.AgentState{ID: "Base", Role: protocol.RoleBase, Stamp: t0}, t0) {
		t.Error("expected unreachable base to be ignored")
	}
}

func TestGUITaskRelay(t *testing.T) {
	l := New("H01", 2*time.Second, false, t0)
	l.Apply(&protocol.AgentState{
		ID: "H02", Role: protocol.RoleRobot, Stamp: t0,
		Neighbors: []protocol.AgentState{
			{ID: "H01", GUI: protocol.GUIState{Stamp: t0.Add(time.Second), TaskName: "task", TaskValue: "Home"}},
		},
	}, t0)

	name, value, ok := l.TakeTask()
	if !ok || name != "task" || value != "Home" {
		t.Fatalf("task = %q %q %v", name, value, ok)
	}
	if _, _, ok := l.TakeTask(); ok {
		t.Error("task should be consumed once")
	}

	l.SetTask("H04", "task", "Stop", t0.Add(2*time.Second))
	h4, _ := l.Neighbor("H04")
	if h4.GUI.TaskValue != "Stop" {
		t.Errorf("relayed task = %+v", h4.GUI)
	}
}

func TestGUIGoalSequence(t *testing.T) {
	l := New("H01", 2*time.Second, false, t0)
	l.SetGoal("H01", 2, geom.Pose{Position: geom.Point{X: 4}}, t0)
	if p, ok := l.TakeGoal(); !ok || p.Position.X != 4 {
		t.Fatalf("goal = %+v %v", p, ok)
	}
	l.SetGoal("H01", 1, geom.Pose{Position: geom.Point{X: 9}}, t0.Add(time.Second))
	if _, ok := l.TakeGoal(); ok {
		t.Error("older goal sequence should be ignored")
	}
}

func TestCommCheck(t *testing.T) {
	l := New("H01", 2*time.Second, false, t0)
	l.Apply(&protocol.AgentState{ID: "H02", Stamp: t0}, t0.Add(time.Second))

	if _, ok := l.CommCheck(t0.Add(time.Second)); ok {
		t.Error("comm check should wait one threshold after start")
	}
	if _, ok := l.CommCheck(t0.Add(2500 * time.Millisecond)); !ok {
		t.Fatal("comm check should run")
	}
	if h2, _ := l.Neighbor("H02"); !h2.InComm {
		t.Error("H02 should still be in comm")
	}
	if l.BaseInComm() {
		t.Error("base should be out of comm")
	}

	l.CommCheck(t0.Add(10 * time.Second))
	if h2, _ := l.Neighbor("H02"); h2.InComm {
		t.Error("H02 should be out of comm")
	}
	if n := l.CurrentNeighbors(t0.Add(10 * time.Second)); n != 1 {
		t.Errorf("current = %d, want 1", n)
	}
	if n := l.CurrentNeighbors(t0.Add(2 * time.Minute)); n != 0 {
		t.Errorf("current = %d, want 0", n)
	}
}

func TestArtifactReportFlow(t *testing.T) {
	l := New("H01", 2*time.Second, false, t0)
	l.Apply(&protocol.AgentState{ID: "H02", Stamp: t0, Pose: geom.Pose{Position: geom.Point{X: 50, Y: 50}}}, t0)

	l.AddDetections([]protocol.ArtifactInfo{
		{ID: "a1", Class: "survivor", Position: geom.Point{X: 10, Y: 10}},
		{ID: "a2", Class: "survivor", Position: geom.Point{X: 11, Y: 10}},
		{ID: "a3", Class: "rope", Position: geom.Point{X: 51, Y: 50}},
		{ID: "a4", Class: "rope", Position: geom.Point{X: 0, Y: 20}},
	})
	if !l.CheckArtifacts(nil) {
		t.Fatal("expected report list to change")
	}
	if got := len(l.MyArtifacts()); got != 1 {
		t.Errorf("reported artifacts = %d, want 1", got)
	}
	if got := len(l.Artifacts()); got != 3 {
		t.Errorf("known artifacts = %d, want 3", got)
	}
	if !l.ReportPending() || l.ReportAcknowledged() {
		t.Fatal("report should be pending and unacknowledged")
	}

	l.Apply(&protocol.AgentState{
		ID: "Base", Role: protocol.RoleBase, Stamp: t0, BaseStamp: t0.Add(time.Second),
		BaseArtifacts: []protocol.ArtifactAck{{Agent: "H01", Digest: l.Digest()}},
	}, t0.Add(time.Second))
	if !l.ReportAcknowledged() {
		t.Fatal("base acknowledged the digest")
	}
	l.MarkReported()
	if l.ReportPending() {
		t.Error("nothing should be pending after acknowledgement")
	}
}

func TestSoloReportsImmediately(t *testing.T) {
	l := New("H01", 2*time.Second, true, t0)
	l.AddDetections([]protocol.ArtifactInfo{{ID: "a1", Class: "backpack", Position: geom.Point{X: 3, Y: 3}}})
	l.CheckArtifacts(nil)
	if !l.ReportAcknowledged() {
		t.Error("solo robots never wait for the base")
	}
	l.CommCheck(t0.Add(time.Minute))
	if !l.BaseInComm() {
		t.Error("solo robots keep the base link up")
	}
}
