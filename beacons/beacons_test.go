package beacons

import (
	"testing"

	"github.com/arpg/bobcat/geom"
)

func TestRegistryOwnership(t *testing.T) {
	r := NewRegistry(4, []string{"B02", "B03"})
	if r.Owned() != 2 {
		t.Fatalf("owned = %d, want 2", r.Owned())
	}
	b, ok := r.NextDeployable()
	if !ok || b.ID != "B02" {
		t.Fatalf("next = %v %v, want B02", b.ID, ok)
	}
	if err := r.MarkDeployed("B02", geom.Point{X: 3}); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := r.MarkDeployed("B02", geom.Point{X: 4}); err == nil {
		t.Fatal("expected error on second activation")
	}
	if r.Owned() != 1 {
		t.Errorf("owned = %d, want 1", r.Owned())
	}
	if b, _ := r.NextDeployable(); b.ID != "B03" {
		t.Errorf("next = %s, want B03", b.ID)
	}
	got, _ := r.Get("B02")
	if !got.Active || got.Position.X != 3 || !got.SimComm {
		t.Errorf("B02 = %+v", got)
	}
}

func TestRegistryReconcileKeepsOwned(t *testing.T) {
	r := NewRegistry(3, []string{"B01"})
	if !r.Reconcile("B01", geom.Point{X: 9}) {
		t.Fatal("expected change")
	}
	if r.Reconcile("B01", geom.Point{X: 1}) {
		t.Error("second reconcile should be a no-op")
	}
	if r.Owned() != 1 {
		t.Errorf("owned = %d, want 1", r.Owned())
	}
	if _, ok := r.NextDeployable(); ok {
		t.Error("no inactive owned beacon should remain")
	}
	if r.Reconcile("B77", geom.Point{}) != true {
		t.Error("unknown beacon should be added")
	}
	if n := len(r.Active()); n != 2 {
		t.Errorf("active = %d, want 2", n)
	}
}

func TestRegistryRestore(t *testing.T) {
	r := NewRegistry(3, []string{"B01", "B02"})
	r.Restore("B01", geom.Point{X: 1})
	r.Restore("B03", geom.Point{X: 2})
	if r.Owned() != 1 {
		t.Errorf("owned = %d, want 1", r.Owned())
	}
	if n := len(r.Active()); n != 2 {
		t.Errorf("active = %d, want 2", n)
	}
}

func TestEvaluate(t *testing.T) {
	p := Params{MaxAnchorDist: 100, MaxDist: 30, JunctionDist: 10, TurnDetect: true}
	far := geom.Point{X: 120}

	tests := []struct {
		name      string
		s         Situation
		drop      bool
		reason    Reason
		checkDist float64
	}{
		{"near anchor", Situation{Position: geom.Point{X: 5}, AtJunction: true}, false, ReasonNone, 0},
		{"anchor", Situation{Position: far}, true, ReasonAnchor, 30},
		{"delayed anchor", Situation{Position: far, DelayDrop: true}, false, ReasonNone, 100},
		{"junction over turn", Situation{Position: far, AtJunction: true, Turning: true}, true, ReasonJunction, 10},
		{"turn over anchor", Situation{Position: far, Turning: true}, true, ReasonTurn, 15},
		{"inside anchor range", Situation{
			Position: geom.Point{X: 50, Y: 5},
			Active:   []Beacon{{ID: "B01", Active: true, Position: geom.Point{X: 15}}},
		}, false, ReasonNone, 100},
		{"beacon distance", Situation{
			Position: geom.Point{X: 150, Y: 5},
			Active:   []Beacon{{ID: "B01", Active: true, Position: geom.Point{X: 95}}},
		}, true, ReasonBeaconDist, 30},
		{"beacon past anchor distance", Situation{
			Position: geom.Point{X: 90, Y: 5},
			Active:   []Beacon{{ID: "B01", Active: true, Position: geom.Point{Y: -60}}},
		}, true, ReasonBeaconDist, 100},
		{"junction keeps reason", Situation{
			Position:   geom.Point{X: 150, Y: 5},
			AtJunction: true,
			Active:     []Beacon{{ID: "B01", Active: true, Position: geom.Point{X: 95}}},
		}, true, ReasonJunction, 10},
		{"redundant coverage", Situation{
			Position:   geom.Point{X: 50, Y: 20},
			AtJunction: true,
			Active: []Beacon{
				{ID: "B01", Active: true, Position: geom.Point{X: 50, Y: 24}},
				{ID: "B02", Active: true, Position: geom.Point{X: 52, Y: 20}},
				{ID: "B03", Active: true, Position: geom.Point{X: 0, Y: 90}},
			},
		}, false, ReasonJunction, 10},
		{"one in range", Situation{
			Position:   geom.Point{X: 50, Y: 20},
			AtJunction: true,
			Active: []Beacon{
				{ID: "B01", Active: true, Position: geom.Point{X: 50, Y: 24}},
				{ID: "B03", Active: true, Position: geom.Point{X: 0, Y: 90}},
			},
		}, true, ReasonJunction, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(p, tc.s)
			if d.Drop != tc.drop {
				t.Errorf("drop = %v, want %v", d.Drop, tc.drop)
			}
			if d.Reason != tc.reason {
				t.Errorf("reason = %q, want %q", d.Reason, tc.reason)
			}
			if d.CheckDist != tc.checkDist {
				t.Errorf("check dist = %v, want %v", d.CheckDist, tc.checkDist)
			}
		})
	}
}

func TestEvaluateDeadband(t *testing.T) {
	p := Params{MaxAnchorDist: 100, MaxDist: 30, JunctionDist: 10}
	teammate := Beacon{ID: "B01", Active: true, Position: geom.Point{Y: 40}}
	own := Beacon{ID: "B02", Owner: true, Active: true, Position: geom.Point{X: 30}}

	tests := []struct {
		name       string
		pos        geom.Point
		active     []Beacon
		suppressed bool
	}{
		{"on own path", geom.Point{X: 70, Y: 0.5}, []Beacon{teammate, own}, true},
		{"off own path", geom.Point{X: 70, Y: 5}, []Beacon{teammate, own}, false},
		{"no own beacon", geom.Point{X: 70, Y: 0.5}, []Beacon{{ID: "B03", Active: true, Position: geom.Point{X: 30}}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(p, Situation{Position: tc.pos, AtJunction: true, Active: tc.active})
			if d.Suppressed != tc.suppressed || d.Drop == tc.suppressed {
				t.Errorf("drop = %v suppressed = %v, want suppressed = %v", d.Drop, d.Suppressed, tc.suppressed)
			}
		})
	}
}

func TestDistCheckRegain(t *testing.T) {
	active := []Beacon{{Position: geom.Point{X: 3}}}
	if drop, _, _ := DistCheck(geom.Point{}, active, 10, true, 0); drop {
		t.Error("a beacon in range should cancel a regain drop")
	}
	if drop, _, _ := DistCheck(geom.Point{}, nil, 10, true, 0); !drop {
		t.Error("no beacons should keep the drop")
	}
}
