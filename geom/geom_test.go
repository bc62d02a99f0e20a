package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAngleDiff(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{10, 0, 10},
		{0, 10, -10},
		{179, -179, -2},
		{-179, 179, 2},
		{90, -90, -180},
		{720, 0, 0},
	}
	for _, tt := range tests {
		if got := AngleDiff(tt.a, tt.b); !near(got, tt.want) {
			t.Errorf("AngleDiff(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestYawRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, -135, 179} {
		rad := deg * math.Pi / 180
		if got := YawDeg(FromYaw(rad)); !near(got, deg) {
			t.Errorf("YawDeg(FromYaw(%v)) = %v", deg, got)
		}
	}
}

func TestAveragePoseWrapsHeading(t *testing.T) {
	poses := []Pose{
		{Position: Point{X: 0}, Orientation: FromYaw(170 * math.Pi / 180)},
		{Position: Point{X: 2}, Orientation: FromYaw(-170 * math.Pi / 180)},
	}
	pos, yaw := AveragePose(poses)
	if !near(pos.X, 1) {
		t.Errorf("pos.X = %v, want 1", pos.X)
	}
	if math.Abs(math.Abs(yaw)-180) > 1e-6 {
		t.Errorf("yaw = %v, want +-180", yaw)
	}
}

func TestAveragePositionEmpty(t *testing.T) {
	if p := AveragePosition(nil); !p.IsOrigin() {
		t.Errorf("empty average = %+v, want origin", p)
	}
}

func TestBehind(t *testing.T) {
	p := Pose{Position: Point{X: 10, Y: 5}, Orientation: FromYaw(0)}
	got := Behind(p, 6)
	if !near(got.Position.X, 4) || !near(got.Position.Y, 5) {
		t.Errorf("Behind = %+v, want (4,5)", got.Position)
	}
}

func TestDist2DIgnoresZ(t *testing.T) {
	a := Point{X: 0, Y: 0, Z: 0}
	b := Point{X: 3, Y: 4, Z: 12}
	if d := Dist2D(a, b); !near(d, 5) {
		t.Errorf("Dist2D = %v, want 5", d)
	}
	if d := Dist(a, b); !near(d, 13) {
		t.Errorf("Dist = %v, want 13", d)
	}
}

func TestLateralOffset(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: 0}
	if got := LateralOffset(Point{X: 5, Y: 0.5}, a, b); !near(got, 0.5) {
		t.Errorf("offset = %v, want 0.5", got)
	}
	if got := LateralOffset(Point{X: 5, Y: -2}, a, b); !near(got, -2) {
		t.Errorf("offset = %v, want -2", got)
	}
	if got := LateralOffset(Point{X: 5, Y: 3}, a, a); !near(got, 3) {
		t.Errorf("degenerate offset = %v, want 3", got)
	}
}
