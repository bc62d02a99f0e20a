package coordinator

// Mode is the commanded behavior of the robot.
type Mode int

const (
	ModeExplore Mode = iota
	ModeHome
	ModeStop
	ModeGoal
	ModeDeploy
	ModeReport
)

var modeNames = [...]string{
	ModeExplore: "Explore",
	ModeHome:    "Home",
	ModeStop:    "Stop",
	ModeGoal:    "Goal",
	ModeDeploy:  "Deploy",
	ModeReport:  "Report",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "Unknown"
	}
	return modeNames[m]
}

// ParseMode maps an operator task value to a mode. "Start" is an alias for
// Explore.
func ParseMode(s string) (Mode, bool) {
	if s == "Start" {
		return ModeExplore, true
	}
	for i, name := range modeNames {
		if name == s {
			return Mode(i), true
		}
	}
	return 0, false
}
