package coordinator

import (
	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/deploy"
	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/protocol"
)

// Emitter receives every output of the coordinator. Directive methods map
// one-to-one onto command messages for the local stack.
type Emitter interface {
	deploy.EventEmitter

	EmitGoal(goal protocol.GoalInfo)
	EmitTrajectory(on bool)
	EmitStatus(status string)
	EmitTask(task string)
	EmitComm(inComm bool)
	EmitNeighbors(count int)
	EmitMotion(enabled bool)
	EmitHome(home bool)
	EmitDeployTrigger(on bool)
	EmitBreadcrumb(beaconID string, pos geom.Point)
	EmitTeleport(beaconID string, pose geom.Pose)
	EmitGUIGoal(pose geom.Pose)
	EmitGUITask(name, value string)
	EmitMapReset(ignore bool)

	EmitBlacklistAdded(pt blacklist.Point, all []blacklist.Point)
	EmitBeaconActivated(b beacons.Beacon, deployedHere bool)
	EmitModeChanged(oldMode, newMode Mode)
	EmitSnapshot(s Snapshot)
}
