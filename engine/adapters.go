package engine

import (
	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/coordinator"
	"github.com/arpg/bobcat/deploy"
	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/protocol"
)

// coordEmitter adapts the engine's EventBus to the coordinator.Emitter interface.
type coordEmitter struct {
	bus   *EventBus
	agent string
}

func (e *coordEmitter) command(msgType string, payload interface{}) {
	e.bus.Emit(Event{Type: EventCommand, Payload: CommandEvent{MsgType: msgType, Payload: payload}})
}

func (e *coordEmitter) EmitGoal(goal protocol.GoalInfo) {
	e.command(protocol.TypeCmdGoal, &protocol.GoalCommand{Goal: goal})
}

func (e *coordEmitter) EmitTrajectory(on bool) {
	e.command(protocol.TypeCmdTraj, &protocol.FlagCommand{Value: on})
}

func (e *coordEmitter) EmitStatus(status string) {
	e.command(protocol.TypeCmdStatus, &protocol.StatusCommand{Status: status})
}

func (e *coordEmitter) EmitTask(task string) {
	e.command(protocol.TypeCmdTask, &protocol.TaskCommand{Task: task})
}

func (e *coordEmitter) EmitComm(inComm bool) {
	e.command(protocol.TypeCmdComm, &protocol.CommCommand{InComm: inComm})
}

func (e *coordEmitter) EmitNeighbors(count int) {
	e.command(protocol.TypeCmdNeighbors, &protocol.NeighborsCommand{Count: count})
}

func (e *coordEmitter) EmitMotion(enabled bool) {
	e.command(protocol.TypeCmdMotion, &protocol.FlagCommand{Value: enabled})
}

func (e *coordEmitter) EmitHome(home bool) {
	e.command(protocol.TypeCmdHome, &protocol.FlagCommand{Value: home})
}

func (e *coordEmitter) EmitDeployTrigger(on bool) {
	e.command(protocol.TypeCmdDeploy, &protocol.FlagCommand{Value: on})
}

func (e *coordEmitter) EmitBreadcrumb(beaconID string, pos geom.Point) {
	e.command(protocol.TypeCmdBreadcrumb, &protocol.BreadcrumbCommand{BeaconID: beaconID, Position: pos})
}

func (e *coordEmitter) EmitTeleport(beaconID string, pose geom.Pose) {
	e.command(protocol.TypeCmdTeleport, &protocol.TeleportCommand{BeaconID: beaconID, Pose: pose})
}

func (e *coordEmitter) EmitGUIGoal(pose geom.Pose) {
	e.command(protocol.TypeCmdGUIGoal, &protocol.GUIGoalCommand{Pose: pose})
}

func (e *coordEmitter) EmitGUITask(name, value string) {
	e.command(protocol.TypeCmdGUITask, &protocol.GUITaskCommand{Name: name, Value: value})
}

func (e *coordEmitter) EmitMapReset(ignore bool) {
	e.command(protocol.TypeCmdMapReset, &protocol.MapResetCommand{Agent: e.agent, Ignore: ignore})
}

func (e *coordEmitter) EmitBlacklistAdded(pt blacklist.Point, all []blacklist.Point) {
	e.bus.Emit(Event{Type: EventBlacklistAdded, Payload: BlacklistAddedEvent{Point: pt, All: all}})
}

func (e *coordEmitter) EmitBeaconActivated(b beacons.Beacon, deployedHere bool) {
	e.bus.Emit(Event{Type: EventBeaconActivated, Payload: BeaconActivatedEvent{Beacon: b, DeployedHere: deployedHere}})
}

func (e *coordEmitter) EmitModeChanged(oldMode, newMode coordinator.Mode) {
	e.bus.Emit(Event{Type: EventModeChanged, Payload: ModeChangedEvent{
		OldMode: oldMode.String(), NewMode: newMode.String(),
	}})
}

func (e *coordEmitter) EmitSnapshot(s coordinator.Snapshot) {
	e.bus.Emit(Event{Type: EventSnapshot, Timestamp: s.Time, Payload: SnapshotEvent{Snapshot: s}})
}

func (e *coordEmitter) EmitDeployStateChanged(attemptID, beaconID, oldState, newState string) {
	e.bus.Emit(Event{Type: EventDeployStateChanged, Payload: DeployStateChangedEvent{
		AttemptID: attemptID, BeaconID: beaconID, OldState: oldState, NewState: newState,
	}})
}

func (e *coordEmitter) EmitDeployFinished(a deploy.Attempt) {
	e.bus.Emit(Event{Type: EventDeployFinished, Payload: DeployFinishedEvent{Attempt: a}})
}

var _ coordinator.Emitter = (*coordEmitter)(nil)
