package engine

import (
	"log"

	"github.com/arpg/bobcat/protocol"
	"github.com/arpg/bobcat/store"
)

// wireEventHandlers sets up the event chain:
// Command → cmd.* envelope on the local command topic
// BlacklistAdded → persist point → full cmd.blacklist
// BeaconActivated / DeployFinished → persist
// Snapshot → cache → agent.state on the team topic → monitor
func (e *Engine) wireEventHandlers() {
	e.Events.SubscribeTypes(func(evt Event) {
		cmd := evt.Payload.(CommandEvent)
		e.sendCommand(cmd.MsgType, cmd.Payload)
	}, EventCommand)

	e.Events.SubscribeTypes(func(evt Event) {
		e.handleBlacklistAdded(evt.Payload.(BlacklistAddedEvent))
	}, EventBlacklistAdded)

	e.Events.SubscribeTypes(func(evt Event) {
		e.handleBeaconActivated(evt.Payload.(BeaconActivatedEvent))
	}, EventBeaconActivated)

	e.Events.SubscribeTypes(func(evt Event) {
		e.handleDeployFinished(evt.Payload.(DeployFinishedEvent))
	}, EventDeployFinished)

	e.Events.SubscribeTypes(func(evt Event) {
		e.handleSnapshot(evt.Payload.(SnapshotEvent))
	}, EventSnapshot)

	e.Events.SubscribeTypes(func(evt Event) {
		mc := evt.Payload.(ModeChangedEvent)
		e.logFn("engine: %s mode %s -> %s", e.cfg.AgentID(), mc.OldMode, mc.NewMode)
		if e.db != nil {
			if err := e.db.AppendAudit(e.cfg.AgentID(), "mode", mc.OldMode, mc.NewMode, "coordinator"); err != nil {
				log.Printf("engine: audit mode change: %v", err)
			}
		}
	}, EventModeChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		sc := evt.Payload.(DeployStateChangedEvent)
		e.debugFn("engine: deploy %s beacon=%s %s -> %s", sc.AttemptID, sc.BeaconID, sc.OldState, sc.NewState)
	}, EventDeployStateChanged)
}

func (e *Engine) self() protocol.Address {
	return protocol.Address{Role: protocol.RoleRobot, Node: e.cfg.AgentID()}
}

func (e *Engine) sendCommand(msgType string, payload interface{}) {
	dst := protocol.Address{Role: protocol.RoleDriver, Node: e.cfg.AgentID()}
	e.send(e.cfg.CommandTopic(), msgType, dst, payload)
}

func (e *Engine) send(topic, msgType string, dst protocol.Address, payload interface{}) {
	if e.pub == nil {
		return
	}
	env, err := protocol.NewEnvelope(msgType, e.self(), dst, payload)
	if err != nil {
		log.Printf("engine: build %s: %v", msgType, err)
		return
	}
	if err := e.pub.Publish(topic, env); err != nil {
		e.debugFn("engine: publish %s: %v", msgType, err)
	}
}

func (e *Engine) handleBlacklistAdded(ev BlacklistAddedEvent) {
	if e.db != nil {
		if _, err := e.db.SaveBlacklistPoint(e.cfg.AgentID(), ev.Point.Position, ev.Point.Radius); err != nil {
			log.Printf("engine: save blacklist point: %v", err)
		}
	}
	cmd := &protocol.BlacklistCommand{Points: make([]protocol.BlacklistEntry, 0, len(ev.All))}
	for _, p := range ev.All {
		cmd.Points = append(cmd.Points, protocol.BlacklistEntry{Position: p.Position, Radius: p.Radius})
	}
	e.sendCommand(protocol.TypeCmdBlacklist, cmd)
}

func (e *Engine) handleBeaconActivated(ev BeaconActivatedEvent) {
	e.debugFn("engine: beacon %s active at %v (here=%v)", ev.Beacon.ID, ev.Beacon.Position, ev.DeployedHere)
	if e.db == nil {
		return
	}
	if err := e.db.SaveBeacon(e.cfg.AgentID(), ev.Beacon.ID, ev.Beacon.Position, ev.DeployedHere); err != nil {
		log.Printf("engine: save beacon %s: %v", ev.Beacon.ID, err)
	}
}

func (e *Engine) handleDeployFinished(ev DeployFinishedEvent) {
	a := ev.Attempt
	if a.Err != nil {
		e.logFn("engine: deploy %s beacon %s failed: %v", a.ID, a.BeaconID, a.Err)
	}
	if e.db == nil {
		return
	}
	d := &store.Deployment{
		AttemptID:  a.ID,
		AgentID:    e.cfg.AgentID(),
		BeaconID:   a.BeaconID,
		Reason:     a.Reason,
		Mechanism:  a.Mechanism,
		Drop:       a.Drop.Position,
		Succeeded:  a.Succeeded(),
		StartedAt:  a.Started,
		FinishedAt: a.Finished,
	}
	if a.Err != nil {
		d.Error = a.Err.Error()
	}
	if err := e.db.InsertDeployment(d); err != nil {
		log.Printf("engine: record deployment %s: %v", a.ID, err)
	}
}

func (e *Engine) handleSnapshot(ev SnapshotEvent) {
	s := ev.Snapshot
	e.setSnapshot(s)
	state := s.State
	e.send(e.cfg.TeamTopic(), protocol.TypeAgentState, protocol.Address{Role: protocol.RoleRobot, Node: protocol.Broadcast}, &state)
	if e.monitor != nil {
		e.monitor.Publish(state.Status, s)
	}
}
