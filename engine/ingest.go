package engine

import (
	"time"

	"github.com/arpg/bobcat/coordinator"
	"github.com/arpg/bobcat/protocol"
)

// Ingest adapts inbound messages to coordinator inputs. Each handler only
// posts to the loop; nothing touches the coordinator on the caller's
// goroutine.
type Ingest struct {
	e *Engine
}

// Ingest returns the protocol.MessageHandler feeding this engine.
func (e *Engine) Ingest() *Ingest { return &Ingest{e: e} }

func (h *Ingest) post(in Input) { h.e.Post(in) }

func (h *Ingest) HandleOdometry(_ *protocol.Envelope, p *protocol.Odometry) {
	pose := p.Pose
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetPose(pose) })
}

func (h *Ingest) HandleFrontier(_ *protocol.Envelope, p *protocol.Frontier) {
	goal := p.Goal
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetFrontier(goal) })
}

func (h *Ingest) HandleGoals(_ *protocol.Envelope, p *protocol.GoalCandidates) {
	goals := p.Goals
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetCandidates(goals) })
}

func (h *Ingest) HandleJunction(_ *protocol.Envelope, p *protocol.Junction) {
	at := p.AtJunction
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetJunction(at) })
}

func (h *Ingest) HandlePlanner(_ *protocol.Envelope, p *protocol.PlannerStatus) {
	ok := p.OK
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetPlannerStatus(ok) })
}

func (h *Ingest) HandleLaunch(_ *protocol.Envelope, p *protocol.LaunchStatus) {
	launched := p.Launched
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetLaunch(launched) })
}

func (h *Ingest) HandleComm(_ *protocol.Envelope, p *protocol.CommStatus) {
	if !h.e.cfg.Agent.SimComms {
		h.e.debugFn("ingest: comm table ignored, sim_comms disabled")
		return
	}
	peers := p.Peers
	h.post(func(c *coordinator.Coordinator, now time.Time) { c.SetSimComm(peers, now) })
}

func (h *Ingest) HandleOrigin(_ *protocol.Envelope, p *protocol.OriginStatus) {
	detected := p.Detected
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.SetOriginDetected(detected) })
}

func (h *Ingest) HandleArtifacts(_ *protocol.Envelope, p *protocol.ArtifactList) {
	arts := p.Artifacts
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.AddArtifacts(arts) })
}

func (h *Ingest) HandleDeployAck(env *protocol.Envelope, p *protocol.DeployAck) {
	ack := *p
	h.e.debugFn("ingest: deploy ack %s ok=%v from %s", ack.BeaconID, ack.OK, env.Src.Node)
	h.post(func(c *coordinator.Coordinator, _ time.Time) { c.DeployAck(ack) })
}

func (h *Ingest) HandleGUITask(_ *protocol.Envelope, p *protocol.GUITask) {
	t := *p
	h.post(func(c *coordinator.Coordinator, now time.Time) { c.GUITask(t, now) })
}

func (h *Ingest) HandleGUIGoal(_ *protocol.Envelope, p *protocol.GUIGoal) {
	g := *p
	h.post(func(c *coordinator.Coordinator, now time.Time) { c.GUIGoal(g, now) })
}

func (h *Ingest) HandleAgentState(_ *protocol.Envelope, p *protocol.AgentState) {
	st := p
	h.post(func(c *coordinator.Coordinator, now time.Time) { c.AgentState(st, now) })
}

var _ protocol.MessageHandler = (*Ingest)(nil)
