package protocol

import (
	"encoding/json"
	"log"
)

// FilterFunc returns true if the message should be processed.
type FilterFunc func(hdr *RawHeader) bool

// MessageHandler defines callbacks for every inbound message type.
// Embed NoOpHandler and override only the methods you need.
type MessageHandler interface {
	// Local stack
	HandleOdometry(env *Envelope, p *Odometry)
	HandleFrontier(env *Envelope, p *Frontier)
	HandleGoals(env *Envelope, p *GoalCandidates)
	HandleJunction(env *Envelope, p *Junction)
	HandlePlanner(env *Envelope, p *PlannerStatus)
	HandleLaunch(env *Envelope, p *LaunchStatus)
	HandleComm(env *Envelope, p *CommStatus)
	HandleOrigin(env *Envelope, p *OriginStatus)
	HandleArtifacts(env *Envelope, p *ArtifactList)
	HandleDeployAck(env *Envelope, p *DeployAck)

	// Operator
	HandleGUITask(env *Envelope, p *GUITask)
	HandleGUIGoal(env *Envelope, p *GUIGoal)

	// Team
	HandleAgentState(env *Envelope, p *AgentState)
}

// Ingestor performs two-phase decode and dispatches to a MessageHandler.
type Ingestor struct {
	handler MessageHandler
	filter  FilterFunc
}

// NewIngestor creates an ingestor with the given handler and filter.
func NewIngestor(handler MessageHandler, filter FilterFunc) *Ingestor {
	return &Ingestor{
		handler: handler,
		filter:  filter,
	}
}

// HandleRaw is the entry point for raw message bytes from the messaging layer.
func (ing *Ingestor) HandleRaw(data []byte) {
	// Phase 1: decode routing header only
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		log.Printf("protocol: header decode error: %v", err)
		return
	}

	if hdr.Version > Version {
		log.Printf("protocol: dropping %s from %s: version %d newer than %d", hdr.Type, hdr.Src, hdr.Version, Version)
		return
	}

	if IsExpiredHeader(&hdr) {
		log.Printf("protocol: dropping expired message %s (type=%s)", hdr.ID, hdr.Type)
		return
	}

	if ing.filter != nil && !ing.filter(&hdr) {
		return
	}

	// Phase 2: full envelope decode
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("protocol: envelope decode error: %v", err)
		return
	}

	switch env.Type {
	case TypeOdometry:
		decodeAndCall(ing.handler.HandleOdometry, &env)
	case TypeFrontier:
		decodeAndCall(ing.handler.HandleFrontier, &env)
	case TypeGoals:
		decodeAndCall(ing.handler.HandleGoals, &env)
	case TypeJunction:
		decodeAndCall(ing.handler.HandleJunction, &env)
	case TypePlanner:
		decodeAndCall(ing.handler.HandlePlanner, &env)
	case TypeLaunch:
		decodeAndCall(ing.handler.HandleLaunch, &env)
	case TypeComm:
		decodeAndCall(ing.handler.HandleComm, &env)
	case TypeOrigin:
		decodeAndCall(ing.handler.HandleOrigin, &env)
	case TypeArtifacts:
		decodeAndCall(ing.handler.HandleArtifacts, &env)
	case TypeDeployAck:
		decodeAndCall(ing.handler.HandleDeployAck, &env)
	case TypeGUITask:
		decodeAndCall(ing.handler.HandleGUITask, &env)
	case TypeGUIGoal:
		decodeAndCall(ing.handler.HandleGUIGoal, &env)
	case TypeAgentState:
		decodeAndCall(ing.handler.HandleAgentState, &env)
	default:
		log.Printf("protocol: unknown message type: %s", env.Type)
	}
}

// decodeAndCall unmarshals the payload and calls the handler method.
func decodeAndCall[T any](fn func(*Envelope, *T), env *Envelope) {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Printf("protocol: payload decode error for %s: %v", env.Type, err)
		return
	}
	fn(env, &p)
}
