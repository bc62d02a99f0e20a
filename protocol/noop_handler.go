package protocol

// NoOpHandler implements MessageHandler with no-op methods.
type NoOpHandler struct{}

func (NoOpHandler) HandleOdometry(*Envelope, *Odometry)      {}
func (NoOpHandler) HandleFrontier(*Envelope, *Frontier)      {}
func (NoOpHandler) HandleGoals(*Envelope, *GoalCandidates)   {}
func (NoOpHandler) HandleJunction(*Envelope, *Junction)      {}
func (NoOpHandler) HandlePlanner(*Envelope, *PlannerStatus)  {}
func (NoOpHandler) HandleLaunch(*Envelope, *LaunchStatus)    {}
func (NoOpHandler) HandleComm(*Envelope, *CommStatus)        {}
func (NoOpHandler) HandleOrigin(*Envelope, *OriginStatus)    {}
func (NoOpHandler) HandleArtifacts(*Envelope, *ArtifactList) {}
func (NoOpHandler) HandleDeployAck(*Envelope, *DeployAck)    {}
func (NoOpHandler) HandleGUITask(*Envelope, *GUITask)        {}
func (NoOpHandler) HandleGUIGoal(*Envelope, *GUIGoal)        {}
func (NoOpHandler) HandleAgentState(*Envelope, *AgentState)  {}

var _ MessageHandler = NoOpHandler{}
