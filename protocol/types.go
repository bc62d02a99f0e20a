package protocol

// Message type constants.
const (
	// Local driver stack -> coordinator (robot topic)
	TypeOdometry  = "robot.odometry"
	TypeFrontier  = "robot.frontier"
	TypeGoals     = "robot.goals"
	TypeJunction  = "robot.junction"
	TypePlanner   = "robot.planner"
	TypeLaunch    = "robot.launch"
	TypeComm      = "robot.comm"
	TypeOrigin    = "robot.origin"
	TypeArtifacts = "robot.artifacts"
	TypeDeployAck = "robot.deploy_ack"

	// Operator -> coordinator (gui topic)
	TypeGUITask = "gui.task"
	TypeGUIGoal = "gui.goal"

	// Team broadcast (team topic)
	TypeAgentState = "agent.state"

	// Coordinator -> local driver stack (command topic)
	TypeCmdGoal       = "cmd.goal"
	TypeCmdTraj       = "cmd.traj"
	TypeCmdStatus     = "cmd.status"
	TypeCmdTask       = "cmd.task"
	TypeCmdComm       = "cmd.comm"
	TypeCmdNeighbors  = "cmd.neighbors"
	TypeCmdMotion     = "cmd.motion"
	TypeCmdHome       = "cmd.home"
	TypeCmdDeploy     = "cmd.deploy"
	TypeCmdBreadcrumb = "cmd.breadcrumb"
	TypeCmdTeleport   = "cmd.teleport"
	TypeCmdGUIGoal    = "cmd.gui_goal"
	TypeCmdGUITask    = "cmd.gui_task"
	TypeCmdBlacklist  = "cmd.blacklist"
	TypeCmdMapReset   = "cmd.map_reset"
)

// Roles for Address.Role.
const (
	RoleRobot  = "robot"
	RoleBase   = "base"
	RoleBeacon = "beacon"
	RoleGUI    = "gui"
	RoleDriver = "driver"
)

// Broadcast is the Address.Node value accepted by every agent.
const Broadcast = "*"

// Protocol version.
const Version = 1
