package coordinator

import (
	"log"

	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/ledger"
	"github.com/arpg/bobcat/protocol"
)

// goalReachedDist is how close counts as arriving at a goal.
const goalReachedDist = 1.0

// deconflictGoals picks the first candidate goal no current neighbor is
// better placed to take. Blacklisted candidates are skipped. With no usable
// candidates the planner's frontier goal is used.
func (c *Coordinator) deconflictGoals(neighbors []protocol.GoalInfo) {
	var goals []protocol.GoalInfo
	for _, g := range c.candidates {
		if !c.blacklist.Contains(g.Pose.Position) {
			goals = append(goals, g)
		}
	}

	switch len(goals) {
	case 0:
		c.goal = c.frontier
		return
	case 1:
		c.goal = goals[0]
		return
	}

	radius := c.cfg.Coordinator.DeconflictRadius
	for _, g := range goals {
		conflict := false
		for _, n := range neighbors {
			if geom.Dist(g.Pose.Position, n.Pose.Position) < radius && g.Cost > n.Cost {
				conflict = true
				break
			}
		}
		if !conflict {
			c.goal = g
			return
		}
		c.setAux("Replanning")
	}
	c.goal = goals[len(goals)-1]
}

// neighborGoals returns the goals of neighbors current enough to deconflict
// against.
func (c *Coordinator) neighborGoals() []protocol.GoalInfo {
	cutoff := c.now.Add(-ledger.CurrentFactor * c.cfg.Agent.CommThreshold)
	var out []protocol.GoalInfo
	for _, n := range c.ledger.Neighbors() {
		if !n.LastMessage.After(cutoff) || n.Goal.Pose.Position.IsOrigin() {
			continue
		}
		out = append(out, n.Goal)
	}
	return out
}

// deconflictExplore is normal exploration with goal deconfliction and the
// trajectory follower fallback.
func (c *Coordinator) deconflictExplore() {
	c.stopStart = true
	c.status = "Explore"
	c.emit.EmitHome(false)
	c.emit.EmitTask(c.status)
	c.deconflictGoals(c.neighborGoals())

	toGoal := geom.Dist(c.goal.Pose.Position, c.pose.Position)
	if !c.plannerOK && (c.stuck.Count() > c.stuck.Threshold() || toGoal < goalReachedDist) {
		c.emit.EmitTrajectory(true)
		c.setAux("Following Trajectory")
		log.Printf("coordinator: %s using trajectory follower during explore", c.id)
		c.goal = c.frontier

		if n := len(c.goal.Path); n > 0 {
			end := c.goal.Path[n-1]
			if geom.Dist(end, c.pose.Position) < goalReachedDist {
				c.addBlacklist(end)
			}
		}
	} else {
		c.emit.EmitTrajectory(false)
	}

	c.emit.EmitGoal(c.goal)
}

// setGoalPoint hands goal selection to the planner for a non-explore task.
func (c *Coordinator) setGoalPoint(reason string) {
	if reason == "guiCommand" {
		c.emit.EmitGUIGoal(c.guiGoal)
	} else {
		c.emit.EmitHome(true)
	}
	c.stopStart = true
	c.status = reason
	c.emit.EmitTask(c.status)
	c.goal = c.frontier
	c.emit.EmitGoal(c.goal)
}

// stop halts the robot. On entry a hold-in-place goal is published so the
// guidance stack stops chasing the old one.
func (c *Coordinator) stop() {
	c.status = "Stop"
	c.emit.EmitTask(c.status)
	c.emit.EmitMotion(false)

	if c.stopStart {
		log.Printf("coordinator: %s stopping", c.id)
		c.emit.EmitGoal(protocol.GoalInfo{
			Pose: c.pose,
			Path: []geom.Point{c.pose.Position, c.pose.Position},
		})
		c.stopStart = false
	}
}
