package coordinator

import (
	"log"
	"time"

	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/geom"
)

// Tick runs one decision cycle.
func (c *Coordinator) Tick(now time.Time) {
	c.now = now
	if c.waiting {
		c.broadcast()
		return
	}

	if a, done := c.seq.Advance(now); done {
		c.finishDeploy(a)
	}

	if cutoff, ok := c.ledger.CommCheck(now); ok {
		c.beacons.CommCheck(cutoff)
	}
	c.emit.EmitComm(c.ledger.BaseInComm())
	c.reconcileBeacons()

	if c.havePose {
		c.history.Append(c.pose)
	}
	c.stuckCheck()

	if c.seq.Busy() {
		c.holdTasks()
		c.broadcast()
		return
	}

	if c.handleTasks() {
		c.beaconCheck()
	}

	c.emit.EmitNeighbors(c.ledger.CurrentNeighbors(now))
	if c.ledger.CheckArtifacts(c.beaconPositions()) {
		c.report = true
	}

	if !c.seq.Busy() {
		c.arbitrate()
	}
	c.aerialGate()
	c.broadcast()
}

// reconcileBeacons activates beacons teammates report as deployed.
func (c *Coordinator) reconcileBeacons() {
	for _, r := range c.ledger.BeaconReports() {
		if !r.Active || !c.beacons.Reconcile(r.ID, r.Position) {
			continue
		}
		if b, ok := c.beacons.Get(r.ID); ok {
			c.emit.EmitBeaconActivated(b, false)
		}
	}
}

func (c *Coordinator) beaconPositions() []geom.Point {
	active := c.beacons.Active()
	out := make([]geom.Point, len(active))
	for i, b := range active {
		out[i] = b.Position
	}
	return out
}

func (c *Coordinator) stuckCheck() {
	if !c.history.MissionStarted() || c.status == "Stop" || c.aerial {
		return
	}
	if len(c.goal.Path) == 0 {
		c.setAux("No Path")
		return
	}
	if !c.history.Full() {
		return
	}
	if pt, ok := c.stuck.Observe(c.history.Stationary(), c.goal.Pose.Position); ok {
		c.addBlacklist(pt)
	}
	if c.stuck.Stuck() {
		c.setAux("Stuck")
		log.Printf("coordinator: %s has not moved", c.id)
	}
}

func (c *Coordinator) addBlacklist(p geom.Point) {
	pt := c.blacklist.Add(p, c.now)
	log.Printf("coordinator: %s blacklisting goal (%.1f, %.1f, %.1f)", c.id, p.X, p.Y, p.Z)
	c.emit.EmitBlacklistAdded(pt, c.blacklist.Points())
}

// handleTasks applies the newest operator command. It returns false when
// the command already deployed a beacon this tick.
func (c *Coordinator) handleTasks() bool {
	if pose, ok := c.ledger.TakeGoal(); ok {
		c.guiGoal = pose
	}
	name, value, ok := c.ledger.TakeTask()
	if !ok {
		return true
	}
	if name != "task" {
		c.emit.EmitGUITask(name, value)
		return true
	}

	// Any task releases the stop; Stop itself re-applies it.
	c.emit.EmitMotion(true)
	if value == "Deploy" {
		c.setMode(ModeExplore)
		c.startDeploy(string(beacons.ReasonGUI))
		return false
	}
	if m, ok := ParseMode(value); ok && m != ModeReport && m != ModeDeploy {
		c.setMode(m)
	} else {
		log.Printf("coordinator: %s ignoring task %q", c.id, value)
	}
	return true
}

// holdTasks defers operator commands while a deployment runs. Stop still
// halts motion immediately.
func (c *Coordinator) holdTasks() {
	name, value, ok := c.ledger.TakeTask()
	if !ok {
		return
	}
	if name == "task" && value == "Stop" {
		c.emit.EmitMotion(false)
	}
	c.deferred = &task{name: name, value: value}
}

// arbitrate applies the mode precedence: report, then the commanded mode,
// then exploration.
func (c *Coordinator) arbitrate() {
	if !c.report && c.ledger.ReportPending() {
		c.report = true
	}
	if c.report {
		if c.ledger.ReportAcknowledged() {
			c.report = false
			c.ledger.MarkReported()
			log.Printf("coordinator: %s resuming operation", c.id)
		} else {
			if c.status != "Report" {
				log.Printf("coordinator: %s return to report", c.id)
			}
			c.setGoalPoint("Report")
			return
		}
	}

	switch c.mode {
	case ModeHome:
		c.setGoalPoint("Home")
	case ModeStop:
		c.stop()
	case ModeDeploy:
		c.reverseDeploy()
	case ModeGoal:
		if geom.Dist(c.pose.Position, c.guiGoal.Position) < goalReachedDist {
			log.Printf("coordinator: %s resuming exploration", c.id)
			c.setMode(ModeExplore)
			c.deconflictExplore()
			return
		}
		if c.status != "guiCommand" {
			log.Printf("coordinator: %s setting GUI goal point", c.id)
		}
		c.setGoalPoint("guiCommand")
	default:
		c.deconflictExplore()
	}
}

// aerialGate keeps an aerial robot's map out of the merge until launch.
func (c *Coordinator) aerialGate() {
	switch {
	case c.aerial && !c.launched && !c.mapIgnore:
		log.Printf("coordinator: %s ignoring aerial maps until launched", c.id)
		c.mapIgnore = true
		c.emit.EmitMapReset(true)
	case c.aerial && c.launched && c.mapIgnore:
		log.Printf("coordinator: %s launched, stop ignoring maps", c.id)
		c.mapIgnore = false
		c.emit.EmitMapReset(false)
	}
}
