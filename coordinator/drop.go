package coordinator

import (
	"errors"
	"log"

	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/deploy"
	"github.com/arpg/bobcat/geom"
)

// Tick counts used by the out-of-comm behaviors.
const (
	commLostTicks   = 5
	regainBaseTicks = 5
)

func (c *Coordinator) dropParams() beacons.Params {
	b := c.cfg.Beacons
	return beacons.Params{
		MaxAnchorDist: b.AnchorDropDist,
		MaxDist:       b.DropDist,
		JunctionDist:  b.JunctionDist,
		TurnDetect:    b.TurnDetect,
	}
}

// beaconCheck runs the drop policy while the robot still carries beacons.
func (c *Coordinator) beaconCheck() {
	if c.beacons.Owned() <= 0 {
		return
	}

	if c.ledger.BaseInComm() {
		c.commLost = 0
		c.reverseDrop = c.cfg.Beacons.ReverseDrop

		d := beacons.Evaluate(c.dropParams(), beacons.Situation{
			Position:   c.pose.Position,
			Anchor:     c.cfg.Beacons.Anchor,
			AtJunction: c.atJunction,
			Turning:    c.history.Turning(),
			DelayDrop:  c.delayDrop,
			Active:     c.beacons.Active(),
		})
		if d.Suppressed {
			log.Printf("coordinator: %s drop for %s suppressed inside deadband", c.id, d.Reason)
		}
		if !d.Drop {
			return
		}
		if c.delayDrop {
			log.Printf("coordinator: %s delaying drop for %s", c.id, d.Reason)
			c.delayDrop = false
			return
		}
		c.startDeploy(string(d.Reason))
		return
	}

	if !c.reverseDrop {
		return
	}
	c.commLost++
	if c.commLost <= commLostTicks {
		return
	}
	// A dead zone can make the robot bounce between the same spots.
	if beacons.NearAny(c.pose.Position, c.reverseSites, c.cfg.Beacons.JunctionDist) {
		c.reverseDrop = false
		log.Printf("coordinator: %s skipping reverse drop due to previous try", c.id)
	} else {
		c.setMode(ModeDeploy)
		c.reverseSites = append(c.reverseSites, c.pose.Position)
	}
	c.commLost = 0
}

// reverseDeploy handles ModeDeploy: head home until comms are solid again,
// then drop unless a beacon already covers the spot.
func (c *Coordinator) reverseDeploy() {
	log.Printf("coordinator: %s reverse deploy mode", c.id)
	if !c.ledger.BaseInComm() {
		c.regainBase = 0
		c.setAux("Regain comms deploy")
		c.setGoalPoint("Home")
		return
	}
	if c.regainBase <= regainBaseTicks {
		c.regainBase++
		return
	}

	drop, _, _ := beacons.DistCheck(c.pose.Position, c.beacons.Active(), c.cfg.Beacons.JunctionDist, true, 0)
	c.setMode(ModeExplore)
	c.regainBase = 0
	if drop {
		c.startDeploy(string(beacons.ReasonRegain))
	} else {
		log.Printf("coordinator: %s beacon too close, cancelling drop", c.id)
	}
	if !c.seq.Busy() {
		c.deconflictExplore()
	}
}

func (c *Coordinator) startDeploy(reason string) {
	err := c.seq.Start(reason, c.pose, true, c.now)
	switch {
	case err == nil:
	case errors.Is(err, deploy.ErrNoBeacon):
		// Usually a restart: the pool shows our beacons active already.
		log.Printf("coordinator: %s no beacon to deploy", c.id)
		c.setMode(ModeExplore)
	default:
		log.Printf("coordinator: %s deploy for %s: %v", c.id, reason, err)
	}
}

// finishDeploy runs once the sequencer reports Done.
func (c *Coordinator) finishDeploy(a deploy.Attempt) {
	if a.Err != nil {
		log.Printf("coordinator: %s beacon %s not deployed: %v", c.id, a.BeaconID, a.Err)
	} else if b, ok := c.beacons.Get(a.BeaconID); ok && b.Active {
		log.Printf("coordinator: %s deployed beacon %s for %s", c.id, a.BeaconID, a.Reason)
		c.emit.EmitBeaconActivated(b, true)
	}
	if c.deferred != nil {
		c.ledger.SetTask(c.id, c.deferred.name, c.deferred.value, c.now)
		c.deferred = nil
	}
}

// --- deploy.Host ---

func (c *Coordinator) HaltMotion() { c.stop() }

func (c *Coordinator) AnnounceDeploy(beaconID string) {
	c.status = "Deploy"
	c.emit.EmitTask(c.status)
	c.emit.EmitStatus(c.status)
}

func (c *Coordinator) ResumeMotion() { c.emit.EmitMotion(true) }

func (c *Coordinator) ResumeExplore() { c.deconflictExplore() }

func (c *Coordinator) ClearDeployTrigger() { c.emit.EmitDeployTrigger(false) }

// --- deploy.Publisher ---

func (c *Coordinator) PublishBreadcrumb(beaconID string, pos geom.Point) error {
	c.emit.EmitBreadcrumb(beaconID, pos)
	return nil
}

func (c *Coordinator) PublishTeleport(beaconID string, pose geom.Pose) error {
	c.emit.EmitTeleport(beaconID, pose)
	return nil
}

func (c *Coordinator) PublishDeployTrigger(on bool) error {
	c.emit.EmitDeployTrigger(on)
	return nil
}

var (
	_ deploy.Host      = (*Coordinator)(nil)
	_ deploy.Publisher = (*Coordinator)(nil)
)
