package deploy

import (
	"github.com/arpg/bobcat/beacons"
	"github.com/arpg/bobcat/geom"
)

// Host is the robot-side behavior the sequence drives.
type Host interface {
	HaltMotion()
	AnnounceDeploy(beaconID string)
	ResumeMotion()
	ResumeExplore()
	ClearDeployTrigger()
}

// Inventory is the part of the beacon registry the sequence needs.
type Inventory interface {
	NextDeployable() (beacons.Beacon, bool)
	MarkDeployed(id string, pos geom.Point) error
	ResetOwned()
}

// EventEmitter is the interface the deploy package uses to emit events.
type EventEmitter interface {
	EmitDeployStateChanged(attemptID, beaconID, oldState, newState string)
	EmitDeployFinished(a Attempt)
}
