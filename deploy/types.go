// Package deploy runs the beacon deployment sequence. The sequence is
// advanced once per control tick and never blocks the caller.
package deploy

import (
	"errors"
	"time"

	"github.com/arpg/bobcat/geom"
)

// Sequencer states
const (
	StateIdle      = "idle"
	StateStopping  = "stopping"
	StateNotifying = "notifying"
	StateAwaiting  = "awaiting_mechanism"
	StateResuming  = "resuming"
	StateDone      = "done"
)

// stateOrder defines the linear progression of a successful deployment.
var stateOrder = []string{
	StateIdle,
	StateStopping,
	StateNotifying,
	StateAwaiting,
	StateResuming,
	StateDone,
}

// NextState returns the state following current on the success path.
func NextState(current string) (string, bool) {
	for i, s := range stateOrder {
		if s == current && i < len(stateOrder)-1 {
			return stateOrder[i+1], true
		}
	}
	return "", false
}

// Drop offsets behind the robot's heading.
const (
	InPlaceOffset = 0.5
	BehindOffset  = 6.0
)

var (
	ErrNoBeacon         = errors.New("no beacon available to deploy")
	ErrMechanism        = errors.New("deploy mechanism failed")
	ErrMechanismTimeout = errors.New("deploy mechanism timed out")
	ErrBusy             = errors.New("deployment already in progress")
)

// Attempt is one run of the sequence, from entry to Done.
type Attempt struct {
	ID        string    `json:"id"`
	BeaconID  string    `json:"beacon_id"`
	Reason    string    `json:"reason"`
	Mechanism string    `json:"mechanism"`
	Origin    geom.Pose `json:"origin"`
	Drop      geom.Pose `json:"drop"`
	InPlace   bool      `json:"in_place"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Err       error     `json:"-"`
}

// Succeeded reports whether the beacon was placed.
func (a Attempt) Succeeded() bool { return a.Err == nil && !a.Finished.IsZero() }
