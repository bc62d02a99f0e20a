package deploy

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/arpg/bobcat/geom"
)

// Sequencer runs at most one deployment at a time. It is owned by the
// control loop and is not safe for concurrent use.
type Sequencer struct {
	mech    Mechanism
	inv     Inventory
	host    Host
	emitter EventEmitter

	state     string
	attempt   *Attempt
	enteredAt time.Time
	triggerAt time.Time
	deadline  time.Time
	acked     bool
	ackErr    error
}

// NewSequencer creates an idle sequencer.
func NewSequencer(mech Mechanism, inv Inventory, host Host, emitter EventEmitter) *Sequencer {
	return &Sequencer{
		mech:    mech,
		inv:     inv,
		host:    host,
		emitter: emitter,
		state:   StateIdle,
	}
}

// State returns the current state.
func (s *Sequencer) State() string { return s.state }

// Busy reports whether a deployment is in progress.
func (s *Sequencer) Busy() bool { return s.state != StateIdle }

// Current returns a copy of the running attempt.
func (s *Sequencer) Current() (Attempt, bool) {
	if s.attempt == nil {
		return Attempt{}, false
	}
	return *s.attempt, true
}

// Mechanism returns the configured mechanism kind.
func (s *Sequencer) Mechanism() string { return s.mech.Kind() }

// Start begins deploying the first owned inactive beacon at pose. With no
// such beacon the owned count is reset and ErrNoBeacon is returned.
func (s *Sequencer) Start(reason string, pose geom.Pose, inPlace bool, now time.Time) error {
	if s.Busy() {
		return ErrBusy
	}
	b, ok := s.inv.NextDeployable()
	if !ok {
		s.inv.ResetOwned()
		return ErrNoBeacon
	}

	s.attempt = &Attempt{
		ID:        uuid.New().String(),
		BeaconID:  b.ID,
		Reason:    reason,
		Mechanism: s.mech.Kind(),
		Origin:    pose,
		InPlace:   inPlace,
		Started:   now,
	}
	s.acked, s.ackErr = false, nil
	log.Printf("deploy: deploying beacon %s for %s", b.ID, reason)

	s.host.HaltMotion()
	s.transition(StateStopping, now)
	return nil
}

// Ack delivers the mechanism's answer. It is ignored unless the sequence
// is waiting on the mechanism for that beacon.
func (s *Sequencer) Ack(beaconID string, err error) {
	if s.state != StateAwaiting || s.attempt == nil || s.attempt.BeaconID != beaconID {
		return
	}
	s.acked = true
	s.ackErr = err
}

// Advance moves the sequence forward as far as now allows and returns the
// finished attempt once the sequence reaches Done.
func (s *Sequencer) Advance(now time.Time) (Attempt, bool) {
	timing := s.mech.Timing()
	for {
		switch s.state {
		case StateIdle:
			return Attempt{}, false

		case StateStopping:
			if now.Sub(s.enteredAt) < timing.StopSettle {
				return Attempt{}, false
			}
			s.transition(StateNotifying, now)

		case StateNotifying:
			offset := BehindOffset
			if s.attempt.InPlace {
				offset = InPlaceOffset
			}
			s.attempt.Drop = geom.Behind(s.attempt.Origin, offset)
			s.host.AnnounceDeploy(s.attempt.BeaconID)

			s.transition(StateAwaiting, now)
			s.triggerAt = now
			s.deadline = now.Add(timeoutFor(timing))
			err := s.mech.Trigger(Request{
				AttemptID: s.attempt.ID,
				BeaconID:  s.attempt.BeaconID,
				Drop:      s.attempt.Drop,
			})
			if err != nil {
				s.fail(fmt.Errorf("%w: %v", ErrMechanism, err), now)
			}

		case StateAwaiting:
			if s.acked && s.ackErr != nil {
				s.fail(fmt.Errorf("%w: %v", ErrMechanism, s.ackErr), now)
				continue
			}
			ready := (s.acked || !timing.AckRequired) && now.Sub(s.triggerAt) >= timing.Settle
			if ready {
				s.transition(StateResuming, now)
				continue
			}
			if !now.Before(s.deadline) {
				s.fail(ErrMechanismTimeout, now)
				continue
			}
			return Attempt{}, false

		case StateResuming:
			s.host.ResumeMotion()
			s.host.ResumeExplore()
			s.host.ClearDeployTrigger()
			if err := s.inv.MarkDeployed(s.attempt.BeaconID, s.attempt.Drop.Position); err != nil {
				log.Printf("deploy: mark %s deployed: %v", s.attempt.BeaconID, err)
			}
			s.transition(StateDone, now)

		case StateDone:
			a := *s.attempt
			a.Finished = now
			s.attempt = nil
			s.state = StateIdle
			s.emitter.EmitDeployFinished(a)
			return a, true
		}
	}
}

// fail ends the attempt without activating the beacon. Motion resumes so
// the robot does not sit idle after a broken drop.
func (s *Sequencer) fail(err error, now time.Time) {
	s.attempt.Err = err
	log.Printf("deploy: beacon %s failed: %v", s.attempt.BeaconID, err)
	s.host.ClearDeployTrigger()
	s.host.ResumeMotion()
	s.host.ResumeExplore()
	s.transition(StateDone, now)
}

func (s *Sequencer) transition(next string, now time.Time) {
	old := s.state
	s.state = next
	s.enteredAt = now
	s.emitter.EmitDeployStateChanged(s.attempt.ID, s.attempt.BeaconID, old, next)
}

func timeoutFor(t Timing) time.Duration {
	if t.Timeout > t.Settle {
		return t.Timeout
	}
	return t.Settle + 10*time.Second
}
