// Package beacons owns the relay beacon pool and the policy deciding when
// this robot should drop one of the beacons it carries.
package beacons

import (
	"fmt"
	"time"

	"github.com/arpg/bobcat/geom"
)

// Beacon is one relay node of the team-wide pool.
type Beacon struct {
	ID       string     `json:"id"`
	Owner    bool       `json:"owner"`
	Active   bool       `json:"active"`
	Position geom.Point `json:"position"`
	SimComm  bool       `json:"sim_comm"`

	InComm     bool      `json:"in_comm"`
	LastDirect time.Time `json:"last_direct"`
}

// BeaconID returns the pool name of the i-th beacon (1-based).
func BeaconID(i int) string {
	return fmt.Sprintf("B%02d", i)
}

// Registry is an ordered arena of beacons. Ids are stable, activation is
// one-way, and nothing is ever removed.
type Registry struct {
	beacons []*Beacon
	index   map[string]int
	owned   int
}

// NewRegistry builds the pool B01..B<total>. Beacons listed in mine are
// owned by this robot; the owned count starts at len(mine).
func NewRegistry(total int, mine []string) *Registry {
	r := &Registry{index: make(map[string]int, total)}
	owners := make(map[string]bool, len(mine))
	for _, id := range mine {
		if id != "" {
			owners[id] = true
			r.owned++
		}
	}
	for i := 1; i <= total; i++ {
		id := BeaconID(i)
		r.add(&Beacon{ID: id, Owner: owners[id]})
	}
	// Owned beacons outside the numbered pool still get a slot.
	for _, id := range mine {
		if _, ok := r.index[id]; !ok && id != "" {
			r.add(&Beacon{ID: id, Owner: true})
		}
	}
	return r
}

func (r *Registry) add(b *Beacon) {
	r.index[b.ID] = len(r.beacons)
	r.beacons = append(r.beacons, b)
}

// Owned returns how many undeployed beacons this robot believes it carries.
func (r *Registry) Owned() int { return r.owned }

// ResetOwned forces the owned count to zero after an inventory mismatch.
func (r *Registry) ResetOwned() { r.owned = 0 }

// NextDeployable returns the first owned, inactive beacon in pool order.
func (r *Registry) NextDeployable() (Beacon, bool) {
	for _, b := range r.beacons {
		if b.Owner && !b.Active {
			return *b, true
		}
	}
	return Beacon{}, false
}

// MarkDeployed activates a beacon this robot just placed at pos and
// decrements the owned count.
func (r *Registry) MarkDeployed(id string, pos geom.Point) error {
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("unknown beacon %s", id)
	}
	b := r.beacons[i]
	if b.Active {
		return fmt.Errorf("beacon %s already active", id)
	}
	b.Active = true
	b.SimComm = true
	b.Position = pos
	if r.owned > 0 {
		r.owned--
	}
	return nil
}

// Reconcile marks a beacon active because a teammate or the base reports
// it deployed. It returns true when the local view changed. The owned count
// is left alone.
func (r *Registry) Reconcile(id string, pos geom.Point) bool {
	i, ok := r.index[id]
	if !ok {
		r.add(&Beacon{ID: id})
		i = r.index[id]
	}
	b := r.beacons[i]
	if b.Active {
		return false
	}
	b.Active = true
	b.Position = pos
	return true
}

// Restore replays a persisted activation at startup. Beacons this robot
// owns are counted as deployed.
func (r *Registry) Restore(id string, pos geom.Point) {
	if i, ok := r.index[id]; ok && r.beacons[i].Owner && !r.beacons[i].Active {
		_ = r.MarkDeployed(id, pos)
		return
	}
	r.Reconcile(id, pos)
}

// SetComm records direct-link freshness for a beacon.
func (r *Registry) SetComm(id string, at time.Time) {
	if i, ok := r.index[id]; ok {
		r.beacons[i].LastDirect = at
		r.beacons[i].InComm = true
	}
}

// CommCheck demotes beacons not heard from since cutoff.
func (r *Registry) CommCheck(cutoff time.Time) {
	for _, b := range r.beacons {
		b.InComm = b.LastDirect.After(cutoff)
	}
}

// Get returns a copy of the beacon with the given id.
func (r *Registry) Get(id string) (Beacon, bool) {
	i, ok := r.index[id]
	if !ok {
		return Beacon{}, false
	}
	return *r.beacons[i], true
}

// Active returns copies of all active beacons in pool order.
func (r *Registry) Active() []Beacon {
	var out []Beacon
	for _, b := range r.beacons {
		if b.Active {
			out = append(out, *b)
		}
	}
	return out
}

// All returns copies of every beacon in pool order.
func (r *Registry) All() []Beacon {
	out := make([]Beacon, len(r.beacons))
	for i, b := range r.beacons {
		out[i] = *b
	}
	return out
}
