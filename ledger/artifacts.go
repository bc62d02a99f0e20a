package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/arpg/bobcat/geom"
	"github.com/arpg/bobcat/protocol"
)

// Distances used when screening new artifacts.
const (
	DuplicateDist    = 3.0
	RopeNeighborDist = 5.0
	RopeBeaconDist   = 2.0
	ropeClass        = "rope"
)

// Artifact is a detection known to this robot.
type Artifact struct {
	ID       string     `json:"id"`
	Agent    string     `json:"agent"`
	Class    string     `json:"class"`
	Position geom.Point `json:"position"`
	Reported bool       `json:"reported"`
}

// AddDetections queues this robot's own detections for the next check.
func (l *Ledger) AddDetections(arts []protocol.ArtifactInfo) {
	l.detections = append(l.detections, arts...)
}

// CheckArtifacts folds in new artifacts from neighbors and this robot's own
// queued detections. It returns true when this robot's report list changed.
func (l *Ledger) CheckArtifacts(beacons []geom.Point) bool {
	for _, id := range l.order {
		n := l.neighbors[id]
		for _, a := range n.NewArtifacts {
			if l.ignored(a) {
				continue
			}
			l.store(n.ID, a, false)
			log.Printf("ledger: new artifact from %s %s %s", n.ID, a.Class, a.ID)
		}
	}

	updated := false
	for _, a := range l.detections {
		if l.ignored(a) {
			continue
		}
		skip := l.duplicate(a) || (a.Class == ropeClass && l.nearTeam(a.Position, beacons))
		l.store(l.self, a, skip)
		if !skip {
			l.mine = append(l.mine, a)
			updated = true
		}
		log.Printf("ledger: new artifact %s %s (skip=%v)", a.Class, a.ID, skip)
	}
	l.detections = nil

	if updated {
		l.digest = Digest(l.mine)
	}
	return updated
}

func (l *Ledger) ignored(a protocol.ArtifactInfo) bool {
	if _, ok := l.artifacts[a.ID]; ok {
		return true
	}
	// Detections without a fix are ignored until they get one.
	return a.Position.X == 0 || a.Position.Y == 0
}

func (l *Ledger) store(agent string, a protocol.ArtifactInfo, reported bool) {
	l.artifacts[a.ID] = &Artifact{
		ID:       a.ID,
		Agent:    agent,
		Class:    a.Class,
		Position: a.Position,
		Reported: reported,
	}
	l.artifactOrder = append(l.artifactOrder, a.ID)
}

func (l *Ledger) duplicate(a protocol.ArtifactInfo) bool {
	for _, other := range l.artifacts {
		if geom.Dist2D(a.Position, other.Position) < DuplicateDist {
			return true
		}
	}
	return false
}

// nearTeam reports whether a rope detection is probably a teammate or a
// deployed beacon.
func (l *Ledger) nearTeam(p geom.Point, beacons []geom.Point) bool {
	for _, n := range l.neighbors {
		if geom.Dist(n.Pose.Position, p) < RopeNeighborDist {
			return true
		}
	}
	for _, b := range beacons {
		if geom.Dist(b, p) < RopeBeaconDist {
			return true
		}
	}
	return false
}

// ReportPending reports whether any of this robot's artifacts is unreported.
func (l *Ledger) ReportPending() bool {
	for _, a := range l.artifacts {
		if a.Agent == l.self && !a.Reported {
			return true
		}
	}
	return false
}

// ReportAcknowledged reports whether the base has this robot's latest digest,
// which is always the case when running solo.
func (l *Ledger) ReportAcknowledged() bool {
	return l.solo || l.base.LastArtifact == l.digest
}

// MarkReported flags every known artifact as reported.
func (l *Ledger) MarkReported() {
	for _, a := range l.artifacts {
		a.Reported = true
	}
}

// Digest returns this robot's latest artifact digest.
func (l *Ledger) Digest() string { return l.digest }

// MyArtifacts returns the artifacts this robot reports, in detection order.
func (l *Ledger) MyArtifacts() []protocol.ArtifactInfo {
	return append([]protocol.ArtifactInfo(nil), l.mine...)
}

// Artifacts returns copies of every known artifact in the order first seen.
func (l *Ledger) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(l.artifactOrder))
	for _, id := range l.artifactOrder {
		out = append(out, *l.artifacts[id])
	}
	return out
}

// Digest hashes an artifact list the way the base station does when it
// acknowledges a report.
func Digest(arts []protocol.ArtifactInfo) string {
	data, err := json.Marshal(arts)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
