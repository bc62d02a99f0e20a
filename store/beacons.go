package store

import (
	"time"

	"github.com/arpg/bobcat/geom"
)

// BeaconRecord is a beacon this agent knows to be active.
type BeaconRecord struct {
	AgentID      string     `json:"agent_id"`
	BeaconID     string     `json:"beacon_id"`
	Position     geom.Point `json:"position"`
	DeployedHere bool       `json:"deployed_here"`
	ActivatedAt  time.Time  `json:"activated_at"`
}

// SaveBeacon records an activation. The first record for a beacon wins
// since activations are never undone.
func (db *DB) SaveBeacon(agentID, beaconID string, pos geom.Point, deployedHere bool) error {
	_, err := db.Exec(db.Q(`INSERT INTO beacons (agent_id, beacon_id, x, y, z, deployed_here) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (agent_id, beacon_id) DO NOTHING`),
		agentID, beaconID, pos.X, pos.Y, pos.Z, deployedHere)
	return err
}

func (db *DB) ListBeacons(agentID string) ([]*BeaconRecord, error) {
	rows, err := db.Query(db.Q(`SELECT agent_id, beacon_id, x, y, z, deployed_here, activated_at FROM beacons WHERE agent_id=? ORDER BY beacon_id`), agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*BeaconRecord
	for rows.Next() {
		var b BeaconRecord
		var activatedAt any
		if err := rows.Scan(&b.AgentID, &b.BeaconID, &b.Position.X, &b.Position.Y, &b.Position.Z, &b.DeployedHere, &activatedAt); err != nil {
			return nil, err
		}
		b.ActivatedAt = parseTime(activatedAt)
		out = append(out, &b)
	}
	return out, rows.Err()
}
