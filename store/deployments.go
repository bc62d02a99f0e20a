package store

import (
	"time"

	"github.com/arpg/bobcat/geom"
)

// Deployment is one row of the deployment log.
type Deployment struct {
	ID         int64      `json:"id"`
	AttemptID  string     `json:"attempt_id"`
	AgentID    string     `json:"agent_id"`
	BeaconID   string     `json:"beacon_id"`
	Reason     string     `json:"reason"`
	Mechanism  string     `json:"mechanism"`
	Drop       geom.Point `json:"drop"`
	Succeeded  bool       `json:"succeeded"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

func (db *DB) InsertDeployment(d *Deployment) error {
	_, err := db.Exec(db.Q(`INSERT INTO deployments (attempt_id, agent_id, beacon_id, reason, mechanism, x, y, z, succeeded, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		d.AttemptID, d.AgentID, d.BeaconID, d.Reason, d.Mechanism,
		d.Drop.X, d.Drop.Y, d.Drop.Z, d.Succeeded, d.Error,
		d.StartedAt.UTC().Format(time.RFC3339Nano), d.FinishedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (db *DB) ListDeployments(agentID string, limit int) ([]*Deployment, error) {
	rows, err := db.Query(db.Q(`SELECT id, attempt_id, agent_id, beacon_id, reason, mechanism, x, y, z, succeeded, error, started_at, finished_at
		FROM deployments WHERE agent_id=? ORDER BY id DESC LIMIT ?`), agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Deployment
	for rows.Next() {
		var d Deployment
		var started, finished any
		if err := rows.Scan(&d.ID, &d.AttemptID, &d.AgentID, &d.BeaconID, &d.Reason, &d.Mechanism,
			&d.Drop.X, &d.Drop.Y, &d.Drop.Z, &d.Succeeded, &d.Error, &started, &finished); err != nil {
			return nil, err
		}
		d.StartedAt = parseTime(started)
		d.FinishedAt = parseTime(finished)
		out = append(out, &d)
	}
	return out, rows.Err()
}
