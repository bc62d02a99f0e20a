package store

import (
	"time"

	"github.com/arpg/bobcat/geom"
)

type BlacklistPoint struct {
	ID        int64      `json:"id"`
	AgentID   string     `json:"agent_id"`
	Position  geom.Point `json:"position"`
	Radius    float64    `json:"radius"`
	CreatedAt time.Time  `json:"created_at"`
}

func (db *DB) SaveBlacklistPoint(agentID string, pos geom.Point, radius float64) (int64, error) {
	q := db.Q(`INSERT INTO blacklist_points (agent_id, x, y, z, radius) VALUES (?, ?, ?, ?, ?)`)
	if db.driver == "postgres" {
		var id int64
		err := db.QueryRow(q+" RETURNING id", agentID, pos.X, pos.Y, pos.Z, radius).Scan(&id)
		return id, err
	}
	res, err := db.Exec(q, agentID, pos.X, pos.Y, pos.Z, radius)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) ListBlacklistPoints(agentID string) ([]*BlacklistPoint, error) {
	rows, err := db.Query(db.Q(`SELECT id, agent_id, x, y, z, radius, created_at FROM blacklist_points WHERE agent_id=? ORDER BY id`), agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pts []*BlacklistPoint
	for rows.Next() {
		var p BlacklistPoint
		var createdAt any
		if err := rows.Scan(&p.ID, &p.AgentID, &p.Position.X, &p.Position.Y, &p.Position.Z, &p.Radius, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		pts = append(pts, &p)
	}
	return pts, rows.Err()
}
