package store

import (
	"time"
)

// OutboxMessage is an encoded envelope waiting for the link to come back.
type OutboxMessage struct {
	ID        int64
	Topic     string
	Payload   []byte
	MsgType   string
	ClientID  string
	Retries   int
	CreatedAt time.Time
}

func (db *DB) EnqueueOutbox(topic string, payload []byte, msgType, clientID string) error {
	_, err := db.Exec(db.Q(`INSERT INTO outbox (topic, payload, msg_type, client_id) VALUES (?, ?, ?, ?)`),
		topic, payload, msgType, clientID)
	return err
}

// ListPendingOutbox returns the oldest undelivered, undropped messages.
func (db *DB) ListPendingOutbox(limit int) ([]*OutboxMessage, error) {
	rows, err := db.Query(db.Q(`SELECT id, topic, payload, msg_type, client_id, retries, created_at
		FROM outbox WHERE sent_at IS NULL AND dropped_at IS NULL ORDER BY id LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []*OutboxMessage
	for rows.Next() {
		m := &OutboxMessage{}
		var createdAt any
		if err := rows.Scan(&m.ID, &m.Topic, &m.Payload, &m.MsgType, &m.ClientID, &m.Retries, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountPendingOutbox reports how many messages are still queued.
func (db *DB) CountPendingOutbox() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM outbox WHERE sent_at IS NULL AND dropped_at IS NULL`).Scan(&n)
	return n, err
}

func (db *DB) AckOutbox(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE outbox SET sent_at=CURRENT_TIMESTAMP WHERE id=?`), id)
	return err
}

func (db *DB) IncrementOutboxRetries(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE outbox SET retries=retries+1 WHERE id=?`), id)
	return err
}

// DropOutbox gives up on a message that expired or ran out of retries.
func (db *DB) DropOutbox(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE outbox SET dropped_at=CURRENT_TIMESTAMP WHERE id=?`), id)
	return err
}

// PurgeOutbox deletes delivered and dropped messages and returns how many
// were removed.
func (db *DB) PurgeOutbox() (int64, error) {
	res, err := db.Exec(`DELETE FROM outbox WHERE sent_at IS NOT NULL OR dropped_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
