package monitor

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Sink receives encoded snapshots. RedisStore is the production sink.
type Sink interface {
	PutSnapshot(ctx context.Context, agentID, status string, data []byte, ttl time.Duration) error
}

type update struct {
	status string
	data   []byte
}

// Monitor writes snapshots off the control loop. Only the newest pending
// snapshot is kept; older ones are replaced before they are written.
type Monitor struct {
	sink    Sink
	agentID string
	ttl     time.Duration

	pending  chan update
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a monitor for agentID.
func New(sink Sink, agentID string, ttl time.Duration) *Monitor {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Monitor{
		sink:     sink,
		agentID:  agentID,
		ttl:      ttl,
		pending:  make(chan update, 1),
		stopChan: make(chan struct{}),
	}
}

// Start begins the write loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop ends the write loop after flushing the pending snapshot.
func (m *Monitor) Stop() {
	select {
	case <-m.stopChan:
	default:
		close(m.stopChan)
	}
	m.wg.Wait()
}

// Publish queues a snapshot. It never blocks.
func (m *Monitor) Publish(status string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("monitor: encode snapshot: %v", err)
		return
	}
	u := update{status: status, data: data}
	for {
		select {
		case m.pending <- u:
			return
		default:
		}
		// Full: discard the stale one and retry.
		select {
		case <-m.pending:
		default:
		}
	}
}

func (m *Monitor) loop() {
	defer m.wg.Done()
	for {
		select {
		case u := <-m.pending:
			m.write(u)
		case <-m.stopChan:
			select {
			case u := <-m.pending:
				m.write(u)
			default:
			}
			return
		}
	}
}

func (m *Monitor) write(u update) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.sink.PutSnapshot(ctx, m.agentID, u.status, u.data, m.ttl); err != nil {
		log.Printf("monitor: write snapshot: %v", err)
	}
}
