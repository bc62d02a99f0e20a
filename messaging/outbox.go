package messaging

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/arpg/bobcat/protocol"
	"github.com/arpg/bobcat/store"
)

const (
	// MaxOutboxRetries is how often a queued message is retried before it
	// is dropped.
	MaxOutboxRetries = 10

	drainBatch = 50
	purgeEvery = 60 // drains between purges of finished rows
)

// OutboxStore is the persistence the drainer works against.
type OutboxStore interface {
	ListPendingOutbox(limit int) ([]*store.OutboxMessage, error)
	AckOutbox(id int64) error
	DropOutbox(id int64) error
	IncrementOutboxRetries(id int64) error
	PurgeOutbox() (int64, error)
	CountPendingOutbox() (int, error)
}

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	db       OutboxStore
	client   Transport
	interval time.Duration
	drains   int
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewOutboxDrainer creates a new outbox drainer.
func NewOutboxDrainer(db OutboxStore, client Transport, interval time.Duration) *OutboxDrainer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxDrainer{
		db:       db,
		client:   client,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the outbox drain loop.
func (d *OutboxDrainer) Start() {
	d.wg.Add(1)
	go d.drainLoop()
}

// Stop stops the outbox drain loop.
func (d *OutboxDrainer) Stop() {
	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	d.wg.Wait()
}

func (d *OutboxDrainer) drainLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.Drain()
			d.drains++
			if d.drains%purgeEvery == 0 {
				d.purge()
			}
		}
	}
}

// Drain sends one batch of pending messages. It returns how many were sent.
func (d *OutboxDrainer) Drain() int {
	if !d.client.IsConnected() {
		return 0
	}

	msgs, err := d.db.ListPendingOutbox(drainBatch)
	if err != nil {
		log.Printf("messaging: list pending outbox: %v", err)
		return 0
	}

	sent := 0
	for _, msg := range msgs {
		if expired(msg.Payload) || msg.Retries >= MaxOutboxRetries {
			log.Printf("messaging: dropping outbox msg %d (%s, retries=%d)", msg.ID, msg.MsgType, msg.Retries)
			if err := d.db.DropOutbox(msg.ID); err != nil {
				log.Printf("messaging: drop outbox msg %d: %v", msg.ID, err)
			}
			continue
		}
		if err := d.client.Publish(msg.Topic, msg.Payload); err != nil {
			log.Printf("messaging: publish outbox msg %d: %v", msg.ID, err)
			d.db.IncrementOutboxRetries(msg.ID)
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			log.Printf("messaging: ack outbox msg %d: %v", msg.ID, err)
		}
		sent++
	}
	return sent
}

func (d *OutboxDrainer) purge() {
	n, err := d.db.PurgeOutbox()
	if err != nil {
		log.Printf("messaging: purge outbox: %v", err)
		return
	}
	if n > 0 {
		log.Printf("messaging: purged %d finished outbox messages", n)
	}
	if pending, err := d.db.CountPendingOutbox(); err == nil && pending > 0 {
		log.Printf("messaging: %d outbox messages still pending", pending)
	}
}

func expired(payload []byte) bool {
	var hdr protocol.RawHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return true
	}
	return protocol.IsExpiredHeader(&hdr)
}
