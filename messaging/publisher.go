package messaging

import (
	"fmt"
	"log"

	"github.com/arpg/bobcat/protocol"
)

// Transport is the part of Client the publisher needs.
type Transport interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// Outbox stores messages that could not be published.
type Outbox interface {
	EnqueueOutbox(topic string, payload []byte, msgType, clientID string) error
}

// Publisher sends envelopes and falls back to the outbox when the link is
// down. Types listed in Lossy are dropped instead of queued since the next
// tick supersedes them.
type Publisher struct {
	transport Transport
	outbox    Outbox
	clientID  string
	Lossy     map[string]bool
}

// NewPublisher creates a publisher. outbox may be nil.
func NewPublisher(t Transport, outbox Outbox, clientID string) *Publisher {
	return &Publisher{
		transport: t,
		outbox:    outbox,
		clientID:  clientID,
		Lossy: map[string]bool{
			protocol.TypeAgentState:   true,
			protocol.TypeCmdStatus:    true,
			protocol.TypeCmdComm:      true,
			protocol.TypeCmdNeighbors: true,
		},
	}
}

// Publish encodes env and sends it on topic. A failed send is queued unless
// the type is lossy; only encode and queue errors are returned.
func (p *Publisher) Publish(topic string, env *protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if p.transport.IsConnected() {
		err = p.transport.Publish(topic, data)
		if err == nil {
			return nil
		}
		log.Printf("messaging: publish %s to %s: %v", env.Type, topic, err)
	}
	if p.Lossy[env.Type] || p.outbox == nil {
		return nil
	}
	if err := p.outbox.EnqueueOutbox(topic, data, env.Type, p.clientID); err != nil {
		return fmt.Errorf("enqueue %s: %w", env.Type, err)
	}
	return nil
}
