package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Address names one end of a message: a role and a node id, or Broadcast.
type Address struct {
	Role string `json:"role"`
	Node string `json:"node"`
}

func (a Address) String() string { return a.Role + "/" + a.Node }

// RawHeader carries everything needed to route a message. Receivers
// decode it first and only parse the payload of messages they accept.
type RawHeader struct {
	Version   int       `json:"v"`
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Src       Address   `json:"src"`
	Dst       Address   `json:"dst"`
	Timestamp time.Time `json:"ts"`
	ExpiresAt time.Time `json:"exp"`
}

// Envelope is a header plus a JSON payload. Team broadcasts, local stack
// messages and directives all travel in it.
type Envelope struct {
	RawHeader
	Payload json.RawMessage `json:"p"`
}

// NewEnvelope stamps a message from src to dst. Its expiry is the default
// TTL for msgType.
func NewEnvelope(msgType string, src, dst Address, payload any) (*Envelope, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	now := time.Now().UTC()
	return &Envelope{
		RawHeader: RawHeader{
			Version:   Version,
			Type:      msgType,
			ID:        uuid.NewString(),
			Src:       src,
			Dst:       dst,
			Timestamp: now,
			ExpiresAt: now.Add(DefaultTTLFor(msgType)),
		},
		Payload: p,
	}, nil
}

func (e *Envelope) Encode() ([]byte, error) { return json.Marshal(e) }

// DecodePayload unmarshals the payload into target.
func (e *Envelope) DecodePayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}
