package protocol

import "time"

// Default TTLs by message category. Sensor streams go stale fast; operator
// commands and team state are allowed to ride a slow relay chain.
var defaultTTLs = map[string]time.Duration{
	TypeOdometry: 5 * time.Second,
	TypeFrontier: 10 * time.Second,
	TypeGoals:    10 * time.Second,
	TypeJunction: 5 * time.Second,
	TypePlanner:  10 * time.Second,
	TypeComm:     10 * time.Second,

	TypeDeployAck: 30 * time.Second,

	TypeAgentState: 2 * time.Minute,

	TypeGUITask: 10 * time.Minute,
	TypeGUIGoal: 10 * time.Minute,
}

// FallbackTTL is used when no specific TTL is configured.
const FallbackTTL = time.Minute

// DefaultTTLFor returns the default TTL for a message type.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// expired reports whether exp has passed. A zero expiry never expires.
func expired(exp, now time.Time) bool {
	return !exp.IsZero() && now.After(exp)
}

// IsExpiredHeader checks expiry using only the raw header.
func IsExpiredHeader(hdr *RawHeader) bool {
	return expired(hdr.ExpiresAt, time.Now().UTC())
}
