package monitor

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu      sync.Mutex
	writes  []string
	ttl     time.Duration
	block   chan struct{}
	written chan struct{}
}

func (f *fakeSink) PutSnapshot(ctx context.Context, agentID, status string, data []byte, ttl time.Duration) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.writes = append(f.writes, agentID+":"+status)
	f.ttl = ttl
	f.mu.Unlock()
	if f.written != nil {
		f.written <- struct{}{}
	}
	return nil
}

func TestKeys(t *testing.T) {
	if got := snapshotKey("H01"); got != "bobcat:agent:H01:snapshot" {
		t.Errorf("snapshotKey = %q", got)
	}
	if got := statusKey("H01"); got != "bobcat:agent:H01:status" {
		t.Errorf("statusKey = %q", got)
	}
}

func TestMonitorWrites(t *testing.T) {
	sink := &fakeSink{written: make(chan struct{}, 4)}
	m := New(sink, "H01", 0)
	m.Start()
	defer m.Stop()

	m.Publish("Explore", map[string]int{"tick": 1})
	select {
	case <-sink.written:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot not written")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.writes) != 1 || sink.writes[0] != "H01:Explore" {
		t.Errorf("writes = %v", sink.writes)
	}
	if sink.ttl != 30*time.Second {
		t.Errorf("ttl = %v, want default 30s", sink.ttl)
	}
}

func TestMonitorKeepsNewest(t *testing.T) {
	sink := &fakeSink{}
	m := New(sink, "H01", time.Minute)

	// Not started: the queue holds one entry and newer ones replace it.
	m.Publish("Explore", 1)
	m.Publish("Home", 2)
	m.Publish("Stop", 3)

	m.Start()
	m.Stop()

	if len(sink.writes) != 1 || sink.writes[0] != "H01:Stop" {
		t.Errorf("writes = %v, want only the newest", sink.writes)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	m := New(sink, "H01", time.Minute)
	m.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			m.Publish("Explore", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow sink")
	}
	close(sink.block)
	m.Stop()
}
