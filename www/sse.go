package www

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arpg/bobcat/engine"
)

// SSEEvent is the typed envelope sent to SSE clients.
type SSEEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// sseClient is one connected browser. types is empty for "everything".
type sseClient struct {
	events chan SSEEvent
	types  map[string]bool
}

func (c *sseClient) wants(evtType string) bool {
	return len(c.types) == 0 || c.types[evtType]
}

// EventHub fans engine events out to SSE clients. Slow clients lose events
// rather than stall the decision loop.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	latest  *SSEEvent // most recent state, replayed to new clients

	broadcast chan SSEEvent
	stopChan  chan struct{}
}

// NewEventHub creates a new EventHub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[*sseClient]struct{}),
		broadcast: make(chan SSEEvent, 256),
		stopChan:  make(chan struct{}),
	}
}

// Start begins the fan-out loop.
func (h *EventHub) Start() { go h.run() }

// Stop shuts the hub down and ends every open stream.
func (h *EventHub) Stop() {
	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}
}

// Broadcast queues evt for every interested client.
func (h *EventHub) Broadcast(evt SSEEvent) {
	select {
	case h.broadcast <- evt:
	default:
	}
}

func (h *EventHub) run() {
	for {
		select {
		case <-h.stopChan:
			return
		case evt := <-h.broadcast:
			h.mu.Lock()
			if evt.Type == "state" {
				e := evt
				h.latest = &e
			}
			for c := range h.clients {
				if !c.wants(evt.Type) {
					continue
				}
				select {
				case c.events <- evt:
				default:
				}
			}
			h.mu.Unlock()
		}
	}
}

// join registers c and primes it with the latest state.
func (h *EventHub) join(c *sseClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.latest != nil && c.wants(h.latest.Type) {
		c.events <- *h.latest
	}
}

func (h *EventHub) leave(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *EventHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// parseTypes reads ?types=state,beacon into a filter set.
func parseTypes(q string) map[string]bool {
	if q == "" {
		return nil
	}
	types := make(map[string]bool)
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	return types
}

func writeSSE(w io.Writer, evt SSEEvent) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return err
}

// HandleSSE streams events to one client. ?types= limits the stream to
// the listed event types.
func (h *EventHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := &sseClient{
		events: make(chan SSEEvent, 64),
		types:  parseTypes(r.URL.Query().Get("types")),
	}
	h.join(client)
	defer h.leave(client)

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.stopChan:
			return
		case evt := <-client.events:
			if err := writeSSE(w, evt); err != nil {
				log.Printf("www: sse %s: %v", evt.Type, err)
				continue
			}
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// toSSE maps an engine event to its SSE form. Directives to the local
// stack are not forwarded.
func toSSE(evt engine.Event) (SSEEvent, bool) {
	switch evt.Type {
	case engine.EventSnapshot:
		p := evt.Payload.(engine.SnapshotEvent)
		return SSEEvent{Type: "state", Data: p.Snapshot}, true
	case engine.EventModeChanged:
		return SSEEvent{Type: "mode-change", Data: evt.Payload}, true
	case engine.EventBlacklistAdded:
		p := evt.Payload.(engine.BlacklistAddedEvent)
		return SSEEvent{Type: "blacklist", Data: p.Point}, true
	case engine.EventBeaconActivated:
		return SSEEvent{Type: "beacon", Data: evt.Payload}, true
	case engine.EventDeployStateChanged:
		return SSEEvent{Type: "deploy-update", Data: evt.Payload}, true
	case engine.EventDeployFinished:
		a := evt.Payload.(engine.DeployFinishedEvent).Attempt
		data := map[string]interface{}{
			"attempt_id": a.ID,
			"beacon_id":  a.BeaconID,
			"reason":     a.Reason,
			"succeeded":  a.Succeeded(),
		}
		if a.Err != nil {
			data["error"] = a.Err.Error()
		}
		return SSEEvent{Type: "deploy-finished", Data: data}, true
	case engine.EventTaskSubmitted:
		return SSEEvent{Type: "task", Data: evt.Payload}, true
	}
	return SSEEvent{}, false
}

// SetupEngineListeners wires engine events to SSE broadcasts.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	eng.Events.Subscribe(func(evt engine.Event) {
		if sseEvt, ok := toSSE(evt); ok {
			h.Broadcast(sseEvt)
		}
	})
	log.Printf("SSE listeners wired to engine events")
}
