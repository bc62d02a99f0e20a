package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/arpg/bobcat/blacklist"
	"github.com/arpg/bobcat/config"
	"github.com/arpg/bobcat/coordinator"
	"github.com/arpg/bobcat/protocol"
	"github.com/arpg/bobcat/store"
)

// LogFunc is the logging callback signature.
type LogFunc func(format string, args ...interface{})

// Input is one unit of work run on the decision loop goroutine.
type Input func(c *coordinator.Coordinator, now time.Time)

// Publisher sends envelopes to the team or the local stack.
type Publisher interface {
	Publish(topic string, env *protocol.Envelope) error
}

// SnapshotSink receives the per-tick snapshot for the team monitor.
type SnapshotSink interface {
	Publish(status string, v any)
}

const inputBuffer = 256

// Engine owns the coordinator and runs its decision loop. Every input is
// applied on the loop goroutine so the coordinator itself needs no locking.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	pub        Publisher
	monitor    SnapshotSink
	clock      func() time.Time
	logFn      LogFunc
	debugFn    LogFunc

	coord *coordinator.Coordinator

	inputs chan Input

	snapMu   sync.RWMutex
	snap     coordinator.Snapshot
	haveSnap bool

	Events   *EventBus
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Publisher  Publisher
	Monitor    SnapshotSink
	Clock      func() time.Time
	LogFunc    LogFunc
	Debug      bool
}

// New creates an Engine and its coordinator, replaying any persisted
// blacklist and beacon state. Call Start() to run the loop.
func New(c Config) (*Engine, error) {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = func(string, ...interface{}) {}
	}
	debugFn := LogFunc(func(string, ...interface{}) {})
	if c.Debug {
		debugFn = logFn
	}
	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}
	e := &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		pub:        c.Publisher,
		monitor:    c.Monitor,
		clock:      clock,
		logFn:      logFn,
		debugFn:    debugFn,
		inputs:     make(chan Input, inputBuffer),
		Events:     NewEventBus(clock),
		stopChan:   make(chan struct{}),
	}

	emit := &coordEmitter{bus: e.Events, agent: c.AppConfig.AgentID()}
	coord, err := coordinator.New(c.AppConfig, emit, clock())
	if err != nil {
		return nil, fmt.Errorf("create coordinator: %w", err)
	}
	e.coord = coord

	if err := e.restore(); err != nil {
		return nil, err
	}
	e.wireEventHandlers()
	return e, nil
}

// restore replays persisted state into the coordinator.
func (e *Engine) restore() error {
	if e.db == nil {
		return nil
	}
	id := e.cfg.AgentID()

	rows, err := e.db.ListBlacklistPoints(id)
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}
	pts := make([]blacklist.Point, 0, len(rows))
	for _, r := range rows {
		pts = append(pts, blacklist.Point{ID: r.ID, Position: r.Position, Radius: r.Radius, AddedAt: r.CreatedAt})
	}
	e.coord.RestoreBlacklist(pts)

	beacons, err := e.db.ListBeacons(id)
	if err != nil {
		return fmt.Errorf("load beacons: %w", err)
	}
	for _, b := range beacons {
		e.coord.RestoreBeacon(b.BeaconID, b.Position)
	}
	if len(pts) > 0 || len(beacons) > 0 {
		e.logFn("engine: restored %d blacklist points, %d beacons", len(pts), len(beacons))
	}
	return nil
}

// Start runs the decision loop until Stop.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.loop()
	e.logFn("Engine started: agent=%s mechanism=%s rate=%.1fHz", e.cfg.AgentID(), e.cfg.Deploy.Mechanism, e.cfg.Coordinator.Rate)
}

// Stop shuts the loop down. Safe to call more than once.
func (e *Engine) Stop() {
	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}
	e.wg.Wait()
	e.logFn("Engine stopped")
}

func (e *Engine) loop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case in := <-e.inputs:
			in(e.coord, e.clock())
		case <-ticker.C:
			e.step()
		}
	}
}

// step applies everything queued so far, then runs one tick.
func (e *Engine) step() {
	e.drainInputs()
	e.coord.Tick(e.clock())
}

func (e *Engine) drainInputs() {
	for {
		select {
		case in := <-e.inputs:
			in(e.coord, e.clock())
		default:
			return
		}
	}
}

// Post queues an input for the loop. It never blocks; when the queue is
// full the input is dropped and false is returned.
func (e *Engine) Post(in Input) bool {
	select {
	case e.inputs <- in:
		return true
	default:
		log.Printf("engine: input queue full, dropping input")
		return false
	}
}

// Snapshot returns the state after the most recent tick.
func (e *Engine) Snapshot() (coordinator.Snapshot, bool) {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap, e.haveSnap
}

func (e *Engine) setSnapshot(s coordinator.Snapshot) {
	e.snapMu.Lock()
	e.snap = s
	e.haveSnap = true
	e.snapMu.Unlock()
}

// SubmitTask queues an operator task as if it arrived from the GUI.
func (e *Engine) SubmitTask(target, name, value, actor string) error {
	if name == "" {
		return fmt.Errorf("task name is required")
	}
	if target == "" {
		target = e.cfg.AgentID()
	}
	t := protocol.GUITask{Target: target, Name: name, Value: value}
	if !e.Post(func(c *coordinator.Coordinator, now time.Time) { c.GUITask(t, now) }) {
		return fmt.Errorf("engine busy, task %s=%s not queued", name, value)
	}
	if e.db != nil {
		if err := e.db.AppendAudit(target, "task", "", name+"="+value, actor); err != nil {
			log.Printf("engine: audit task: %v", err)
		}
	}
	e.Events.Emit(Event{Type: EventTaskSubmitted, Payload: TaskSubmittedEvent{
		Target: target, Name: name, Value: value, Actor: actor,
	}})
	return nil
}

// Accept is the ingest filter: messages addressed to this robot, to
// everyone, or to no one in particular. Our own team broadcasts are
// dropped.
func (e *Engine) Accept(hdr *protocol.RawHeader) bool {
	id := e.cfg.AgentID()
	if hdr.Type == protocol.TypeAgentState && hdr.Src.Node == id {
		return false
	}
	switch hdr.Dst.Node {
	case "", protocol.Broadcast, id:
		return true
	}
	return false
}

// DB returns the database handle. It may be nil.
func (e *Engine) DB() *store.DB { return e.db }

// AppConfig returns the app config.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// ConfigPath returns the config file path.
func (e *Engine) ConfigPath() string { return e.configPath }
