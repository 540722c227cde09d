// Package pool implements the C-Gate command-socket connection pool: a
// fixed-size array of slots, round-robin dispatch over a cached healthy
// set, periodic health-check and keep-alive probing, and per-slot
// exponential-backoff reconnection. Retry counts live on the pool, not on
// the connection object, so a fresh socket never resets backoff state
// prematurely.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Connector is the minimal socket interface the pool drives. transport.Conn
// implements it; tests substitute a fake.
type Connector interface {
	Send(ctx context.Context, line string) error
	IsConnected() bool
	Close() error
}

// DialFunc opens a new connection for the given slot index, wiring onLine
// as the line-received callback. Returning a non-nil error leaves the slot
// unhealthy and starts its reconnect schedule.
type DialFunc func(ctx context.Context, slotIndex int, onLine func(line string)) (Connector, error)

// Logger is the minimal logging surface the pool needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures pool sizing and timer periods.
type Config struct {
	Size                int
	HealthCheckInterval time.Duration
	KeepAliveInterval   time.Duration
}

type slot struct {
	index int
	conn  Connector
}

// Stats is an in-memory snapshot of pool activity, used for the health
// status publish (no persistent storage is involved).
type Stats struct {
	Size              int
	Healthy           int
	ReconnectAttempts uint64
}

// Pool owns N command-socket slots. All mutable pool state (healthySet,
// the healthy-array cache, retryCounts, pendingReconnects, and each slot's
// current connection) is guarded by a single mutex, per §5.
type Pool struct {
	cfg    Config
	dial   DialFunc
	logger Logger

	mu                sync.Mutex
	slots             []slot
	healthySet        map[int]bool
	healthyCache      []int
	cacheValid        bool
	retryCounts       []int
	pendingReconnects map[int]bool
	reconnectTimers   map[int]*time.Timer
	cursor            int
	started           bool
	shuttingDown      bool

	onLineMu sync.RWMutex
	onLine   func(slot int, line string)

	healthDone chan struct{}
	healthWG   sync.WaitGroup

	reconnectAttempts atomic.Uint64
}

// New constructs a Pool with cfg.Size slots. dial is called once per slot
// per connection attempt.
func New(cfg Config, dial DialFunc, logger Logger) *Pool {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	return &Pool{
		cfg:               cfg,
		dial:              dial,
		logger:            logger,
		slots:             make([]slot, cfg.Size),
		healthySet:        make(map[int]bool, cfg.Size),
		retryCounts:       make([]int, cfg.Size),
		pendingReconnects: make(map[int]bool, cfg.Size),
		reconnectTimers:   make(map[int]*time.Timer, cfg.Size),
	}
}

// SetOnLine sets the callback invoked for every line read from any slot.
func (p *Pool) SetOnLine(cb func(slot int, line string)) {
	p.onLineMu.Lock()
	p.onLine = cb
	p.onLineMu.Unlock()
}

// Start attempts to open all slots concurrently and returns as soon as at
// least one is healthy; slots that fail begin their reconnect schedule
// immediately. Calling Start twice without an intervening Stop logs a
// warning and is a no-op.
func (p *Pool) Start(ctx context.Context) error {
	for i := range p.slots {
		p.slots[i].index = i
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		p.logWarn("pool start called while already started")
		return nil
	}
	p.started = true
	p.shuttingDown = false
	p.mu.Unlock()

	p.healthDone = make(chan struct{})
	p.healthWG.Add(2)
	go p.runHealthCheck()
	go p.runKeepAlive()

	healthy := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)
	for i := range p.slots {
		idx := i
		g.Go(func() error {
			if err := p.connectSlot(gctx, idx); err != nil {
				p.logWarn("slot failed to connect at startup", "slot", idx, "error", err)
				p.scheduleReconnect(idx)
				return nil
			}
			select {
			case healthy <- struct{}{}:
			default:
			}
			return nil
		})
	}

	allDone := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(allDone)
	}()

	select {
	case <-healthy:
		return nil
	case <-allDone:
		if p.HealthyCount() == 0 {
			return ErrNoHealthyConnections
		}
		return nil
	}
}

// Stop marks the pool as shutting down, cancels pending reconnects, closes
// every socket, and resets retry counts to zero. A second call is a silent
// no-op.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.shuttingDown {
		p.mu.Unlock()
		return
	}
	p.shuttingDown = true
	p.started = false

	for _, t := range p.reconnectTimers {
		t.Stop()
	}
	p.reconnectTimers = make(map[int]*time.Timer, len(p.slots))
	p.pendingReconnects = make(map[int]bool, len(p.slots))

	conns := make([]Connector, 0, len(p.slots))
	for i := range p.slots {
		if p.slots[i].conn != nil {
			conns = append(conns, p.slots[i].conn)
			p.slots[i].conn = nil
		}
	}
	p.healthySet = make(map[int]bool, len(p.slots))
	p.cacheValid = false
	for i := range p.retryCounts {
		p.retryCounts[i] = 0
	}
	p.mu.Unlock()

	if p.healthDone != nil {
		close(p.healthDone)
		p.healthWG.Wait()
	}

	for _, c := range conns {
		c.Close()
	}
}

// Execute writes cmd to one healthy slot chosen by round-robin. There is no
// internal retry: a write failure demotes the slot and surfaces an error to
// the caller, exactly as §4.2 specifies. Exhausting all healthy slots
// returns ErrNoHealthyConnections.
func (p *Pool) Execute(ctx context.Context, cmd string) error {
	idx, conn, ok := p.pickHealthy()
	if !ok {
		return ErrNoHealthyConnections
	}

	if err := conn.Send(ctx, cmd); err != nil {
		p.demote(idx)
		return err
	}
	return nil
}

// HealthyCount returns the number of slots currently in the healthy set.
func (p *Pool) HealthyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.healthySet)
}

// Stats returns an in-memory activity snapshot.
func (p *Pool) Stats() Stats {
	return Stats{
		Size:              len(p.slots),
		Healthy:           p.HealthyCount(),
		ReconnectAttempts: p.reconnectAttempts.Load(),
	}
}

func (p *Pool) pickHealthy() (int, Connector, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cache := p.healthyCacheLocked()
	if len(cache) == 0 {
		return 0, nil, false
	}
	idx := cache[p.cursor%len(cache)]
	p.cursor++
	return idx, p.slots[idx].conn, true
}

// healthyCacheLocked returns the cached healthy-slot index array, rebuilding
// it if the set has changed since the last observation. Must be called with
// mu held.
func (p *Pool) healthyCacheLocked() []int {
	if !p.cacheValid {
		p.healthyCache = p.healthyCache[:0]
		for i := range p.slots {
			if p.healthySet[i] {
				p.healthyCache = append(p.healthyCache, i)
			}
		}
		p.cacheValid = true
	}
	return p.healthyCache
}

func (p *Pool) markHealthyLocked(i int) {
	if !p.healthySet[i] {
		p.healthySet[i] = true
		p.cacheValid = false
	}
	delete(p.pendingReconnects, i)
}

func (p *Pool) demoteLocked(i int) {
	if p.healthySet[i] {
		delete(p.healthySet, i)
		p.cacheValid = false
	}
}

func (p *Pool) connectSlot(ctx context.Context, i int) error {
	conn, err := p.dial(ctx, i, func(line string) { p.dispatchLine(i, line) })
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		conn.Close()
		return nil
	}
	p.slots[i].conn = conn
	p.markHealthyLocked(i)
	p.retryCounts[i] = 0
	p.mu.Unlock()
	return nil
}

// demote removes slot i from the healthy set, closes its connection, and
// schedules a reconnect. Safe to call even if i is already unhealthy.
func (p *Pool) demote(i int) {
	p.mu.Lock()
	p.demoteLocked(i)
	conn := p.slots[i].conn
	p.slots[i].conn = nil
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	p.scheduleReconnect(i)
}

func (p *Pool) scheduleReconnect(i int) {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return
	}
	if p.pendingReconnects[i] {
		p.mu.Unlock()
		return
	}
	p.pendingReconnects[i] = true
	retry := p.retryCounts[i]
	delay := BackoffDelay(retry)
	p.retryCounts[i] = retry + 1
	p.mu.Unlock()

	p.reconnectAttempts.Add(1)

	timer := time.AfterFunc(delay, func() { p.attemptReconnect(i) })

	p.mu.Lock()
	p.reconnectTimers[i] = timer
	p.mu.Unlock()
}

func (p *Pool) attemptReconnect(i int) {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return
	}
	delete(p.pendingReconnects, i)
	p.mu.Unlock()

	if err := p.connectSlot(context.Background(), i); err != nil {
		p.logWarn("reconnect failed", "slot", i, "error", err)
		p.scheduleReconnect(i)
	}
}

func (p *Pool) runHealthCheck() {
	defer p.healthWG.Done()
	ticker := time.NewTicker(p.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.healthDone:
			return
		case <-ticker.C:
			p.checkHealth()
		}
	}
}

// checkHealth verifies each slot is in the expected state; on inconsistency
// it removes the slot from the healthy set, per §4.2.
func (p *Pool) checkHealth() {
	for i := range p.slots {
		p.mu.Lock()
		conn := p.slots[i].conn
		markedHealthy := p.healthySet[i]
		p.mu.Unlock()

		connected := conn != nil && conn.IsConnected()
		if markedHealthy && !connected {
			p.demote(i)
		}
	}
}

func (p *Pool) runKeepAlive() {
	defer p.healthWG.Done()
	ticker := time.NewTicker(p.cfg.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.healthDone:
			return
		case <-ticker.C:
			p.sendKeepAlive()
		}
	}
}

// sendKeepAlive writes a benign comment line to every healthy slot; a
// write failure demotes that slot.
func (p *Pool) sendKeepAlive() {
	p.mu.Lock()
	snapshot := append([]int(nil), p.healthyCacheLocked()...)
	p.mu.Unlock()

	for _, i := range snapshot {
		p.mu.Lock()
		conn := p.slots[i].conn
		p.mu.Unlock()
		if conn == nil {
			continue
		}
		if err := conn.Send(context.Background(), "#\n"); err != nil {
			p.demote(i)
		}
	}
}

func (p *Pool) logWarn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pool) dispatchLine(i int, line string) {
	p.onLineMu.RLock()
	cb := p.onLine
	p.onLineMu.RUnlock()
	if cb != nil {
		cb(i, line)
	}
}
