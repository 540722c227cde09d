// Package correlator implements the response correlator described in §4.3:
// a typed request/reply registry keyed by group address, replacing an
// event-emitter subscription model with a bounded, mutex-protected map.
// It exists solely to tie an asynchronous C-Gate level response back to the
// relative-level (INCREASE/DECREASE) operation that requested it.
package correlator

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cgateweb/bridge/internal/cgate"
)

// ErrPendingOpExists is returned by Register when a relative-level
// operation is already pending for the given address; per §4.3 step 5 the
// second request is rejected rather than queued.
var ErrPendingOpExists = errors.New("correlator: relative-level operation already pending for this address")

// defaultTimeout is the fixed wait for a matching level response, per §4.3.
const defaultTimeout = 5 * time.Second

// Logger is the minimal logging surface the correlator needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type pendingOp struct {
	onMatch func(raw int)
	timer   *time.Timer
	traceID string
}

// Correlator holds at most one pending relative-level operation per
// address. Every registered operation terminates in exactly one of
// {onMatch, onTimeout}, and the per-address listener table returns to its
// pre-op state in both cases.
type Correlator struct {
	mu      sync.Mutex
	pending map[cgate.Address]*pendingOp
	timeout time.Duration
	logger  Logger
}

// New constructs a Correlator. A zero timeout defaults to 5 seconds.
func New(timeout time.Duration, logger Logger) *Correlator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Correlator{
		pending: make(map[cgate.Address]*pendingOp),
		timeout: timeout,
		logger:  logger,
	}
}

// Register installs a one-shot listener for addr. onMatch fires exactly
// once if Deliver is called for addr before the timeout; onTimeout fires
// exactly once otherwise. Returns ErrPendingOpExists if addr already has a
// pending operation.
func (c *Correlator) Register(addr cgate.Address, onMatch func(raw int), onTimeout func()) error {
	c.mu.Lock()
	if _, exists := c.pending[addr]; exists {
		c.mu.Unlock()
		return ErrPendingOpExists
	}
	op := &pendingOp{onMatch: onMatch, traceID: uuid.NewString()}
	c.pending[addr] = op
	c.mu.Unlock()

	op.timer = time.AfterFunc(c.timeout, func() {
		c.mu.Lock()
		_, stillPending := c.pending[addr]
		if stillPending {
			delete(c.pending, addr)
		}
		c.mu.Unlock()

		if !stillPending {
			return
		}
		if c.logger != nil {
			c.logger.Warn("relative-level operation timed out", "address", addr.String(), "trace_id", op.traceID)
		}
		if onTimeout != nil {
			onTimeout()
		}
	})

	return nil
}

// Deliver matches an incoming level reading against any pending operation
// for addr. Returns true if an operation was pending and has now fired
// (and been removed); false if nothing was pending, in which case the
// event must be left for ordinary processing rather than consumed.
func (c *Correlator) Deliver(addr cgate.Address, raw int) bool {
	c.mu.Lock()
	op, exists := c.pending[addr]
	if exists {
		delete(c.pending, addr)
	}
	c.mu.Unlock()

	if !exists {
		return false
	}

	op.timer.Stop()
	if op.onMatch != nil {
		op.onMatch(raw)
	}
	return true
}

// Pending returns the current number of addresses with an in-flight
// relative-level operation.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
