// Package router maps inbound cbus/write/... MQTT messages to C-Gate
// command strings and enqueues them on the throttled command queue. It is
// the MQTT-side mirror of internal/events.
package router

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cgateweb/bridge/internal/cgate"
	"github.com/cgateweb/bridge/internal/cgate/correlator"
)

// Enqueuer is the dispatch target for encoded commands, satisfied by
// *queue.Queue.
type Enqueuer interface {
	Enqueue(cmd string)
}

// Logger is the minimal logging surface the router needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Router decodes cbus/write/... topics and turns them into encoded C-Gate
// commands, per the command-encoder table.
type Router struct {
	project    string
	queue      Enqueuer
	correlator *correlator.Correlator
	logger     Logger

	onAnnounce   func()
	onAnnounceMu sync.RWMutex
}

// New constructs a Router. project is the C-Gate project name used to
// qualify every encoded command's address.
func New(project string, queue Enqueuer, corr *correlator.Correlator, logger Logger) *Router {
	return &Router{project: project, queue: queue, correlator: corr, logger: logger}
}

// SetAnnounceHandler registers the callback invoked when a message arrives
// on cbus/write/bridge/announce, per §6's discovery trigger (b).
func (r *Router) SetAnnounceHandler(fn func()) {
	r.onAnnounceMu.Lock()
	r.onAnnounce = fn
	r.onAnnounceMu.Unlock()
}

// HandleMQTT dispatches a single cbus/write/... message. Validation
// failures (bad topic shape, bad payload) are returned as errors rather
// than panicking; callers are expected to log and drop per §7.
func (r *Router) HandleMQTT(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != "cbus" || parts[1] != "write" {
		return fmt.Errorf("%w: %s", ErrUnrecognisedTopic, topic)
	}
	rest := parts[2:]

	if len(rest) == 2 && rest[0] == "bridge" && rest[1] == "announce" {
		r.fireAnnounce()
		return nil
	}

	if len(rest) != 4 {
		return fmt.Errorf("%w: %s", ErrUnrecognisedTopic, topic)
	}

	network, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("%w: bad network in %s", ErrUnrecognisedTopic, topic)
	}
	kind := rest[3]

	switch kind {
	case "getall":
		application, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("%w: bad application in %s", ErrUnrecognisedTopic, topic)
		}
		r.queue.Enqueue(cgate.EncodeGetAll(r.project, network, application))
		return nil
	case "gettree":
		r.queue.Enqueue(cgate.EncodeGetTree(network))
		return nil
	}

	application, err1 := strconv.Atoi(rest[1])
	group, err2 := strconv.Atoi(rest[2])
	if err1 != nil || err2 != nil {
		return fmt.Errorf("%w: bad group address in %s", ErrUnrecognisedTopic, topic)
	}
	addr := cgate.Address{Network: network, Application: application, Group: group}
	body := strings.TrimSpace(string(payload))

	switch kind {
	case "switch":
		return r.handleSwitch(addr, body)
	case "ramp":
		return r.handleRamp(addr, body)
	case "position":
		return r.handlePosition(addr, body)
	case "stop":
		r.queue.Enqueue(cgate.EncodeStop(r.project, addr))
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnrecognisedTopic, topic)
	}
}

func (r *Router) handleSwitch(addr cgate.Address, payload string) error {
	switch strings.ToUpper(payload) {
	case "ON":
		r.queue.Enqueue(cgate.EncodeSwitch(r.project, addr, true))
	case "OFF":
		r.queue.Enqueue(cgate.EncodeSwitch(r.project, addr, false))
	default:
		return fmt.Errorf("%w: switch payload %q", ErrInvalidPayload, payload)
	}
	return nil
}

func (r *Router) handlePosition(addr cgate.Address, payload string) error {
	pct, err := cgate.ParsePositionPayload(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	raw := cgate.RawOfPercent(pct)
	r.queue.Enqueue(cgate.EncodeRamp(r.project, addr, raw, ""))
	return nil
}

func (r *Router) handleRamp(addr cgate.Address, payload string) error {
	ramp, err := cgate.ParseRampPayload(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	switch ramp.Kind {
	case cgate.RampAbsolute:
		raw := cgate.RawOfPercent(ramp.Percent)
		r.queue.Enqueue(cgate.EncodeRamp(r.project, addr, raw, ramp.Duration))
		return nil
	case cgate.RampSwitch:
		r.queue.Enqueue(cgate.EncodeSwitch(r.project, addr, ramp.On))
		return nil
	case cgate.RampRelative:
		return r.handleRelative(addr, ramp.Increase)
	default:
		return fmt.Errorf("%w: unhandled ramp kind", ErrInvalidPayload)
	}
}

// handleRelative implements the INCREASE/DECREASE flow from §4.3/S5: a GET
// is issued for the current level, and the RAMP is only sent once the
// correlator matches the level response (or dropped on timeout).
func (r *Router) handleRelative(addr cgate.Address, increase bool) error {
	err := r.correlator.Register(addr, func(raw int) {
		clamped := cgate.ClampRelativeStep(raw, increase)
		r.queue.Enqueue(cgate.EncodeRamp(r.project, addr, clamped, ""))
	}, func() {
		if r.logger != nil {
			r.logger.Warn("relative-level request timed out without a matching response", "address", addr.String())
		}
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("dropping relative-level request, one already pending", "address", addr.String())
		}
		return nil
	}

	r.queue.Enqueue(cgate.EncodeGetLevel(r.project, addr))
	return nil
}

// HandleResponseLine feeds a C-Gate command-socket response line to the
// correlator. It is the only consumer of object-status response lines
// generated by a GET issued from handleRelative. Returns true if a pending
// relative-level operation consumed the line; false leaves it for the
// ordinary event-publishing path (e.g. every GET triggered by getall).
func (r *Router) HandleResponseLine(line string) bool {
	resp, ok := cgate.ParseResponseLine(line)
	if !ok || !resp.HasAddress || resp.Level == nil {
		return false
	}
	return r.correlator.Deliver(resp.Address, *resp.Level)
}

func (r *Router) fireAnnounce() {
	r.onAnnounceMu.RLock()
	fn := r.onAnnounce
	r.onAnnounceMu.RUnlock()
	if fn != nil {
		fn()
	} else if r.logger != nil {
		r.logger.Debug("bridge/announce received with no discovery handler registered")
	}
}
