// Package discovery walks the C-Bus network tree via TREEXML and publishes
// one self-describing MQTT configuration message per recognised group, per
// §4.4.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cgateweb/bridge/internal/cgate"
	"github.com/cgateweb/bridge/internal/config"
	"github.com/cgateweb/bridge/internal/mqttclient"
)

// treeResponseTimeout bounds how long a single network's TREEXML walk
// waits for its terminal "343 " response line.
const treeResponseTimeout = 10 * time.Second

// Enqueuer is the dispatch target for TREEXML requests, satisfied by
// *queue.Queue.
type Enqueuer interface {
	Enqueue(cmd string)
}

// Publisher is the outbound MQTT surface discovery needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Engine walks each configured network's tree and publishes discovery
// config messages. A single Engine coalesces every trigger it receives
// while a walk is already running, satisfying §4.4 step 6.
type Engine struct {
	cfg     config.DiscoveryConfig
	queue   Enqueuer
	mqtt    Publisher
	logger  Logger
	labels  *LabelMapWatcher

	runMu   sync.Mutex
	running bool

	collectMu  sync.Mutex
	collecting bool
	buf        []byte
	resultCh   chan string
}

// New constructs a discovery Engine.
func New(cfg config.DiscoveryConfig, queue Enqueuer, mqtt Publisher, labels *LabelMapWatcher, logger Logger) *Engine {
	return &Engine{cfg: cfg, queue: queue, mqtt: mqtt, labels: labels, logger: logger}
}

// Trigger starts a tree walk across every configured network, unless one
// is already in flight, in which case this call is a silent no-op.
func (e *Engine) Trigger(ctx context.Context) {
	e.runMu.Lock()
	if e.running {
		e.runMu.Unlock()
		if e.logger != nil {
			e.logger.Debug("discovery already in flight, coalescing trigger")
		}
		return
	}
	e.running = true
	e.runMu.Unlock()

	go func() {
		defer func() {
			e.runMu.Lock()
			e.running = false
			e.runMu.Unlock()
		}()

		for _, network := range e.cfg.Networks {
			if err := e.walkNetwork(ctx, network); err != nil {
				if e.logger != nil {
					e.logger.Warn("discovery walk failed", "network", network, "error", err)
				}
			}
		}
	}()
}

func (e *Engine) walkNetwork(ctx context.Context, network int) error {
	resultCh := make(chan string, 1)

	e.collectMu.Lock()
	e.collecting = true
	e.buf = e.buf[:0]
	e.resultCh = resultCh
	e.collectMu.Unlock()

	e.queue.Enqueue(cgate.EncodeGetTree(network))

	var body string
	select {
	case body = <-resultCh:
	case <-time.After(treeResponseTimeout):
		e.collectMu.Lock()
		e.collecting = false
		e.collectMu.Unlock()
		return ErrTreeTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	tree, err := parseTreeXML(body)
	if err != nil {
		return err
	}

	treeJSON, err := treeToJSON(tree)
	if err == nil {
		topic := mqttclient.Topics{}.ReadTree(network)
		if pubErr := e.mqtt.Publish(topic, treeJSON, 0, false); pubErr != nil && e.logger != nil {
			e.logger.Warn("failed to publish tree JSON", "network", network, "error", pubErr)
		}
	}

	e.publishGroups(network, tree)
	return nil
}

// HandleResponseLine feeds a C-Gate command-socket response line to the
// in-flight tree collector. Lines observed while no walk is collecting are
// ignored, leaving them for the ordinary response-handling paths.
func (e *Engine) HandleResponseLine(line string) {
	resp, ok := cgate.ParseResponseLine(line)
	if !ok || resp.Code != 343 {
		return
	}

	e.collectMu.Lock()
	if !e.collecting {
		e.collectMu.Unlock()
		return
	}
	e.buf = append(e.buf, resp.Payload...)
	if resp.Continuation {
		e.collectMu.Unlock()
		return
	}

	body := string(e.buf)
	ch := e.resultCh
	e.collecting = false
	e.collectMu.Unlock()

	if ch != nil {
		ch <- body
	}
}

func (e *Engine) publishGroups(network int, tree treeResult) {
	labels := e.labels.Current()

	for _, g := range tree.Groups {
		addr := cgate.Address{Network: network, Application: g.Application, Group: g.Group}
		addrKey := addr.String()

		if labels.Excluded(addrKey) {
			continue
		}

		class, ok := e.resolveClass(addrKey, g.Application, labels)
		if !ok {
			continue
		}

		name := g.Name
		if labelName, ok := labels.Name(addrKey); ok {
			name = labelName
		}
		if name == "" {
			name = addrKey
		}

		slug := addr.Slug()
		if forced, ok := labels.EntityID(addrKey); ok {
			slug = forced
		}

		payload, err := buildConfigPayload(network, addr, class, name, slug)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("failed to build discovery payload", "address", addrKey, "error", err)
			}
			continue
		}

		topic := mqttclient.Topics{}.DiscoveryConfig(e.cfg.Prefix, class.Component(), slug)
		if err := e.mqtt.Publish(topic, payload, 1, true); err != nil {
			if e.logger != nil {
				e.logger.Warn("failed to publish discovery config", "topic", topic, "error", err)
			}
		}
	}
}

// resolveClass applies the label-map-vs-tree tie-break: a recognised
// typeOverride wins outright; an unrecognised one is warned and the tree
// classification is used instead.
func (e *Engine) resolveClass(addrKey string, applicationID int, labels *LabelMap) (Class, bool) {
	if override, ok := labels.TypeOverride(addrKey); ok {
		if class, ok := classFromOverride(override); ok {
			return class, true
		}
		if e.logger != nil {
			e.logger.Warn("unrecognised label-map type override, falling back to tree classification",
				"address", addrKey, "override", override)
		}
	}
	return classify(applicationID, e.cfg)
}

func treeToJSON(tree treeResult) ([]byte, error) {
	type group struct {
		Application int    `json:"application"`
		Group       int    `json:"group"`
		Name        string `json:"name,omitempty"`
	}
	type payload struct {
		Network string  `json:"network,omitempty"`
		Groups  []group `json:"groups"`
	}
	out := payload{Network: tree.NetworkName}
	for _, g := range tree.Groups {
		out.Groups = append(out.Groups, group{Application: g.Application, Group: g.Group, Name: g.Name})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("discovery: marshal tree json: %w", err)
	}
	return b, nil
}
