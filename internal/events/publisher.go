// Package events maps parsed C-Gate event-socket lines to outbound MQTT
// publishes: the event-socket mirror of internal/router.
package events

import (
	"strconv"
	"strings"

	"github.com/cgateweb/bridge/internal/cgate"
	"github.com/cgateweb/bridge/internal/mqttclient"
)

// Publisher is the outbound MQTT surface the event publisher needs,
// satisfied by *mqttclient.Client.
type Publisher interface {
	PublishRead(topic, payload string) error
}

// Logger is the minimal logging surface the publisher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// EventPublisher turns C-Gate event lines into cbus/read/... publishes.
type EventPublisher struct {
	mqtt   Publisher
	logger Logger
}

// New constructs an EventPublisher.
func New(mqtt Publisher, logger Logger) *EventPublisher {
	return &EventPublisher{mqtt: mqtt, logger: logger}
}

// HandleLine parses and publishes a single event-socket line. An invalid
// address (e.g. a clock broadcast, per S3) is not an error condition: it
// is logged at debug and no MQTT message is emitted.
func (p *EventPublisher) HandleLine(line string) {
	ev := cgate.ParseEventLine(line)
	if !ev.Valid {
		if p.logger != nil {
			p.logger.Debug("dropping unparsable event line", "line", line)
		}
		return
	}

	raw, ok := resolveRaw(ev)
	if !ok {
		return
	}

	p.publishLevel(ev.Address, raw)
}

// HandleResponseLine publishes a command-socket "300" object-status line
// exactly as HandleLine publishes an event-socket line, for status lines
// that pass through the ordinary command-response path rather than being
// consumed by the correlator (e.g. every GET triggered by getall, per
// §4.1). Lines with no address or no level (other response codes, or a
// "300" with an unparsable object reference) are silently ignored.
func (p *EventPublisher) HandleResponseLine(line string) {
	resp, ok := cgate.ParseResponseLine(line)
	if !ok || !resp.HasAddress || resp.Level == nil {
		return
	}
	p.publishLevel(resp.Address, *resp.Level)
}

func (p *EventPublisher) publishLevel(addr cgate.Address, raw int) {
	topics := mqttclient.Topics{}
	state := "OFF"
	if raw > 0 {
		state = "ON"
	}
	pct := cgate.PercentOfRaw(raw)

	stateTopic := topics.ReadState(addr.Network, addr.Application, addr.Group)
	if err := p.mqtt.PublishRead(stateTopic, state); err != nil {
		if p.logger != nil {
			p.logger.Warn("failed to publish state", "topic", stateTopic, "error", err)
		}
	}

	levelTopic := topics.ReadLevel(addr.Network, addr.Application, addr.Group)
	if err := p.mqtt.PublishRead(levelTopic, strconv.Itoa(pct)); err != nil {
		if p.logger != nil {
			p.logger.Warn("failed to publish level", "topic", levelTopic, "error", err)
		}
	}
}

// resolveRaw determines the raw [0,255] level an event represents. A
// status line with an explicit level (S2) is used directly; a bare on/off
// action (S1) maps to the canonical LevelOn/LevelOff. Any other action
// (e.g. non-lighting device types) carries no level we can surface.
func resolveRaw(ev cgate.Event) (int, bool) {
	if ev.Level != nil {
		return *ev.Level, true
	}
	switch strings.ToLower(ev.Action) {
	case "on":
		return cgate.LevelOn, true
	case "off":
		return cgate.LevelOff, true
	}
	return 0, false
}
