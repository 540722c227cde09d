package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/cgateweb/bridge/internal/cgate"
	"github.com/cgateweb/bridge/internal/mqttclient"
)

// deviceInfo groups every entity published for one C-Bus network under a
// single controller-side "device", per §4.4 step 5.
type deviceInfo struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name"`
	Manufacturer string  `json:"manufacturer"`
}

// configPayload is the JSON body published to
// <prefix>/<component>/<slug>/config.
type configPayload struct {
	Name         string     `json:"name"`
	UniqueID     string     `json:"unique_id"`
	StateTopic   string     `json:"state_topic,omitempty"`
	CommandTopic string     `json:"command_topic,omitempty"`

	BrightnessStateTopic   string `json:"brightness_state_topic,omitempty"`
	BrightnessCommandTopic string `json:"brightness_command_topic,omitempty"`
	BrightnessScale        int    `json:"brightness_scale,omitempty"`

	PositionTopic    string `json:"position_topic,omitempty"`
	SetPositionTopic string `json:"set_position_topic,omitempty"`

	PayloadOn  string `json:"payload_on,omitempty"`
	PayloadOff string `json:"payload_off,omitempty"`

	Device deviceInfo `json:"device"`
}

// buildConfigPayload constructs the discovery config JSON for one group.
// slug is the entity id used for both the config topic and unique_id — the
// tree-derived address slug unless the label map forces one, per §6
// entityIds.
func buildConfigPayload(network int, addr cgate.Address, class Class, name, slug string) ([]byte, error) {
	topics := mqttclient.Topics{}

	payload := configPayload{
		Name:     name,
		UniqueID: slug,
		Device: deviceInfo{
			Identifiers: []string{fmt.Sprintf("cgateweb_network_%d", network)},
			Name:        fmt.Sprintf("C-Bus network %d", network),
			Manufacturer: "Clipsal",
		},
	}

	switch class {
	case ClassLight:
		payload.StateTopic = topics.ReadState(addr.Network, addr.Application, addr.Group)
		payload.CommandTopic = topics.WriteSwitch(addr.Network, addr.Application, addr.Group)
		payload.BrightnessStateTopic = topics.ReadLevel(addr.Network, addr.Application, addr.Group)
		payload.BrightnessCommandTopic = topics.WriteRamp(addr.Network, addr.Application, addr.Group)
		payload.BrightnessScale = 100
		payload.PayloadOn = "ON"
		payload.PayloadOff = "OFF"
	case ClassSwitch, ClassRelay:
		payload.StateTopic = topics.ReadState(addr.Network, addr.Application, addr.Group)
		payload.CommandTopic = topics.WriteSwitch(addr.Network, addr.Application, addr.Group)
		payload.PayloadOn = "ON"
		payload.PayloadOff = "OFF"
	case ClassCover:
		payload.PositionTopic = topics.ReadLevel(addr.Network, addr.Application, addr.Group)
		payload.SetPositionTopic = topics.WritePosition(addr.Network, addr.Application, addr.Group)
	case ClassPIR:
		payload.StateTopic = topics.ReadState(addr.Network, addr.Application, addr.Group)
		payload.PayloadOn = "ON"
		payload.PayloadOff = "OFF"
	default:
		return nil, fmt.Errorf("discovery: unsupported class %q", class)
	}

	return json.Marshal(payload)
}
