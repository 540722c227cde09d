package mqttclient

import "fmt"

// Topic prefixes per the MQTT topic table.
const (
	readPrefix  = "cbus/read"
	writePrefix = "cbus/write"
	helloTopic  = "hello/cgateweb"
)

// Topics builds the bridge's MQTT topic strings. Using these helpers
// keeps topic naming consistent between the router, the event publisher
// and discovery.
type Topics struct{}

// ReadState returns the on/off state topic for a group, e.g.
// cbus/read/254/56/4/state.
func (Topics) ReadState(network, application, group int) string {
	return fmt.Sprintf("%s/%d/%d/%d/state", readPrefix, network, application, group)
}

// ReadLevel returns the percentage-level topic for a group, e.g.
// cbus/read/254/56/4/level.
func (Topics) ReadLevel(network, application, group int) string {
	return fmt.Sprintf("%s/%d/%d/%d/level", readPrefix, network, application, group)
}

// ReadTree returns the TREEXML-as-JSON topic for a network, e.g.
// cbus/read/254///tree.
func (Topics) ReadTree(network int) string {
	return fmt.Sprintf("%s/%d///tree", readPrefix, network)
}

// Hello is the bridge's online/offline (LWT) status topic.
func (Topics) Hello() string {
	return helloTopic
}

// WriteSwitch is the inbound on/off command topic for a group.
func (Topics) WriteSwitch(network, application, group int) string {
	return fmt.Sprintf("%s/%d/%d/%d/switch", writePrefix, network, application, group)
}

// WriteRamp is the inbound ramp/dim command topic for a group.
func (Topics) WriteRamp(network, application, group int) string {
	return fmt.Sprintf("%s/%d/%d/%d/ramp", writePrefix, network, application, group)
}

// WritePosition is the inbound cover-position command topic for a group.
func (Topics) WritePosition(network, application, group int) string {
	return fmt.Sprintf("%s/%d/%d/%d/position", writePrefix, network, application, group)
}

// WriteStop is the inbound stop-ramp command topic for a group.
func (Topics) WriteStop(network, application, group int) string {
	return fmt.Sprintf("%s/%d/%d/%d/stop", writePrefix, network, application, group)
}

// WriteGetAll is the inbound "request all group levels on this
// application" topic.
func (Topics) WriteGetAll(network, application int) string {
	return fmt.Sprintf("%s/%d/%d//getall", writePrefix, network, application)
}

// WriteGetTree is the inbound "request the unit tree for this network"
// topic.
func (Topics) WriteGetTree(network int) string {
	return fmt.Sprintf("%s/%d///gettree", writePrefix, network)
}

// WriteAnnounce is the inbound discovery-trigger topic.
func (Topics) WriteAnnounce() string {
	return fmt.Sprintf("%s/bridge/announce", writePrefix)
}

// AllWrites is the wildcard subscription pattern that captures every
// inbound command topic, including WriteAnnounce.
func (Topics) AllWrites() string {
	return writePrefix + "/#"
}

// DiscoveryConfig returns the self-describing configuration topic for a
// group, e.g. homeassistant/light/cgateweb_254_56_4/config.
func (Topics) DiscoveryConfig(prefix, component, slug string) string {
	return fmt.Sprintf("%s/%s/%s/config", prefix, component, slug)
}
