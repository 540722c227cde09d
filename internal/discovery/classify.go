package discovery

import "github.com/cgateweb/bridge/internal/config"

// lightingApplicationID is always classified as a dimmable light,
// regardless of any configured app-id override, per §4.4.
const lightingApplicationID = 56

// Class is a recognised C-Bus group classification.
type Class string

const (
	ClassLight  Class = "light"
	ClassCover  Class = "cover"
	ClassSwitch Class = "switch"
	ClassRelay  Class = "relay"
	ClassPIR    Class = "pir"
)

// Component returns the Home-Assistant-style MQTT discovery component
// this class publishes under.
func (c Class) Component() string {
	switch c {
	case ClassLight:
		return "light"
	case ClassCover:
		return "cover"
	case ClassSwitch, ClassRelay:
		return "switch"
	case ClassPIR:
		return "binary_sensor"
	default:
		return ""
	}
}

// classify resolves a group's Class from its application ID, applying the
// Cover > Switch > Relay > PIR priority when an ID appears in more than one
// configured list. Unmatched IDs return ok=false and must be skipped
// silently by the caller.
func classify(applicationID int, cfg config.DiscoveryConfig) (Class, bool) {
	if applicationID == lightingApplicationID {
		return ClassLight, true
	}
	switch {
	case containsInt(cfg.CoverAppIDs, applicationID):
		return ClassCover, true
	case containsInt(cfg.SwitchAppIDs, applicationID):
		return ClassSwitch, true
	case containsInt(cfg.RelayAppIDs, applicationID):
		return ClassRelay, true
	case containsInt(cfg.PIRAppIDs, applicationID):
		return ClassPIR, true
	default:
		return "", false
	}
}

// classFromOverride maps a label-map typeOverrides string onto a Class. An
// unrecognised value returns ok=false so the caller can fall back to tree
// classification, per the label-map-vs-tree Open Question decision.
func classFromOverride(value string) (Class, bool) {
	switch Class(value) {
	case ClassLight, ClassCover, ClassSwitch, ClassRelay, ClassPIR:
		return Class(value), true
	default:
		return "", false
	}
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
