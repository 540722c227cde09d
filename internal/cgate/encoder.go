package cgate

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeSwitch encodes an ON/OFF command for a group address.
func EncodeSwitch(project string, addr Address, on bool) string {
	verb := "OFF"
	if on {
		verb = "ON"
	}
	return fmt.Sprintf("%s %s\n", verb, addr.CGatePath(project))
}

// EncodeRamp encodes a RAMP command to an absolute raw level, with an
// optional ramp duration literal (e.g. "5s", "2m"). Pass an empty duration
// to omit it.
func EncodeRamp(project string, addr Address, raw int, duration string) string {
	if duration == "" {
		return fmt.Sprintf("RAMP %s %d\n", addr.CGatePath(project), raw)
	}
	return fmt.Sprintf("RAMP %s %d %s\n", addr.CGatePath(project), raw, duration)
}

// EncodeStop encodes a TERMINATERAMP command.
func EncodeStop(project string, addr Address) string {
	return fmt.Sprintf("TERMINATERAMP %s\n", addr.CGatePath(project))
}

// EncodeGetLevel encodes a GET <addr> level command, used to sample the
// current raw level before a relative INCREASE/DECREASE adjustment.
func EncodeGetLevel(project string, addr Address) string {
	return fmt.Sprintf("GET %s level\n", addr.CGatePath(project))
}

// EncodeGetAll encodes a GET command across every group of a network and
// application, using a "*" wildcard in place of the group.
func EncodeGetAll(project string, network, application int) string {
	return fmt.Sprintf("GET //%s/%d/%d/*  level\n", project, network, application)
}

// EncodeGetTree encodes a TREEXML command for a network. Unlike every other
// command, TREEXML is not project-qualified.
func EncodeGetTree(network int) string {
	return fmt.Sprintf("TREEXML %d\n", network)
}

// RampPayloadKind distinguishes the three shapes a "/ramp" MQTT payload
// can take.
type RampPayloadKind int

const (
	// RampAbsolute sets a specific percentage, optionally with a ramp time.
	RampAbsolute RampPayloadKind = iota
	// RampSwitch is ON/OFF spelled on the ramp topic.
	RampSwitch
	// RampRelative is INCREASE/DECREASE, requiring §4.3 correlation.
	RampRelative
)

// RampPayload is a decoded "/ramp" (or "/position") MQTT payload.
type RampPayload struct {
	Kind     RampPayloadKind
	Percent  int
	Duration string
	On       bool
	Increase bool
}

// relativeStep is the raw-level step applied for INCREASE/DECREASE, ~10%
// of the full [0,255] range.
const relativeStep = 26

// ParseRampPayload decodes a "/ramp" MQTT payload per §4.1: "<0-100>",
// "<0-100>,<time>", "ON"/"OFF", or "INCREASE"/"DECREASE".
func ParseRampPayload(payload string) (RampPayload, error) {
	trimmed := strings.TrimSpace(payload)
	upper := strings.ToUpper(trimmed)

	switch upper {
	case "ON":
		return RampPayload{Kind: RampSwitch, On: true}, nil
	case "OFF":
		return RampPayload{Kind: RampSwitch, On: false}, nil
	case "INCREASE":
		return RampPayload{Kind: RampRelative, Increase: true}, nil
	case "DECREASE":
		return RampPayload{Kind: RampRelative, Increase: false}, nil
	}

	parts := strings.SplitN(trimmed, ",", 2)
	pct, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || pct < 0 || pct > 100 {
		return RampPayload{}, fmt.Errorf("%w: ramp percentage must be 0-100, got %q", ErrInvalidPayload, payload)
	}

	result := RampPayload{Kind: RampAbsolute, Percent: pct}
	if len(parts) == 2 {
		result.Duration = strings.TrimSpace(parts[1])
	}
	return result, nil
}

// ParsePositionPayload decodes a "/position" MQTT payload: a bare 0-100
// percentage.
func ParsePositionPayload(payload string) (int, error) {
	pct, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil || pct < 0 || pct > 100 {
		return 0, fmt.Errorf("%w: position percentage must be 0-100, got %q", ErrInvalidPayload, payload)
	}
	return pct, nil
}

// ClampRelativeStep applies an INCREASE/DECREASE adjustment to a raw level
// and clamps the result to [0, 255], per §4.3 step 3.
func ClampRelativeStep(raw int, increase bool) int {
	if increase {
		return clamp(raw+relativeStep, LevelOff, LevelOn)
	}
	return clamp(raw-relativeStep, LevelOff, LevelOn)
}
