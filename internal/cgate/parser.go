package cgate

import (
	"strconv"
	"strings"
)

// Event is a parsed C-Gate event or status line, normalised to one shape
// regardless of whether it arrived as an unsolicited broadcast on the event
// socket or as a "300" object-status report on a command socket.
//
// Invariant: Valid is false whenever Address could not be parsed to exactly
// three components — callers must check Valid before reading Address.
type Event struct {
	DeviceType string
	Action     string
	Address    Address
	Level      *int
	Valid      bool
}

// ParseEventLine parses an unsolicited C-Gate event line of the shape
// "<deviceType> <action> <N>/<A>/<G>[ <level>][  <trailing metadata>]".
//
// Trailing metadata after a double space or "#" is ignored. Lines whose
// address does not resolve to exactly three components (e.g. clock
// broadcasts using a two-component address) come back with Valid=false
// rather than an error — per §8 invariant 1, "fewer than three address
// segments" is a normal, expected shape of input, not an exceptional one.
func ParseEventLine(line string) Event {
	line = stripTrailingMetadata(line)
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Event{}
	}

	deviceType := fields[0]
	action := fields[1]
	addrField := fields[2]

	addr, err := parseAddressField(addrField)
	if err != nil {
		return Event{DeviceType: deviceType, Action: action}
	}

	evt := Event{
		DeviceType: deviceType,
		Action:     action,
		Address:    addr,
		Valid:      true,
	}

	if len(fields) >= 4 {
		if n, err := strconv.Atoi(fields[3]); err == nil {
			evt.Level = &n
		}
	}

	return evt
}

// parseAddressField parses the address token of an event line, which may
// carry an optional "//<project>/" prefix (as seen on status lines and
// some broadcasts) ahead of the N/A/G triple.
func parseAddressField(field string) (Address, error) {
	field = stripProjectPrefix(field)
	return ParseAddress(field)
}

// stripProjectPrefix removes a leading "//<project>/" segment, if present,
// leaving whatever follows (which may or may not be a valid N/A/G triple —
// callers decide that by attempting ParseAddress on the result).
func stripProjectPrefix(field string) string {
	if !strings.HasPrefix(field, "//") {
		return field
	}
	rest := field[2:]
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return ""
	}
	return rest[idx+1:]
}

// stripTrailingMetadata drops anything after a double space or a "#"
// comment marker, whichever comes first.
func stripTrailingMetadata(line string) string {
	if idx := strings.Index(line, "  "); idx >= 0 {
		line = line[:idx]
	}
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return line
}

// ResponseLine is a parsed C-Gate command-socket response: a three-digit
// status code followed by a continuation ("-") or terminal (" ") separator
// and a payload.
type ResponseLine struct {
	Code         int
	Continuation bool
	Payload      string

	// HasAddress and Address are populated when the payload embeds a
	// "//project/N/A/G" object reference, as "300" status lines do.
	HasAddress bool
	Address    Address

	// Level is populated for "300" object-status lines carrying
	// "level=<n>".
	Level *int
}

// ParseResponseLine parses a C-Gate command-socket response line. Returns
// ok=false if the line does not begin with a three-digit status code.
func ParseResponseLine(line string) (ResponseLine, bool) {
	if len(line) < 4 {
		return ResponseLine{}, false
	}

	codeStr := line[:3]
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return ResponseLine{}, false
	}

	sep := line[3]
	var continuation bool
	switch sep {
	case '-':
		continuation = true
	case ' ':
		continuation = false
	default:
		return ResponseLine{}, false
	}

	payload := line[4:]
	resp := ResponseLine{
		Code:         code,
		Continuation: continuation,
		Payload:      payload,
	}

	if code == 300 {
		if addr, level, ok := parseObjectStatus(payload); ok {
			resp.HasAddress = true
			resp.Address = addr
			resp.Level = level
		}
	}

	return resp, true
}

// parseObjectStatus extracts the address and optional level from a "300"
// object-status payload, e.g. "//CLIPSAL/254/56/4: level=128".
func parseObjectStatus(payload string) (Address, *int, bool) {
	addrPart := payload
	if idx := strings.Index(payload, ":"); idx >= 0 {
		addrPart = payload[:idx]
	}
	addrPart = strings.TrimSpace(addrPart)

	addr, err := parseAddressField(addrPart)
	if err != nil {
		return Address{}, nil, false
	}

	var level *int
	if idx := strings.Index(payload, "level="); idx >= 0 {
		rest := payload[idx+len("level="):]
		end := len(rest)
		for i, r := range rest {
			if r < '0' || r > '9' {
				end = i
				break
			}
		}
		if end > 0 {
			if n, err := strconv.Atoi(rest[:end]); err == nil {
				level = &n
			}
		}
	}

	return addr, level, true
}

// IsBanner reports whether this response is the "201" service banner.
func (r ResponseLine) IsBanner() bool { return r.Code == 201 }

// IsSuccess reports whether this response is a plain "200" success.
func (r ResponseLine) IsSuccess() bool { return r.Code == 200 }

// IsObjectStatus reports whether this response is a "300" status report.
func (r ResponseLine) IsObjectStatus() bool { return r.Code == 300 }
