package cgate

import (
	"fmt"
	"strconv"
	"strings"
)

// addressLevelCount is the number of slash-separated components in a
// canonical C-Bus group address.
const addressLevelCount = 3

// Address is a C-Bus group address: a (network, application, group) triple
// of small non-negative integers. It is the unit of dispatch for both the
// C-Gate and MQTT sides of the bridge.
type Address struct {
	Network     int
	Application int
	Group       int
}

// ParseAddress parses a canonical "N/A/G" address string. Lines that carry
// fewer than three segments (e.g. clock broadcasts) are rejected so callers
// can treat the two-segment case as an invalid record rather than a panic.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, "/")
	if len(parts) != addressLevelCount {
		return Address{}, fmt.Errorf("%w: expected N/A/G, got %q", ErrInvalidAddress, s)
	}

	network, err := strconv.Atoi(parts[0])
	if err != nil || network < 0 {
		return Address{}, fmt.Errorf("%w: network must be a non-negative integer, got %q", ErrInvalidAddress, parts[0])
	}

	application, err := strconv.Atoi(parts[1])
	if err != nil || application < 0 {
		return Address{}, fmt.Errorf("%w: application must be a non-negative integer, got %q", ErrInvalidAddress, parts[1])
	}

	group, err := strconv.Atoi(parts[2])
	if err != nil || group < 0 {
		return Address{}, fmt.Errorf("%w: group must be a non-negative integer, got %q", ErrInvalidAddress, parts[2])
	}

	return Address{Network: network, Application: application, Group: group}, nil
}

// String returns the address in canonical "N/A/G" form.
func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Network, a.Application, a.Group)
}

// CGatePath returns the address qualified with a C-Gate project slug, as
// used in command verbs: "//<project>/N/A/G".
func (a Address) CGatePath(project string) string {
	return fmt.Sprintf("//%s/%s", project, a.String())
}

// Slug returns the discovery-stable identifier for this address, e.g.
// "cgateweb_254_56_4".
func (a Address) Slug() string {
	return fmt.Sprintf("cgateweb_%d_%d_%d", a.Network, a.Application, a.Group)
}
