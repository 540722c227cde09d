package events

import "errors"

// ErrUnparsableLine describes an event-socket line that does not resolve
// to a valid address. HandleLine does not return it: such lines (e.g.
// clock broadcasts) are an expected shape of input and are logged at debug
// and dropped.
var ErrUnparsableLine = errors.New("events: line did not parse to a valid group address")
