package cgate

import "errors"

// Sentinel errors for the protocol layer. Wrapped with %w at the call site
// so callers can still errors.Is against the sentinel.
var (
	ErrInvalidAddress  = errors.New("cgate: invalid group address")
	ErrInvalidLine     = errors.New("cgate: invalid protocol line")
	ErrInvalidPayload  = errors.New("cgate: invalid command payload")
	ErrUnknownTopic    = errors.New("cgate: unrecognised mqtt topic suffix")
	ErrMissingGroup    = errors.New("cgate: group address required for this command kind")
)
