package router

import "errors"

var (
	// ErrUnrecognisedTopic is returned for a cbus/write/... topic that does
	// not match any known command shape.
	ErrUnrecognisedTopic = errors.New("router: unrecognised mqtt write topic")
	// ErrInvalidPayload is returned when a topic is recognised but its
	// payload cannot be parsed into a command.
	ErrInvalidPayload = errors.New("router: invalid command payload")
)
