package discovery

import "errors"

var (
	// ErrMalformedTree is returned when a TREEXML body parses under
	// neither of the two known encodings.
	ErrMalformedTree = errors.New("discovery: malformed TREEXML body")
	// ErrTreeTimeout is returned when no TREEXML response completes
	// within treeResponseTimeout.
	ErrTreeTimeout = errors.New("discovery: timed out waiting for TREEXML response")
)
