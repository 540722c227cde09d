package pool

import "errors"

var (
	// ErrNoHealthyConnections is returned by Execute when every slot is
	// currently unhealthy.
	ErrNoHealthyConnections = errors.New("pool: no healthy connections")
)
