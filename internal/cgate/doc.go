// Package cgate implements the C-Gate wire protocol: parsing event and
// response lines from the gateway, and encoding MQTT-originated commands
// into C-Gate verbs. It knows nothing about TCP sockets, MQTT, or timers —
// those concerns live in the pool, queue, router and discovery packages,
// which depend on this one rather than the other way round.
package cgate
