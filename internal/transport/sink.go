// Package transport implements C1: the byte-level delivery sinks (TCP/TLS,
// UDP, multicast). Each sink is a value exposing Send and Close, per the
// redesign note in spec.md §9 ("model each sink as a value with explicit
// send and close; reconnect is a method on the TCP sink, not a
// free-standing loop").
package transport

import "errors"

// ErrDown is returned by Send when a sink has no live transport and cannot
// deliver the payload. It corresponds to spec.md §7's TransportDown.
var ErrDown = errors.New("transport down")

// Sink is the abstract contract shared by every C1 transport.
type Sink interface {
	Send(payload []byte) error
	Close() error
}
