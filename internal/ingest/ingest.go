// Package ingest implements C3's event-loop glue: it owns the two upstream
// subscribe connections, decodes JSON-per-message frames off each, and
// drives the registry's tick() on a single cooperative loop thread.
//
// Grounded on original_source/dragonsync.py's main(): a ZMQ SUB socket pair
// polled together with a ~1s bounded wait, at most one message consumed per
// endpoint per iteration, then tick(). This module has no ZeroMQ analogue
// in the dependency pack (see DESIGN.md), so the subscribe transport is a
// plain TCP stream carrying concatenated JSON values, read with
// encoding/json.Decoder — the same "receive whatever arrives, decode one
// value at a time" contract recv_json() gives the Python original.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"time"
)

// Endpoint is one upstream subscribe connection.
type Endpoint struct {
	name string
	addr string
	conn net.Conn
	out  chan []byte
}

// NewEndpoint dials addr immediately (matching the original's connect-at-
// startup ZMQ behavior) and starts a background reader that decodes
// concatenated JSON values off the stream and feeds them to Messages().
// The endpoint is not reconnected if the connection drops; spec.md scopes
// reconnection logic to the downstream TAK sink only (§4.1), not the
// upstream subscription, whose lifecycle is owned by the sensor program.
func NewEndpoint(ctx context.Context, name, addr string, logger *log.Logger) (*Endpoint, error) {
	conn, err := (&net.Dialer{Timeout: 10 * time.Second}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{name: name, addr: addr, conn: conn, out: make(chan []byte, 1)}
	go e.readLoop(conn, logger)
	return e, nil
}

// Close closes the underlying connection, unblocking the reader goroutine.
// Matches original_source/dragonsync.py's signal_handler, which closes the
// telemetry and status sockets before tearing down the messenger.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}

func (e *Endpoint) readLoop(conn net.Conn, logger *log.Logger) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Printf("ingest: %s endpoint %s: decode error: %v", e.name, e.addr, err)
			}
			return
		}
		e.out <- []byte(raw)
	}
}

// Messages returns the channel of decoded frames.
func (e *Endpoint) Messages() <-chan []byte {
	return e.out
}

// drainOne consumes at most one already-buffered message from ch, non-
// blocking. Used to satisfy "at most one telemetry and one status message
// consumed" when both endpoints have data ready in the same poll.
func drainOne(ch <-chan []byte) ([]byte, bool) {
	select {
	case raw := <-ch:
		return raw, true
	default:
		return nil, false
	}
}
