package ingest_test

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/fanout"
	"github.com/flightpath-dev/sentrybridge/internal/ingest"
	"github.com/flightpath-dev/sentrybridge/internal/registry"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// listenOnce starts a TCP listener, returns its address, and a function
// that accepts exactly one connection and writes frame into it.
func listenOnce(t *testing.T, frame []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if frame != nil {
			conn.Write(frame)
		}
		// keep the connection open for the duration of the test
		time.Sleep(500 * time.Millisecond)
	}()
	return ln.Addr().String()
}

func TestLoop_TelemetryFrameUpsertsRecord(t *testing.T) {
	telemetryAddr := listenOnce(t, []byte(`{"Basic ID":{"id":"ABC","id_type":"Serial Number (ANSI/CTA-2063-A)"},"Location/Vector Message":{"latitude":40.0,"longitude":-75.0,"geodetic_altitude":100,"speed":0}}`))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tel, err := ingest.NewEndpoint(ctx, "telemetry", telemetryAddr, quietLogger())
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	defer tel.Close()

	set := registry.NewLiveSet(registry.DefaultConfig())
	m := fanout.New(fanout.DefaultConfig(), nil, "", nil, quietLogger())
	loop := ingest.New(tel, nil, set, m, "wardragon-", nil, quietLogger())

	runCtx, runCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer runCancel()
	loop.Run(runCtx)

	if set.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after one telemetry frame", set.Len())
	}
}
