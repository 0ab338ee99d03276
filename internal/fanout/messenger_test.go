package fanout_test

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/fanout"
)

type fakeSink struct {
	sends   [][]byte
	failN   int // fail the first failN sends, then succeed
	closed  bool
}

func (f *fakeSink) Send(payload []byte) error {
	f.sends = append(f.sends, payload)
	if len(f.sends) <= f.failN {
		return errors.New("simulated failure")
	}
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSendCoT_UnicastAndMulticastIndependent(t *testing.T) {
	uni := &fakeSink{failN: 10} // always fails
	mc := &fakeSink{failN: 0}   // always succeeds

	cfg := fanout.Config{RetryCount: 2, RetryDelay: time.Millisecond}
	m := fanout.New(cfg, uni, "tcp", mc, quietLogger())

	m.SendCoT([]byte("<event/>"))

	if len(uni.sends) != 2 {
		t.Errorf("unicast sends = %d, want retry_count=2", len(uni.sends))
	}
	if len(mc.sends) != 1 {
		t.Errorf("multicast sends = %d, want 1 (succeeds first try)", len(mc.sends))
	}
}

func TestSendCoT_NilSinksAreNoop(t *testing.T) {
	m := fanout.New(fanout.DefaultConfig(), nil, "", nil, quietLogger())
	m.SendCoT([]byte("<event/>")) // must not panic
}

func TestClose_ClosesBothSinks(t *testing.T) {
	uni := &fakeSink{}
	mc := &fakeSink{}
	m := fanout.New(fanout.DefaultConfig(), uni, "tcp", mc, quietLogger())
	m.Close()
	if !uni.closed || !mc.closed {
		t.Errorf("expected both sinks closed, uni=%v mc=%v", uni.closed, mc.closed)
	}
}
