package transport

import (
	"testing"
	"time"
)

func TestBackoffWait_CapsAtMax(t *testing.T) {
	base := 2 * time.Second
	cap := 60 * time.Second

	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{10, 60 * time.Second}, // far beyond cap
	}
	for _, c := range cases {
		got := backoffWait(base, cap, c.retry)
		if got != c.want {
			t.Errorf("backoffWait(retry=%d) = %s, want %s", c.retry, got, c.want)
		}
	}
}

func TestBackoffWait_MatchesDefaultSchedule(t *testing.T) {
	cfg := DefaultTCPTLSConfig("tak.example.com", 8089)

	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, c := range cases {
		got := backoffWait(cfg.BackoffBase, cfg.BackoffCap, c.retry)
		if got != c.want {
			t.Errorf("backoffWait(retry=%d) = %s, want %s", c.retry, got, c.want)
		}
	}
}

func TestUDPSink_SendAfterClose(t *testing.T) {
	sink, err := NewUDPSink("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewUDPSink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Send([]byte("x")); err == nil {
		t.Errorf("expected error sending on a closed socket")
	}
}
