// Package fanout implements C2: the messenger that owns the enabled sinks
// and orders retries across them.
//
// Grounded on original_source/messaging.py's CotMessenger.send_cot: try
// TCP, else UDP (never both), each with its own retry budget; multicast is
// attempted independently; every failure is logged and swallowed, never
// raised to the caller.
package fanout

import (
	"log"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/metrics"
	"github.com/flightpath-dev/sentrybridge/internal/transport"
)

// Config controls the retry budget shared by every sink.
type Config struct {
	RetryCount int
	RetryDelay time.Duration
}

// DefaultConfig matches messaging.py's send_cot defaults.
func DefaultConfig() Config {
	return Config{RetryCount: 3, RetryDelay: time.Second}
}

// Messenger owns zero or more sinks and exposes SendCoT as its single
// operation. It is the sole authority that retires transport handles.
type Messenger struct {
	cfg Config

	unicast   transport.Sink // TCP/TLS if configured, else UDP; nil if neither
	unicastKind string

	multicast transport.Sink // nil if multicast disabled

	logger *log.Logger
}

// New builds a Messenger. unicast may be nil (no TAK endpoint configured);
// multicast may be nil (multicast disabled).
func New(cfg Config, unicast transport.Sink, unicastKind string, multicast transport.Sink, logger *log.Logger) *Messenger {
	return &Messenger{cfg: cfg, unicast: unicast, unicastKind: unicastKind, multicast: multicast, logger: logger}
}

// SendCoT delivers payload to the unicast sink (if any) and, independently,
// to the multicast sink (if any). Neither path ever returns an error to
// the caller; exhaustion is logged at critical severity and the call
// proceeds to the next step, per spec.md §4.2 and §7's best-effort policy.
func (m *Messenger) SendCoT(payload []byte) {
	if m.unicast != nil {
		m.sendWithRetry(m.unicast, m.unicastKind, payload)
	}
	if m.multicast != nil {
		m.sendWithRetry(m.multicast, "multicast", payload)
	}
}

func (m *Messenger) sendWithRetry(sink transport.Sink, kind string, payload []byte) {
	for attempt := 1; attempt <= m.cfg.RetryCount; attempt++ {
		if err := sink.Send(payload); err == nil {
			metrics.SinkSends.WithLabelValues(kind, "success").Inc()
			return
		} else if attempt == 1 || attempt == m.cfg.RetryCount {
			m.logger.Printf("fanout: attempt %d/%d sending via %s: %v", attempt, m.cfg.RetryCount, kind, err)
		}
		metrics.SinkSends.WithLabelValues(kind, "failure").Inc()
		if attempt < m.cfg.RetryCount {
			time.Sleep(m.cfg.RetryDelay)
		}
	}
	metrics.SinkRetriesExhausted.WithLabelValues(kind).Inc()
	m.logger.Printf("CRITICAL: fanout: exceeded %d retries sending via %s", m.cfg.RetryCount, kind)
}

// Close closes every configured sink. Idempotent; each sink's own Close is
// expected to be idempotent.
func (m *Messenger) Close() {
	if m.unicast != nil {
		if err := m.unicast.Close(); err != nil {
			m.logger.Printf("fanout: error closing %s sink: %v", m.unicastKind, err)
		}
	}
	if m.multicast != nil {
		if err := m.multicast.Close(); err != nil {
			m.logger.Printf("fanout: error closing multicast sink: %v", err)
		}
	}
}
