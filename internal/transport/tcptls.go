package transport

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TCPTLSConfig configures the TCP/TLS sink.
type TCPTLSConfig struct {
	Host string
	Port int

	// TLSConfig is nil for a plain TCP connection. When non-nil it is used
	// as-is (certificates already parsed; see internal/config/tls.go).
	TLSConfig *tls.Config

	BackoffBase time.Duration // seed wait for retry 0; wait(retry) = base * 2^retry, capped
	BackoffCap  time.Duration
	DialTimeout time.Duration
}

// DefaultTCPTLSConfig fills in the spec.md §4.1 defaults: wait = min(2^retry
// seconds, cap), i.e. 1s, 2s, 4s, 8s, ... matching original_source/
// tak_client.py's backoff_base=2.0 schedule.
func DefaultTCPTLSConfig(host string, port int) TCPTLSConfig {
	return TCPTLSConfig{
		Host:        host,
		Port:        port,
		BackoffBase: time.Second,
		BackoffCap:  60 * time.Second,
		DialTimeout: 10 * time.Second,
	}
}

// TCPTLSSink is a stream sink with a background reconnect loop.
//
// Grounded on original_source/tak_client.py: connect() with exponential
// backoff, a background run_connect_loop, and send() that closes the
// socket (so the reconnect loop picks it up) on failure. The socket handle
// is an atomic.Pointer so Send never blocks on the reconnect loop's
// connecting mutex; it either observes a live connection or nil, per
// spec.md §5's lock-free send-vs-reconnect rule.
type TCPTLSSink struct {
	cfg    TCPTLSConfig
	logger *log.Logger

	conn atomic.Pointer[net.Conn]

	connectMu  sync.Mutex
	retryCount int

	closed atomic.Bool
	stop   chan struct{}
	done   chan struct{}
}

// NewTCPTLSSink constructs the sink and starts its background reconnect
// loop. The first connection attempt happens asynchronously; Send returns
// ErrDown until it succeeds.
func NewTCPTLSSink(cfg TCPTLSConfig, logger *log.Logger) *TCPTLSSink {
	s := &TCPTLSSink{
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.reconnectLoop()
	return s
}

func (s *TCPTLSSink) reconnectLoop() {
	defer close(s.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if s.conn.Load() == nil {
			s.connectMu.Lock()
			if s.conn.Load() == nil {
				s.connectOnce()
			}
			s.connectMu.Unlock()
		}

		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// connectOnce attempts a single dial; on failure it sleeps the backoff
// delay for this attempt before returning (the caller loops).
func (s *TCPTLSSink) connectOnce() {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var conn net.Conn
	var err error
	if s.cfg.TLSConfig != nil {
		d := &net.Dialer{Timeout: s.cfg.DialTimeout}
		conn, err = tls.DialWithDialer(d, "tcp", addr, s.cfg.TLSConfig)
	} else {
		conn, err = net.DialTimeout("tcp", addr, s.cfg.DialTimeout)
	}
	if err != nil {
		wait := backoffWait(s.cfg.BackoffBase, s.cfg.BackoffCap, s.retryCount)
		s.logger.Printf("tcptls: connect to %s failed: %v; retrying in %s", addr, err, wait)
		s.retryCount++
		select {
		case <-time.After(wait):
		case <-s.stop:
		}
		return
	}

	s.retryCount = 0
	s.conn.Store(&conn)
	s.logger.Printf("tcptls: connected to %s", addr)
}

func backoffWait(base, backoffCap time.Duration, retry int) time.Duration {
	wait := base
	for i := 0; i < retry; i++ {
		wait *= 2
		if wait >= backoffCap {
			return backoffCap
		}
	}
	if wait > backoffCap {
		return backoffCap
	}
	return wait
}

// Send writes payload to the live connection, if any. On failure it closes
// the connection (clearing the atomic pointer) so the reconnect loop picks
// it back up, matching tak_client.py's send()/close() coupling.
func (s *TCPTLSSink) Send(payload []byte) error {
	p := s.conn.Load()
	if p == nil {
		return ErrDown
	}
	conn := *p
	if _, err := conn.Write(payload); err != nil {
		s.conn.CompareAndSwap(p, nil)
		conn.Close()
		return fmt.Errorf("tcptls: send: %w", err)
	}
	return nil
}

// Close stops the reconnect loop and closes any live connection. Safe to
// call more than once.
func (s *TCPTLSSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	<-s.done

	if p := s.conn.Swap(nil); p != nil {
		return (*p).Close()
	}
	return nil
}
