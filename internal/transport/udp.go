package transport

import (
	"fmt"
	"net"
)

// UDPSink is a single persistent datagram socket. Grounded on
// original_source/tak_udp_client.py: one socket, send() is a bare sendto,
// no reconnection logic.
type UDPSink struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

// NewUDPSink resolves host:port and opens the datagram socket.
func NewUDPSink(host string, port int) (*UDPSink, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("udp: resolve %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial %s:%d: %w", host, port, err)
	}
	return &UDPSink{conn: conn, addr: addr}, nil
}

// Send transmits the entire payload as a single datagram.
func (s *UDPSink) Send(payload []byte) error {
	_, err := s.conn.Write(payload)
	if err != nil {
		return fmt.Errorf("udp: send: %w", err)
	}
	return nil
}

// Close closes the datagram socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}
