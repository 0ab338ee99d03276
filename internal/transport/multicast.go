package transport

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/ipv4"
)

// MulticastConfig configures the multicast sink.
type MulticastConfig struct {
	Address   string
	Port      int
	Interface string // literal IPv4, interface name, or "0.0.0.0" wildcard
	TTL       int
}

// MulticastSink transmits the same payload on one datagram socket per
// selected egress interface, each bound with IP_MULTICAST_IF/TTL via
// golang.org/x/net/ipv4 (reused from the teacher's dependency surface, in
// place of raw syscall.SetsockoptByte). Grounded on
// original_source/messaging.py's persistent multicast socket.
type MulticastSink struct {
	group *net.UDPAddr
	socks []*multicastSocket
}

type multicastSocket struct {
	pc   *ipv4.PacketConn
	conn *net.UDPConn
}

// NewMulticastSink resolves the interface selector and opens one socket
// per matching IPv4 interface.
func NewMulticastSink(cfg MulticastConfig) (*MulticastSink, error) {
	group, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", cfg.Address, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("multicast: resolve group %s:%d: %w", cfg.Address, cfg.Port, err)
	}

	ifaces, err := selectInterfaces(cfg.Interface)
	if err != nil {
		return nil, err
	}
	if len(ifaces) == 0 {
		return nil, fmt.Errorf("multicast: no usable IPv4 interface matched %q", cfg.Interface)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 1
	}

	socks := make([]*multicastSocket, 0, len(ifaces))
	for _, iface := range ifaces {
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
		if err != nil {
			closeAll(socks)
			return nil, fmt.Errorf("multicast: listen on interface %s: %w", iface.Name, err)
		}

		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastInterface(iface); err != nil {
			conn.Close()
			closeAll(socks)
			return nil, fmt.Errorf("multicast: set interface %s: %w", iface.Name, err)
		}
		if err := pc.SetMulticastTTL(ttl); err != nil {
			conn.Close()
			closeAll(socks)
			return nil, fmt.Errorf("multicast: set ttl on %s: %w", iface.Name, err)
		}
		// Loopback delivery is only meaningful (and only enabled) when the
		// selected interface is itself the loopback interface.
		_ = pc.SetMulticastLoopback(iface.Flags&net.FlagLoopback != 0)

		socks = append(socks, &multicastSocket{pc: pc, conn: conn})
	}

	return &MulticastSink{group: group, socks: socks}, nil
}

func closeAll(socks []*multicastSocket) {
	for _, s := range socks {
		s.conn.Close()
	}
}

// Send transmits payload once on every socket. Per spec.md §4.2, sockets
// within a fan-out emit in an unspecified order; this returns the first
// error encountered (if any) but still attempts every socket.
func (s *MulticastSink) Send(payload []byte) error {
	var firstErr error
	for _, sock := range s.socks {
		if _, err := sock.pc.WriteTo(payload, nil, s.group); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("multicast: send: %w", err)
			}
		}
	}
	return firstErr
}

// Close closes every per-interface socket; idempotent best-effort.
func (s *MulticastSink) Close() error {
	var firstErr error
	for _, sock := range s.socks {
		if err := sock.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// selectInterfaces resolves the interface selector: a literal IPv4 address
// (the interface that owns it), an interface name, or the "0.0.0.0"
// wildcard meaning every non-link-local, up IPv4 interface.
func selectInterfaces(selector string) ([]*net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("multicast: list interfaces: %w", err)
	}

	if selector == "" || selector == "0.0.0.0" {
		var out []*net.Interface
		for i := range all {
			iface := all[i]
			if iface.Flags&net.FlagUp == 0 {
				continue
			}
			if hasUsableIPv4(&iface) {
				out = append(out, &iface)
			}
		}
		return out, nil
	}

	if ip := net.ParseIP(selector); ip != nil {
		for i := range all {
			iface := all[i]
			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}
			for _, a := range addrs {
				if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.Equal(ip.To4()) {
					return []*net.Interface{&iface}, nil
				}
			}
		}
		return nil, fmt.Errorf("multicast: no interface owns address %s", selector)
	}

	for i := range all {
		if strings.EqualFold(all[i].Name, selector) {
			iface := all[i]
			return []*net.Interface{&iface}, nil
		}
	}
	return nil, fmt.Errorf("multicast: unknown interface %q", selector)
}

func hasUsableIPv4(iface *net.Interface) bool {
	addrs, err := iface.Addrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		v4 := ipNet.IP.To4()
		if v4 == nil {
			continue
		}
		if v4.IsLinkLocalUnicast() {
			continue
		}
		return true
	}
	return false
}
