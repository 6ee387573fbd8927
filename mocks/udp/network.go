// Package udp provides an in-memory UDP network for tests. Packets are
// delivered through channels, never dropped or reordered, unless the
// destination's queue stays full.
package udp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// MockUDPNetwork routes packets between packet conns by address.
type MockUDPNetwork struct {
	mu      sync.Mutex
	conns   map[string]*MockPacketConn
	changed chan struct{}

	nextPort atomic.Int32
}

// NewMockUDPNetwork creates a new mock UDP network.
func NewMockUDPNetwork() *MockUDPNetwork {
	m := &MockUDPNetwork{
		conns:   make(map[string]*MockPacketConn),
		changed: make(chan struct{}),
	}
	m.nextPort.Store(40000)
	return m
}

// ListenPacket matches config.PacketListenerFunc. Port 0 picks a free port.
func (m *MockUDPNetwork) ListenPacket(network, address string) (net.PacketConn, error) {
	if network != "udp" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	laddr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, err
	}
	if laddr.IP == nil {
		laddr.IP = net.IPv4(127, 0, 0, 1)
	}
	if laddr.Port == 0 {
		laddr.Port = int(m.nextPort.Add(1))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := laddr.String()
	if _, exists := m.conns[key]; exists {
		return nil, fmt.Errorf("address already in use: %s", key)
	}

	pc := &MockPacketConn{
		addr:    laddr,
		packets: make(chan packet, 256),
		closeCh: make(chan struct{}),
		network: m,
	}
	m.conns[key] = pc
	close(m.changed)
	m.changed = make(chan struct{})

	return pc, nil
}

// WaitForListener waits up to timeoutMs milliseconds for a packet conn on addr.
func (m *MockUDPNetwork) WaitForListener(addr string, timeoutMs int) error {
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()

	for {
		m.mu.Lock()
		_, exists := m.conns[addr]
		changed := m.changed
		m.mu.Unlock()

		if exists {
			return nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return fmt.Errorf("timeout waiting for UDP listener on %s", addr)
		}
	}
}

func (m *MockUDPNetwork) lookup(addr string) (*MockPacketConn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.conns[addr]
	return pc, ok
}

type packet struct {
	data []byte
	from *net.UDPAddr
}

// MockPacketConn is a net.PacketConn on the mock network.
type MockPacketConn struct {
	addr    *net.UDPAddr
	packets chan packet
	closeCh chan struct{}
	network *MockUDPNetwork

	closeOnce sync.Once
}

// ReadFrom reads the next packet addressed to this conn.
func (c *MockPacketConn) ReadFrom(p []byte) (int, net.Addr, error) {
	select {
	case pkt := <-c.packets:
		return copy(p, pkt.data), pkt.from, nil
	case <-c.closeCh:
		return 0, nil, net.ErrClosed
	}
}

// WriteTo delivers p to the conn listening on addr. Like real UDP, packets
// to unknown addresses vanish without error.
func (c *MockPacketConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	select {
	case <-c.closeCh:
		return 0, net.ErrClosed
	default:
	}

	dst, ok := c.network.lookup(addr.String())
	if !ok {
		return len(p), nil
	}

	pkt := packet{data: append([]byte(nil), p...), from: c.addr}
	select {
	case dst.packets <- pkt:
	case <-dst.closeCh:
	case <-time.After(100 * time.Millisecond):
	}
	return len(p), nil
}

// Close closes the conn and frees its address.
func (c *MockPacketConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)

		c.network.mu.Lock()
		delete(c.network.conns, c.addr.String())
		c.network.mu.Unlock()
	})
	return nil
}

// LocalAddr returns the local network address.
func (c *MockPacketConn) LocalAddr() net.Addr {
	return c.addr
}

// SetDeadline is a no-op.
func (c *MockPacketConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline is a no-op.
func (c *MockPacketConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline is a no-op.
func (c *MockPacketConn) SetWriteDeadline(t time.Time) error { return nil }

var _ net.PacketConn = (*MockPacketConn)(nil)
