// Package tcp provides an in-memory TCP network for tests. Dialed and
// accepted connections are the two ends of a net.Pipe, so they have no
// socket descriptor.
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// MockTCPNetwork routes dials to listeners by address.
type MockTCPNetwork struct {
	mu        sync.Mutex
	listeners map[string]*MockTCPListener
	changed   chan struct{} // closed and replaced whenever listeners change

	nextPort atomic.Int32
}

// NewMockTCPNetwork creates a new mock TCP network.
func NewMockTCPNetwork() *MockTCPNetwork {
	m := &MockTCPNetwork{
		listeners: make(map[string]*MockTCPListener),
		changed:   make(chan struct{}),
	}
	m.nextPort.Store(50000)
	return m
}

func (m *MockTCPNetwork) notifyLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// ListenTCP creates a mock TCP listener on the specified address.
func (m *MockTCPNetwork) ListenTCP(network string, laddr *net.TCPAddr) (net.Listener, error) {
	if network != "tcp" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := laddr.String()
	if _, exists := m.listeners[addr]; exists {
		return nil, fmt.Errorf("address already in use: %s", addr)
	}

	l := &MockTCPListener{
		addr:     laddr,
		incoming: make(chan *MockTCPConn, 16),
		accepted: make(chan *MockTCPConn, 16),
		closeCh:  make(chan struct{}),
		network:  m,
	}
	m.listeners[addr] = l
	m.notifyLocked()

	return l, nil
}

// DialTCP connects to the listener at raddr.
func (m *MockTCPNetwork) DialTCP(network string, laddr, raddr *net.TCPAddr) (net.Conn, error) {
	if network != "tcp" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	m.mu.Lock()
	l, exists := m.listeners[raddr.String()]
	m.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("connection refused: no listener on %s", raddr.String())
	}

	if laddr == nil {
		laddr = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: int(m.nextPort.Add(1))}
	}

	clientConn, serverConn := net.Pipe()
	client := &MockTCPConn{Conn: clientConn, localAddr: laddr, remoteAddr: raddr}
	server := &MockTCPConn{Conn: serverConn, localAddr: raddr, remoteAddr: laddr}

	select {
	case l.incoming <- server:
		return client, nil
	case <-l.closeCh:
		clientConn.Close()
		serverConn.Close()
		return nil, fmt.Errorf("connection refused: listener closed")
	case <-time.After(1 * time.Second):
		clientConn.Close()
		serverConn.Close()
		return nil, fmt.Errorf("connection timeout")
	}
}

// DialTCPContext matches config.TCPDialerFunc.
func (m *MockTCPNetwork) DialTCPContext(ctx context.Context, network string, laddr, raddr *net.TCPAddr) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.DialTCP(network, laddr, raddr)
}

// WaitForListener waits up to timeoutMs milliseconds for a listener on addr.
func (m *MockTCPNetwork) WaitForListener(addr string, timeoutMs int) (*MockTCPListener, error) {
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()

	for {
		m.mu.Lock()
		l, exists := m.listeners[addr]
		changed := m.changed
		m.mu.Unlock()

		if exists {
			return l, nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return nil, fmt.Errorf("timeout waiting for listener on %s", addr)
		}
	}
}

// MockTCPListener is the listening side of the mock network.
type MockTCPListener struct {
	addr     *net.TCPAddr
	incoming chan *MockTCPConn
	accepted chan *MockTCPConn
	closeCh  chan struct{}
	network  *MockTCPNetwork

	closeOnce sync.Once
}

// Accept waits for and returns the next connection to the listener.
func (l *MockTCPListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.incoming:
		select {
		case l.accepted <- conn:
		default:
		}
		return conn, nil
	case <-l.closeCh:
		return nil, net.ErrClosed
	}
}

// Close closes the listener and frees its address.
func (l *MockTCPListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closeCh)

		l.network.mu.Lock()
		delete(l.network.listeners, l.addr.String())
		l.network.notifyLocked()
		l.network.mu.Unlock()
	})
	return nil
}

// Addr returns the listener's network address.
func (l *MockTCPListener) Addr() net.Addr {
	return l.addr
}

// WaitForNewConnection waits up to timeoutMs milliseconds for Accept to
// return a connection.
func (l *MockTCPListener) WaitForNewConnection(timeoutMs int) (*MockTCPConn, error) {
	select {
	case conn := <-l.accepted:
		return conn, nil
	case <-l.closeCh:
		return nil, fmt.Errorf("listener closed")
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return nil, fmt.Errorf("timeout waiting for new connection on %s", l.addr.String())
	}
}

// MockTCPConn is one end of a mock connection with TCP addresses.
type MockTCPConn struct {
	net.Conn
	localAddr  *net.TCPAddr
	remoteAddr *net.TCPAddr
}

// LocalAddr returns the local network address.
func (c *MockTCPConn) LocalAddr() net.Addr {
	return c.localAddr
}

// RemoteAddr returns the remote network address.
func (c *MockTCPConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

var _ net.Listener = (*MockTCPListener)(nil)
var _ net.Conn = (*MockTCPConn)(nil)
