// Package tcp provides the TCP transport: dialing, serving, and erasing TCP
// (or TLS over TCP) connections into a socket.Socket whose native handle is
// the file descriptor of the raw TCP connection.
package tcp

import (
	"context"
	"fmt"
	"net"

	"dominicbreuker/anysock/pkg/config"
)

// Dialer implements the transport.Dialer interface for TCP connections.
type Dialer struct {
	tcpAddr  *net.TCPAddr
	dialerFn config.TCPDialerFunc
}

// NewDialer creates a new TCP dialer for the specified address.
// The deps parameter is optional and can be nil to use default implementations.
func NewDialer(addr string, deps *config.Dependencies) (*Dialer, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	return &Dialer{
		tcpAddr:  tcpAddr,
		dialerFn: config.GetTCPDialerFunc(deps),
	}, nil
}

// Dial establishes a TCP connection to the configured address with keep-alive enabled.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	conn, err := d.dialerFn(ctx, "tcp", nil, d.tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial(tcp, %s): %w", d.tcpAddr.String(), err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetKeepAlive(true)
	}
	return conn, nil
}
