// Package transport provides the network transports anysock erases behind
// socket.Socket. Each transport (tcp, ws, udp, mux) establishes connections
// as net.Conn and has an Open function that turns one into a socket.Socket
// with the transport's own native handle type:
//
//   - tcp: uintptr, the file descriptor of the lowest layer
//   - ws:  none (socket.NoHandle)
//   - udp: uint32, the KCP conversation id
//   - mux: uint32, the yamux stream id
//
// Layered connections (TLS, WebSocket, logging, mux streams) expose the
// connection they wrap through a NetConn method, so Lowest can find the raw
// transport connection beneath them.
//
// Timeout Handling:
//   - Timeouts are set before potentially blocking operations
//   - Timeouts are cleared immediately after operations complete
//   - This prevents healthy connections from being killed by lingering timeouts
package transport

import (
	"context"
	"net"
)

// Handler is a function that processes an incoming connection.
// It should handle the connection and return when done.
// The connection will be closed after the handler returns.
type Handler func(net.Conn) error

// Dialer establishes outbound connections.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// Listener accepts inbound connections and hands them to a Handler.
type Listener interface {
	Serve(handle Handler) error
	Close() error
}

// Layered is implemented by connections wrapping another connection.
type Layered interface {
	NetConn() net.Conn
}

// Lowest follows NetConn links down to the innermost connection.
func Lowest(conn net.Conn) net.Conn {
	for {
		l, ok := conn.(Layered)
		if !ok {
			return conn
		}
		next := l.NetConn()
		if next == nil || next == conn {
			return conn
		}
		conn = next
	}
}
