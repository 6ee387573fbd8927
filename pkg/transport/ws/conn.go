package ws

import (
	"context"
	"net"

	"github.com/coder/websocket"
)

// Conn is a WebSocket connection used as a byte stream.
type Conn struct {
	net.Conn
	raw net.Conn
}

func newConn(ctx context.Context, c *websocket.Conn, raw net.Conn) *Conn {
	return &Conn{
		Conn: websocket.NetConn(ctx, c, websocket.MessageBinary),
		raw:  raw,
	}
}

// NetConn returns the connection the HTTP exchange ran on: a TCP connection,
// or for wss on the server side the TLS connection over it. It is nil if it
// could not be captured.
func (c *Conn) NetConn() net.Conn {
	return c.raw
}

// LocalAddr returns the local address of the underlying connection.
func (c *Conn) LocalAddr() net.Addr {
	if c.raw != nil {
		return c.raw.LocalAddr()
	}
	return c.Conn.LocalAddr()
}

// RemoteAddr returns the remote address of the underlying connection.
func (c *Conn) RemoteAddr() net.Addr {
	if c.raw != nil {
		return c.raw.RemoteAddr()
	}
	return c.Conn.RemoteAddr()
}
