package mux

import (
	"net"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/stream"
	"dominicbreuker/anysock/pkg/transport"
)

// Open erases conn into a Socket whose native handle is the yamux stream id.
// conn is a *Stream, possibly beneath other layers; without one the handle
// is 0.
func Open(conn net.Conn, p executor.Poster) socket.Socket {
	return socket.New[uint32](stream.WithHandle(stream.New(conn, p), streamID(conn)))
}

func streamID(conn net.Conn) uint32 {
	for {
		if s, ok := conn.(*Stream); ok {
			return s.ID()
		}
		l, ok := conn.(transport.Layered)
		if !ok {
			return 0
		}
		next := l.NetConn()
		if next == nil || next == conn {
			return 0
		}
		conn = next
	}
}
