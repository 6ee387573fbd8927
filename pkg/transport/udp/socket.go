package udp

import (
	"net"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/stream"
	"dominicbreuker/anysock/pkg/transport"
)

// Open erases conn into a Socket whose native handle is the KCP conversation
// id. conn is a *Session, possibly beneath TLS or a traffic log; without a
// session at its lowest layer the handle is 0.
func Open(conn net.Conn, p executor.Poster) socket.Socket {
	var conv uint32
	if s, ok := transport.Lowest(conn).(*Session); ok {
		conv = s.Conv()
	}
	return socket.New[uint32](stream.WithHandle(stream.New(conn, p), conv))
}
