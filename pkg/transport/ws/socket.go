package ws

import (
	"net"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/stream"
)

// Open erases conn into a Socket. WebSocket connections have no native handle
// of their own, so the socket's native handle is socket.NoHandle.
func Open(conn net.Conn, p executor.Poster) socket.Socket {
	return socket.Wrap(stream.New(conn, p))
}
