package tcp

import (
	"net"
	"syscall"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/stream"
	"dominicbreuker/anysock/pkg/transport"
)

// InvalidHandle is the native handle of connections without a descriptor.
const InvalidHandle = ^uintptr(0)

// Open erases conn into a Socket whose completions are posted to p. conn may
// be a TCP connection or any layering over one, such as TLS.
func Open(conn net.Conn, p executor.Poster) socket.Socket {
	return socket.New[uintptr](stream.WithHandle(stream.New(conn, p), FD(conn)))
}

// FD returns the descriptor of the lowest layer of conn, or InvalidHandle.
func FD(conn net.Conn) uintptr {
	sc, ok := transport.Lowest(conn).(syscall.Conn)
	if !ok {
		return InvalidHandle
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return InvalidHandle
	}

	fd := InvalidHandle
	if err := raw.Control(func(h uintptr) { fd = h }); err != nil {
		return InvalidHandle
	}
	return fd
}
