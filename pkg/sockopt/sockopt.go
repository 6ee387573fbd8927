// Package sockopt configures the lowest layer of a socket.Socket: the raw
// TCP connection beneath TLS, WebSocket or mux layers. Options are set and
// read back with setsockopt/getsockopt on the connection's descriptor.
package sockopt

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrUnsupported is returned for connections without a socket descriptor,
// such as in-memory pipes, and on platforms without socket options.
var ErrUnsupported = errors.New("sockopt: connection has no socket descriptor")

// Options are applied to the lowest layer of a connection.
type Options struct {
	NoDelay     bool
	KeepAlive   bool
	ReadBuffer  int // bytes, 0 leaves the system default
	WriteBuffer int // bytes, 0 leaves the system default
}

// Apply sets opts on conn.
func Apply(conn net.Conn, opts Options) error {
	return control(conn, func(fd uintptr) error {
		if err := setBool(fd, levelTCP, optNoDelay, opts.NoDelay); err != nil {
			return fmt.Errorf("setsockopt(TCP_NODELAY): %w", err)
		}
		if err := setBool(fd, levelSocket, optKeepAlive, opts.KeepAlive); err != nil {
			return fmt.Errorf("setsockopt(SO_KEEPALIVE): %w", err)
		}
		if opts.ReadBuffer > 0 {
			if err := setInt(fd, levelSocket, optRcvBuf, opts.ReadBuffer); err != nil {
				return fmt.Errorf("setsockopt(SO_RCVBUF, %d): %w", opts.ReadBuffer, err)
			}
		}
		if opts.WriteBuffer > 0 {
			if err := setInt(fd, levelSocket, optSndBuf, opts.WriteBuffer); err != nil {
				return fmt.Errorf("setsockopt(SO_SNDBUF, %d): %w", opts.WriteBuffer, err)
			}
		}
		return nil
	})
}

// ReadBuffer returns the receive buffer size reported by the kernel.
// Linux reports twice the requested value.
func ReadBuffer(conn net.Conn) (int, error) {
	return getOpt(conn, levelSocket, optRcvBuf)
}

// WriteBuffer returns the send buffer size reported by the kernel.
func WriteBuffer(conn net.Conn) (int, error) {
	return getOpt(conn, levelSocket, optSndBuf)
}

// NoDelay reports whether Nagle's algorithm is disabled on conn.
func NoDelay(conn net.Conn) (bool, error) {
	v, err := getOpt(conn, levelTCP, optNoDelay)
	return v != 0, err
}

// KeepAlive reports whether keep-alive probes are enabled on conn.
func KeepAlive(conn net.Conn) (bool, error) {
	v, err := getOpt(conn, levelSocket, optKeepAlive)
	return v != 0, err
}

func getOpt(conn net.Conn, level, opt int) (int, error) {
	var v int
	err := control(conn, func(fd uintptr) error {
		var err error
		v, err = getInt(fd, level, opt)
		return err
	})
	return v, err
}

func setBool(fd uintptr, level, opt int, on bool) error {
	v := 0
	if on {
		v = 1
	}
	return setInt(fd, level, opt, v)
}

// control runs fn with the descriptor of conn.
func control(conn net.Conn, fn func(fd uintptr) error) error {
	sc, ok := conn.(syscall.Conn)
	if !ok || !supported {
		return ErrUnsupported
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("SyscallConn(): %w", err)
	}

	var fnErr error
	if err := raw.Control(func(fd uintptr) { fnErr = fn(fd) }); err != nil {
		return fmt.Errorf("RawConn.Control(): %w", err)
	}
	return fnErr
}
