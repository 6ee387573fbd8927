// Package stream adapts a net.Conn into a transport that socket.Socket can
// erase. Blocking reads and writes run on their own goroutine and their
// completions are posted to an executor.
package stream

import (
	"net"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/transport"
)

// Stream runs the socket operations against a net.Conn.
type Stream struct {
	conn   net.Conn
	lowest net.Conn
	poster executor.Poster
}

// New returns a Stream over conn. Completions are posted to p.
func New(conn net.Conn, p executor.Poster) *Stream {
	return &Stream{
		conn:   conn,
		lowest: transport.Lowest(conn),
		poster: p,
	}
}

// AsyncRead reads into b in the background and posts h with the result.
func (s *Stream) AsyncRead(b []byte, h socket.Handler) {
	go func() {
		n, err := s.conn.Read(b)
		s.poster.Post(func() { h(err, n) })
	}()
}

// AsyncWrite writes bufs in the background and posts h with the result.
func (s *Stream) AsyncWrite(bufs [][]byte, h socket.Handler) {
	go func() {
		n, err := s.Write(bufs)
		s.poster.Post(func() { h(err, n) })
	}()
}

// Write writes bufs in order. Connections supporting it get a single
// vectored write.
func (s *Stream) Write(bufs [][]byte) (int, error) {
	b := make(net.Buffers, len(bufs))
	copy(b, bufs)
	n, err := b.WriteTo(s.conn)
	return int(n), err
}

// Post schedules fn on the Stream's executor.
func (s *Stream) Post(fn func()) {
	s.poster.Post(fn)
}

// LowestLayer returns the innermost connection beneath conn.
func (s *Stream) LowestLayer() net.Conn {
	return s.lowest
}

// Close closes the connection. A second call returns the connection's error
// for closing twice.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// Conn returns the connection the Stream operates on.
func (s *Stream) Conn() net.Conn {
	return s.conn
}

// Handled is a Stream with a native handle.
type Handled[H any] struct {
	*Stream
	handle H
}

// WithHandle attaches the native handle h to s.
func WithHandle[H any](s *Stream, h H) *Handled[H] {
	return &Handled[H]{Stream: s, handle: h}
}

// NativeHandle returns the handle captured by WithHandle.
func (h *Handled[H]) NativeHandle() H {
	return h.handle
}

var _ socket.Base = (*Stream)(nil)
var _ socket.Conn[uintptr] = (*Handled[uintptr])(nil)
