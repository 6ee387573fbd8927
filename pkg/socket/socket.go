// Package socket provides Socket, a shared handle over any socket-like
// transport.
//
// Upper layers perform all transport I/O through a Socket and are never
// compiled against a concrete transport. A type qualifies by having the
// required methods; it does not need to know about this package:
//
//	s := socket.New[uintptr](tcpStream) // native handle is a file descriptor
//	w := socket.Wrap(wsStream)          // no native handle
//
// Copies of a Socket share the same concrete instance. The zero Socket is
// empty and every operation on it panics with ErrEmpty.
//
// Socket adds no locking. Callers serialize Write, Close and the issuing of
// new asynchronous operations themselves.
package socket

import (
	"errors"
	"net"
	"reflect"
	"runtime"
)

// ErrEmpty is the panic value of every operation invoked on an empty Socket.
var ErrEmpty = errors.New("socket: operation on empty socket")

// Handler receives the outcome of an asynchronous read or write.
// It is invoked exactly once, on the executor of the concrete transport.
// n may be non-zero together with a non-nil err for partial transfers.
type Handler func(err error, n int)

// Base is the capability set shared by every transport, whether or not it
// exposes a native handle.
type Base interface {
	// AsyncRead schedules a read into b and returns immediately.
	AsyncRead(b []byte, h Handler)
	// AsyncWrite schedules a gathered write of bufs, in order, and returns immediately.
	AsyncWrite(bufs [][]byte, h Handler)
	// Write writes bufs, in order, and blocks until done or failed.
	Write(bufs [][]byte) (int, error)
	// Post schedules fn on the transport's executor and returns immediately.
	Post(fn func())
	// LowestLayer returns the innermost transport connection.
	LowestLayer() net.Conn
	// Close closes the transport.
	Close() error
}

// Conn is a transport exposing a native handle of type H.
type Conn[H any] interface {
	Base
	NativeHandle() H
}

// NoHandle is the native handle of transports that have none.
type NoHandle struct{}

// Releaser is implemented by transports that want to know when the last
// Socket referencing them became unreachable. Release is called at most once,
// on a runtime goroutine.
type Releaser interface {
	Release()
}

// Socket is a shared handle over a concrete transport.
type Socket struct {
	c *cell
}

// cell is shared by all copies of a Socket.
type cell struct {
	base       Base
	native     func() any
	handleType reflect.Type
}

// New returns a Socket over c, whose native handle type is H.
func New[H any](c Conn[H]) Socket {
	if isNil(c) {
		panic("socket: New with nil connection")
	}
	return newSocket(c, func() any { return c.NativeHandle() }, reflect.TypeFor[H]())
}

// Wrap returns a Socket over a transport without a native handle.
// NativeHandle on the result yields NoHandle{}.
func Wrap(b Base) Socket {
	if isNil(b) {
		panic("socket: Wrap with nil connection")
	}
	return newSocket(b, func() any { return NoHandle{} }, reflect.TypeFor[NoHandle]())
}

// isNil reports whether v is nil, including a nil pointer, map, slice, chan
// or func behind a non-nil interface.
func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func newSocket(b Base, native func() any, handleType reflect.Type) Socket {
	c := &cell{base: b, native: native, handleType: handleType}
	if r, ok := b.(Releaser); ok {
		runtime.AddCleanup(c, func(r Releaser) { r.Release() }, r)
	}
	return Socket{c: c}
}

func (s Socket) base() Base {
	if s.c == nil {
		panic(ErrEmpty)
	}
	return s.c.base
}

// AsyncRead schedules a read into b. h fires exactly once with n <= len(b)
// or an error.
func (s Socket) AsyncRead(b []byte, h Handler) {
	s.base().AsyncRead(b, h)
}

// AsyncWrite schedules a gathered write of bufs. h fires exactly once.
func (s Socket) AsyncWrite(bufs [][]byte, h Handler) {
	s.base().AsyncWrite(bufs, h)
}

// Write performs a blocking gathered write and returns the bytes written.
// On failure the count is 0 or partial and err is set.
func (s Socket) Write(bufs [][]byte) (int, error) {
	return s.base().Write(bufs)
}

// Post schedules fn on the transport's executor. fn runs exactly once and
// never before Post returns.
func (s Socket) Post(fn func()) {
	s.base().Post(fn)
}

// LowestLayer returns the innermost transport connection, for configuration
// such as buffer sizes or keep-alive. It is valid as long as the transport is.
func (s Socket) LowestLayer() net.Conn {
	return s.base().LowestLayer()
}

// NativeHandle returns the transport's native handle. Its dynamic type is the
// H the Socket was built with, or NoHandle.
func (s Socket) NativeHandle() any {
	if s.c == nil {
		panic(ErrEmpty)
	}
	return s.c.native()
}

// Close closes the transport. Whether a second Close is harmless depends on
// the transport.
func (s Socket) Close() error {
	return s.base().Close()
}

// Native returns the native handle of s as an H. ok is false if s was built
// with a different handle type.
func Native[H any](s Socket) (h H, ok bool) {
	h, ok = s.NativeHandle().(H)
	return h, ok
}

// HandleType returns the native handle type captured when s was built.
func HandleType(s Socket) reflect.Type {
	if s.c == nil {
		panic(ErrEmpty)
	}
	return s.c.handleType
}

// Empty reports whether s refers to no transport.
func Empty(s Socket) bool {
	return s.c == nil
}
