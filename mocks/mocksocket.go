package mocks

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
)

// MockSocket is a scriptable transport for tests of code built on
// socket.Socket. Its native handle is an int.
//
// Completions are delivered inline before AsyncRead/AsyncWrite return unless
// Poster is set, in which case they are posted there. Post always runs the
// task on Poster, or on a new goroutine when Poster is nil.
type MockSocket struct {
	Poster executor.Poster
	Handle int
	Lowest net.Conn

	mu       sync.Mutex
	readData []byte
	readErr  error
	writeN   int
	writeErr error
	closeErr error
	written  [][]byte
	lastRead []byte
	calls    map[string]int
	closed   bool

	releases atomic.Int32
}

// NewMockSocket returns a MockSocket with native handle h and an in-memory
// lowest layer.
func NewMockSocket(h int) *MockSocket {
	lowest, _ := net.Pipe()
	return &MockSocket{
		Handle: h,
		Lowest: lowest,
		calls:  make(map[string]int),
	}
}

// SetReadData queues data returned by subsequent reads. Once drained, reads
// fail with err, or io.EOF when err is nil.
func (m *MockSocket) SetReadData(data []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readData = append(m.readData[:0:0], data...)
	m.readErr = err
}

// FailWrites makes writes return n and err.
func (m *MockSocket) FailWrites(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeN = n
	m.writeErr = err
}

// FailClose makes Close return err.
func (m *MockSocket) FailClose(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = err
}

// AsyncRead implements socket.Base.
func (m *MockSocket) AsyncRead(b []byte, h socket.Handler) {
	m.mu.Lock()
	m.calls["AsyncRead"]++
	m.lastRead = b
	var n int
	var err error
	switch {
	case len(m.readData) > 0:
		n = copy(b, m.readData)
		m.readData = m.readData[n:]
	case m.readErr != nil:
		err = m.readErr
	default:
		err = io.EOF
	}
	m.mu.Unlock()

	m.complete(h, err, n)
}

// AsyncWrite implements socket.Base.
func (m *MockSocket) AsyncWrite(bufs [][]byte, h socket.Handler) {
	m.mu.Lock()
	m.calls["AsyncWrite"]++
	m.mu.Unlock()

	n, err := m.write(bufs)
	m.complete(h, err, n)
}

// Write implements socket.Base.
func (m *MockSocket) Write(bufs [][]byte) (int, error) {
	m.mu.Lock()
	m.calls["Write"]++
	m.mu.Unlock()

	return m.write(bufs)
}

func (m *MockSocket) write(bufs [][]byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeN, m.writeErr
	}

	n := 0
	for _, b := range bufs {
		m.written = append(m.written, append([]byte(nil), b...))
		n += len(b)
	}
	return n, nil
}

func (m *MockSocket) complete(h socket.Handler, err error, n int) {
	if m.Poster != nil {
		m.Poster.Post(func() { h(err, n) })
		return
	}
	h(err, n)
}

// Post implements socket.Base.
func (m *MockSocket) Post(fn func()) {
	m.mu.Lock()
	m.calls["Post"]++
	m.mu.Unlock()

	if m.Poster != nil {
		m.Poster.Post(fn)
		return
	}
	go fn()
}

// LowestLayer implements socket.Base.
func (m *MockSocket) LowestLayer() net.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["LowestLayer"]++
	return m.Lowest
}

// NativeHandle implements socket.Conn[int].
func (m *MockSocket) NativeHandle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["NativeHandle"]++
	return m.Handle
}

// Close implements socket.Base. Every call is counted and returns the
// configured error; the mock stays closed.
func (m *MockSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Close"]++
	m.closed = true
	return m.closeErr
}

// Release implements socket.Releaser.
func (m *MockSocket) Release() {
	m.releases.Add(1)
}

// Calls returns how often the named operation was invoked.
func (m *MockSocket) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Written returns the buffers received by Write and AsyncWrite, in order.
func (m *MockSocket) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

// LastReadBuffer returns the buffer passed to the latest AsyncRead.
func (m *MockSocket) LastReadBuffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRead
}

// Closed reports whether Close was called.
func (m *MockSocket) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Releases returns how often Release ran.
func (m *MockSocket) Releases() int {
	return int(m.releases.Load())
}

// MockBase forwards the operations of a MockSocket but has no native
// handle, so it only qualifies for socket.Wrap.
type MockBase struct {
	mock *MockSocket
}

// NewMockBase returns a MockBase and the MockSocket backing it.
func NewMockBase() (*MockBase, *MockSocket) {
	m := NewMockSocket(0)
	return &MockBase{mock: m}, m
}

func (b *MockBase) AsyncRead(p []byte, h socket.Handler) { b.mock.AsyncRead(p, h) }
func (b *MockBase) AsyncWrite(bufs [][]byte, h socket.Handler) { b.mock.AsyncWrite(bufs, h) }
func (b *MockBase) Write(bufs [][]byte) (int, error) { return b.mock.Write(bufs) }
func (b *MockBase) Post(fn func()) { b.mock.Post(fn) }
func (b *MockBase) LowestLayer() net.Conn { return b.mock.LowestLayer() }
func (b *MockBase) Close() error { return b.mock.Close() }

var _ socket.Conn[int] = (*MockSocket)(nil)
var _ socket.Base = (*MockBase)(nil)
