package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"dominicbreuker/anysock/mocks"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/transport/tcp"

	"github.com/muesli/cancelreader"
)

// bufferRWC records writes and blocks reads until closed.
type bufferRWC struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed chan struct{}
	once   sync.Once
}

func newBufferRWC() *bufferRWC {
	return &bufferRWC{closed: make(chan struct{})}
}

func (b *bufferRWC) Read(p []byte) (int, error) {
	<-b.closed
	return 0, io.EOF
}

func (b *bufferRWC) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *bufferRWC) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func (b *bufferRWC) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPipe_SocketToLocal(t *testing.T) {
	t.Parallel()

	strand := executor.New(nil)
	defer strand.Close()

	m := mocks.NewMockSocket(1)
	m.Poster = strand
	m.SetReadData([]byte("from remote"), nil)

	local := newBufferRWC()
	err := Pipe(context.Background(), local, socket.New[int](m), log.NewLogger(false))
	if err != nil {
		t.Fatalf("Pipe() error = %v, want nil at EOF", err)
	}

	if got := local.String(); got != "from remote" {
		t.Errorf("local received %q, want %q", got, "from remote")
	}
	if !m.Closed() {
		t.Error("socket not closed after relay")
	}
}

func TestPipe_ReadFailure(t *testing.T) {
	t.Parallel()

	strand := executor.New(nil)
	defer strand.Close()

	boom := errors.New("connection reset")
	m := mocks.NewMockSocket(1)
	m.Poster = strand
	m.SetReadData(nil, boom)

	err := Pipe(context.Background(), newBufferRWC(), socket.New[int](m), log.NewLogger(false))
	if !errors.Is(err, boom) {
		t.Errorf("Pipe() error = %v, want %v", err, boom)
	}
}

func TestPipe_WriteFailure(t *testing.T) {
	t.Parallel()

	strand := executor.New(nil)
	defer strand.Close()

	boom := errors.New("broken pipe")
	m := mocks.NewMockSocket(1)
	m.Poster = strand
	m.FailWrites(0, boom)

	// reads block: the relay can only end through the failing write
	blockingRead := &blockingSocket{MockSocket: m, release: make(chan struct{})}
	defer close(blockingRead.release)

	local := &readOnlyRWC{Reader: strings.NewReader("to remote")}
	err := Pipe(context.Background(), local, socket.New[int](blockingRead), log.NewLogger(false))
	if !errors.Is(err, boom) {
		t.Errorf("Pipe() error = %v, want %v", err, boom)
	}
}

// blockingSocket holds reads until release is closed.
type blockingSocket struct {
	*mocks.MockSocket
	release chan struct{}
}

func (b *blockingSocket) AsyncRead(p []byte, h socket.Handler) {
	go func() {
		<-b.release
		b.MockSocket.Post(func() { h(net.ErrClosed, 0) })
	}()
}

type readOnlyRWC struct {
	io.Reader
}

func (r *readOnlyRWC) Write(p []byte) (int, error) { return len(p), nil }
func (r *readOnlyRWC) Close() error                { return nil }

func TestPipe_ContextCancel(t *testing.T) {
	t.Parallel()

	a, b := net.Pipe()
	defer b.Close()

	strand := executor.New(nil)
	defer strand.Close()

	s := tcp.Open(a, strand)
	local := newBufferRWC()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Pipe(ctx, local, s, log.NewLogger(false)) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Pipe() after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe() did not return after cancel")
	}

	if _, err := a.Write([]byte("x")); err == nil {
		t.Error("connection still open after relay")
	}
}

func TestPipe_Bidirectional(t *testing.T) {
	t.Parallel()

	a, b := net.Pipe()
	defer b.Close()

	strand := executor.New(nil)
	defer strand.Close()

	stdio := mocks.NewMockStdio()
	local := NewStdio(stdio.GetStdin(), stdio.GetStdout())

	done := make(chan error, 1)
	go func() { done <- Pipe(context.Background(), local, tcp.Open(a, strand), log.NewLogger(false)) }()

	// stdin to the peer
	go stdio.WriteToStdin([]byte("hello peer\n"))
	buf := make([]byte, 11)
	if _, err := io.ReadFull(b, buf); err != nil {
		t.Fatalf("peer ReadFull() error = %v", err)
	}
	if string(buf) != "hello peer\n" {
		t.Errorf("peer received %q", buf)
	}

	// the peer to stdout
	if _, err := b.Write([]byte("hello local\n")); err != nil {
		t.Fatalf("peer Write() error = %v", err)
	}
	if err := stdio.WaitForOutput("hello local\n", 2000); err != nil {
		t.Error(err)
	}

	// the peer hanging up ends the relay cleanly
	b.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Pipe() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe() did not return after peer closed")
	}
}

func TestStdio(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := NewStdio(strings.NewReader("input"), &out)

	buf := make([]byte, 16)
	n, err := s.Read(buf)
	if err != nil || string(buf[:n]) != "input" {
		t.Errorf("Read() = %q, %v", buf[:n], err)
	}

	if _, err := s.Write([]byte("output")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if out.String() != "output" {
		t.Errorf("stdout = %q, want output", out.String())
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := s.Read(buf); err == nil {
		t.Error("Read() after Close succeeded")
	}
}

// it should stop reading after Close even without a cancelable reader
func TestStdio_ClosedWithoutCancelReader(t *testing.T) {
	t.Parallel()

	s := &Stdio{in: strings.NewReader("unread"), out: io.Discard}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	n, err := s.Read(make([]byte, 16))
	if n != 0 || !errors.Is(err, cancelreader.ErrCanceled) {
		t.Errorf("Read() after Close = %d, %v; want 0, ErrCanceled", n, err)
	}
}
