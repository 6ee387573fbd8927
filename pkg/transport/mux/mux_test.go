package mux

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/socket"
)

func TestClientServe_Echo(t *testing.T) {
	t.Parallel()

	clientConn, serverConn := net.Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var streams atomic.Int32
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- Serve(ctx, serverConn, func(conn net.Conn) error {
			streams.Add(1)
			_, err := io.Copy(conn, conn)
			return err
		}, log.NewLogger(false))
	}()

	s, err := Client(ctx, clientConn, time.Second)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	if s.NetConn() != clientConn {
		t.Error("NetConn() is not the session's connection")
	}

	if _, err := s.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	buf := make([]byte, 5)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("echo = %q, want hello", buf)
	}

	// closing the owning stream ends the session, and Serve with it
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	select {
	case err := <-serveErr:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-ctx.Done():
		t.Fatal("Serve() did not return after session close")
	}

	if streams.Load() != 1 {
		t.Errorf("handled %d streams, want 1", streams.Load())
	}
}

func TestServe_ContextCancel(t *testing.T) {
	t.Parallel()

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, serverConn, func(net.Conn) error { return nil }, log.NewLogger(false))
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	// nobody serves the other end, so the stream open is never acknowledged
	// and the SYN write blocks on the pipe
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	if _, err := Client(context.Background(), clientConn, 50*time.Millisecond); err == nil {
		t.Error("Client() without server succeeded")
	}
}

func TestOpen_StreamID(t *testing.T) {
	t.Parallel()

	clientConn, serverConn := net.Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go Serve(ctx, serverConn, func(conn net.Conn) error {
		_, err := io.Copy(io.Discard, conn)
		return err
	}, log.NewLogger(false))

	st, err := Client(ctx, clientConn, time.Second)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	strand := executor.New(nil)
	defer strand.Close()

	s := Open(st, strand)
	defer s.Close()

	id, ok := socket.Native[uint32](s)
	if !ok || id != st.StreamID() {
		t.Errorf("Native[uint32]() = %d, %v; want %d, true", id, ok, st.StreamID())
	}
	if s.LowestLayer() != clientConn {
		t.Error("LowestLayer() is not the session's connection")
	}
}
