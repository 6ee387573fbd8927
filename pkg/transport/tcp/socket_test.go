package tcp

import (
	"crypto/tls"
	"net"
	"testing"

	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
)

func TestFD_Pipe(t *testing.T) {
	t.Parallel()

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	if got := FD(a); got != InvalidHandle {
		t.Errorf("FD(pipe) = %d, want InvalidHandle", got)
	}
}

func TestOpen_NativeHandleType(t *testing.T) {
	t.Parallel()

	a, b := net.Pipe()
	defer b.Close()

	s := Open(a, executor.New(nil))
	defer s.Close()

	h, ok := socket.Native[uintptr](s)
	if !ok {
		t.Fatalf("Native[uintptr]() not ok, handle type %v", socket.HandleType(s))
	}
	if h != InvalidHandle {
		t.Errorf("native handle = %d, want InvalidHandle", h)
	}
}

func TestOpen_RealTCP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		if c, err := ln.Accept(); err == nil {
			defer c.Close()
			c.Read(make([]byte, 1))
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	fd := FD(conn)
	if fd == InvalidHandle {
		t.Fatal("FD(tcp) = InvalidHandle")
	}

	// TLS on top keeps the descriptor of the raw connection.
	tlsConn := tls.Client(conn, &tls.Config{InsecureSkipVerify: true})
	s := Open(tlsConn, executor.New(nil))
	defer s.Close()

	h, ok := socket.Native[uintptr](s)
	if !ok || h != fd {
		t.Errorf("Native[uintptr]() = %d, %v; want %d, true", h, ok, fd)
	}
	if s.LowestLayer() != conn {
		t.Error("LowestLayer() is not the raw TCP connection")
	}
}
