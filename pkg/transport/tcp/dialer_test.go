package tcp

import (
	"context"
	"net"
	"testing"

	"dominicbreuker/anysock/pkg/config"
	mocks_tcp "dominicbreuker/anysock/mocks/tcp"
)

func TestNewDialer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "valid address", addr: "localhost:8080"},
		{name: "valid IPv4 address", addr: "127.0.0.1:8080"},
		{name: "valid IPv6 address", addr: "[::1]:8080"},
		{name: "invalid address - no port", addr: "localhost", wantErr: true},
		{name: "invalid address - bad port", addr: "localhost:abc", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d, err := NewDialer(tc.addr, nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewDialer(%q) error = %v, wantErr %v", tc.addr, err, tc.wantErr)
			}
			if !tc.wantErr && (d == nil || d.tcpAddr == nil) {
				t.Error("NewDialer() returned dialer without address")
			}
		})
	}
}

func TestDialer_Dial(t *testing.T) {
	t.Parallel()

	mockNet := mocks_tcp.NewMockTCPNetwork()
	deps := &config.Dependencies{
		TCPDialer:   mockNet.DialTCPContext,
		TCPListener: mockNet.ListenTCP,
	}

	laddr, _ := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	ln, err := mockNet.ListenTCP("tcp", laddr)
	if err != nil {
		t.Fatalf("ListenTCP() error = %v", err)
	}
	defer ln.Close()

	d, err := NewDialer("127.0.0.1:12345", deps)
	if err != nil {
		t.Fatalf("NewDialer() error = %v", err)
	}

	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	conn, err := d.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if got := conn.RemoteAddr().String(); got != "127.0.0.1:12345" {
		t.Errorf("RemoteAddr() = %q, want 127.0.0.1:12345", got)
	}
}

func TestDialer_Dial_Refused(t *testing.T) {
	t.Parallel()

	mockNet := mocks_tcp.NewMockTCPNetwork()
	d, err := NewDialer("127.0.0.1:12346", &config.Dependencies{TCPDialer: mockNet.DialTCPContext})
	if err != nil {
		t.Fatalf("NewDialer() error = %v", err)
	}

	if _, err := d.Dial(context.Background()); err == nil {
		t.Error("Dial() without listener succeeded")
	}
}

func TestDialer_Dial_Cancelled(t *testing.T) {
	t.Parallel()

	mockNet := mocks_tcp.NewMockTCPNetwork()
	d, err := NewDialer("127.0.0.1:12347", &config.Dependencies{TCPDialer: mockNet.DialTCPContext})
	if err != nil {
		t.Fatalf("NewDialer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Dial(ctx); err == nil {
		t.Error("Dial() with cancelled context succeeded")
	}
}
