package config

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
)

func TestGetTCPDialerFunc(t *testing.T) {
	t.Parallel()

	if GetTCPDialerFunc(nil) == nil {
		t.Fatal("GetTCPDialerFunc(nil) returned nil")
	}

	wantErr := errors.New("mock dial")
	deps := &Dependencies{
		TCPDialer: func(ctx context.Context, network string, laddr, raddr *net.TCPAddr) (net.Conn, error) {
			return nil, wantErr
		},
	}
	_, err := GetTCPDialerFunc(deps)(context.Background(), "tcp", nil, &net.TCPAddr{})
	if !errors.Is(err, wantErr) {
		t.Errorf("injected dialer not used, error = %v", err)
	}
}

func TestGetTCPListenerFunc(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("mock listen")
	deps := &Dependencies{
		TCPListener: func(network string, laddr *net.TCPAddr) (net.Listener, error) {
			return nil, wantErr
		},
	}
	if _, err := GetTCPListenerFunc(deps)("tcp", &net.TCPAddr{}); !errors.Is(err, wantErr) {
		t.Errorf("injected listener not used, error = %v", err)
	}
	if GetTCPListenerFunc(&Dependencies{}) == nil {
		t.Error("GetTCPListenerFunc() with empty deps returned nil")
	}
}

func TestGetPacketListenerFunc(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("mock packet")
	deps := &Dependencies{
		PacketListener: func(network, address string) (net.PacketConn, error) {
			return nil, wantErr
		},
	}
	if _, err := GetPacketListenerFunc(deps)("udp", ":0"); !errors.Is(err, wantErr) {
		t.Errorf("injected packet listener not used, error = %v", err)
	}
}

func TestGetStdioFuncs(t *testing.T) {
	t.Parallel()

	if GetStdinFunc(nil)() != io.Reader(os.Stdin) {
		t.Error("default stdin is not os.Stdin")
	}
	if GetStdoutFunc(nil)() != io.Writer(os.Stdout) {
		t.Error("default stdout is not os.Stdout")
	}

	in := strings.NewReader("input")
	out := &bytes.Buffer{}
	deps := &Dependencies{
		Stdin:  func() io.Reader { return in },
		Stdout: func() io.Writer { return out },
	}
	if GetStdinFunc(deps)() != io.Reader(in) {
		t.Error("injected stdin not used")
	}
	if GetStdoutFunc(deps)() != io.Writer(out) {
		t.Error("injected stdout not used")
	}
}
