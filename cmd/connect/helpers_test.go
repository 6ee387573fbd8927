package connect

import (
	"net"
	"testing"
)

func mustAddr(t *testing.T, s string) *net.TCPAddr {
	t.Helper()
	addr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		t.Fatalf("ResolveTCPAddr(%q) error = %v", s, err)
	}
	return addr
}
