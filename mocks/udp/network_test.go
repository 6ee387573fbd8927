package udp

import (
	"testing"
)

func TestMockUDPNetwork_Exchange(t *testing.T) {
	t.Parallel()

	m := NewMockUDPNetwork()

	server, err := m.ListenPacket("udp", "127.0.0.1:9000")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer server.Close()

	client, err := m.ListenPacket("udp", ":0")
	if err != nil {
		t.Fatalf("ListenPacket(:0) error = %v", err)
	}
	defer client.Close()

	if _, err := client.WriteTo([]byte("ping"), server.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	buf := make([]byte, 16)
	n, from, err := server.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("ReadFrom() = %q, want ping", buf[:n])
	}
	if from.String() != client.LocalAddr().String() {
		t.Errorf("ReadFrom() addr = %s, want %s", from, client.LocalAddr())
	}
}

func TestMockUDPNetwork_Ephemeral(t *testing.T) {
	t.Parallel()

	m := NewMockUDPNetwork()
	a, err := m.ListenPacket("udp", ":0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	b, err := m.ListenPacket("udp", ":0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	if a.LocalAddr().String() == b.LocalAddr().String() {
		t.Errorf("two ephemeral conns share address %s", a.LocalAddr())
	}
}

func TestMockUDPNetwork_Closed(t *testing.T) {
	t.Parallel()

	m := NewMockUDPNetwork()
	pc, _ := m.ListenPacket("udp", "127.0.0.1:9001")
	pc.Close()

	if _, _, err := pc.ReadFrom(make([]byte, 1)); err == nil {
		t.Error("ReadFrom() on closed conn succeeded")
	}
	if err := m.WaitForListener("127.0.0.1:9001", 10); err == nil {
		t.Error("WaitForListener() found a closed conn")
	}
}
