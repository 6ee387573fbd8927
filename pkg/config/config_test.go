package config

import (
	"fmt"
	"net"
	"testing"
	"time"

	"dominicbreuker/anysock/pkg/sockopt"
)

func TestProtocol_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		protocol Protocol
		want     string
	}{
		{"TCP", ProtoTCP, "tcp"},
		{"WebSocket", ProtoWS, "ws"},
		{"WebSocket Secure", ProtoWSS, "wss"},
		{"UDP", ProtoUDP, "udp"},
		{"Invalid", Protocol(999), ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.protocol.String(); got != tc.want {
				t.Errorf("Protocol.String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestShared_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      *Shared
		wantErrs int
	}{
		{
			name:     "valid config with SSL and key",
			cfg:      &Shared{Protocol: ProtoTCP, Host: "localhost", Port: 8080, SSL: true, Key: "secret"},
			wantErrs: 0,
		},
		{
			name:     "valid udp config with mux and buffers",
			cfg:      &Shared{Protocol: ProtoUDP, Port: 53, Mux: true, Sockopt: sockopt.Options{ReadBuffer: 4096}},
			wantErrs: 0,
		},
		{
			name:     "invalid: key without SSL",
			cfg:      &Shared{Protocol: ProtoTCP, Port: 8080, Key: "secret"},
			wantErrs: 1,
		},
		{
			name:     "invalid: port too low",
			cfg:      &Shared{Protocol: ProtoWS, Port: 0},
			wantErrs: 1,
		},
		{
			name:     "invalid: port too high",
			cfg:      &Shared{Protocol: ProtoWSS, Port: 65536},
			wantErrs: 1,
		},
		{
			name:     "valid: port 1",
			cfg:      &Shared{Protocol: ProtoTCP, Port: 1},
			wantErrs: 0,
		},
		{
			name:     "valid: port 65535",
			cfg:      &Shared{Protocol: ProtoTCP, Port: 65535},
			wantErrs: 0,
		},
		{
			name:     "invalid: unknown protocol",
			cfg:      &Shared{Port: 80},
			wantErrs: 1,
		},
		{
			name:     "invalid: negative timeout and buffer",
			cfg:      &Shared{Protocol: ProtoTCP, Port: 80, Timeout: -time.Second, Sockopt: sockopt.Options{WriteBuffer: -1}},
			wantErrs: 2,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs := tc.cfg.Validate()
			if len(errs) != tc.wantErrs {
				t.Errorf("Shared.Validate() errors = %v, want %d", errs, tc.wantErrs)
			}
		})
	}
}

func TestShared_GetKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Shared
		want string
	}{
		{
			name: "empty key",
			cfg:  &Shared{Key: ""},
			want: "",
		},
		{
			name: "with key",
			cfg:  &Shared{Key: "mykey"},
			want: KeySalt + "mykey",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.cfg.GetKey(); got != tc.want {
				t.Errorf("Shared.GetKey() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	t.Parallel()

	for port, wantErr := range map[int]bool{0: true, 1: false, 65535: false, 65536: true, -1: true} {
		t.Run(fmt.Sprint(port), func(t *testing.T) {
			t.Parallel()
			if err := validatePort(port); (err != nil) != wantErr {
				t.Errorf("validatePort(%d) error = %v, wantErr %v", port, err, wantErr)
			}
		})
	}
}

func TestGetFuncs_Defaults(t *testing.T) {
	t.Parallel()

	if GetTCPDialerFunc(nil) == nil || GetTCPListenerFunc(nil) == nil || GetPacketListenerFunc(nil) == nil {
		t.Error("network defaults should not be nil")
	}
	if GetStdinFunc(nil)() == nil || GetStdoutFunc(nil)() == nil {
		t.Error("stdio defaults should not be nil")
	}

	called := false
	deps := &Dependencies{PacketListener: func(network, address string) (net.PacketConn, error) {
		called = true
		return nil, nil
	}}
	_, _ = GetPacketListenerFunc(deps)("udp", ":0")
	if !called {
		t.Error("GetPacketListenerFunc() ignored the injected listener")
	}
}
