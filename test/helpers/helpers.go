// Package helpers provides common utilities for integration and end-to-end tests.
package helpers

import (
	"io"
	"time"

	"dominicbreuker/anysock/mocks"
	mocks_tcp "dominicbreuker/anysock/mocks/tcp"
	mocks_udp "dominicbreuker/anysock/mocks/udp"
	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/log"
)

// Setup holds both sides of a mocked connect/listen pair. Both share one
// in-memory TCP and one in-memory UDP network but have their own stdio.
type Setup struct {
	TCPNetwork *mocks_tcp.MockTCPNetwork
	UDPNetwork *mocks_udp.MockUDPNetwork

	ListenStdio  *mocks.MockStdio
	ConnectStdio *mocks.MockStdio

	ListenCfg  *config.Shared
	ConnectCfg *config.Shared
}

// SetupMockDependenciesAndConfigs returns a Setup whose configs describe
// "listen tcp://127.0.0.1:12345" and "connect tcp://127.0.0.1:12345".
// Tests change the configs before starting either side.
func SetupMockDependenciesAndConfigs() *Setup {
	s := &Setup{
		TCPNetwork:   mocks_tcp.NewMockTCPNetwork(),
		UDPNetwork:   mocks_udp.NewMockUDPNetwork(),
		ListenStdio:  mocks.NewMockStdio(),
		ConnectStdio: mocks.NewMockStdio(),
	}

	s.ListenCfg = s.newConfig(s.ListenStdio)
	s.ConnectCfg = s.newConfig(s.ConnectStdio)
	return s
}

func (s *Setup) newConfig(stdio *mocks.MockStdio) *config.Shared {
	return &config.Shared{
		Protocol: config.ProtoTCP,
		Host:     "127.0.0.1",
		Port:     12345,
		Timeout:  5 * time.Second,
		Logger:   log.NewLoggerTo(io.Discard, false),
		Deps: &config.Dependencies{
			TCPDialer:      s.TCPNetwork.DialTCPContext,
			TCPListener:    s.TCPNetwork.ListenTCP,
			PacketListener: s.UDPNetwork.ListenPacket,
			Stdin:          func() io.Reader { return stdio.GetStdin() },
			Stdout:         func() io.Writer { return stdio.GetStdout() },
		},
	}
}

// Configure applies fn to both configs.
func (s *Setup) Configure(fn func(*config.Shared)) {
	fn(s.ListenCfg)
	fn(s.ConnectCfg)
}

// Close releases the mocked stdio of both sides.
func (s *Setup) Close() {
	_ = s.ListenStdio.Close()
	_ = s.ConnectStdio.Close()
}
