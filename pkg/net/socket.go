package net

import (
	"errors"
	"net"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/sockopt"
	"dominicbreuker/anysock/pkg/transport/mux"
	"dominicbreuker/anysock/pkg/transport/tcp"
	"dominicbreuker/anysock/pkg/transport/udp"
	"dominicbreuker/anysock/pkg/transport/ws"
)

// open erases conn with the Open function of the layer that determines its
// native handle: the mux stream if there is one, else the transport.
func open(cfg *config.Shared, conn net.Conn, p executor.Poster) socket.Socket {
	if cfg.Mux {
		return mux.Open(conn, p)
	}

	switch cfg.Protocol {
	case config.ProtoWS, config.ProtoWSS:
		return ws.Open(conn, p)
	case config.ProtoUDP:
		return udp.Open(conn, p)
	default:
		return tcp.Open(conn, p)
	}
}

// configure applies cfg's socket options to the lowest layer of s. Failures
// are logged.
func configure(s socket.Socket, cfg *config.Shared) {
	if cfg.Sockopt == (sockopt.Options{}) {
		return
	}

	err := sockopt.Apply(s.LowestLayer(), cfg.Sockopt)
	switch {
	case errors.Is(err, sockopt.ErrUnsupported):
		cfg.Logger.VerboseMsg("Socket options not supported by %T\n", s.LowestLayer())
	case err != nil:
		cfg.Logger.ErrorMsg("Applying socket options: %s\n", err)
	default:
		cfg.Logger.VerboseMsg("Applied socket options %+v\n", cfg.Sockopt)
	}
}
