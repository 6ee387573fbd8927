// Package net dials and serves connections as configured by config.Shared
// and hands them out as erased sockets. It layers the optional pieces on top
// of the transport connection, in this order on both sides: TLS, traffic
// log, yamux stream. Socket options then go to the lowest layer.
package net

import (
	"context"
	"fmt"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/format"
	"dominicbreuker/anysock/pkg/socket"
)

// Dial connects to cfg's address and returns the connection as a Socket
// whose completions are posted to p. ctx bounds the dial; WebSocket
// connections also close when it is cancelled.
func Dial(ctx context.Context, cfg *config.Shared, p executor.Poster) (socket.Socket, error) {
	deps := &dialDependencies{
		newTCPDialer: realNewTCPDialer,
		newWSDialer:  realNewWSDialer,
		newUDPDialer: realNewUDPDialer,
	}
	return dial(ctx, cfg, p, deps)
}

func dial(ctx context.Context, cfg *config.Shared, p executor.Poster, deps *dialDependencies) (socket.Socket, error) {
	addr := format.Addr(cfg.Host, cfg.Port)

	cfg.Logger.InfoMsg("Connecting to %s\n", format.URL(cfg.Protocol.String(), cfg.Host, cfg.Port))

	dialer, err := createDialer(ctx, cfg, deps)
	if err != nil {
		return socket.Socket{}, fmt.Errorf("creating dialer: %w", err)
	}

	conn, err := establishConnection(ctx, dialer, cfg)
	if err != nil {
		return socket.Socket{}, fmt.Errorf("establishing connection to %s: %w", addr, err)
	}

	if cfg.SSL {
		cfg.Logger.VerboseMsg("Upgrading connection to TLS")
		tlsConn, err := upgradeTLS(conn, cfg)
		if err != nil {
			_ = conn.Close() // Close the original connection, not the nil tlsConn
			return socket.Socket{}, fmt.Errorf("upgrading to TLS: %w", err)
		}
		conn = tlsConn
	}

	conn, err = logTraffic(conn, cfg)
	if err != nil {
		return socket.Socket{}, err
	}

	if cfg.Mux {
		cfg.Logger.VerboseMsg("Opening mux stream")
		conn, err = openStream(ctx, conn, cfg)
		if err != nil {
			return socket.Socket{}, fmt.Errorf("opening mux stream: %w", err)
		}
	}

	s := open(cfg, conn, p)
	configure(s, cfg)

	cfg.Logger.VerboseMsg("Connected, native handle %v (%v)", s.NativeHandle(), socket.HandleType(s))
	return s, nil
}
