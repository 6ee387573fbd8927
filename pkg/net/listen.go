package net

import (
	"context"
	"fmt"
	"net"
	"time"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/format"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/socket"
	"dominicbreuker/anysock/pkg/transport"
	"dominicbreuker/anysock/pkg/transport/mux"
	"dominicbreuker/anysock/pkg/transport/tcp"
	"dominicbreuker/anysock/pkg/transport/udp"
	"dominicbreuker/anysock/pkg/transport/ws"
)

// Handler serves one accepted socket. The socket is closed after it returns.
type Handler func(socket.Socket) error

// listenDependencies lets tests replace the transport listeners.
type listenDependencies struct {
	listenAndServeTCP func(context.Context, string, time.Duration, transport.Handler, *log.Logger, *config.Dependencies) error
	listenAndServeWS  func(context.Context, string, transport.Handler, *log.Logger, *config.Dependencies) error
	listenAndServeWSS func(context.Context, string, transport.Handler, *log.Logger, *config.Dependencies) error
	listenAndServeUDP func(context.Context, string, transport.Handler, *log.Logger, *config.Dependencies) error
}

// ListenAndServe accepts connections on cfg's address until ctx is cancelled
// and calls handler with each as a Socket. Every socket gets an executor of
// its own, closed together with the socket once handler returns. With
// cfg.Mux every stream the peer opens is a socket of its own.
func ListenAndServe(ctx context.Context, cfg *config.Shared, handler Handler) error {
	deps := &listenDependencies{
		listenAndServeTCP: tcp.ListenAndServe,
		listenAndServeWS:  ws.ListenAndServeWS,
		listenAndServeWSS: ws.ListenAndServeWSS,
		listenAndServeUDP: udp.ListenAndServe,
	}
	return listenAndServe(ctx, cfg, handler, deps)
}

func listenAndServe(ctx context.Context, cfg *config.Shared, handler Handler, deps *listenDependencies) error {
	addr := format.Addr(cfg.Host, cfg.Port)

	connHandler, err := connectionHandler(ctx, cfg, handler)
	if err != nil {
		return err
	}

	cfg.Logger.InfoMsg("Listening on %s\n", format.URL(cfg.Protocol.String(), cfg.Host, cfg.Port))

	switch cfg.Protocol {
	case config.ProtoWS:
		err = deps.listenAndServeWS(ctx, addr, connHandler, cfg.Logger, cfg.Deps)
	case config.ProtoWSS:
		err = deps.listenAndServeWSS(ctx, addr, connHandler, cfg.Logger, cfg.Deps)
	case config.ProtoUDP:
		err = deps.listenAndServeUDP(ctx, addr, connHandler, cfg.Logger, cfg.Deps)
	default:
		err = deps.listenAndServeTCP(ctx, addr, cfg.Timeout, connHandler, cfg.Logger, cfg.Deps)
	}
	if err != nil {
		return fmt.Errorf("serving %s: %w", cfg.Protocol, err)
	}
	return nil
}

// connectionHandler layers TLS, traffic log and mux onto accepted transport
// connections before handing them to handler as sockets.
func connectionHandler(ctx context.Context, cfg *config.Shared, handler Handler) (transport.Handler, error) {
	var tlsConfig *tlsServerConfig
	if cfg.SSL {
		c, err := buildServerTLSConfig(cfg.GetKey(), cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("building server TLS config: %w", err)
		}
		tlsConfig = c
	}

	serve := func(conn net.Conn) error {
		return serveSocket(cfg, conn, handler)
	}

	return func(conn net.Conn) error {
		if tlsConfig != nil {
			tlsConn, err := tlsConfig.upgrade(conn, cfg.Timeout, cfg.Logger)
			if err != nil {
				return fmt.Errorf("TLS handshake with %s: %w", conn.RemoteAddr(), err)
			}
			conn = tlsConn
		}

		conn, err := logTraffic(conn, cfg)
		if err != nil {
			return err
		}

		if cfg.Mux {
			return mux.Serve(ctx, conn, serve, cfg.Logger)
		}
		return serve(conn)
	}, nil
}

func serveSocket(cfg *config.Shared, conn net.Conn, handler Handler) error {
	strand := executor.New(cfg.Logger)
	defer strand.Close()

	s := open(cfg, conn, strand)
	defer s.Close()

	configure(s, cfg)

	return handler(s)
}
