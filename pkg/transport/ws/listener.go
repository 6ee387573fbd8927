package ws

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/crypto"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/semaphore"
	"dominicbreuker/anysock/pkg/transport"

	"github.com/coder/websocket"
)

// maxConns bounds the WebSocket connections served at once. Upgrades beyond
// it are answered with HTTP 503.
const maxConns = 100

type rawConnKey struct{}

// ListenAndServeWS serves plain WebSocket connections on addr until ctx is
// cancelled. handler runs once per accepted connection, which is closed when
// handler returns.
func ListenAndServeWS(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger, deps *config.Dependencies) error {
	return listenAndServe(ctx, addr, false, handler, logger, deps)
}

// ListenAndServeWSS is ListenAndServeWS over HTTPS with an ephemeral
// self-signed certificate.
func ListenAndServeWSS(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger, deps *config.Dependencies) error {
	return listenAndServe(ctx, addr, true, handler, logger, deps)
}

func listenAndServe(ctx context.Context, addr string, useTLS bool, handler transport.Handler, logger *log.Logger, deps *config.Dependencies) error {
	nl, err := listen(addr, useTLS, deps)
	if err != nil {
		return err
	}
	defer nl.Close()

	sem := semaphore.New(maxConns, 0)

	server := &http.Server{
		Handler: upgradeHandler(ctx, handler, logger, sem),
		ConnContext: func(ctx context.Context, c net.Conn) context.Context {
			return context.WithValue(ctx, rawConnKey{}, c)
		},

		// Long lived tunnels: only the header phase is bounded.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(nl)
	}()

	select {
	case <-ctx.Done():
		_ = nl.Close()
		err = <-errCh
	case err = <-errCh:
	}

	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("http.Server.Serve(): %w", err)
}

func listen(addr string, useTLS bool, deps *config.Dependencies) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	nl, err := config.GetTCPListenerFunc(deps)("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen(tcp, %s): %w", tcpAddr.String(), err)
	}

	if !useTLS {
		return nl, nil
	}

	_, cert, err := crypto.GenerateCertificates(rand.Text())
	if err != nil {
		_ = nl.Close()
		return nil, fmt.Errorf("crypto.GenerateCertificates(): %w", err)
	}

	return tls.NewListener(nl, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}), nil
}

func upgradeHandler(ctx context.Context, handler transport.Handler, logger *log.Logger, sem *semaphore.ConnSemaphore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sem.TryAcquire() {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		defer sem.Release()

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols: []string{subprotocol},
		})
		if err != nil {
			logger.ErrorMsg("websocket.Accept(): %s\n", err)
			return
		}

		raw, _ := r.Context().Value(rawConnKey{}).(net.Conn)
		conn := newConn(ctx, c, raw)
		defer func() { _ = conn.Close() }()

		// Prevent panic from leaking the slot
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorMsg("Handler panic: %v\n", r)
			}
		}()

		logger.InfoMsg("New WS connection from %s\n", conn.RemoteAddr())

		if err := handler(conn); err != nil {
			logger.ErrorMsg("Handling connection: %s\n", err)
		}
	}
}
