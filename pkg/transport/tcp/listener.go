package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/semaphore"
	"dominicbreuker/anysock/pkg/transport"
)

// maxConns bounds the connections served at once.
const maxConns = 100

// ListenAndServe listens on addr and calls handler for every accepted
// connection, each on its own goroutine. Connections beyond maxConns wait up
// to timeout for a slot and are closed if none frees up.
// It blocks until ctx is cancelled, which is a clean shutdown, or accepting fails.
func ListenAndServe(ctx context.Context, addr string, timeout time.Duration, handler transport.Handler, logger *log.Logger, deps *config.Dependencies) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	listenerFn := config.GetTCPListenerFunc(deps)
	nl, err := listenerFn("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("listen(tcp, %s): %w", addr, err)
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sem := semaphore.New(maxConns, timeout)

	stop := context.AfterFunc(ctx, func() { _ = nl.Close() })
	defer stop()
	defer nl.Close()

	for {
		conn, err := nl.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("Accept(): %w", err)
		}

		if err := sem.Acquire(ctx); err != nil {
			logger.ErrorMsg("Rejecting connection from %s: %s\n", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		go func(conn net.Conn) {
			defer sem.Release()
			defer func() { _ = conn.Close() }()

			// Prevent panic from leaking the slot
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorMsg("Handler panic: %v\n", r)
				}
			}()

			logger.InfoMsg("New TCP connection from %s\n", conn.RemoteAddr())

			if err := handler(conn); err != nil {
				logger.ErrorMsg("Handling connection: %s\n", err)
			}
		}(conn)
	}
}
