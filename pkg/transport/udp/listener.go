package udp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/semaphore"
	"dominicbreuker/anysock/pkg/transport"

	kcp "github.com/xtaci/kcp-go/v5"
)

// maxConns bounds the sessions served at once; extra sessions are closed.
const maxConns = 100

// Listener implements the transport.Listener interface for KCP over UDP.
type Listener struct {
	kcpListener *kcp.Listener
	pc          net.PacketConn
	sem         *semaphore.ConnSemaphore
	logger      *log.Logger
}

// NewListener creates a new UDP listener with KCP on the specified address.
// The deps parameter is optional and can be nil to use default implementations.
func NewListener(addr string, logger *log.Logger, deps *config.Dependencies) (*Listener, error) {
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}

	pc, err := config.GetPacketListenerFunc(deps)("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen(udp, %s): %w", addr, err)
	}

	kl, err := kcp.ServeConn(nil, 0, 0, pc)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("kcp.ServeConn(): %w", err)
	}

	return &Listener{
		kcpListener: kl,
		pc:          pc,
		sem:         semaphore.New(maxConns, 0),
		logger:      logger,
	}, nil
}

// Addr returns the listener's local address.
func (l *Listener) Addr() net.Addr {
	return l.kcpListener.Addr()
}

// Serve accepts KCP sessions and runs handle for each on its own goroutine,
// closing the session when handle returns. It returns nil once the listener
// is closed.
func (l *Listener) Serve(handle transport.Handler) error {
	for {
		sess, err := l.kcpListener.AcceptKCP()
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return fmt.Errorf("AcceptKCP(): %w", err)
		}
		tune(sess)

		if !l.sem.TryAcquire() {
			l.logger.ErrorMsg("Rejecting UDP session from %s: too many connections\n", sess.RemoteAddr())
			_ = sess.Close()
			continue
		}

		go func(conn *Session) {
			defer l.sem.Release()
			defer func() { _ = conn.Close() }()

			// Prevent a panic from leaking the slot.
			defer func() {
				if r := recover(); r != nil {
					l.logger.ErrorMsg("Handler panic: %v\n", r)
				}
			}()

			l.logger.InfoMsg("New UDP session from %s\n", conn.RemoteAddr())

			if err := handle(conn); err != nil {
				l.logger.ErrorMsg("Handling connection: %s\n", err)
			}
		}(&Session{UDPSession: sess})
	}
}

// Close stops the listener and its packet conn, which the accepted sessions
// share, so they stop working too.
func (l *Listener) Close() error {
	err := l.kcpListener.Close()
	_ = l.pc.Close()
	return err
}

// ListenAndServe serves KCP sessions on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger, deps *config.Dependencies) error {
	l, err := NewListener(addr, logger, deps)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()
	defer l.Close()

	return l.Serve(handler)
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

var _ transport.Listener = (*Listener)(nil)
var _ transport.Dialer = (*Dialer)(nil)
