// Package mux runs yamux sessions over any established connection. A dialing
// side opens a single stream and owns the session through it; a listening
// side serves every stream the peer opens. Streams expose the session's
// connection through NetConn, so the lowest layer of an erased stream is the
// transport connection the session runs on.
package mux

import (
	"context"
	"errors"
	"fmt"
	"io"
	golog "log"
	"net"
	"sync"
	"time"

	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/transport"

	"github.com/hashicorp/yamux"
)

// Stream is a yamux stream used as a net.Conn.
type Stream struct {
	*yamux.Stream
	sess  *yamux.Session
	lower net.Conn
	owner bool
}

// NetConn returns the connection the stream's session runs on.
func (s *Stream) NetConn() net.Conn {
	return s.lower
}

// Close closes the stream. A stream opened by Client also closes its session
// and with it the underlying connection.
func (s *Stream) Close() error {
	err := s.Stream.Close()
	if s.owner {
		_ = s.sess.Close()
	}
	return err
}

// ID returns the yamux stream id.
func (s *Stream) ID() uint32 {
	return s.StreamID()
}

// Client starts a client session on conn and opens one stream. Opening is
// bounded by ctx and, if positive, timeout. On failure conn is closed.
func Client(ctx context.Context, conn net.Conn, timeout time.Duration) (*Stream, error) {
	sess, err := yamux.Client(conn, config())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("yamux.Client(conn): %w", err)
	}

	if _, has := ctx.Deadline(); !has && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		s   *yamux.Stream
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		s, err := sess.OpenStream()
		resCh <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		return nil, fmt.Errorf("session.OpenStream(): %w", ctx.Err())
	case r := <-resCh:
		if r.err != nil {
			_ = sess.Close()
			return nil, fmt.Errorf("session.OpenStream(): %w", r.err)
		}
		return &Stream{Stream: r.s, sess: sess, lower: conn, owner: true}, nil
	}
}

// Serve starts a server session on conn and calls handler for every stream
// the peer opens, each on its own goroutine. Streams are closed when their
// handler returns. Serve returns once the session ends or ctx is cancelled,
// after all handlers have returned, and closes the session.
func Serve(ctx context.Context, conn net.Conn, handler transport.Handler, logger *log.Logger) error {
	sess, err := yamux.Server(conn, config())
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("yamux.Server(conn): %w", err)
	}
	defer sess.Close()

	stop := context.AfterFunc(ctx, func() { _ = sess.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		ys, err := sess.AcceptStream()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, yamux.ErrSessionShutdown) {
				return nil
			}
			return fmt.Errorf("session.AcceptStream(): %w", err)
		}

		wg.Add(1)
		go func(s *Stream) {
			defer wg.Done()
			defer func() { _ = s.Close() }()

			defer func() {
				if r := recover(); r != nil {
					logger.ErrorMsg("Handler panic: %v\n", r)
				}
			}()

			logger.VerboseMsg("Accepted mux stream %d", s.ID())

			if err := handler(s); err != nil {
				logger.ErrorMsg("Handling mux stream: %s\n", err)
			}
		}(&Stream{Stream: ys, sess: sess, lower: conn})
	}
}

func config() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.LogOutput = nil
	cfg.Logger = golog.New(io.Discard, "", golog.LstdFlags) // discard all console logging in yamux
	return cfg
}
