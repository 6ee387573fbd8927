// Package relay copies data between a local stream, such as the terminal,
// and an erased socket. It only knows socket.Socket, never the transport
// behind it.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/socket"

	"github.com/muesli/cancelreader"
)

const bufSize = 32 * 1024

// Pipe relays between rwc and s in both directions until one direction ends
// or ctx is cancelled, then closes both. Reaching the end of either stream is
// a clean finish and returns nil.
func Pipe(ctx context.Context, rwc io.ReadWriteCloser, s socket.Socket, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	s.Post(func() { receive(s, rwc, errCh) })
	go func() { errCh <- send(ctx, rwc, s) }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.VerboseMsg("Relay cancelled")
	}

	_ = rwc.Close()
	_ = s.Close()

	if isEnd(err) {
		logger.VerboseMsg("Relay finished")
		return nil
	}
	return err
}

// receive chains reads on s, writing each chunk to w before reading the
// next. It reports exactly once on errCh.
func receive(s socket.Socket, w io.Writer, errCh chan<- error) {
	buf := make([]byte, bufSize)

	var next func()
	next = func() {
		s.AsyncRead(buf, func(err error, n int) {
			if n > 0 {
				if _, werr := w.Write(buf[:n]); werr != nil {
					errCh <- fmt.Errorf("writing received data: %w", werr)
					return
				}
			}
			if err != nil {
				errCh <- fmt.Errorf("AsyncRead(): %w", err)
				return
			}
			next()
		})
	}
	next()
}

// send reads r and writes every chunk to s, one write in flight at a time.
func send(ctx context.Context, r io.Reader, s socket.Socket) error {
	buf := make([]byte, bufSize)
	done := make(chan error, 1)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.AsyncWrite([][]byte{buf[:n]}, func(werr error, _ int) { done <- werr })

			select {
			case werr := <-done:
				if werr != nil {
					return fmt.Errorf("AsyncWrite(): %w", werr)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			return fmt.Errorf("reading data to send: %w", err)
		}
	}
}

// isEnd reports whether err only says that one side is done.
func isEnd(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, cancelreader.ErrCanceled) ||
		errors.Is(err, context.Canceled)
}
