package entrypoint

import (
	"context"
	"io"
	"sync"

	"dominicbreuker/anysock/mocks"
	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/net"
	"dominicbreuker/anysock/pkg/socket"
)

func testConfig() *config.Shared {
	return &config.Shared{
		Protocol: config.ProtoTCP,
		Host:     "localhost",
		Port:     8080,
		Logger:   log.NewLoggerTo(io.Discard, true),
	}
}

// nopStdio is a local stream that is never read from or written to.
type nopStdio struct {
	mu     sync.Mutex
	closed bool
}

func (n *nopStdio) Read(b []byte) (int, error)  { return 0, io.EOF }
func (n *nopStdio) Write(b []byte) (int, error) { return len(b), nil }
func (n *nopStdio) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func newFakeDial(m *mocks.MockSocket, err error) dialFunc {
	return func(context.Context, *config.Shared, executor.Poster) (socket.Socket, error) {
		if err != nil {
			return socket.Socket{}, err
		}
		return socket.New[int](m), nil
	}
}

func newFakePipe(err error, cb func()) pipeFunc {
	return func(ctx context.Context, rwc io.ReadWriteCloser, s socket.Socket, logger *log.Logger) error {
		if cb != nil {
			cb()
		}
		return err
	}
}

// newFakeServe calls handler once per socket, concurrently, and returns
// once all handlers have finished.
func newFakeServe(err error, socks ...*mocks.MockSocket) listenFunc {
	return func(ctx context.Context, cfg *config.Shared, handler net.Handler) error {
		var wg sync.WaitGroup
		errs := make(chan error, len(socks))
		for _, m := range socks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- handler(socket.New[int](m))
			}()
		}
		wg.Wait()
		close(errs)
		for e := range errs {
			if e != nil {
				return e
			}
		}
		return err
	}
}
