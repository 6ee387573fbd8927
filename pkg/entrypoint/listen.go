package entrypoint

import (
	"context"
	"fmt"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/net"
	"dominicbreuker/anysock/pkg/relay"
	"dominicbreuker/anysock/pkg/semaphore"
	"dominicbreuker/anysock/pkg/socket"
)

// Listen accepts connections on cfg's address until ctx is cancelled. One
// peer at a time is joined with stdio. Others are refused while it is active.
func Listen(ctx context.Context, cfg *config.Shared) error {
	return listen(ctx, cfg, net.ListenAndServe, relay.Pipe, realStdio)
}

func listen(parent context.Context, cfg *config.Shared, serve listenFunc, pipe pipeFunc, stdio stdioFunc) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sem := semaphore.New(1, 0)

	handler := func(s socket.Socket) error {
		if !sem.TryAcquire() {
			cfg.Logger.ErrorMsg("Refusing %s: already serving a peer\n", peer(s))
			return nil
		}
		defer sem.Release()

		cfg.Logger.InfoMsg("New connection from %s\n", peer(s))

		if err := pipe(ctx, stdio(cfg.Deps), s, cfg.Logger); err != nil {
			return fmt.Errorf("relaying with %s: %w", peer(s), err)
		}

		cfg.Logger.InfoMsg("Connection from %s closed\n", peer(s))
		return nil
	}

	if err := serve(ctx, cfg, handler); err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	return nil
}
