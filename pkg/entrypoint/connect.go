// Package entrypoint runs the connect and listen modes. It joins a socket
// with the local terminal and keeps argument parsing out of the picture.
package entrypoint

import (
	"context"
	"fmt"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/net"
	"dominicbreuker/anysock/pkg/relay"
)

// Connect dials the peer described by cfg and relays between the socket
// and stdio until either side ends or ctx is cancelled.
func Connect(ctx context.Context, cfg *config.Shared) error {
	return connect(ctx, cfg, net.Dial, relay.Pipe, realStdio)
}

func connect(parent context.Context, cfg *config.Shared, dial dialFunc, pipe pipeFunc, stdio stdioFunc) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	strand := executor.New(cfg.Logger)
	defer strand.Close()

	s, err := dial(ctx, cfg, strand)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer s.Close()

	cfg.Logger.InfoMsg("Connected to %s\n", peer(s))

	if err := pipe(ctx, stdio(cfg.Deps), s, cfg.Logger); err != nil {
		return fmt.Errorf("relaying: %w", err)
	}

	cfg.Logger.VerboseMsg("Connection to %s closed\n", peer(s))
	return nil
}
