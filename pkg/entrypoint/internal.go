package entrypoint

import (
	"context"
	"io"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/executor"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/net"
	"dominicbreuker/anysock/pkg/relay"
	"dominicbreuker/anysock/pkg/socket"
)

// dialFunc opens a socket to the configured peer.
type dialFunc func(context.Context, *config.Shared, executor.Poster) (socket.Socket, error)

// listenFunc serves sockets accepted on the configured address.
type listenFunc func(context.Context, *config.Shared, net.Handler) error

// pipeFunc relays between a local stream and a socket until either ends.
type pipeFunc func(context.Context, io.ReadWriteCloser, socket.Socket, *log.Logger) error

// stdioFunc returns the local stream for one session.
type stdioFunc func(*config.Dependencies) io.ReadWriteCloser

func realStdio(deps *config.Dependencies) io.ReadWriteCloser {
	return relay.NewStdio(config.GetStdinFunc(deps)(), config.GetStdoutFunc(deps)())
}

// peer names the remote end of s for log messages.
func peer(s socket.Socket) string {
	if c := s.LowestLayer(); c != nil && c.RemoteAddr() != nil {
		return c.RemoteAddr().String()
	}
	return "peer"
}
