package main

import (
	"context"
	"os"

	"dominicbreuker/anysock/cmd/connect"
	"dominicbreuker/anysock/cmd/listen"
	"dominicbreuker/anysock/cmd/shared"
	"dominicbreuker/anysock/cmd/version"
	"dominicbreuker/anysock/pkg/log"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "anysock",
		Usage: "relay stdio over tcp, ws, wss or udp sockets",
		Commands: []*cli.Command{
			connect.GetCommand(nil),
			listen.GetCommand(nil),
			version.GetCommand(),
		},
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shared.SetupSignalHandling(cancel)

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.ErrorMsg("Error: %s\n", err)
		os.Exit(1)
	}
}
