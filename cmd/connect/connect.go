// Package connect implements the "connect" command.
package connect

import (
	"context"
	"fmt"

	"dominicbreuker/anysock/cmd/shared"
	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/entrypoint"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the "connect" command. deps may be nil.
func GetCommand(deps *config.Dependencies) *cli.Command {
	return &cli.Command{
		Name:        "connect",
		Usage:       "Connect to a remote host and relay stdio",
		Description: shared.GetBaseDescription(),
		ArgsUsage:   shared.GetArgsUsage(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			proto, host, port, err := shared.ParseArgs(cmd.Args().Slice(), true)
			if err != nil {
				return err
			}

			cfg := shared.NewConfig(cmd, proto, host, port, deps)
			if err := shared.Validate(cfg); err != nil {
				return err
			}

			cfg.Logger.VerboseMsg("Connecting to %s\n", cmd.Args().First())
			shared.PrintHint(config.GetStdinFunc(deps)(), cfg.Logger)

			if err := entrypoint.Connect(ctx, cfg); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			return nil
		},
		Flags: shared.GetFlags(),
	}
}
