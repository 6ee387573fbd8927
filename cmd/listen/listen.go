// Package listen implements the "listen" command.
package listen

import (
	"context"
	"fmt"

	"dominicbreuker/anysock/cmd/shared"
	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/entrypoint"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the "listen" command. deps may be nil.
func GetCommand(deps *config.Dependencies) *cli.Command {
	return &cli.Command{
		Name:        "listen",
		Usage:       "Listen for a connection and relay stdio",
		Description: shared.GetBaseDescription(),
		ArgsUsage:   shared.GetArgsUsage(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			proto, host, port, err := shared.ParseArgs(cmd.Args().Slice(), false)
			if err != nil {
				return err
			}

			cfg := shared.NewConfig(cmd, proto, host, port, deps)
			if err := shared.Validate(cfg); err != nil {
				return err
			}

			if err := entrypoint.Listen(ctx, cfg); err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		},
		Flags: shared.GetFlags(),
	}
}
