package version

import (
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()

	if cmd.Name != "version" {
		t.Errorf("command name = %q; want %q", cmd.Name, "version")
	}
	if cmd.Usage == "" {
		t.Error("command usage should not be empty")
	}
	if cmd.Action == nil {
		t.Fatal("command action should not be nil")
	}
	if err := cmd.Action(context.Background(), &cli.Command{}); err != nil {
		t.Errorf("Action() returned unexpected error: %v", err)
	}
}

func TestVersion_DefaultValue(t *testing.T) {
	t.Parallel()

	if Version == "" {
		t.Error("Version should have a default value")
	}
}
