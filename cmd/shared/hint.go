package shared

import (
	"io"
	"os"

	"dominicbreuker/anysock/pkg/log"

	"golang.org/x/term"
)

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintHint tells an interactive user how to end the session. Nothing is
// printed when stdin is redirected.
func PrintHint(stdin io.Reader, logger *log.Logger) {
	if !IsTerminal(stdin) {
		return
	}
	logger.InfoMsg("Connected, type to send. Ctrl-D closes the connection, Ctrl-C exits.\n")
}
