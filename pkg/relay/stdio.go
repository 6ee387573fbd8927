package relay

import (
	"io"
	"sync/atomic"

	"github.com/muesli/cancelreader"
)

// Stdio joins a stdin reader and a stdout writer into an
// io.ReadWriteCloser. Close interrupts a pending Read where the platform
// allows it, and makes later reads fail everywhere.
type Stdio struct {
	in     io.Reader
	cancel cancelreader.CancelReader
	out    io.Writer
	closed atomic.Bool
}

// NewStdio wraps in and out, usually os.Stdin and os.Stdout.
func NewStdio(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{in: in, out: out}

	if cr, err := cancelreader.NewReader(in); err == nil {
		s.cancel = cr
	}
	return s
}

// Read reads from stdin.
func (s *Stdio) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, cancelreader.ErrCanceled
	}
	if s.cancel != nil {
		return s.cancel.Read(p)
	}
	return s.in.Read(p)
}

// Write writes to stdout.
func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// Close cancels reading from stdin. Stdout stays usable.
func (s *Stdio) Close() error {
	s.closed.Store(true)
	if s.cancel != nil {
		s.cancel.Cancel()
	}
	return nil
}
