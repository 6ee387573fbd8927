// Package mocks provides test doubles: an erased-socket transport with call
// recording, and in-memory stdio.
package mocks

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MockStdio stands in for the terminal. Tests feed stdin with WriteToStdin
// and inspect everything written to stdout.
type MockStdio struct {
	stdinR *io.PipeReader
	stdinW *io.PipeWriter

	mu      sync.Mutex
	out     bytes.Buffer
	changed chan struct{} // closed and replaced on every write to stdout
}

// NewMockStdio creates a new mock stdio.
func NewMockStdio() *MockStdio {
	r, w := io.Pipe()
	return &MockStdio{
		stdinR:  r,
		stdinW:  w,
		changed: make(chan struct{}),
	}
}

// WriteToStdin feeds data to stdin. It blocks until the data is read.
func (m *MockStdio) WriteToStdin(data []byte) (int, error) {
	return m.stdinW.Write(data)
}

// CloseStdin ends stdin, as a user pressing Ctrl-D would.
func (m *MockStdio) CloseStdin() error {
	return m.stdinW.Close()
}

// ReadFromStdout returns everything written to stdout so far.
func (m *MockStdio) ReadFromStdout() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.out.String()
}

// GetStdin matches config.StdinFunc.
func (m *MockStdio) GetStdin() io.Reader {
	return m.stdinR
}

// GetStdout matches config.StdoutFunc.
func (m *MockStdio) GetStdout() io.Writer {
	return stdoutWriter{m}
}

type stdoutWriter struct {
	m *MockStdio
}

func (w stdoutWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	n, err := w.m.out.Write(p)
	close(w.m.changed)
	w.m.changed = make(chan struct{})
	return n, err
}

// WaitForOutput waits up to timeoutMs milliseconds for stdout to contain
// expected.
func (m *MockStdio) WaitForOutput(expected string, timeoutMs int) error {
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()

	for {
		m.mu.Lock()
		got := m.out.String()
		changed := m.changed
		m.mu.Unlock()

		if strings.Contains(got, expected) {
			return nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return fmt.Errorf("timeout waiting for output %q, got: %q", expected, got)
		}
	}
}

// Close ends stdin.
func (m *MockStdio) Close() error {
	return m.stdinW.Close()
}
