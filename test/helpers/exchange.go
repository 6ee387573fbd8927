package helpers

import (
	"context"
	"testing"
	"time"

	"dominicbreuker/anysock/pkg/entrypoint"
)

// Exchange runs both sides of s. It waits for ready to report the listener,
// sends a line each way, ends the connecting side by closing its stdin and
// finally cancels the listener. Any failure is reported on t.
func Exchange(t *testing.T, s *Setup, ready func() error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	listenErr := make(chan error, 1)
	go func() { listenErr <- entrypoint.Listen(ctx, s.ListenCfg) }()

	if err := ready(); err != nil {
		t.Fatalf("listener failed to start: %v", err)
	}

	connectErr := make(chan error, 1)
	go func() { connectErr <- entrypoint.Connect(ctx, s.ConnectCfg) }()

	if _, err := s.ConnectStdio.WriteToStdin([]byte("Hello from connect!\n")); err != nil {
		t.Fatalf("writing connect stdin: %v", err)
	}
	if err := s.ListenStdio.WaitForOutput("Hello from connect!", 5000); err != nil {
		t.Fatalf("listen side: %v (stdout %q)", err, s.ListenStdio.ReadFromStdout())
	}

	if _, err := s.ListenStdio.WriteToStdin([]byte("Hello from listen!\n")); err != nil {
		t.Fatalf("writing listen stdin: %v", err)
	}
	if err := s.ConnectStdio.WaitForOutput("Hello from listen!", 5000); err != nil {
		t.Fatalf("connect side: %v (stdout %q)", err, s.ConnectStdio.ReadFromStdout())
	}

	_ = s.ConnectStdio.CloseStdin()
	select {
	case err := <-connectErr:
		if err != nil {
			t.Errorf("Connect() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Connect() did not return after stdin was closed")
	}

	cancel()
	select {
	case <-listenErr:
		// cancellation may surface as an error depending on the transport
	case <-time.After(5 * time.Second):
		t.Fatal("Listen() did not return after cancel")
	}
}
