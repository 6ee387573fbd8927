package shared

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

// gracePeriod bounds how long cleanup may take after the first signal.
const gracePeriod = 5 * time.Second

// SetupSignalHandling calls cancel when the process is asked to stop. The
// process exits anyway if a second signal arrives or cleanup exceeds
// gracePeriod.
func SetupSignalHandling(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, stopSignals()...)

	go func() {
		first := <-sigCh
		cancel()

		timer := time.NewTimer(gracePeriod)
		select {
		case <-sigCh:
			os.Exit(exitCode(first))
		case <-timer.C:
			os.Exit(0)
		}
	}()
}

func stopSignals() []os.Signal {
	if runtime.GOOS == "windows" {
		return []os.Signal{os.Interrupt}
	}

	// writes to a closed peer must fail with EPIPE instead
	signal.Ignore(syscall.SIGPIPE)
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}
}

func exitCode(s os.Signal) int {
	if ss, ok := s.(syscall.Signal); ok {
		return 128 + int(ss)
	}
	return 1
}
