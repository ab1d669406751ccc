package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// HandleTerminationProcess runs cleanup on the first SIGINT or SIGTERM so the
// process can shut down gracefully. A second signal exits right away.
// The returned function stops listening.
func HandleTerminationProcess(cleanup func()) (stop func()) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go watchSignals(c, done, cleanup, os.Exit)

	return func() {
		signal.Stop(c)
		close(done)
	}
}

func watchSignals(c <-chan os.Signal, done <-chan struct{}, cleanup func(), exit func(int)) {
	select {
	case <-c:
		cleanup()
	case <-done:
		return
	}

	select {
	case <-c:
		exit(1)
	case <-done:
	}
}
