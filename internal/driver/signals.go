package driver

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// IgnoreSIGPIPE drops SIGPIPE instead of letting the default disposition
// kill the process, so writing report output into a closed pipe (`rumdl
// check | head`) exits cleanly instead of dying with a broken-pipe signal.
// The returned stop func restores the default disposition.
func IgnoreSIGPIPE() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGPIPE)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigCh:
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		signal.Stop(sigCh)
	}
}
