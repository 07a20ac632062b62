// Package sigctx provides a root context that cancels on SIGINT or
// SIGTERM, so a batch run can be interrupted cleanly between tracks.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context canceled by the first interrupt or termination
// signal. A second signal kills the process the usual way.
func New() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
		signal.Stop(ch)
	}()

	return ctx
}
