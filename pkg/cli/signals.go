package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM, so
// an in-flight push or test run can stop cleanly — cancelling remaining
// instance pushes and letting already-dispatched ones finish — rather than
// leaving a deployment half-applied.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
		<-ch
		os.Exit(1)
	}()
	return ctx
}

// WaitForShutdown blocks until ctx is cancelled, returning its Err.
func WaitForShutdown(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
