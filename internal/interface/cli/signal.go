package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler cancels the returned context on SIGINT/SIGTERM.
// The cancel func also stops signal delivery.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan,
		os.Interrupt,    // Ctrl+C (SIGINT)
		syscall.SIGTERM, // kill command
	)

	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal: %v, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
