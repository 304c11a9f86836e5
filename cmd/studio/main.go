package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&App{}).ExecuteContext(ctx); err != nil {
		// Cobra prints the error, so we just need to exit.
		stop()
		os.Exit(1)
	}
}
