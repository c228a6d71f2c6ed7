// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/voidwalkr/webpilot/cmd"
)

// main is the entry point for the webpilot CLI.
func main() {
	// A signal-aware context makes Ctrl+C a cooperative cancellation: tasks
	// abort at their next suspension point and report partial results.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
