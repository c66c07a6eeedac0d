// Package signal provides utilities for handling OS signals in a graceful manner.
package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ExitInterrupted is the exit code used when a signal forces the program to stop.
const ExitInterrupted = 130

// gracePeriod is how long action may take to return after cancellation.
const gracePeriod = 3 * time.Second

// RunWithContext calls action with a context that is cancelled on SIGINT or
// SIGTERM and returns action's exit code. If action has not returned within
// a grace period after the signal (for example while blocked reading stdin),
// or a second signal arrives, the process exits with ExitInterrupted.
func RunWithContext(action func(context.Context) int) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(os.Stderr, "\n\nGoodbye!")
		cancel()

		select {
		case <-sigChan:
		case <-time.After(gracePeriod):
		}
		os.Exit(ExitInterrupted)
	}()

	return action(ctx)
}
