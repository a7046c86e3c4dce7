// Package main provides the entry point for the driftwatch command.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/driftwatch/driftwatch/internal/di"
	"github.com/driftwatch/driftwatch/internal/di/providers"
	"github.com/driftwatch/driftwatch/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap driftwatch: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)
	runner := do.MustInvoke[*providers.WatchRunnerHandle](injector)

	// Wait for an interrupt, or for the watches to finish on their own
	// (duration elapsed, or a path that could not be watched).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	finished := make(chan error, 1)
	go func() { finished <- runner.Wait() }()

	exitCode := 0
	select {
	case sig := <-quit:
		log.Info("Shutting down", "signal", sig.String())
		runner.Release()
		if err := <-finished; err != nil {
			log.Error("Watch finished with error", "error", err)
			exitCode = 1
		}
	case err := <-finished:
		if err != nil {
			log.Error("Watch finished with error", "error", err)
			exitCode = 1
		}
	}

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("All watches closed")
	os.Exit(exitCode)
}
