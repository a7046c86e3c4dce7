package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of the watch runner.
	shutdownTimeout = 5 * time.Second
)
