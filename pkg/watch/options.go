package watch

import (
	"io"
	"log/slog"
)

// Options configures a watch invocation. The zero value is usable; unset
// fields are filled in by setDefaults.
type Options struct {
	// Logger receives debug-level lifecycle logging from the adapter
	// (watch-map mutations, teardown). Events themselves are only ever
	// delivered through the sink. Defaults to a discarding logger.
	Logger *slog.Logger
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
