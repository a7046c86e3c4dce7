package providers

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/internal/render"
	"github.com/driftwatch/driftwatch/pkg/watch"
)

// WatchRunnerHandle owns the watch goroutines for every configured path
// and the liveness signal that stops them.
type WatchRunnerHandle struct {
	sig   *watch.Signal
	group *errgroup.Group
	log   *logger.Logger

	// timer fires the configured watch duration, if any.
	timer *time.Timer
}

// Release asks every watch to wind down.
func (h *WatchRunnerHandle) Release() {
	h.sig.Release()
}

// Wait blocks until every watch has returned. The error carries the
// first path that failed to come up or tear down cleanly.
func (h *WatchRunnerHandle) Wait() error {
	return h.group.Wait()
}

// Shutdown implements do.ShutdownerWithError.
func (h *WatchRunnerHandle) Shutdown() error {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.sig.Release()

	done := make(chan error, 1)
	go func() { done <- h.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(shutdownTimeout):
		return errors.New("watch runner did not stop in time")
	}
}

// ProvideWatchRunner starts one watch per configured path, all sharing
// the renderer's sink and a single liveness signal.
func ProvideWatchRunner(i do.Injector) (*WatchRunnerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	renderer := do.MustInvoke[*render.Renderer](i)

	sig := watch.NewSignal()
	sink := renderer.Sink()

	var group errgroup.Group
	for _, path := range cfg.Watch.Paths {
		path := path
		group.Go(func() error {
			if !watch.WatchWith(path, sink, sig, watch.Options{Logger: log.Logger}) {
				return fmt.Errorf("watch failed for %s", path)
			}
			return nil
		})
		log.Info("Watching path", "path", path)
	}

	h := &WatchRunnerHandle{
		sig:   sig,
		group: &group,
		log:   log,
	}

	if cfg.Watch.Duration > 0 {
		h.timer = time.AfterFunc(cfg.Watch.Duration, func() {
			log.Info("Watch duration elapsed", "duration", cfg.Watch.Duration)
			sig.Release()
		})
	}

	log.Info("Watch runner started", "paths", len(cfg.Watch.Paths))
	return h, nil
}
