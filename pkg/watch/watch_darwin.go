//go:build darwin

package watch

import (
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsevents"
)

const (
	// streamLatency is the delay between scans after a period of
	// inactivity.
	streamLatency = 16 * time.Millisecond

	// teardownGrace is a best-effort barrier, not a correctness
	// guarantee: under high event load the system occasionally delivers
	// one more callback after the stream has been stopped. We keep the
	// drain loop and its context alive for this long past Stop so a
	// trailing batch still observes valid state.
	teardownGrace = time.Millisecond
)

const (
	flagPathFile     = fsevents.ItemIsFile
	flagPathDir      = fsevents.ItemIsDir
	flagPathSymLink  = fsevents.ItemIsSymlink
	flagPathHardLink = fsevents.ItemIsHardlink | fsevents.ItemIsLastHardlink

	flagEffectCreate = fsevents.ItemCreated
	flagEffectRemove = fsevents.ItemRemoved
	flagEffectModify = fsevents.ItemModified | fsevents.ItemInodeMetaMod |
		fsevents.ItemFinderInfoMod | fsevents.ItemChangeOwner | fsevents.ItemXattrMod
	flagEffectRename = fsevents.ItemRenamed
	flagEffectAny    = flagEffectCreate | flagEffectRemove | flagEffectModify | flagEffectRename
)

// darwinWatcher holds the translation state for one Watch invocation. It is
// owned by the watchOS stack frame and outlives the event stream, so a
// callback racing in near teardown still reads valid memory.
type darwinWatcher struct {
	logger *slog.Logger
	sink   Sink

	// seenCreated is the set of paths already announced as created. The
	// system sometimes re-batches and re-sends events it has already
	// delivered; a create is only forwarded for a path not yet in the
	// set, and a destroy only for a path currently in it.
	seenCreated map[string]struct{}

	// renameFrom holds the most recent rename event's path, used to pair
	// the from and to sides of the usual two-event rename sequence.
	renameFrom string
}

func watchOS(path string, sink Sink, sig *Signal, opts Options) bool {
	w := &darwinWatcher{
		logger:      opts.Logger,
		sink:        sink,
		seenCreated: make(map[string]struct{}),
	}

	stream := &fsevents.EventStream{
		Paths:   []string{path},
		Latency: streamLatency,
		Flags:   fsevents.FileEvents,
		Events:  make(chan []fsevents.Event, 64),
	}

	startOK := true
	if err := stream.Start(); err != nil {
		w.logger.Debug("failed to start event stream", "path", path, "error", err)
		sink(diagAt(diagSysResource, path))
		startOK = false
	}

	done := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case batch := <-stream.Events:
				w.receiveBatch(batch)
			case <-done:
				return
			}
		}
	}()

	sig.Wait()

	if startOK {
		stream.Flush(true)
		stream.Stop()
	}
	time.Sleep(teardownGrace)
	close(done)
	<-drained

	w.logger.Debug("closed event stream", "path", path, "clean", startOK)
	return startOK
}

// receiveBatch translates one batch of native events. The drain loop is the
// only caller, so sink invocations are serialized.
func (w *darwinWatcher) receiveBatch(batch []fsevents.Event) {
	if w.sink == nil {
		// Partial context near an exit. Do nothing.
		return
	}
	for _, native := range batch {
		w.receiveOne(native.Path, native.Flags)
	}
}

// receiveOne maps one native event onto zero or more normalized events.
// Effect flags are non-exclusive: several effects on the same path produce
// several events, in create, destroy, modify, rename order.
func (w *darwinWatcher) receiveOne(path string, flags fsevents.EventFlags) {
	kind := classifyFlags(flags)

	// Odd events are still reported, even with an empty path, but
	// everything below depends on a recognized effect.
	if flags&flagEffectAny == 0 {
		w.sink(Event{Path: path, Effect: EffectOther, PathKind: kind})
		return
	}

	if flags&flagEffectCreate != 0 {
		if _, ok := w.seenCreated[path]; !ok {
			w.seenCreated[path] = struct{}{}
			w.sink(Event{Path: path, Effect: EffectCreate, PathKind: kind})
		}
	}
	if flags&flagEffectRemove != 0 {
		if _, ok := w.seenCreated[path]; ok {
			delete(w.seenCreated, path)
			w.sink(Event{Path: path, Effect: EffectDestroy, PathKind: kind})
		}
	}
	if flags&flagEffectModify != 0 {
		w.sink(Event{Path: path, Effect: EffectModify, PathKind: kind})
	}
	if flags&flagEffectRename != 0 {
		// Non-destructive renames usually arrive as two events: first
		// the from-path, then the to-path. If the stored path differs
		// from the current one and no longer exists on disk, the two
		// sides are correlated and delivered as a pair. Intervening
		// rename events break the pattern; then we fall back to
		// storing the current path for the next attempt.
		last := w.renameFrom
		differs := last != "" && last != path
		_, err := os.Lstat(last)
		missing := err != nil
		if differs && missing {
			w.sink(
				Event{Path: last, Effect: EffectRename, PathKind: kind},
				Event{Path: path, Effect: EffectRename, PathKind: kind},
			)
			w.renameFrom = ""
		} else {
			w.renameFrom = path
		}
	}
}

// classifyFlags picks the path kind; a single path won't have different
// kinds, so first match wins.
func classifyFlags(flags fsevents.EventFlags) PathKind {
	switch {
	case flags&flagPathFile != 0:
		return KindFile
	case flags&flagPathDir != 0:
		return KindDir
	case flags&flagPathSymLink != 0:
		return KindSymLink
	case flags&flagPathHardLink != 0:
		return KindHardLink
	default:
		return KindOther
	}
}
