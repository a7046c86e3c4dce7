// Package watch delivers a stream of normalized filesystem change events
// for a single path (file or directory tree) to a caller-supplied sink.
//
// The platform adapters translate native kernel notification primitives
// (FSEvents on Darwin, inotify+epoll on Linux, fsnotify elsewhere) into a
// single uniform event model. A watch runs on the caller's goroutine until
// the caller releases its Signal:
//
//	sig := watch.NewSignal()
//	go func() {
//	    time.Sleep(5 * time.Second)
//	    sig.Release()
//	}()
//	ok := watch.Watch("/tmp/w", func(evs ...watch.Event) {
//	    for _, ev := range evs {
//	        fmt.Println(ev)
//	    }
//	}, sig)
package watch

import "fmt"

// Effect is what happened to a path.
type Effect int

const (
	// EffectOther is an event whose effect the kernel did not classify.
	EffectOther Effect = iota
	// EffectCreate is emitted when a path comes into existence.
	EffectCreate
	// EffectModify is emitted when a path's contents or metadata change.
	EffectModify
	// EffectDestroy is emitted when a path is removed.
	EffectDestroy
	// EffectRename is emitted for either side of a rename.
	EffectRename
)

// String returns the string representation of the effect.
func (e Effect) String() string {
	switch e {
	case EffectCreate:
		return "create"
	case EffectModify:
		return "modify"
	case EffectDestroy:
		return "destroy"
	case EffectRename:
		return "rename"
	case EffectOther:
		return "other"
	default:
		return "unknown"
	}
}

// PathKind is the nature of the path an event refers to.
type PathKind int

const (
	// KindOther is a path whose kind the kernel did not classify.
	KindOther PathKind = iota
	// KindFile is a regular file.
	KindFile
	// KindDir is a directory.
	KindDir
	// KindSymLink is a symbolic link.
	KindSymLink
	// KindHardLink covers both "is hard link" and "is last hard link"
	// notifications.
	KindHardLink
	// KindWatcher marks a diagnostic event synthesized by the adapter
	// itself. Its Path carries a stable token, never a user path.
	KindWatcher
)

// String returns the string representation of the path kind.
func (k PathKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymLink:
		return "symlink"
	case KindHardLink:
		return "hardlink"
	case KindWatcher:
		return "watcher"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Event is a single normalized filesystem change. Events are values and are
// never mutated after construction.
type Event struct {
	// Path is the filesystem path the event refers to. It may be empty if
	// the kernel reported an event without a usable path. For KindWatcher
	// events it carries a diagnostic token instead.
	Path string

	// Effect is what happened to the path.
	Effect Effect

	// PathKind is the nature of the path.
	PathKind PathKind
}

// String renders the event as "effect kind path".
func (ev Event) String() string {
	return fmt.Sprintf("%s %s %s", ev.Effect, ev.PathKind, ev.Path)
}

// IsDiagnostic reports whether the event was synthesized by the watcher
// itself rather than observed on the filesystem.
func (ev Event) IsDiagnostic() bool {
	return ev.PathKind == KindWatcher
}

// Sink receives normalized events. It is called with exactly one event, or
// with two events (from, to) when both sides of a non-destructive rename
// have been correlated.
//
// Within one Watch invocation the sink is never called concurrently with
// itself: delivery is serialized on Darwin's dispatch queue and
// single-threaded on Linux. A slow sink degrades latency but does not lose
// events until the kernel-side queue overflows.
type Sink func(evs ...Event)
