//go:build linux

package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// epollDelayMS is how long epoll_wait sleeps before we wake up and
	// re-check liveness.
	epollDelayMS = 16

	// eventWaitQueueMax bounds one epoll_wait call. Events we "miss" are
	// still pending on the next call; nothing is lost.
	eventWaitQueueMax = 1

	// eventBufLen is a typical page size, large enough to hold a great
	// many inotify records per read.
	eventBufLen = 4096

	// inWatchMask subscribes to creations, modifications, deletions, the
	// from-side of moves, and queue overflow.
	inWatchMask = unix.IN_CREATE | unix.IN_MODIFY | unix.IN_DELETE |
		unix.IN_MOVED_FROM | unix.IN_Q_OVERFLOW
)

// sysResources bundles the inotify and epoll descriptors for one watch
// invocation. valid distinguishes a half-constructed record (one of the
// descriptors is -1) from a fully usable one.
type sysResources struct {
	valid   bool
	watchFD int
	eventFD int
	conf    unix.EpollEvent
}

// linuxWatcher drives inotify+epoll for one Watch invocation. The event
// loop is single-threaded; nothing here is shared across goroutines.
type linuxWatcher struct {
	logger *slog.Logger
	sink   Sink
	base   string
	sr     sysResources

	// paths maps every active watch descriptor to its directory, and
	// nothing else: entries are inserted when a watch is installed and
	// erased when it is removed.
	paths map[int]string

	buf []byte
}

func watchOS(path string, sink Sink, sig *Signal, opts Options) bool {
	w := &linuxWatcher{
		logger: opts.Logger,
		sink:   sink,
		base:   path,
		paths:  make(map[int]string, 256),
		buf:    make([]byte, eventBufLen),
	}

	w.sr = openResources(sink)
	if !w.sr.valid {
		sink(diagAt(diagSysResource, path))
		w.closeResources()
		return false
	}

	w.markAll()
	if len(w.paths) == 0 {
		sink(diagAt(diagPathMap, path))
		w.closeResources()
		return false
	}

	var ready [eventWaitQueueMax]unix.EpollEvent

	for !sig.Released() {
		n, err := unix.EpollWait(w.sr.eventFD, ready[:], epollDelayMS)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			sink(diagAt(diagEpollWait, path))
			w.closeResources()
			return false
		}

		for i := 0; i < n; i++ {
			if int(ready[i].Fd) != w.sr.watchFD {
				continue
			}
			if !w.drain() {
				sink(diagAt(diagEventRecv, path))
				w.closeResources()
				return false
			}
		}
	}

	return w.closeResources()
}

// openResources initializes inotify in non-blocking mode, creates an epoll
// instance, and registers the inotify fd for read-readiness. Each failure
// emits its diagnostic and yields a half-constructed record.
func openResources(sink Sink) sysResources {
	watchFD, err := unix.InotifyInit1(unix.IN_NONBLOCK)
	if err != nil {
		sink(diagEvent(diagInotifyInit))
		return sysResources{watchFD: -1, eventFD: -1}
	}

	eventFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		sink(diagEvent(diagEpollCreate))
		return sysResources{watchFD: watchFD, eventFD: -1}
	}

	conf := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(watchFD)}
	if err := unix.EpollCtl(eventFD, unix.EPOLL_CTL_ADD, watchFD, &conf); err != nil {
		sink(diagEvent(diagEpollCtl))
		return sysResources{watchFD: watchFD, eventFD: eventFD}
	}

	return sysResources{valid: true, watchFD: watchFD, eventFD: eventFD, conf: conf}
}

// closeResources closes whichever descriptors were obtained. A failed close
// is surfaced as a diagnostic; the combined status is the return value.
func (w *linuxWatcher) closeResources() bool {
	ok := true
	for _, fd := range []int{w.sr.watchFD, w.sr.eventFD} {
		if fd < 0 {
			continue
		}
		if err := unix.Close(fd); err != nil {
			w.sink(diagAt(diagClose, w.base))
			ok = false
		}
	}
	w.sr.watchFD = -1
	w.sr.eventFD = -1
	w.logger.Debug("closed watch resources", "base", w.base, "clean", ok)
	return ok
}

// markAll installs the initial watches: the base path itself and, if it is
// a directory, every subdirectory below it. Symlinked directories are
// followed; unreadable ones are skipped. A subdirectory that cannot be
// watched emits a warning diagnostic and the walk continues.
func (w *linuxWatcher) markAll() {
	if !w.mark(w.base) {
		return
	}
	info, err := os.Stat(w.base)
	if err != nil || !info.IsDir() {
		return
	}
	w.markTree(w.base)
}

func (w *linuxWatcher) markTree(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		sub := filepath.Join(dir, entry.Name())
		info, err := os.Stat(sub)
		if err != nil || !info.IsDir() {
			continue
		}
		if !w.mark(sub) {
			w.sink(diagSubdir(w.base, sub))
		}
		w.markTree(sub)
	}
}

// mark installs an inotify watch on path and records it in the watch map.
func (w *linuxWatcher) mark(path string) bool {
	wd, err := unix.InotifyAddWatch(w.sr.watchFD, path, inWatchMask)
	if err != nil {
		w.logger.Debug("failed to add watch", "path", path, "error", err)
		return false
	}
	w.paths[wd] = path
	w.logger.Debug("added watch", "path", path, "wd", wd)
	return true
}

// unmark detaches the kernel watch for wd and erases its map entry. Errors
// from the kernel are ignored; the directory may already be gone.
func (w *linuxWatcher) unmark(wd int) {
	//nolint:gosec // G115: wd is a small non-negative int from inotify
	_, _ = unix.InotifyRmWatch(w.sr.watchFD, uint32(wd))
	delete(w.paths, wd)
	w.logger.Debug("removed watch", "wd", wd)
}

// drain reads the inotify fd until it runs dry. Three outcomes per read:
// eventful (records to process), eventless (zero bytes or EAGAIN, which
// just means nothing is pending), or a real error.
func (w *linuxWatcher) drain() bool {
	for {
		n, err := unix.Read(w.sr.watchFD, w.buf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return true
		case err != nil:
			w.sink(diagAt(diagRead, w.base))
			return false
		case n == 0:
			return true
		default:
			w.processBuf(w.buf[:n])
		}
	}
}

// processBuf walks a packed sequence of variable-length inotify records.
// The next record begins at the current record's base plus its declared
// length, which includes the trailing name; stepping by a fixed size would
// desynchronize on the first record whose name differs from that size.
func (w *linuxWatcher) processBuf(buf []byte) {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		//nolint:gosec // G103: syscall interface; buffer is heap-allocated and aligned
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))

		name := ""
		if raw.Len > 0 {
			nameBytes := buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+int(raw.Len)]
			name = string(nameBytes[:clen(nameBytes)])
		}
		offset += unix.SizeofInotifyEvent + int(raw.Len)

		w.processRecord(int(raw.Wd), raw.Mask, name)
	}
}

// processRecord normalizes one inotify record, forwards it to the sink, and
// keeps the watch map in step with directories coming and going.
func (w *linuxWatcher) processRecord(wd int, mask uint32, name string) {
	if mask&unix.IN_Q_OVERFLOW != 0 {
		// The kernel has already dropped events; nothing to recover.
		w.sink(diagAt(diagOverflow, w.base))
		return
	}

	dir, ok := w.paths[wd]
	if !ok {
		// Record for a watch we already detached.
		return
	}
	path := filepath.Join(dir, name)

	kind := KindFile
	if mask&unix.IN_ISDIR != 0 {
		kind = KindDir
	}

	effect := classifyMask(mask)

	w.sink(Event{Path: path, Effect: effect, PathKind: kind})

	switch {
	case kind == KindDir && effect == EffectCreate:
		if !w.mark(path) {
			w.sink(diagSubdir(w.base, path))
		}
	case kind == KindDir && effect == EffectDestroy:
		// The record's wd is the parent's; detach the removed directory's own.
		for subWD, p := range w.paths {
			if p == path {
				w.unmark(subWD)
				break
			}
		}
	}
}

// classifyMask picks the effect for an inotify mask: first of create,
// destroy, rename (any move bit), modify.
func classifyMask(mask uint32) Effect {
	switch {
	case mask&unix.IN_CREATE != 0:
		return EffectCreate
	case mask&unix.IN_DELETE != 0:
		return EffectDestroy
	case mask&unix.IN_MOVE != 0:
		return EffectRename
	case mask&unix.IN_MODIFY != 0:
		return EffectModify
	default:
		return EffectOther
	}
}

// clen returns the length of a null-terminated byte slice.
func clen(n []byte) int {
	for i := 0; i < len(n); i++ {
		if n[i] == 0 {
			return i
		}
	}
	return len(n)
}
