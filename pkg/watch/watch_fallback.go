//go:build !linux && !darwin

package watch

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchOS is the portable adapter for platforms without a native kernel
// binding. It presents the same contract as the Darwin and Linux adapters,
// built on fsnotify's per-directory watches with user-space recursion.
func watchOS(path string, sink Sink, sig *Signal, opts Options) bool {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		sink(diagAt(diagSysResource, path))
		return false
	}

	installed := 0
	if err := fw.Add(path); err == nil {
		installed++
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			installed += addTree(fw, sink, path, path)
		}
	}
	if installed == 0 {
		sink(diagAt(diagPathMap, path))
		_ = fw.Close()
		return false
	}

	for {
		select {
		case <-sig.Done():
			ok := true
			if err := fw.Close(); err != nil {
				sink(diagAt(diagClose, path))
				ok = false
			}
			return ok

		case native, open := <-fw.Events:
			if !open {
				sink(diagAt(diagEventRecv, path))
				return false
			}
			ev := normalizeOp(native)
			sink(ev)
			if ev.PathKind == KindDir && ev.Effect == EffectCreate {
				if err := fw.Add(ev.Path); err != nil {
					sink(diagSubdir(path, ev.Path))
				} else {
					addTree(fw, sink, path, ev.Path)
				}
			}

		case ferr, open := <-fw.Errors:
			if !open {
				sink(diagAt(diagEventRecv, path))
				return false
			}
			opts.Logger.Debug("watcher error", "base", path, "error", ferr)
			sink(diagAt(diagEventRecv, path))
		}
	}
}

// addTree installs watches below dir, following symlinks and skipping
// unreadable entries. Returns how many watches were installed.
func addTree(fw *fsnotify.Watcher, sink Sink, base, dir string) int {
	installed := 0
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	for _, entry := range entries {
		sub := filepath.Join(dir, entry.Name())
		info, err := os.Stat(sub)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(sub); err != nil {
			sink(diagSubdir(base, sub))
		} else {
			installed++
		}
		installed += addTree(fw, sink, base, sub)
	}
	return installed
}

// normalizeOp maps an fsnotify op onto the event model. Chmod is metadata
// change, which the model treats as a modify.
func normalizeOp(native fsnotify.Event) Event {
	var effect Effect
	switch {
	case native.Op.Has(fsnotify.Create):
		effect = EffectCreate
	case native.Op.Has(fsnotify.Remove):
		effect = EffectDestroy
	case native.Op.Has(fsnotify.Rename):
		effect = EffectRename
	case native.Op.Has(fsnotify.Write), native.Op.Has(fsnotify.Chmod):
		effect = EffectModify
	default:
		effect = EffectOther
	}

	kind := KindOther
	if info, err := os.Lstat(native.Name); err == nil {
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			kind = KindSymLink
		case info.IsDir():
			kind = KindDir
		case info.Mode().IsRegular():
			kind = KindFile
		}
	}

	return Event{Path: native.Name, Effect: effect, PathKind: kind}
}
