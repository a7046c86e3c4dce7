//go:build linux

package watch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWatcher(c *collector, base string) *linuxWatcher {
	return &linuxWatcher{
		logger: discardLogger(),
		sink:   c.sink,
		base:   base,
		paths:  make(map[int]string, 8),
		buf:    make([]byte, eventBufLen),
		sr:     sysResources{watchFD: -1, eventFD: -1},
	}
}

// putRecord writes one inotify record at buf[offset]. The name is stored
// NUL-terminated with pad extra zero bytes, the way the kernel rounds
// record lengths up; Len reflects the stored length, not the name length.
func putRecord(buf []byte, offset int, wd int32, mask uint32, name string, pad int) int {
	//nolint:gosec // G103: mirrors the production record layout
	raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
	raw.Wd = wd
	raw.Mask = mask
	raw.Cookie = 0
	stored := 0
	if name != "" {
		stored = len(name) + 1 + pad
		copy(buf[offset+unix.SizeofInotifyEvent:], name)
		for i := len(name); i < stored; i++ {
			buf[offset+unix.SizeofInotifyEvent+i] = 0
		}
	}
	raw.Len = uint32(stored)
	return offset + unix.SizeofInotifyEvent + stored
}

func TestClassifyMask(t *testing.T) {
	tests := []struct {
		name string
		mask uint32
		want Effect
	}{
		{"create", unix.IN_CREATE, EffectCreate},
		{"destroy", unix.IN_DELETE, EffectDestroy},
		{"moved_from", unix.IN_MOVED_FROM, EffectRename},
		{"moved_to", unix.IN_MOVED_TO, EffectRename},
		{"modify", unix.IN_MODIFY, EffectModify},
		{"create_wins_over_modify", unix.IN_CREATE | unix.IN_MODIFY, EffectCreate},
		{"unclassified", unix.IN_ATTRIB, EffectOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyMask(tt.mask))
		})
	}
}

func TestClen(t *testing.T) {
	assert.Equal(t, 3, clen([]byte{'a', 'b', 'c', 0, 0}))
	assert.Equal(t, 0, clen([]byte{0, 'x'}))
	assert.Equal(t, 2, clen([]byte{'h', 'i'}))
}

func TestProcessBuf_HonorsRecordLength(t *testing.T) {
	c := &collector{}
	w := newTestWatcher(c, "/tmp/w")
	w.paths[1] = "/tmp/w"

	// Three records with very different name lengths and padding. A
	// parser stepping by a fixed size desynchronizes on the second.
	buf := make([]byte, eventBufLen)
	off := putRecord(buf, 0, 1, unix.IN_CREATE, "a", 2)
	off = putRecord(buf, off, 1, unix.IN_MODIFY, "a-much-longer-file-name.txt", 4)
	off = putRecord(buf, off, 1, unix.IN_MOVED_FROM, "c", 0)

	w.processBuf(buf[:off])

	evs := c.events()
	require.Len(t, evs, 3)
	assert.Equal(t, Event{Path: "/tmp/w/a", Effect: EffectCreate, PathKind: KindFile}, evs[0])
	assert.Equal(t, Event{Path: "/tmp/w/a-much-longer-file-name.txt", Effect: EffectModify, PathKind: KindFile}, evs[1])
	assert.Equal(t, Event{Path: "/tmp/w/c", Effect: EffectRename, PathKind: KindFile}, evs[2])
}

func TestProcessBuf_Overflow(t *testing.T) {
	c := &collector{}
	w := newTestWatcher(c, "/tmp/w")

	buf := make([]byte, eventBufLen)
	off := putRecord(buf, 0, -1, unix.IN_Q_OVERFLOW, "", 0)
	w.processBuf(buf[:off])

	evs := c.events()
	require.Len(t, evs, 1)
	assert.Equal(t, "e/self/overflow@/tmp/w", evs[0].Path)
	assert.Equal(t, KindWatcher, evs[0].PathKind)
}

func TestProcessRecord_UnknownDescriptorSkipped(t *testing.T) {
	c := &collector{}
	w := newTestWatcher(c, "/tmp/w")

	w.processRecord(42, unix.IN_CREATE, "ghost")
	assert.Empty(t, c.events())
}

func TestProcessRecord_DirDestroyDetachesWatch(t *testing.T) {
	c := &collector{}
	w := newTestWatcher(c, "/tmp/w")
	w.paths[7] = "/tmp/w/sub"

	w.processRecord(7, unix.IN_DELETE|unix.IN_ISDIR, "")

	evs := c.events()
	require.Len(t, evs, 1)
	assert.Equal(t, EffectDestroy, evs[0].Effect)
	assert.Equal(t, KindDir, evs[0].PathKind)
	assert.NotContains(t, w.paths, 7, "watch map entry should be erased")
}

func TestOpenCloseResources(t *testing.T) {
	c := &collector{}
	sr := openResources(c.sink)
	require.True(t, sr.valid)
	require.GreaterOrEqual(t, sr.watchFD, 0)
	require.GreaterOrEqual(t, sr.eventFD, 0)
	assert.Empty(t, c.events(), "no diagnostics on a clean open")

	w := newTestWatcher(c, "/tmp/w")
	w.sr = sr
	assert.True(t, w.closeResources())
	assert.Empty(t, c.diagnostics())
}

func TestMarkAll_RecursiveTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "inner"), 0o755))

	c := &collector{}
	w := newTestWatcher(c, dir)
	w.sr = openResources(c.sink)
	require.True(t, w.sr.valid)
	defer w.closeResources()

	w.markAll()

	watched := make(map[string]bool, len(w.paths))
	for _, p := range w.paths {
		watched[p] = true
	}
	assert.True(t, watched[dir])
	assert.True(t, watched[filepath.Join(dir, "sub")])
	assert.True(t, watched[filepath.Join(dir, "sub", "inner")])
	assert.Len(t, w.paths, 3, "one map entry per active watch descriptor")
}

func TestMarkAll_NonexistentBase(t *testing.T) {
	c := &collector{}
	w := newTestWatcher(c, "/definitely/not/here")
	w.sr = openResources(c.sink)
	require.True(t, w.sr.valid)
	defer w.closeResources()

	w.markAll()
	assert.Empty(t, w.paths)
}
