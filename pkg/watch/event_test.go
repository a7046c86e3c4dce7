package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffect_String(t *testing.T) {
	tests := []struct {
		effect Effect
		want   string
	}{
		{EffectCreate, "create"},
		{EffectModify, "modify"},
		{EffectDestroy, "destroy"},
		{EffectRename, "rename"},
		{EffectOther, "other"},
		{Effect(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.effect.String())
		})
	}
}

func TestPathKind_String(t *testing.T) {
	tests := []struct {
		kind PathKind
		want string
	}{
		{KindFile, "file"},
		{KindDir, "dir"},
		{KindSymLink, "symlink"},
		{KindHardLink, "hardlink"},
		{KindWatcher, "watcher"},
		{KindOther, "other"},
		{PathKind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestEvent_String(t *testing.T) {
	ev := Event{Path: "/tmp/w/a", Effect: EffectCreate, PathKind: KindFile}
	assert.Equal(t, "create file /tmp/w/a", ev.String())
}

func TestEvent_IsDiagnostic(t *testing.T) {
	assert.True(t, Event{Path: "e/self/overflow@/tmp/w", PathKind: KindWatcher}.IsDiagnostic())
	assert.False(t, Event{Path: "/tmp/w/a", PathKind: KindFile}.IsDiagnostic())
}
