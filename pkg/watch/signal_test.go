package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_InitiallyUnreleased(t *testing.T) {
	sig := NewSignal()
	assert.False(t, sig.Released())
}

func TestSignal_ReleaseWakesWaiter(t *testing.T) {
	sig := NewSignal()

	woke := make(chan struct{})
	go func() {
		sig.Wait()
		close(woke)
	}()

	sig.Release()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Release")
	}
	assert.True(t, sig.Released())
}

func TestSignal_WaitAfterRelease(t *testing.T) {
	sig := NewSignal()
	sig.Release()

	done := make(chan struct{})
	go func() {
		sig.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an already-released signal")
	}
}

func TestSignal_ReleaseIdempotent(t *testing.T) {
	sig := NewSignal()
	sig.Release()
	require.NotPanics(t, func() {
		sig.Release()
		sig.Release()
	})
	assert.True(t, sig.Released())
}

func TestSignal_ReleaseFromManyGoroutines(t *testing.T) {
	sig := NewSignal()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig.Release()
		}()
	}
	wg.Wait()

	assert.True(t, sig.Released())
}

func TestSignal_DoneCloses(t *testing.T) {
	sig := NewSignal()

	select {
	case <-sig.Done():
		t.Fatal("Done channel closed before Release")
	default:
	}

	sig.Release()

	select {
	case <-sig.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel not closed after Release")
	}
}
