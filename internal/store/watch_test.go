package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	defer s.Close()

	changed := make(chan string, 8)
	require.NoError(t, s.Watch(func(name string) {
		changed <- name
	}))

	// Give the watcher loop a moment to come up before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "new.traj", []byte(sampleDoc))

	select {
	case name := <-changed:
		assert.Equal(t, "new.traj", name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event for new.traj")
	}

	// Non-trajectory files never produce events.
	writeFile(t, dir, "ignored.txt", []byte("x"))
	select {
	case name := <-changed:
		// A second event for new.traj may still arrive from the same write
		// burst; only a foreign name is a failure.
		assert.Equal(t, "new.traj", name)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchClose(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	require.NoError(t, s.Watch(func(string) {}))
	require.NoError(t, s.Close())
	// Closing twice is fine.
	require.NoError(t, s.Close())
}
