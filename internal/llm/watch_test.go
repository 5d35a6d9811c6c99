package llm

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func TestWatchModelDirs(t *testing.T) {
	dir := t.TempDir()
	target := &countingInvalidator{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchModelDirs(ctx, []string{dir, filepath.Join(dir, "missing")}, nil, target) }()

	// Give the watcher time to register before creating the file.
	time.Sleep(100 * time.Millisecond)
	writeModel(t, filepath.Join(dir, "new.gguf"), 1)

	assert.Eventually(t, func() bool { return target.n.Load() > 0 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchModelDirs_NothingToWatch(t *testing.T) {
	err := WatchModelDirs(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	require.Error(t, err)
}
