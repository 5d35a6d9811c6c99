package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
)

// Invalidator forgets cached model state.
type Invalidator interface {
	Invalidate()
}

// WatchModelDirs invalidates every target whenever a model file appears,
// disappears or is renamed in one of dirs. Missing directories are skipped.
// It blocks until ctx is cancelled.
func WatchModelDirs(ctx context.Context, dirs []string, logger *slog.Logger, targets ...Invalidator) error {
	logger = common.OrDefault(logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := 0
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Debug("not watching model directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no model directory could be watched")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("model directory changed", "path", event.Name, "op", event.Op.String())
			for _, target := range targets {
				target.Invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("model directory watcher error", "error", err)
		}
	}
}
