package intents

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to the definitions file at path. The running model is
// never reloaded; a change only produces a warning (and a call to notify, if
// non-nil) so operators know a restart is needed.
//
// The parent directory is watched because editors usually replace files
// instead of writing them in place. Watch returns once the watcher is set up;
// events are handled in a goroutine until ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, notify func(op fsnotify.Op)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				logger.Warn("definitions file changed on disk; restart to apply",
					"path", abs, "op", event.Op.String())
				if notify != nil {
					notify(event.Op)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("definitions watcher error", "err", err)
			}
		}
	}()

	return nil
}
