package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the watcher waits for writes to stop before it
// fires the callback.
const DefaultSettle = 200 * time.Millisecond

// Watcher reports changes to a database file made by any process, including
// this one. Callers react by reloading; an active study session keeps its
// card snapshot.
type Watcher struct {
	path   string
	settle time.Duration
}

// NewWatcher watches the database at path and its -wal/-journal companions.
func NewWatcher(path string) *Watcher {
	return &Watcher{path: path, settle: DefaultSettle}
}

// Run blocks until ctx is done, calling onChange once per burst of writes.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir, base := filepath.Split(w.path)
	if dir == "" {
		dir = "."
	}
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Debug("watching database for changes", "path", w.path)

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.settle, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.settle)
			}
		case <-fire:
			slog.Debug("database changed", "path", w.path)
			onChange()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}
