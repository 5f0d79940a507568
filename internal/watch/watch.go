// Package watch reports changes to the files of a source directory,
// coalescing bursts of file system events into a single notification.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/ngstatic/internal/ctxlog"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches one directory, without descending into subdirectories.
type Watcher struct {
	dir      string
	debounce time.Duration
	filter   func(name string) bool
	watcher  *fsnotify.Watcher
}

// New starts watching dir. Only files whose base name passes filter are
// reported; a nil filter accepts every file.
func New(dir string, debounce time.Duration, filter func(name string) bool) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, debounce: debounce, filter: filter, watcher: fw}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks until ctx is cancelled or the watcher is closed. Whenever
// matching files change and then stay quiet for the debounce period,
// onChange is called with their sorted base names. onChange runs on the
// Run goroutine, so events arriving meanwhile are batched into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("👀 Watching for changes.", "dir", w.dir)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if w.filter != nil && !w.filter(name) {
				continue
			}
			logger.Debug("File changed.", "name", name, "op", event.Op.String())
			pending[name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			onChange(ctx, changed)
		}
	}
}
