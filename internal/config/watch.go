package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ListWatcher watches the directories holding the blacklist and exception
// CIDR files and invokes a file's reload function on every fsnotify Write
// or Create event for that file. Events are not debounced.
type ListWatcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]func()
	logger   *slog.Logger
	shutdown chan struct{}
}

// NewListWatcher creates a watcher with no files registered; register each
// file and its reload function with Watch. A nil logger means
// slog.Default().
func NewListWatcher(logger *slog.Logger) (*ListWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListWatcher{
		watcher:  w,
		paths:    make(map[string]func()),
		logger:   logger,
		shutdown: make(chan struct{}),
	}, nil
}

// Watch registers path for change notifications; reload is called whenever
// path itself is written to. Call before Run.
func (lw *ListWatcher) Watch(path string, reload func()) error {
	if path == "" || reload == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := lw.watcher.Add(dir); err != nil {
		return err
	}
	lw.paths[path] = reload
	return nil
}

// Run processes filesystem events until Close is called. It is meant to be
// run in its own goroutine.
func (lw *ListWatcher) Run() {
	for {
		select {
		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if reload, tracked := lw.paths[event.Name]; tracked {
				lw.logger.Info("reloading list file", "path", event.Name)
				reload()
			}
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			lw.logger.Warn("list watcher error", "error", err)
		case <-lw.shutdown:
			return
		}
	}
}

// Close stops Run and releases the underlying inotify/kqueue handle.
func (lw *ListWatcher) Close() error {
	close(lw.shutdown)
	return lw.watcher.Close()
}
