package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stridelabs/sleuth/internal/logging"
)

// ReloadCallback is called when the collectors config file is successfully
// reloaded. If the callback returns an error, it is logged but the watcher
// continues watching.
type ReloadCallback func(cfg *CollectorsFile) error

// CollectorsWatcherConfig holds configuration for the CollectorsWatcher.
type CollectorsWatcherConfig struct {
	// FilePath is the path to the collectors YAML file to watch
	FilePath string

	// DebounceMillis is the debounce period in milliseconds
	// Multiple file change events within this period are coalesced into a
	// single reload. Default: 500ms
	DebounceMillis int
}

// CollectorsWatcher watches a collectors config file for changes and
// triggers reload callbacks, debounced so editor save sequences don't cause
// reload storms.
//
// Invalid configs during reload are logged and skipped; the watcher keeps
// running with the previous valid config applied.
type CollectorsWatcher struct {
	config   CollectorsWatcherConfig
	callback ReloadCallback
	logger   *logging.Logger
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{} // signals when the fsnotify watcher is fully initialized
	mu       sync.Mutex

	// debounceTimer coalesces bursts of file change events
	debounceTimer *time.Timer
}

// NewCollectorsWatcher creates a watcher for the given config file. The
// callback is invoked whenever the file changes and the new config is valid.
func NewCollectorsWatcher(cfg CollectorsWatcherConfig, callback ReloadCallback) (*CollectorsWatcher, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}

	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}

	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = 500
	}

	return &CollectorsWatcher{
		config:   cfg,
		callback: callback,
		logger:   logging.GetLogger("config.watcher"),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the initial config, invokes the callback with it, and then
// watches the file for changes. Returns an error if the initial load or
// the initial callback fails.
func (w *CollectorsWatcher) Start(ctx context.Context) error {
	initial, err := LoadCollectorsFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	// Fail fast if the initial apply errors.
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	w.logger.Info("Loaded initial collectors config from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// Wait for the watcher to be fully initialized before returning so
	// changes right after Start are not missed.
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

// signalReady closes the ready channel exactly once
func (w *CollectorsWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

// watchLoop is the main file watching loop
func (w *CollectorsWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady() // ready is signaled even on error paths

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("Failed to watch file %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.Info("Watching %s for changes (debounce: %dms)",
		w.config.FilePath, w.config.DebounceMillis)

	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Context cancelled, stopping watcher")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				w.logger.Debug("Watcher events channel closed")
				return
			}

			// Write, Create, Rename and Remove are all relevant. Remove
			// covers atomic writes where the old file is unlinked before
			// the new one is renamed into place; the watch must be
			// re-added because the inode changed.
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename ||
				event.Op&fsnotify.Remove == fsnotify.Remove {
				if event.Op&fsnotify.Rename == fsnotify.Rename ||
					event.Op&fsnotify.Remove == fsnotify.Remove {
					// Small delay to let the rename/recreate complete
					time.Sleep(50 * time.Millisecond)
					if err := watcher.Add(w.config.FilePath); err != nil {
						w.logger.Warn("Failed to re-add watch after %s: %v", event.Op, err)
					}
				}
				w.handleFileChange(ctx)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				w.logger.Debug("Watcher errors channel closed")
				return
			}
			w.logger.Error("Watcher error: %v", err)
		}
	}
}

// handleFileChange debounces change events by resetting a timer on each one.
func (w *CollectorsWatcher) handleFileChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		func() {
			w.reloadConfig(ctx)
		},
	)
}

// reloadConfig reloads the config file and calls the callback if successful.
// Invalid configs are logged but don't stop the watcher.
func (w *CollectorsWatcher) reloadConfig(ctx context.Context) {
	w.logger.Info("Reloading collectors config from %s", w.config.FilePath)

	newConfig, err := LoadCollectorsFile(w.config.FilePath)
	if err != nil {
		w.logger.Warn("Failed to load config (keeping previous config): %v", err)
		return
	}

	if err := w.callback(newConfig); err != nil {
		w.logger.Warn("Reload callback error (continuing to watch): %v", err)
		return
	}

	w.logger.Info("Collectors config reloaded successfully")
}

// Stop gracefully stops the file watcher. Waits up to 5 seconds for the
// watch loop to exit.
func (w *CollectorsWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}

	select {
	case <-w.stopped:
		w.logger.Debug("Watcher stopped gracefully")
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
