package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/moolen/cascade/internal/logging"
)

var watcherLogger = logging.GetLogger("policy-watcher")

// ReloadCallback is called when the policy file is successfully reloaded.
// If the callback returns an error, it is logged but the watcher continues.
type ReloadCallback func(policy *PolicyFile) error

// PolicyWatcherConfig holds configuration for the PolicyWatcher.
type PolicyWatcherConfig struct {
	// FilePath is the path to the policy YAML file to watch
	FilePath string

	// DebounceMillis coalesces multiple file change events within this
	// period into a single reload. Default: 500ms.
	DebounceMillis int
}

// PolicyWatcher watches the engine policy file for changes and triggers
// reload callbacks with debouncing to prevent reload storms from editor
// save sequences. Invalid policies during reload are logged but do not
// crash the watcher; the previous valid policy stays in effect.
type PolicyWatcher struct {
	config   PolicyWatcherConfig
	callback ReloadCallback
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}
	mu       sync.Mutex

	debounceTimer *time.Timer
}

// NewPolicyWatcher creates a new watcher for the given policy file.
// Returns an error if FilePath is empty or callback is nil.
func NewPolicyWatcher(config PolicyWatcherConfig, callback ReloadCallback) (*PolicyWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &PolicyWatcher{
		config:   config,
		callback: callback,
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the initial policy, calls the callback, and begins watching
// for file changes. Returns an error if the initial load or callback fails.
func (w *PolicyWatcher) Start(ctx context.Context) error {
	initial, err := LoadPolicyFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial policy: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	watcherLogger.Info("loaded initial policy from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)

	// Wait for the watcher to be fully initialized so changes right after
	// startup are not missed
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}
	return nil
}

func (w *PolicyWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *PolicyWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		watcherLogger.Error("failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		watcherLogger.Error("failed to watch file %s: %v", w.config.FilePath, err)
		return
	}

	watcherLogger.Info("watching %s for changes (debounce: %dms)", w.config.FilePath, w.config.DebounceMillis)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename ||
				event.Op&fsnotify.Remove == fsnotify.Remove {
				// Atomic writes unlink the old file before renaming the new
				// one into place; re-add the watch since the inode changed
				if event.Op&fsnotify.Rename == fsnotify.Rename ||
					event.Op&fsnotify.Remove == fsnotify.Remove {
					time.Sleep(50 * time.Millisecond)
					if err := watcher.Add(w.config.FilePath); err != nil {
						watcherLogger.Warn("failed to re-add watch after %s: %v", event.Op, err)
					}
				}
				w.handleFileChange(ctx)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			watcherLogger.Warn("watcher error: %v", err)
		}
	}
}

// handleFileChange debounces by resetting a timer on each event
func (w *PolicyWatcher) handleFileChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		func() { w.reloadPolicy(ctx) },
	)
}

func (w *PolicyWatcher) reloadPolicy(ctx context.Context) {
	policy, err := LoadPolicyFile(w.config.FilePath)
	if err != nil {
		watcherLogger.Warn("failed to load policy (keeping previous policy): %v", err)
		return
	}
	if err := w.callback(policy); err != nil {
		watcherLogger.Warn("reload callback error (continuing to watch): %v", err)
		return
	}
	watcherLogger.Info("policy reloaded from %s", w.config.FilePath)
}

// Stop gracefully stops the file watcher. Waits for the watch loop to
// exit with a 5 second timeout.
func (w *PolicyWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
