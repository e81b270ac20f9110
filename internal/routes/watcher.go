package routes

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"navcheck/internal/logging"
)

// RegistryWatcher reloads a route table file when it changes and hands each
// successfully parsed registry to a callback. A file that fails to parse is
// logged and the previous registry stays in use.
type RegistryWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onReload    func(*Registry)
	pending     time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks reload activity.
type WatcherStats struct {
	Events     int
	Reloads    int
	Errors     int
	LastReload time.Time
	LastError  string
}

// NewRegistryWatcher creates a watcher for the route table at path.
func NewRegistryWatcher(path string, onReload func(*Registry)) (*RegistryWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &RegistryWatcher{
		watcher:     watcher,
		path:        abs,
		onReload:    onReload,
		debounceDur: 500 * time.Millisecond, // editors save in bursts
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start watches the file's directory, so replace-on-save editors keep
// working, and returns immediately.
func (w *RegistryWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.running = true
	logging.Routes("Watching route table %s", w.path)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *RegistryWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.RoutesWarn("RegistryWatcher: error closing watcher: %v", err)
	}
}

// Stats returns a snapshot of reload activity.
func (w *RegistryWatcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *RegistryWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.RoutesWarn("RegistryWatcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.stats.LastError = err.Error()
			w.mu.Unlock()

		case <-ticker.C:
			w.reloadIfSettled()
		}
	}
}

func (w *RegistryWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	logging.RoutesDebug("RegistryWatcher: %s %s", event.Op, event.Name)

	w.mu.Lock()
	w.stats.Events++
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *RegistryWatcher) reloadIfSettled() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	reg, err := LoadRegistry(w.path)

	w.mu.Lock()
	if err != nil {
		w.stats.Errors++
		w.stats.LastError = err.Error()
		w.mu.Unlock()
		logging.RoutesWarn("Route table reload failed, keeping previous table: %v", err)
		return
	}
	w.stats.Reloads++
	w.stats.LastReload = time.Now()
	w.mu.Unlock()

	logging.Routes("Route table reloaded: %d routes", reg.Len())
	w.onReload(reg)
}
