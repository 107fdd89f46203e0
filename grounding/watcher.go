package grounding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	Events        int
	Reloads       int
	ReloadErrors  int
	LastEventTime time.Time
	LastEventPath string
}

// Watcher monitors a directory of grounding map files and rebuilds the
// Mapper snapshot when they change. Rapid saves are debounced so a burst
// of editor writes triggers a single reload. Readers obtain the current
// snapshot with Current; an in-flight mapping run keeps using the
// snapshot it started with.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	dir         string
	disamb      Disambiguator
	log         *zap.Logger
	current     *Mapper
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       WatcherStats
}

// NewWatcher loads the initial snapshot from dir and prepares a watcher
// over it. The watcher is inert until Start is called.
func NewWatcher(dir string, disamb Disambiguator, log *zap.Logger) (*Watcher, error) {
	entries, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		dir:         dir,
		disamb:      disamb,
		log:         log,
		current:     NewMapper(entries, disamb),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Current returns the active snapshot.
func (w *Watcher) Current() *Mapper {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stats returns a copy of the watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Start begins watching the grounding map directory. Non-blocking; the
// event loop runs in its own goroutine until Stop or context
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.watcher == nil {
		w.mu.Unlock()
		return errors.New("grounding: watcher is closed")
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("grounding watcher started", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. The
// underlying fsnotify watcher is released even when Start was never
// called, so an unstarted Watcher does not leak its event goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.closeWatcherLocked()
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.closeWatcherLocked()
	w.mu.Unlock()
}

func (w *Watcher) closeWatcherLocked() {
	if w.watcher == nil {
		return
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Error("grounding watcher close failed", zap.Error(err))
	}
	w.watcher = nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
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
			w.log.Error("grounding watcher error", zap.Error(err))
		case <-ticker.C:
			w.reloadIfSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	ext := strings.ToLower(event.Name)
	if !strings.HasSuffix(ext, ".json") && !strings.HasSuffix(ext, ".csv") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// reloadIfSettled rebuilds the snapshot once all pending events have
// aged past the debounce window. The whole directory is reloaded rather
// than patching individual files, so a reload is always consistent.
func (w *Watcher) reloadIfSettled() {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, eventTime := range w.debounceMap {
		if now.Sub(eventTime) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	w.debounceMap = make(map[string]time.Time)
	w.mu.Unlock()

	w.Reload()
}

// Reload rebuilds the snapshot immediately. On failure the previous
// snapshot stays active.
func (w *Watcher) Reload() {
	entries, err := LoadDir(w.dir)
	if err != nil {
		w.log.Error("grounding map reload failed, keeping previous snapshot",
			zap.String("dir", w.dir), zap.Error(err))
		w.mu.Lock()
		w.stats.ReloadErrors++
		w.mu.Unlock()
		return
	}
	mapper := NewMapper(entries, w.disamb)
	w.mu.Lock()
	w.current = mapper
	w.stats.Reloads++
	w.mu.Unlock()
	w.log.Info("grounding map reloaded",
		zap.String("dir", w.dir), zap.Int("mentions", mapper.Len()))
}
