// Package watcher reports changes to the library's category folders.
//
// It watches the library root and each category directory (one level, like
// the listings) with fsnotify, coalesces bursts of events per path and hands
// batches to a callback after a quiet debounce interval.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metrics"
)

// DefaultDebounce is the quiet interval before a batch is delivered.
const DefaultDebounce = 2 * time.Second

// Change is one coalesced file system change. Name is empty when the
// category folder itself changed.
type Change struct {
	Category string `json:"category"`
	Name     string `json:"name,omitempty"`
	Op       string `json:"op"`
	Path     string `json:"-"`
}

// Handler receives batches of changes, ordered by path.
type Handler func([]Change)

// Watcher watches one library root at a time.
type Watcher struct {
	handler  Handler
	debounce time.Duration

	mu   sync.Mutex
	root string
	fsw  *fsnotify.Watcher
	stop chan struct{}
	done chan struct{}
}

// New creates a watcher. A debounce of zero means DefaultDebounce.
func New(handler Handler, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{handler: handler, debounce: debounce}
}

// Start begins watching root, replacing any previous root.
func (w *Watcher) Start(root string) error {
	w.Stop()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrorsTotal.Inc()
		return err
	}

	count, err := addDirectories(fsw, root)
	if err != nil {
		_ = fsw.Close()
		metrics.WatcherErrorsTotal.Inc()
		return err
	}
	metrics.WatchedDirectories.Set(float64(count))

	w.mu.Lock()
	w.root = filepath.Clean(root)
	w.fsw = fsw
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	stop, done := w.stop, w.done
	w.mu.Unlock()

	go w.loop(fsw, w.root, stop, done)
	logging.Info("Library watcher started on %s (%d directories)", root, count)
	return nil
}

// Stop ends the current watch, if any, and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw, stop, done := w.fsw, w.stop, w.done
	w.fsw, w.stop, w.done = nil, nil, nil
	w.mu.Unlock()

	if fsw == nil {
		return
	}
	close(stop)
	<-done
	if err := fsw.Close(); err != nil {
		logging.Warn("failed to close file watcher: %v", err)
	}
	metrics.WatchedDirectories.Set(0)
}

// addDirectories watches root and its non-hidden subdirectories.
func addDirectories(fsw *fsnotify.Watcher, root string) (int, error) {
	if err := fsw.Add(root); err != nil {
		return 0, err
	}
	count := 1

	entries, err := os.ReadDir(root)
	if err != nil {
		return count, nil
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := fsw.Add(path); err != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, err)
			metrics.WatcherErrorsTotal.Inc()
			continue
		}
		count++
	}
	return count, nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, root string, stop, done chan struct{}) {
	defer close(done)

	pending := make(map[string]Change)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	lastEvent := time.Time{}

	for {
		select {
		case <-stop:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if change, ok := classify(fsw, root, event); ok {
				pending[change.Path] = change
				lastEvent = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logging.Warn("Watcher event queue overflowed; some changes were missed")
			} else {
				logging.Error("Watcher error: %v", err)
			}
			metrics.WatcherErrorsTotal.Inc()

		case <-ticker.C:
			if len(pending) == 0 || time.Since(lastEvent) < w.debounce {
				continue
			}
			batch := make([]Change, 0, len(pending))
			for _, c := range pending {
				batch = append(batch, c)
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
			pending = make(map[string]Change)
			if w.handler != nil {
				w.handler(batch)
			}
		}
	}
}

// classify maps an fsnotify event to a Change. New category folders are
// added to the watch.
func classify(fsw *fsnotify.Watcher, root string, event fsnotify.Event) (Change, bool) {
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Change{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, p := range parts {
		if strings.HasPrefix(p, ".") {
			return Change{}, false
		}
	}

	op := opName(event.Op)
	if op == "" {
		return Change{}, false
	}
	metrics.WatcherEventsTotal.WithLabelValues(op).Inc()

	switch len(parts) {
	case 1:
		// Category folder created, removed or renamed.
		if event.Op.Has(fsnotify.Create) {
			info, err := os.Stat(event.Name)
			if err != nil || !info.IsDir() {
				return Change{}, false
			}
			if err := fsw.Add(event.Name); err != nil {
				logging.Warn("failed to add new directory to watcher %s: %v", event.Name, err)
				metrics.WatcherErrorsTotal.Inc()
			} else {
				metrics.WatchedDirectories.Inc()
			}
		}
		return Change{Category: parts[0], Op: op, Path: event.Name}, true
	case 2:
		if mediatypes.Classify(parts[1]) == mediatypes.FileTypeOther {
			return Change{}, false
		}
		return Change{Category: parts[0], Name: parts[1], Op: op, Path: event.Name}, true
	default:
		return Change{}, false
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Write):
		return "write"
	default:
		return ""
	}
}
