package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"media-library/internal/logging"
)

// Ledger is the persisted set of already-optimized file paths.
type Ledger struct {
	path string

	mu    sync.Mutex
	paths []string
	index map[string]struct{}
}

// Open returns a ledger backed by path, loaded from disk. A missing or
// unreadable file yields an empty ledger.
func Open(path string) *Ledger {
	l := &Ledger{path: path, index: make(map[string]struct{})}
	l.Load()
	return l
}

// Path returns the backing file.
func (l *Ledger) Path() string {
	return l.path
}

// Load replaces the in-memory set with the file's contents. Read and decode
// errors are logged and treated as an empty history.
func (l *Ledger) Load() {
	paths, err := readLedger(l.path)
	if err != nil {
		logging.Warn("History ledger %s unreadable, starting empty: %v", l.path, err)
		paths = nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.paths = l.paths[:0]
	l.index = make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = normalize(p)
		if _, dup := l.index[p]; dup || p == "" {
			continue
		}
		l.index[p] = struct{}{}
		l.paths = append(l.paths, p)
	}
	logging.Debug("History ledger loaded: %d entries", len(l.paths))
}

func readLedger(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return paths, nil
}

// Contains reports whether path was already optimized.
func (l *Ledger) Contains(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[normalize(path)]
	return ok
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

// Paths returns a copy of the entries in persisted order.
func (l *Ledger) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.paths))
	copy(out, l.paths)
	return out
}

// RecordSuccess adds path if absent and persists the ledger. The returned
// error only concerns persistence; the entry is kept in memory either way.
func (l *Ledger) RecordSuccess(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := normalize(path)
	if _, ok := l.index[p]; ok {
		return nil
	}
	l.index[p] = struct{}{}
	l.paths = append(l.paths, p)
	return l.persistLocked()
}

// Migrate moves the optimized status from oldPath to newPath. It does
// nothing when oldPath is not recorded.
func (l *Ledger) Migrate(oldPath, newPath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	oldP, newP := normalize(oldPath), normalize(newPath)
	if _, ok := l.index[oldP]; !ok {
		return nil
	}

	l.removeLocked(oldP)
	if _, ok := l.index[newP]; !ok {
		l.index[newP] = struct{}{}
		l.paths = append(l.paths, newP)
	}
	return l.persistLocked()
}

// Forget removes path. Forgetting an unknown path still rewrites the file.
func (l *Ledger) Forget(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.removeLocked(normalize(path))
	return l.persistLocked()
}

func (l *Ledger) removeLocked(p string) {
	if _, ok := l.index[p]; !ok {
		return
	}
	delete(l.index, p)
	for i, existing := range l.paths {
		if existing == p {
			l.paths = append(l.paths[:i], l.paths[i+1:]...)
			break
		}
	}
}

// persistLocked rewrites the whole ledger through a temp file and rename.
func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(l.paths, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if len(l.paths) == 0 {
		data = []byte("[]")
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create history temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func normalize(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
