package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-library/internal/filesystem"
	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// Options configures a Library.
type Options struct {
	Thumbnails ThumbnailStore
	History    HistoryStore
	Retry      filesystem.LockRetryConfig
}

// Library is the media library rooted at a user-selected directory. The
// root can be changed at runtime.
type Library struct {
	mu     sync.RWMutex
	root   string
	thumbs ThumbnailStore
	ledger HistoryStore
	retry  filesystem.LockRetryConfig
}

// New creates a Library rooted at root. A zero Retry config means
// filesystem.DefaultLockRetryConfig.
func New(root string, opts Options) *Library {
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = filesystem.DefaultLockRetryConfig()
	}
	return &Library{
		root:   filepath.Clean(root),
		thumbs: opts.Thumbnails,
		ledger: opts.History,
		retry:  retry,
	}
}

// Root returns the current library root.
func (l *Library) Root() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.root
}

// SetRoot switches the library to path, which must be an existing directory.
func (l *Library) SetRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve library path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("library path %s: %w", abs, ErrNotFound)
		}
		return fmt.Errorf("library path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library path %s is not a directory: %w", abs, ErrInvalidName)
	}

	l.mu.Lock()
	l.root = abs
	l.mu.Unlock()
	logging.Info("Library root set to %s", abs)
	return nil
}

// Categories lists the category folders of the library.
func (l *Library) Categories() (names []string, err error) {
	defer observe("categories", time.Now(), &err)
	return CategoryNames(l.Root())
}

// ListMedia lists the videos and images of a category.
func (l *Library) ListMedia(category string) (items []MediaItem, err error) {
	defer observe("list_media", time.Now(), &err)

	dir, err := l.categoryDir(category)
	if err != nil {
		return nil, err
	}
	items, err = scanCategory(category, dir, l.thumbs)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", category, err)
	}
	metrics.LibraryItemsListed.Observe(float64(len(items)))
	return items, nil
}

// FilePath returns the absolute path of an existing file in a category.
func (l *Library) FilePath(category, name string) (string, error) {
	dir, err := l.categoryDir(category)
	if err != nil {
		return "", err
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	full := filepath.Join(dir, name)
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s/%s: %w", category, name, ErrNotFound)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s/%s: %w", category, name, ErrNotFound)
	}
	return full, nil
}

// Rename renames a file inside its category. The original extension is
// kept: newName has it stripped if present and re-appended. The ledger entry
// and cached thumbnail follow the file. It returns the final file name.
func (l *Library) Rename(category, name, newName string) (finalName string, err error) {
	defer observe("rename", time.Now(), &err)

	oldPath, err := l.FilePath(category, name)
	if err != nil {
		return "", err
	}

	finalName = withExtension(strings.TrimSpace(newName), filepath.Ext(name))
	if err := ValidateName(finalName); err != nil {
		return "", err
	}
	if finalName == name {
		return name, nil
	}

	newPath := filepath.Join(filepath.Dir(oldPath), finalName)
	// A case-only rename on a case-insensitive volume stats as existing.
	if !strings.EqualFold(finalName, name) {
		if _, err := os.Lstat(newPath); err == nil {
			return "", fmt.Errorf("%s/%s: %w", category, finalName, ErrExists)
		}
	}

	if err := filesystem.RetryMove(oldPath, newPath, l.retry); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", name, err)
	}
	logging.Info("Renamed %s -> %s", oldPath, newPath)

	if l.ledger != nil {
		if err := l.ledger.Migrate(oldPath, newPath); err != nil {
			logging.Error("Failed to migrate history entry for %s: %v", oldPath, err)
		}
	}
	if l.thumbs != nil {
		if err := l.thumbs.Rename(name, finalName); err != nil {
			logging.Warn("Failed to rename thumbnail for %s: %v", name, err)
		}
	}
	return finalName, nil
}

// Delete removes a file, its ledger entry and its cached thumbnail.
func (l *Library) Delete(category, name string) (err error) {
	defer observe("delete", time.Now(), &err)

	path, err := l.FilePath(category, name)
	if err != nil {
		return err
	}
	if err := filesystem.RetryRemove(path, l.retry); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	logging.Info("Deleted %s", path)

	if l.ledger != nil {
		if err := l.ledger.Forget(path); err != nil {
			logging.Error("Failed to forget history entry for %s: %v", path, err)
		}
	}
	if l.thumbs != nil {
		if err := l.thumbs.Remove(name); err != nil {
			logging.Warn("Failed to remove thumbnail for %s: %v", name, err)
		}
	}
	return nil
}

func (l *Library) categoryDir(category string) (string, error) {
	if err := ValidateName(category); err != nil {
		return "", err
	}
	dir := filepath.Join(l.Root(), category)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("category %s: %w", category, ErrNotFound)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("category %s: %w", category, ErrNotFound)
	}
	return dir, nil
}

// ValidateName accepts a single path element. It wraps ErrInvalidName.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// withExtension strips ext from the end of name (any case) and appends ext.
func withExtension(name, ext string) string {
	if ext == "" {
		return name
	}
	if len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		name = name[:len(name)-len(ext)]
	}
	if name == "" {
		return ""
	}
	return name + ext
}

func observe(op string, start time.Time, errp *error) {
	status := "success"
	if errp != nil && *errp != nil {
		status = "error"
	}
	metrics.LibraryOperationsTotal.WithLabelValues(op, status).Inc()
	metrics.LibraryOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
