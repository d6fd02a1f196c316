package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"media-library/internal/logging"
)

const (
	cacheExt    = ".jpg"
	jpegQuality = 80
)

// Cache is the on-disk thumbnail store, keyed by media file name.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// CacheName returns the cache file name for a media file name.
func (c *Cache) CacheName(name string) string {
	return name + cacheExt
}

// Path returns the full path of the cache entry for name.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, c.CacheName(filepath.Base(name)))
}

// PathForCacheName returns the full path of a cache file name as returned by
// CacheName or Store. ok is false for names that are not cache entries.
func (c *Cache) PathForCacheName(cacheName string) (path string, ok bool) {
	base := filepath.Base(cacheName)
	if base != cacheName || len(base) <= len(cacheExt) || !strings.HasSuffix(base, cacheExt) {
		return "", false
	}
	return filepath.Join(c.dir, base), true
}

// Exists reports whether a preview for name is cached.
func (c *Cache) Exists(name string) bool {
	info, err := os.Stat(c.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Store encodes img as JPEG and writes it as the entry for name. It returns
// the cache file name.
func (c *Cache) Store(name string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".thumb-*")
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(name)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return c.CacheName(name), nil
}

// Rename moves the entry for oldName to newName. A missing entry is not an
// error.
func (c *Cache) Rename(oldName, newName string) error {
	err := os.Rename(c.Path(oldName), c.Path(newName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Remove deletes the entry for name. A missing entry is not an error.
func (c *Cache) Remove(name string) error {
	err := os.Remove(c.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear deletes every *.jpg file in the cache and leaves anything else in
// place. It returns the number of files removed.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read thumbnail cache: %w", err)
	}

	removed := 0
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), cacheExt) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			logging.Warn("Failed to remove thumbnail %s: %v", entry.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// Stats returns the number and total size of cached previews.
func (c *Cache) Stats() (count int, size int64) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), cacheExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size
}
