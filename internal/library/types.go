package library

import (
	"errors"
	"time"

	"media-library/internal/mediatypes"
)

var (
	// ErrNotFound is returned when a category or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a rename target already exists.
	ErrExists = errors.New("already exists")
	// ErrInvalidName is returned for empty names or names containing path
	// separators.
	ErrInvalidName = errors.New("invalid name")
)

// FileTask is one candidate file for a compression run.
type FileTask struct {
	Name      string `json:"name"`
	Directory string `json:"directory"`
	FullPath  string `json:"fullPath"`
}

// MediaItem is a listing entry for a category.
type MediaItem struct {
	Name      string              `json:"name"`
	Category  string              `json:"category"`
	Type      mediatypes.FileType `json:"type"`
	FullPath  string              `json:"-"`
	Size      int64               `json:"size"`
	ModTime   time.Time           `json:"modTime"`
	Thumbnail string              `json:"thumbnail,omitempty"`
	Width     int                 `json:"width,omitempty"`
	Height    int                 `json:"height,omitempty"`
}

// ThumbnailStore is the part of the thumbnail cache the library keeps in
// step with renames and deletes. Names are media file names.
type ThumbnailStore interface {
	Exists(name string) bool
	CacheName(name string) string
	Rename(oldName, newName string) error
	Remove(name string) error
}

// HistoryStore is the part of the history ledger the library keeps in step
// with renames and deletes.
type HistoryStore interface {
	Migrate(oldPath, newPath string) error
	Forget(path string) error
}
