package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"media-library/internal/logging"
)

// KeyLibraryPath is the settings key of the library root.
const KeyLibraryPath = "library_path"

// ErrNoSetting is returned when a key has no stored value.
var ErrNoSetting = errors.New("setting not found")

// GetSetting retrieves a setting value by key.
func (d *Database) GetSetting(ctx context.Context, key string) (string, error) {
	start := time.Now()
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_setting", start, nil)
		return "", ErrNoSetting
	}
	recordQuery("get_setting", start, err)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores a key-value pair, replacing any previous value.
func (d *Database) SetSetting(ctx context.Context, key, value string) error {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	recordQuery("set_setting", start, err)
	return err
}

// DeleteSetting removes a key. Deleting a missing key is not an error.
func (d *Database) DeleteSetting(ctx context.Context, key string) error {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	recordQuery("delete_setting", start, err)
	return err
}

// SetLibraryPath persists the library root.
func (d *Database) SetLibraryPath(ctx context.Context, path string) error {
	return d.SetSetting(ctx, KeyLibraryPath, path)
}

// LibraryPath returns the stored library root if it is still an existing
// directory, otherwise fallback.
func (d *Database) LibraryPath(ctx context.Context, fallback string) string {
	stored, err := d.GetSetting(ctx, KeyLibraryPath)
	if err != nil {
		if !errors.Is(err, ErrNoSetting) {
			logging.Warn("Failed to read stored library path: %v", err)
		}
		return fallback
	}

	info, err := os.Stat(stored)
	if err != nil || !info.IsDir() {
		logging.Warn("Stored library path %s is no longer available, using %s", stored, fallback)
		return fallback
	}
	return stored
}
