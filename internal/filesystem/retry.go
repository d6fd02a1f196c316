package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"media-library/internal/logging"
)

// ErrResourceLocked is matched by the error returned when a file stayed
// locked for every attempt.
var ErrResourceLocked = errors.New("resource locked")

// LockedError describes an operation that ran out of attempts.
type LockedError struct {
	Op       string
	Path     string
	Attempts int
	Err      error // last busy-class error
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s %s: still locked after %d attempts: %v", e.Op, e.Path, e.Attempts, e.Err)
}

// Is makes errors.Is(err, ErrResourceLocked) true.
func (e *LockedError) Is(target error) bool {
	return target == ErrResourceLocked
}

func (e *LockedError) Unwrap() error {
	return e.Err
}

// LockRetryConfig configures the locked-resource retry loop.
type LockRetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	// VolumeResolver overrides the package-level resolver for metric labels.
	VolumeResolver *VolumeResolver
	// Observer overrides the package-level observer.
	Observer Observer

	sleep  func(time.Duration)
	rename func(oldpath, newpath string) error
	remove func(path string) error
}

// DefaultLockRetryConfig returns 10 attempts, 500ms apart.
func DefaultLockRetryConfig() LockRetryConfig {
	return LockRetryConfig{
		MaxAttempts: 10,
		Delay:       500 * time.Millisecond,
	}
}

func (c *LockRetryConfig) observer() Observer {
	if c.Observer != nil {
		return c.Observer
	}
	if defaultObserver != nil {
		return defaultObserver
	}
	return nopObserver{}
}

func (c *LockRetryConfig) volume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

func (c *LockRetryConfig) wait(d time.Duration) {
	if c.sleep != nil {
		c.sleep(d)
		return
	}
	time.Sleep(d)
}

// Retry runs fn until it succeeds, fails with a non-lock error, or the
// attempts are used up. op and path only label logs and metrics.
func Retry(op, path string, cfg LockRetryConfig, fn func() error) error {
	start := time.Now()
	obs := cfg.observer()
	volume := cfg.volume(path)
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	defer func() {
		obs.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logging.Info("%s succeeded on attempt %d for %s", op, attempt, path)
				obs.ObserveRetrySuccess(op, volume)
			}
			return nil
		}

		if !isLockedError(err) {
			return err
		}

		lastErr = err
		obs.ObserveLockedError(op, volume)

		if attempt < attempts {
			obs.ObserveRetryAttempt(op, volume)
			logging.Debug("%s: %s is locked (%v), retrying in %v (attempt %d/%d)",
				op, path, err, cfg.Delay, attempt, attempts)
			cfg.wait(cfg.Delay)
		}
	}

	obs.ObserveRetryFailure(op, volume)
	logging.Warn("%s gave up on %s after %d attempts: %v", op, path, attempts, lastErr)
	return &LockedError{Op: op, Path: path, Attempts: attempts, Err: lastErr}
}

// RetryMove renames src to dst, retrying while either is locked.
func RetryMove(src, dst string, cfg LockRetryConfig) error {
	rename := cfg.rename
	if rename == nil {
		rename = os.Rename
	}

	return Retry("move", dst, cfg, func() error {
		err := rename(src, dst)
		if err != nil && isCrossDevice(err) {
			logging.Debug("move %s -> %s crosses devices, copying", src, dst)
			return copyAndRemove(src, dst)
		}
		return err
	})
}

// RetryRemove deletes path, retrying while it is locked. A missing file is
// not an error.
func RetryRemove(path string, cfg LockRetryConfig) error {
	remove := cfg.remove
	if remove == nil {
		remove = os.Remove
	}

	return Retry("remove", path, cfg, func() error {
		err := remove(path)
		if err != nil && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	})
}

// copyData is replaced in tests to simulate a full disk.
var copyData = io.Copy

// copyAndRemove copies src over dst and removes src. dst is only valid once
// the copy has been fully written and synced; on failure it is removed and
// src is kept.
func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	// A partial dst must never be left behind: it would sit at the final
	// path under the original's name.
	fail := func(err error) error {
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Warn("could not remove partial copy %s: %v", dst, rmErr)
		}
		return err
	}
	if _, err := copyData(out, in); err != nil {
		out.Close()
		return fail(err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}

	if err := in.Close(); err != nil {
		logging.Debug("close %s: %v", src, err)
	}
	if err := os.Remove(src); err != nil {
		logging.Warn("copied %s to %s but could not remove the source: %v", src, dst, err)
	}
	return nil
}
