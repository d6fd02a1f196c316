/*
Package filesystem provides the locked-resource retry protocol used when
renaming, replacing or deleting media files.

# Purpose

A media player, a thumbnail decoder or a file indexer may hold a file open at
the exact moment the library renames it or swaps in a freshly transcoded copy.
On most platforms that shows up as EBUSY, EPERM or EACCES (on Windows as a
sharing or lock violation). Those errors usually clear within a second, so the
operations in this package wait and try again instead of failing outright.

# Behavior

	err := filesystem.RetryMove(tmp, original, filesystem.DefaultLockRetryConfig())
	if errors.Is(err, filesystem.ErrResourceLocked) {
	    // still busy after every attempt
	}

  - Busy-class errors are retried after a fixed delay (default 10 attempts, 500ms apart)
  - Any other error is returned immediately, without sleeping
  - Exhaustion returns a *LockedError that matches ErrResourceLocked
  - A cross-device rename falls back to copy + remove

Moves are never interrupted once started; callers that support cancellation
check for it before calling in.

# Metrics

Attempts, successes, failures, lock errors and durations are reported to the
package Observer (see SetObserver), labelled with the volume the path belongs
to as resolved by the VolumeResolver.
*/
package filesystem
