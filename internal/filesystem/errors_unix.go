//go:build !windows

package filesystem

import (
	"errors"
	"syscall"
)

// isLockedError reports whether err means another process currently holds
// the file (or its directory entry) and the operation may succeed later.
func isLockedError(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case syscall.EBUSY, syscall.ETXTBSY, syscall.EPERM, syscall.EACCES:
		return true
	}
	return false
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
