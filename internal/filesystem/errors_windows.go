//go:build windows

package filesystem

import (
	"errors"
	"syscall"
)

const (
	errorSharingViolation syscall.Errno = 32
	errorLockViolation    syscall.Errno = 33
	errorNotSameDevice    syscall.Errno = 17
)

// isLockedError reports whether err means another process currently holds
// the file open. Windows reports open handles as sharing/lock violations or,
// for some players, as a plain access denied.
func isLockedError(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case errorSharingViolation, errorLockViolation, syscall.ERROR_ACCESS_DENIED:
		return true
	}
	return false
}

func isCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice)
}
