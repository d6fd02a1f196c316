//go:build windows

package filesystem

import "syscall"

func errorSharingViolationForTest() syscall.Errno { return errorSharingViolation }
