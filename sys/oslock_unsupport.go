//go:build !unix

package sys

import (
	"errors"
	"time"
)

// ErrOSFileLockNotSupported is returned by AcquireOSFileLock on platforms
// without flock(2).
var ErrOSFileLockNotSupported = errors.New("OS file locking not supported on this platform")

// AcquireOSFileLock always fails with ErrOSFileLockNotSupported here. The
// only caller, bind mounting, is Linux-only.
func AcquireOSFileLock(lockPath string, timeout time.Duration) (func() error, error) {
	return nil, ErrOSFileLockNotSupported
}
