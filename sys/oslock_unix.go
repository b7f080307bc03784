//go:build unix

package sys

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLockTimeout is returned when a lock is still held by someone else after
// the timeout passed to AcquireOSFileLock.
var ErrLockTimeout = errors.New("timed out waiting for file lock")

// AcquireOSFileLock takes an exclusive flock(2) on lockPath, creating the
// file if needed. It polls until timeout; a zero timeout tries exactly once.
// The returned release func unlocks and closes the lock file but never
// removes it, so every caller contends on the same inode.
func AcquireOSFileLock(lockPath string, timeout time.Duration) (func() error, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	fd := int(f.Fd())
	deadline := time.Now().Add(timeout)
	for {
		err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			release := func() error {
				_ = unix.Flock(fd, unix.LOCK_UN)
				return f.Close()
			}
			return release, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) {
			_ = f.Close()
			return nil, fmt.Errorf("flock %s: %w", lockPath, err)
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%s: %w", lockPath, ErrLockTimeout)
		}
		time.Sleep(25 * time.Millisecond)
	}
}
