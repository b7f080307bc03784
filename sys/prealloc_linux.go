//go:build linux

package sys

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Fallocate issues a single fallocate(2) call on f with the given mode,
// offset and length. Errors from the kernel are returned as unix.Errno so
// callers can match them with errors.Is.
func Fallocate(f FileHandle, mode AllocMode, off, length int64) error {
	if err := checkRange(off, length); err != nil {
		return err
	}
	err := unix.Fallocate(int(f.Fd()), uint32(mode), off, length)
	logAlloc(f, mode, off, length, err)
	return err
}

// isUnsupported reports whether err means "this file or filesystem can't do
// that" as opposed to a real failure like ENOSPC.
func isUnsupported(err error) bool {
	return errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EINVAL) ||
		errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOTTY)
}

// localFilesystem reports whether the statfs magic belongs to a local
// filesystem where fallocate is expected to work.
func localFilesystem(magic uint32) bool {
	switch magic {
	case 0xEF53, // EXT2/3/4
		0x58465342, // XFS
		0x9123683E, // BTRFS
		0x01021994, // TMPFS
		0x794C7630, // OVERLAYFS
		0xF2F52010, // F2FS
		0x2FC12FC1, // ZFS on Linux
		0x2011BAB0, // EXFAT
		0x3434,     // NILFS2
		0x42465331: // BFS
		return true
	}
	return false
}

// Preallocate attempts to allocate space for the given file without changing
// the visible file size. It tries FALLOC_FL_KEEP_SIZE first and falls back to
// a plain allocation. Filesystems that cannot do either yield
// ErrPreallocNotSupported, and that verdict is cached per device.
func Preallocate(f FileHandle, size int64) error {
	if size <= 0 {
		return nil
	}
	// WSL mounts Windows drives under /mnt; fallocate there is unreliable.
	if strings.HasPrefix(f.Name(), "/mnt/") {
		return countOutcome(ErrPreallocNotSupported)
	}
	fd := int(f.Fd())

	var stat unix.Stat_t
	var dev uint64
	if err := unix.Fstat(fd, &stat); err == nil {
		dev = uint64(stat.Dev)
		if allow, ok := preallocCacheLoad(dev); ok {
			preallocCacheHit()
			if !allow {
				return countOutcome(ErrPreallocNotSupported)
			}
			return countOutcome(preallocate(f, size, 0))
		}
		preallocCacheMiss()
	}

	var st unix.Statfs_t
	if err := unix.Fstatfs(fd, &st); err != nil {
		return countOutcome(ErrPreallocNotSupported)
	}
	if !localFilesystem(uint32(st.Type)) {
		if dev != 0 {
			preallocCacheStore(dev, false)
		}
		return countOutcome(ErrPreallocNotSupported)
	}
	return countOutcome(preallocate(f, size, dev))
}

// preallocate runs the KEEP_SIZE-then-plain sequence. A non-zero dev records
// the outcome in the device cache.
func preallocate(f FileHandle, size int64, dev uint64) error {
	err := Fallocate(f, KeepSize, 0, size)
	if err != nil && isUnsupported(err) {
		err = Fallocate(f, 0, 0, size)
	}
	switch {
	case err == nil:
		if dev != 0 {
			preallocCacheStore(dev, true)
		}
		return nil
	case isUnsupported(err):
		if dev != 0 {
			preallocCacheStore(dev, false)
		}
		return ErrPreallocNotSupported
	default:
		return fmt.Errorf("preallocation failed for fd=%d: %w", f.Fd(), err)
	}
}
