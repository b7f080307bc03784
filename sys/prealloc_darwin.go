//go:build darwin

package sys

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Fallocate emulates fallocate(2) with F_PREALLOCATE. Space for off+length
// bytes is reserved past the physical end of file, first contiguously and
// then anywhere. Unless KeepSize is set the file is then extended to
// off+length. Modes other than KeepSize are not available on macOS.
func Fallocate(f FileHandle, mode AllocMode, off, length int64) error {
	if err := checkRange(off, length); err != nil {
		return err
	}
	if mode&^KeepSize != 0 {
		logAlloc(f, mode, off, length, unix.EOPNOTSUPP)
		return unix.EOPNOTSUPP
	}
	err := fallocate(f, mode, off, length)
	logAlloc(f, mode, off, length, err)
	return err
}

func fallocate(f FileHandle, mode AllocMode, off, length int64) error {
	fd := f.Fd()
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATECONTIG | unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  off + length,
	}
	err := unix.FcntlFstore(fd, unix.F_PREALLOCATE, &fst)
	if err != nil {
		fst.Flags = unix.F_ALLOCATEALL
		err = unix.FcntlFstore(fd, unix.F_PREALLOCATE, &fst)
	}
	if err != nil {
		return err
	}
	if mode.Has(KeepSize) {
		return nil
	}
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if end := off + length; st.Size() < end {
		return f.Truncate(end)
	}
	return nil
}

func isUnsupported(err error) bool {
	return errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS)
}

// Preallocate reserves size bytes for f without changing its visible size.
// Filesystems that reject F_PREALLOCATE yield ErrPreallocNotSupported, and
// that verdict is cached per device.
func Preallocate(f FileHandle, size int64) error {
	if size <= 0 {
		return nil
	}
	var stat unix.Stat_t
	var dev uint64
	if err := unix.Fstat(int(f.Fd()), &stat); err == nil {
		dev = uint64(stat.Dev)
		if allow, ok := preallocCacheLoad(dev); ok {
			preallocCacheHit()
			if !allow {
				return countOutcome(ErrPreallocNotSupported)
			}
		} else {
			preallocCacheMiss()
		}
	}

	err := Fallocate(f, KeepSize, 0, size)
	switch {
	case err == nil:
		if dev != 0 {
			preallocCacheStore(dev, true)
		}
		return countOutcome(nil)
	case isUnsupported(err):
		if dev != 0 {
			preallocCacheStore(dev, false)
		}
		return countOutcome(ErrPreallocNotSupported)
	default:
		return countOutcome(fmt.Errorf("darwin preallocation failed: %w", err))
	}
}
