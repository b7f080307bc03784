//go:build windows

package sys

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type fileAllocInfo struct {
	AllocationSize int64
}

// Fallocate requests allocation of off+length bytes through
// SetFileInformationByHandle(FileAllocationInfo) and, unless KeepSize is set,
// extends the file to that size. Only KeepSize is honored.
func Fallocate(f FileHandle, mode AllocMode, off, length int64) error {
	if err := checkRange(off, length); err != nil {
		return err
	}
	if mode&^KeepSize != 0 {
		logAlloc(f, mode, off, length, ErrPreallocNotSupported)
		return ErrPreallocNotSupported
	}
	err := fallocate(f, mode, off+length)
	logAlloc(f, mode, off, length, err)
	return err
}

func fallocate(f FileHandle, mode AllocMode, end int64) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() >= end {
		return nil
	}
	info := fileAllocInfo{AllocationSize: end}
	h := windows.Handle(f.Fd())
	if err := windows.SetFileInformationByHandle(h, windows.FileAllocationInfo, (*byte)(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info))); err != nil {
		return err
	}
	if mode.Has(KeepSize) {
		return nil
	}
	return f.Truncate(end)
}

// Preallocate reserves size bytes for f without changing its visible size.
// It is best-effort: failures are returned and callers should treat them as
// non-fatal.
func Preallocate(f FileHandle, size int64) error {
	if size <= 0 {
		return nil
	}
	if err := Fallocate(f, KeepSize, 0, size); err != nil {
		return countOutcome(fmt.Errorf("windows preallocation failed: %w", err))
	}
	return countOutcome(nil)
}
