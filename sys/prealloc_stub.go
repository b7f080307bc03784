//go:build !linux && !windows && !darwin

package sys

// Fallocate is not available on this platform.
func Fallocate(f FileHandle, mode AllocMode, off, length int64) error {
	if err := checkRange(off, length); err != nil {
		return err
	}
	logAlloc(f, mode, off, length, ErrPreallocNotSupported)
	return ErrPreallocNotSupported
}

// Preallocate always returns ErrPreallocNotSupported here.
func Preallocate(f FileHandle, size int64) error {
	if size <= 0 {
		return nil
	}
	return countOutcome(ErrPreallocNotSupported)
}
