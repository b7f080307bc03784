//go:build !unix

package sys

// AllocatedBytes is not available on this platform.
func AllocatedBytes(f FileHandle) (int64, error) {
	return 0, ErrPreallocNotSupported
}
