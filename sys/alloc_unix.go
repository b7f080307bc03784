//go:build unix

package sys

import (
	"golang.org/x/sys/unix"
)

// AllocatedBytes returns the storage actually reserved for f, which can
// differ from its logical size for sparse or preallocated files.
func AllocatedBytes(f FileHandle) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return 0, err
	}
	// st_blocks is always in 512-byte units.
	return int64(st.Blocks) * 512, nil
}
