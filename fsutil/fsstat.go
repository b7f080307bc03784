package fsutil

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// FsStatFromPath returns usage statistics for the filesystem holding path.
func FsStatFromPath(path string) (*disk.UsageStat, error) {
	return disk.Usage(path)
}

// AvailableBytes returns the bytes an unprivileged user can still allocate
// on the filesystem holding path.
func AvailableBytes(path string) (uint64, error) {
	st, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return st.Free, nil
}

// Partitions lists mounted filesystems. With all=false only physical
// devices are returned.
func Partitions(all bool) ([]disk.PartitionStat, error) {
	return disk.Partitions(all)
}
