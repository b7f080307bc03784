//go:build linux

// prealloc_check reports how the filesystem under -dir answers each
// fallocate mode, with raw errno values, and what sys.Preallocate makes of it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/INLOpen/fsprobe/sys"
)

type attempt struct {
	name string
	mode sys.AllocMode
}

var attempts = []attempt{
	{"keep_size", sys.KeepSize},
	{"default", 0},
	{"zero_range", sys.ZeroRange},
	{"punch_hole", sys.PunchHole | sys.KeepSize},
}

func main() {
	dir := flag.String("dir", os.TempDir(), "directory to create the test file in")
	size := flag.Int64("size", 16*1024*1024, "bytes to attempt to preallocate")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sys.SetDebugLogger(logger)
	sys.SetDebugMode(true)

	var sfs unix.Statfs_t
	if err := unix.Statfs(*dir, &sfs); err == nil {
		logger.Info("Filesystem", "dir", *dir, "magic", fmt.Sprintf("0x%x", uint32(sfs.Type)), "block_size", sfs.Bsize)
	}

	for _, a := range attempts {
		check(logger, *dir, a, *size)
	}

	f, err := sys.CreateTemp(*dir, "fsprobe-prealloc-*.tmp")
	if err != nil {
		logger.Error("Failed to create file", "error", err)
		os.Exit(2)
	}
	defer func() {
		f.Close()
		sys.SafeRemove(f.Name())
	}()
	err = sys.Preallocate(f, *size)
	switch {
	case err == nil:
		logger.Info("sys.Preallocate succeeded", "size", *size)
	case errors.Is(err, sys.ErrPreallocNotSupported):
		logger.Warn("sys.Preallocate reports no support", "size", *size)
	default:
		logger.Error("sys.Preallocate failed", "error", err)
	}
	st := sys.ReadPreallocStats()
	logger.Info("Counters", "hits", st.CacheHits, "misses", st.CacheMisses, "successes", st.Successes, "failures", st.Failures, "unsupported", st.Unsupported)
}

// check runs one mode against a fresh file so earlier attempts do not skew
// the result.
func check(logger *slog.Logger, dir string, a attempt, size int64) {
	f, err := sys.CreateTemp(dir, "fsprobe-prealloc-*.tmp")
	if err != nil {
		logger.Error("Failed to create file", "error", err)
		return
	}
	defer func() {
		f.Close()
		sys.SafeRemove(f.Name())
	}()

	err = sys.Fallocate(f, a.mode, 0, size)
	if err == nil {
		allocated, _ := sys.AllocatedBytes(f)
		fi, _ := f.Stat()
		var apparent int64
		if fi != nil {
			apparent = fi.Size()
		}
		logger.Info("Fallocate succeeded", "mode", a.name, "allocated", allocated, "size", apparent)
		return
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		logger.Error("Fallocate failed", "mode", a.name, "error", err, "errno", int(errno))
		return
	}
	logger.Error("Fallocate failed", "mode", a.name, "error", err)
}
