package fsutil

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// DirSize returns the total apparent size in bytes of path, recursing into
// directories like du --apparent-size --bytes. Symlinks are not followed.
// info may be nil, in which case path is lstat'ed.
func DirSize(currentPath string, info os.FileInfo) (int64, error) {
	var err error
	if info == nil {
		info, err = os.Lstat(currentPath)
		if err != nil {
			return -1, err
		}
	}
	size := info.Size()
	if !info.IsDir() {
		return size, nil
	}

	des, err := os.ReadDir(currentPath)
	if err != nil {
		return -1, err
	}
	for _, de := range des {
		fi, err := de.Info()
		if err != nil {
			return -1, err
		}
		inc, err := DirSize(filepath.Join(currentPath, de.Name()), fi)
		if err != nil {
			return -1, err
		}
		size += inc
	}
	return size, nil
}

// DirSizes computes DirSize for each path concurrently, at most limit at a
// time (limit <= 0 means unbounded). The first error cancels the rest.
func DirSizes(ctx context.Context, paths []string, limit int) ([]int64, error) {
	sizes := make([]int64, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sz, err := DirSize(p, nil)
			if err != nil {
				return err
			}
			sizes[i] = sz
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sizes, nil
}
