// Package fsutil holds small filesystem helpers: existence checks, listings,
// du-style sizing, filesystem usage, file reservation and bind mounts.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotSupported is returned by helpers that have no implementation on the
// current platform.
var ErrNotSupported = errors.New("not supported on this platform")

// FileExists reports whether filename exists. An existing directory yields
// true together with an error.
func FileExists(filename string) (bool, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return true, fmt.Errorf("%s is a directory", filename)
	}
	return true, nil
}

// DirExists reports whether dirname exists. An existing non-directory yields
// true together with an error.
func DirExists(dirname string) (bool, error) {
	info, err := os.Stat(dirname)
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return true, fmt.Errorf("%s is not a directory", dirname)
	}
	return true, nil
}

func IsSymlink(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeSymlink == os.ModeSymlink
}

// ResolveSymlinks evaluates every path. Paths that fail to resolve are
// returned unchanged at their index and their errors are joined.
func ResolveSymlinks(paths []string) ([]string, error) {
	var errs []error
	resolved := make([]string, len(paths))
	for i, p := range paths {
		rp, err := filepath.EvalSymlinks(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			resolved[i] = p
			continue
		}
		resolved[i] = rp
	}
	return resolved, errors.Join(errs...)
}
