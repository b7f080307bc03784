package fsutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/INLOpen/fsprobe/sys"
)

// ErrExists is returned by FileFallocate when the target exists and force
// is not set.
var ErrExists = errors.New("file already exists")

// FileFallocate creates (or, with force, truncates) path and reserves size
// bytes for it. The file's size becomes size.
func FileFallocate(path string, size int64, perm os.FileMode, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("not overwriting %s, use force to override: %w", path, ErrExists)
	}

	f, err := sys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := sys.Fallocate(f, 0, 0, size); err != nil {
		f.Close()
		return fmt.Errorf("fallocate %s: %w", path, err)
	}
	return f.Close()
}
