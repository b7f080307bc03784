//go:build linux

package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/INLOpen/fsprobe/sys"
)

// MountLockTimeout bounds how long MountBindAll and UmountAll wait for the
// lock on a mount root.
var MountLockTimeout = 5 * time.Second

// MountBind bind mounts the directory src on tgt, creating tgt if needed.
// Requires CAP_SYS_ADMIN.
func MountBind(src, tgt string) error {
	fi, err := os.Stat(src)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("source dir %s doesn't exist or is not a directory", src)
	}

	fi, err = os.Stat(tgt)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(tgt, 0700); err != nil {
			return fmt.Errorf("couldn't create mountpoint %s: %w", tgt, err)
		}
	case err != nil:
		return fmt.Errorf("couldn't stat mountpoint %s: %w", tgt, err)
	case !fi.IsDir():
		return fmt.Errorf("couldn't create mountpoint %s: a non-directory with the same name already exists", tgt)
	}
	if err := unix.Mount(src, tgt, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("bind mount %s on %s: %w", src, tgt, err)
	}
	return nil
}

// MountBindAll bind mounts each of dirs[:len(dirs)-1] under the last element,
// on a mount point named after the source's base name. Failures are
// collected and returned together; successful mounts are kept.
func MountBindAll(dirs ...string) error {
	if len(dirs) < 2 {
		return fmt.Errorf("at least two arguments required")
	}
	root := dirs[len(dirs)-1]
	release, err := lockRoot(root)
	if err != nil {
		return err
	}
	defer release()

	var errs []error
	for _, src := range dirs[:len(dirs)-1] {
		mp := filepath.Base(src)
		if mp == "." || mp == "/" {
			errs = append(errs, fmt.Errorf("refusing to mount on mountpoint %s", mp))
			continue
		}
		if err := MountBind(src, filepath.Join(root, mp)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Unmount(mountpoint string) error {
	return unix.Unmount(mountpoint, 0)
}

// UmountAll unmounts every directory directly under root. EINVAL, which the
// kernel returns for "not a mount point", is ignored; other errors are
// collected.
func UmountAll(root string) error {
	des, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	release, err := lockRoot(root)
	if err != nil {
		return err
	}
	defer release()

	var errs []error
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		mp := filepath.Join(root, de.Name())
		if err := Unmount(mp); err != nil && !errors.Is(err, unix.EINVAL) {
			errs = append(errs, fmt.Errorf("unmount %s: %w", mp, err))
		}
	}
	return errors.Join(errs...)
}

// lockRoot serializes mount work on root across processes via root+".lock".
func lockRoot(root string) (func() error, error) {
	lockPath := filepath.Clean(root) + ".lock"
	release, err := sys.AcquireOSFileLock(lockPath, MountLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("lock mount root %s: %w", root, err)
	}
	return release, nil
}
