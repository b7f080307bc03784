//go:build !linux

package fsutil

import "time"

var MountLockTimeout = 5 * time.Second

func MountBind(src, tgt string) error {
	return ErrNotSupported
}

func MountBindAll(dirs ...string) error {
	return ErrNotSupported
}

func Unmount(mountpoint string) error {
	return ErrNotSupported
}

func UmountAll(root string) error {
	return ErrNotSupported
}
