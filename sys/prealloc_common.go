package sys

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// ErrPreallocNotSupported is returned when the underlying file or filesystem
// does not support preallocation operations. Callers can treat this as a
// non-fatal, informational condition and avoid noisy warnings.
var ErrPreallocNotSupported = errors.New("preallocation not supported")

// ErrInvalidRange matches the error Fallocate returns for a negative offset
// or a non-positive length. That error also matches EINVAL and prints as it.
var ErrInvalidRange = errors.New("invalid preallocation range")

// AllocMode selects the allocation behavior of Fallocate. The values match
// the Linux FALLOC_FL_* flags so they can be passed through unchanged there;
// other platforms only honor KeepSize.
type AllocMode uint32

const (
	KeepSize      AllocMode = 0x01
	PunchHole     AllocMode = 0x02
	CollapseRange AllocMode = 0x08
	ZeroRange     AllocMode = 0x10
	InsertRange   AllocMode = 0x20
	UnshareRange  AllocMode = 0x40
)

var allocModeNames = []struct {
	mode AllocMode
	name string
}{
	{KeepSize, "keep_size"},
	{PunchHole, "punch_hole"},
	{CollapseRange, "collapse_range"},
	{ZeroRange, "zero_range"},
	{InsertRange, "insert_range"},
	{UnshareRange, "unshare_range"},
}

func (m AllocMode) Has(flag AllocMode) bool {
	return m&flag == flag
}

func (m AllocMode) String() string {
	if m == 0 {
		return "default"
	}
	var parts []string
	rest := m
	for _, n := range allocModeNames {
		if m.Has(n.mode) {
			parts = append(parts, n.name)
			rest &^= n.mode
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseAllocMode parses a "|" or "," separated list of mode names such as
// "keep_size|zero_range". An empty string or "default" yields 0.
func ParseAllocMode(s string) (AllocMode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "default" {
		return 0, nil
	}
	var mode AllocMode
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range allocModeNames {
			if n.name == part {
				mode |= n.mode
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown allocation mode %q", part)
		}
	}
	return mode, nil
}

// rangeError reads like the EINVAL fallocate(2) itself would return for the
// same arguments and matches both EINVAL and ErrInvalidRange.
type rangeError struct{}

func (rangeError) Error() string { return syscall.EINVAL.Error() }

func (rangeError) Unwrap() error { return syscall.EINVAL }

func (rangeError) Is(target error) bool { return target == ErrInvalidRange }

func checkRange(off, length int64) error {
	if off < 0 || length <= 0 {
		return rangeError{}
	}
	return nil
}
