package probe

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/fsprobe/config"
	"github.com/INLOpen/fsprobe/sys"
)

// skipIfNoFallocate skips when the temp filesystem has no preallocation
// primitive at all, which is a property of the host rather than the probe.
func skipIfNoFallocate(t *testing.T, res Result) {
	t.Helper()
	if res.Outcome == OutcomeAllocFailed && (res.Err == sys.ErrPreallocNotSupported || strings.Contains(res.Err.Error(), "not supported")) {
		t.Skipf("preallocation unavailable here: %v", res.Err)
	}
}

func TestPresets(t *testing.T) {
	d := Default()
	assert.Equal(t, "creserved", d.Path)
	assert.Equal(t, os.O_CREATE|os.O_RDWR, d.Flags)
	assert.Equal(t, os.FileMode(0664), d.Perm)
	assert.Equal(t, int64(0), d.Offset)
	assert.Equal(t, int64(100000000), d.Length)
	assert.Equal(t, sys.AllocMode(0), d.Mode)

	s := Small()
	assert.Equal(t, int64(1000000), s.Length)
	assert.Equal(t, d.Flags, s.Flags, "the small probe opens read/write too")
	assert.Equal(t, sys.AllocMode(0), s.Mode, "the small probe passes allocation flags, not permission bits")
}

func TestRun_SuccessCreatesFile(t *testing.T) {
	opts := Small()
	opts.Path = filepath.Join(t.TempDir(), DefaultPath)

	var out bytes.Buffer
	res := Run(opts, &out, nil)
	skipIfNoFallocate(t, res)

	require.Equal(t, OutcomeSuccess, res.Outcome, "output: %s", out.String())
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode())
	assert.Equal(t, MsgSuccess+"\n", out.String())

	fi, err := os.Stat(opts.Path)
	require.NoError(t, err)
	assert.Equal(t, opts.Length, fi.Size())

	f, err := sys.Open(opts.Path)
	require.NoError(t, err)
	defer f.Close()
	if allocated, err := sys.AllocatedBytes(f); err == nil {
		assert.GreaterOrEqual(t, allocated, opts.Length)
	}
}

func TestRun_KeepSize(t *testing.T) {
	opts := Small()
	opts.Path = filepath.Join(t.TempDir(), DefaultPath)
	opts.Mode = sys.KeepSize

	var out bytes.Buffer
	res := Run(opts, &out, nil)
	skipIfNoFallocate(t, res)
	require.Equal(t, OutcomeSuccess, res.Outcome, "output: %s", out.String())

	fi, err := os.Stat(opts.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fi.Size())
}

func TestRun_OpenFailure(t *testing.T) {
	opts := Default()
	opts.Path = filepath.Join(t.TempDir(), "missing-dir", DefaultPath)

	var out bytes.Buffer
	res := Run(opts, &out, nil)

	assert.Equal(t, OutcomeOpenFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Equal(t, 1, res.ExitCode())
	assert.Equal(t, MsgOpenFailed+"\n", out.String())
}

func TestRun_AllocFailureIncludesReason(t *testing.T) {
	opts := Default()
	opts.Path = filepath.Join(t.TempDir(), DefaultPath)
	opts.Length = 0

	var out bytes.Buffer
	res := Run(opts, &out, nil)

	assert.Equal(t, OutcomeAllocFailed, res.Outcome)
	assert.Equal(t, 1, res.ExitCode())
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, MsgAllocFailed, lines[0])
	assert.Equal(t, syscall.EINVAL.Error(), lines[1])
	assert.Equal(t, MsgAllocFailed+"\n"+syscall.EINVAL.Error()+"\n", out.String())

	_, err := os.Stat(opts.Path)
	assert.NoError(t, err, "the file is created even when preallocation fails")
}

func TestRun_Idempotent(t *testing.T) {
	opts := Small()
	opts.Path = filepath.Join(t.TempDir(), DefaultPath)

	first := Run(opts, &bytes.Buffer{}, nil)
	skipIfNoFallocate(t, first)
	require.Equal(t, OutcomeSuccess, first.Outcome)

	var out bytes.Buffer
	second := Run(opts, &out, nil)
	assert.Equal(t, OutcomeSuccess, second.Outcome, "re-allocating an already allocated range is a no-op")

	fi, err := os.Stat(opts.Path)
	require.NoError(t, err)
	assert.Equal(t, opts.Length, fi.Size())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "open_failed", OutcomeOpenFailed.String())
	assert.Equal(t, "alloc_failed", OutcomeAllocFailed.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestFromConfig(t *testing.T) {
	opts, err := FromConfig(config.Default().Probe)
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)

	opts, err = FromConfig(config.ProbeConfig{Path: "x", SizeBytes: 10, Offset: 4096, Perm: 0600, Mode: "keep_size"})
	require.NoError(t, err)
	assert.Equal(t, "x", opts.Path)
	assert.Equal(t, int64(10), opts.Length)
	assert.Equal(t, int64(4096), opts.Offset)
	assert.Equal(t, os.FileMode(0600), opts.Perm)
	assert.Equal(t, sys.KeepSize, opts.Mode)
	assert.Equal(t, DefaultFlags, opts.Flags)

	_, err = FromConfig(config.ProbeConfig{Mode: "sideways"})
	require.Error(t, err)
}
