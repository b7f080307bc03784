package sys

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFile implements File on top of the real os calls and records
// which entry points were used.
type recordingFile struct {
	osFile
	calls []string
}

func (r *recordingFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	r.calls = append(r.calls, "OpenFile")
	return r.osFile.OpenFile(name, flag, perm)
}

func (r *recordingFile) CreateTemp(dir, pattern string) (*os.File, error) {
	r.calls = append(r.calls, "CreateTemp")
	return r.osFile.CreateTemp(dir, pattern)
}

func (r *recordingFile) WriteFile(name string, data []byte, perm os.FileMode) error {
	r.calls = append(r.calls, "WriteFile")
	return r.osFile.WriteFile(name, data, perm)
}

func (r *recordingFile) Remove(name string) error {
	r.calls = append(r.calls, "Remove")
	return r.osFile.Remove(name)
}

func useFile(t *testing.T, f File) {
	t.Helper()
	SetDefaultFile(f)
	t.Cleanup(func() { SetDefaultFile(NewFile()) })
}

func TestHandlersUseDefaultFile(t *testing.T) {
	rec := &recordingFile{}
	useFile(t, rec)
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	require.NoError(t, WriteFile(path, []byte("hello"), 0644))

	f, err := Open(path)
	require.NoError(t, err)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, []byte("hello"), got)

	c, err := Create(path)
	require.NoError(t, err)
	st, err := c.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Size(), "Create truncates")
	require.NoError(t, c.Close())

	tmp, err := CreateTemp(dir, "tmp-*")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	require.NoError(t, SafeRemove(tmp.Name()))
	require.NoError(t, SafeRemove(tmp.Name()), "removing a missing file counts as success")

	assert.Equal(t, []string{"WriteFile", "OpenFile", "OpenFile", "CreateTemp", "Remove", "Remove"}, rec.calls)
}

func TestDebugModeWrapsAndTracksFiles(t *testing.T) {
	var buf bytes.Buffer
	SetDebugLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	SetDebugMode(true)
	t.Cleanup(func() {
		SetDebugMode(false)
		SetDebugLogger(nil)
	})

	path := filepath.Join(t.TempDir(), "tracked")
	f, err := Create(path)
	require.NoError(t, err)

	_, ok := f.(*DebugFile)
	require.True(t, ok, "expected *DebugFile, got %T", f)
	assert.Contains(t, OpenFiles(), path)

	_, err = f.WriteString("abc")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.NotContains(t, OpenFiles(), path)
	assert.Contains(t, buf.String(), "Opening file")
	assert.Contains(t, buf.String(), "Closing file")
}

func TestRealFileWhenDebugOff(t *testing.T) {
	SetDebugMode(false)
	f, err := Create(filepath.Join(t.TempDir(), "plain"))
	require.NoError(t, err)
	defer f.Close()

	rf, ok := f.(*RealFile)
	require.True(t, ok, "expected *RealFile, got %T", f)
	assert.NotZero(t, rf.Fd())

	n, err := f.WriteAt([]byte("xyz"), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	p := make([]byte, 3)
	_, err = f.ReadAt(p, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), p)
}
