package sys

import (
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
)

var _ FileHandle = (*DebugFile)(nil)
var nextID atomic.Uint64

var listFD *sync.Map = new(sync.Map)

var debugLogger atomic.Pointer[slog.Logger]

// DebugFile wraps an *os.File and logs open, close and preallocation through
// the debug logger. Live handles are tracked until closed.
type DebugFile struct {
	id     uint64
	f      *os.File
	logger *slog.Logger
}

// SetDebugLogger sets the logger used by DebugFile. A nil logger restores
// the default.
func SetDebugLogger(logger *slog.Logger) {
	debugLogger.Store(logger)
}

func newDebugFile(f *os.File) *DebugFile {
	logger := debugLogger.Load()
	if logger == nil {
		logger = slog.Default()
	}
	id := nextID.Add(1)
	logger = logger.With("component", "DebugFile", "id", id, "file_name", f.Name())
	logger.Debug("Opening file")
	listFD.Store(id, f.Name())
	return &DebugFile{
		id:     id,
		f:      f,
		logger: logger,
	}
}

func (df *DebugFile) Write(p []byte) (n int, err error) {
	return df.f.Write(p)
}

func (df *DebugFile) Read(p []byte) (n int, err error) {
	return df.f.Read(p)
}

func (df *DebugFile) Seek(offset int64, whence int) (int64, error) {
	return df.f.Seek(offset, whence)
}

func (df *DebugFile) Stat() (os.FileInfo, error) {
	return df.f.Stat()
}

func (df *DebugFile) Sync() error {
	return df.f.Sync()
}

func (df *DebugFile) Truncate(size int64) error {
	df.logger.Debug("Truncating file", "size", size)
	return df.f.Truncate(size)
}

func (df *DebugFile) Name() string {
	return df.f.Name()
}

func (df *DebugFile) Fd() uintptr {
	return df.f.Fd()
}

func (df *DebugFile) WriteAt(p []byte, off int64) (n int, err error) {
	return df.f.WriteAt(p, off)
}

func (df *DebugFile) ReadAt(p []byte, off int64) (n int, err error) {
	return df.f.ReadAt(p, off)
}

func (df *DebugFile) WriteString(s string) (n int, err error) {
	return df.f.WriteString(s)
}

func (df *DebugFile) Close() error {
	df.logger.Debug("Closing file")
	listFD.Delete(df.id)
	return df.f.Close()
}

// OpenFiles returns the names of DebugFile handles that have not been closed,
// ordered by open sequence.
func OpenFiles() []string {
	type entry struct {
		id   uint64
		name string
	}
	var entries []entry
	listFD.Range(func(key, value any) bool {
		entries = append(entries, entry{id: key.(uint64), name: value.(string)})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// logAlloc is called by the platform Fallocate implementations.
func logAlloc(f FileHandle, mode AllocMode, off, length int64, err error) {
	df, ok := f.(*DebugFile)
	if !ok {
		return
	}
	if err != nil {
		df.logger.Debug("Fallocate failed", "mode", mode.String(), "offset", off, "length", length, "error", err)
		return
	}
	df.logger.Debug("Fallocate succeeded", "mode", mode.String(), "offset", off, "length", length)
}
