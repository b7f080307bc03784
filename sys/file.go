package sys

import (
	"io"
	"os"
	"sync/atomic"
	"time"
)

// fileWrapper is a stable concrete type used to store the File interface
// inside an atomic.Value. atomic.Value requires that all stored values
// have the same concrete type.
type fileWrapper struct {
	f File
}

var defaultFile atomic.Value // stores fileWrapper
var debugMode atomic.Bool

// File abstracts the handful of filesystem entry points used by the probe and
// the helpers built on top of it, so tests can observe or replace them.
type File interface {
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	CreateTemp(dir, pattern string) (*os.File, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Remove(name string) error
}

// FileHandle is the open-file surface preallocation works against. *os.File
// satisfies it, as do RealFile and DebugFile.
type FileHandle interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.WriterAt
	io.Seeker
	io.StringWriter

	Stat() (os.FileInfo, error)
	Sync() error
	Truncate(size int64) error
	Name() string
	Fd() uintptr
}

type CreateHandler func(name string) (FileHandle, error)
type OpenHandler func(name string) (FileHandle, error)
type OpenFileHandler func(name string, flag int, perm os.FileMode) (FileHandle, error)
type CreateTempHandler func(dir, pattern string) (FileHandle, error)
type WriteFileHandler func(name string, data []byte, perm os.FileMode) error
type RemoveHandler func(name string) error

func init() {
	debugMode.Store(false)
	defaultFile.Store(fileWrapper{f: NewFile()})
}

// SetDefaultFile replaces the File implementation used by the package level
// handlers.
func SetDefaultFile(file File) {
	defaultFile.Store(fileWrapper{f: file})
}

// SetDebugMode toggles wrapping of opened files in DebugFile.
func SetDebugMode(mode bool) {
	debugMode.Store(mode)
}

// DebugMode reports whether opened files are wrapped in DebugFile.
func DebugMode() bool {
	return debugMode.Load()
}

func loadFile() (File, error) {
	p := defaultFile.Load()
	if p == nil {
		return nil, os.ErrInvalid
	}
	fw, ok := p.(fileWrapper)
	if !ok || fw.f == nil {
		return nil, os.ErrInvalid
	}
	return fw.f, nil
}

var Create CreateHandler = (func(name string) (FileHandle, error) {
	return OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
})

var Open OpenHandler = (func(name string) (FileHandle, error) {
	return OpenFile(name, os.O_RDONLY, 0)
})

var OpenFile OpenFileHandler = (func(name string, flag int, perm os.FileMode) (FileHandle, error) {
	file, err := loadFile()
	if err != nil {
		return nil, err
	}
	f, err := file.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return wrap(f), nil
})

var CreateTemp CreateTempHandler = (func(dir, pattern string) (FileHandle, error) {
	file, err := loadFile()
	if err != nil {
		return nil, err
	}
	f, err := file.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return wrap(f), nil
})

var WriteFile WriteFileHandler = (func(name string, data []byte, perm os.FileMode) error {
	file, err := loadFile()
	if err != nil {
		return err
	}
	return file.WriteFile(name, data, perm)
})

var Remove RemoveHandler = (func(name string) error {
	file, err := loadFile()
	if err != nil {
		return err
	}
	return file.Remove(name)
})

func wrap(f *os.File) FileHandle {
	if debugMode.Load() {
		return newDebugFile(f)
	}
	return &RealFile{f: f}
}

// SafeRemove retries Remove with exponential backoff. A file that is already
// gone counts as removed.
func SafeRemove(name string) error {
	return SafeRemoveWithRetry(name, 5, 10*time.Millisecond)
}

func SafeRemoveWithRetry(name string, retry int, interval time.Duration) error {
	if retry < 1 || retry > 5 {
		retry = 5
	}
	var err error
	for i := 0; i < retry; i++ {
		err = Remove(name)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
		time.Sleep(interval * time.Duration(1<<i))
	}
	return err
}

// osFile implements File directly on top of package os.
type osFile struct{}

// NewFile returns the os-backed File implementation.
func NewFile() File {
	return &osFile{}
}

func (osFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (osFile) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

func (osFile) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (osFile) Remove(name string) error {
	return os.Remove(name)
}
