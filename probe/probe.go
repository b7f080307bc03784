// Package probe runs a single file-space preallocation attempt and reports
// the outcome with one of three fixed messages.
package probe

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/INLOpen/fsprobe/config"
	"github.com/INLOpen/fsprobe/sys"
)

// Console messages. The failure message is followed by the OS error text on
// its own line.
const (
	MsgOpenFailed  = "error opening file"
	MsgAllocFailed = "fallocate returned error:"
	MsgSuccess     = "fallocate successful"
)

const (
	DefaultPath   = "creserved"
	DefaultPerm   = os.FileMode(0664)
	DefaultFlags  = os.O_CREATE | os.O_RDWR
	DefaultLength = 100_000_000
	SmallLength   = 1_000_000
)

// Options describes one probe. Mode is the allocation-behavior flag set,
// never permission bits.
type Options struct {
	Path   string
	Flags  int
	Perm   os.FileMode
	Offset int64
	Length int64
	Mode   sys.AllocMode
}

// Default returns the 100 MB probe against ./creserved.
func Default() Options {
	return Options{
		Path:   DefaultPath,
		Flags:  DefaultFlags,
		Perm:   DefaultPerm,
		Offset: 0,
		Length: DefaultLength,
		Mode:   0,
	}
}

// Small returns the 1 MB probe against ./creserved.
func Small() Options {
	o := Default()
	o.Length = SmallLength
	return o
}

// FromConfig starts from Default and applies the non-zero fields of pc.
// Offset is always taken as given.
func FromConfig(pc config.ProbeConfig) (Options, error) {
	opts := Default()
	if pc.Path != "" {
		opts.Path = pc.Path
	}
	if pc.SizeBytes != 0 {
		opts.Length = pc.SizeBytes
	}
	if pc.Perm != 0 {
		opts.Perm = os.FileMode(pc.Perm) & os.ModePerm
	}
	opts.Offset = pc.Offset
	mode, err := sys.ParseAllocMode(pc.Mode)
	if err != nil {
		return opts, fmt.Errorf("probe mode: %w", err)
	}
	opts.Mode = mode
	return opts, nil
}

// Outcome is the observable result of a probe.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeOpenFailed
	OutcomeAllocFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeOpenFailed:
		return "open_failed"
	case OutcomeAllocFailed:
		return "alloc_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome Outcome
	Err     error
}

// ExitCode is 0 on success and 1 for either failure.
func (r Result) ExitCode() int {
	if r.Outcome == OutcomeSuccess {
		return 0
	}
	return 1
}

// Run opens (or creates) opts.Path, issues one preallocation call and writes
// the matching message to out. The file is left in place and closed before
// returning.
func Run(opts Options, out io.Writer, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "probe", "path", opts.Path)

	f, err := sys.OpenFile(opts.Path, opts.Flags, opts.Perm)
	if err != nil {
		logger.Error("Failed to open target file", "error", err)
		fmt.Fprintln(out, MsgOpenFailed)
		return Result{Outcome: OutcomeOpenFailed, Err: err}
	}
	defer f.Close()

	logger.Debug("Preallocating", "mode", opts.Mode.String(), "offset", opts.Offset, "length", opts.Length)
	if err := sys.Fallocate(f, opts.Mode, opts.Offset, opts.Length); err != nil {
		logger.Error("Preallocation failed", "error", err)
		fmt.Fprintf(out, "%s\n%s\n", MsgAllocFailed, err.Error())
		return Result{Outcome: OutcomeAllocFailed, Err: err}
	}

	if allocated, err := sys.AllocatedBytes(f); err == nil {
		logger.Info("Preallocation succeeded", "requested", opts.Length, "allocated", allocated)
	}
	fmt.Fprintln(out, MsgSuccess)
	return Result{Outcome: OutcomeSuccess}
}
