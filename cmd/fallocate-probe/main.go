// Command fallocate-probe creates ./creserved and asks the OS to reserve
// 100,000,000 bytes for it, printing "fallocate successful" and exiting 0, or
// printing a failure message and exiting 1.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/INLOpen/fsprobe/config"
	"github.com/INLOpen/fsprobe/internal/logutil"
	"github.com/INLOpen/fsprobe/probe"
	"github.com/INLOpen/fsprobe/sys"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fallocate-probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to an optional YAML configuration file")
	path := fs.String("path", "", "File to create and preallocate (default from config: creserved)")
	size := fs.Int64("size", 0, "Bytes to preallocate (default from config: 100000000)")
	offset := fs.Int64("offset", 0, "Offset to start preallocation at")
	mode := fs.String("mode", "", "Allocation mode flags, e.g. keep_size or keep_size|zero_range")
	small := fs.Bool("small", false, "Use the 1,000,000 byte probe")
	logLevel := fs.String("log-level", "", "Logging level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 2
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["log-level"] {
		cfg.Logging.Level = *logLevel
	}

	logger, closer, err := logutil.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return 2
	}
	if closer != nil {
		defer closer.Close()
	}
	if cfg.Logging.Level == "debug" {
		sys.SetDebugLogger(logger)
		sys.SetDebugMode(true)
	}

	opts, err := probe.FromConfig(cfg.Probe)
	if err != nil {
		fmt.Fprintf(stderr, "invalid probe configuration: %v\n", err)
		return 2
	}
	if *small {
		opts.Length = probe.SmallLength
	}
	if set["path"] {
		opts.Path = *path
	}
	if set["size"] {
		opts.Length = *size
	}
	if set["offset"] {
		opts.Offset = *offset
	}
	if set["mode"] {
		if opts.Mode, err = sys.ParseAllocMode(*mode); err != nil {
			fmt.Fprintf(stderr, "invalid -mode: %v\n", err)
			return 2
		}
	}

	return probe.Run(opts, stdout, logger).ExitCode()
}
