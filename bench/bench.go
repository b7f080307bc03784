// Package bench measures how long preallocation takes on a given directory.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/caio/go-tdigest/v4"

	"github.com/INLOpen/fsprobe/sys"
)

// Strategy selects which preallocation call is timed.
type Strategy string

const (
	// StrategyRaw times sys.Fallocate with mode 0, which grows the file.
	StrategyRaw Strategy = "raw"
	// StrategyKeepSize times sys.Fallocate with KeepSize.
	StrategyKeepSize Strategy = "keep_size"
	// StrategyBestEffort times sys.Preallocate.
	StrategyBestEffort Strategy = "best_effort"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRaw, StrategyKeepSize, StrategyBestEffort:
		return Strategy(s), nil
	case "":
		return StrategyRaw, nil
	}
	return "", fmt.Errorf("unknown bench strategy %q", s)
}

type Options struct {
	Dir        string
	SizeBytes  int64
	Iterations int
	Strategy   Strategy
}

// Report summarizes a run. Latencies only cover successful iterations.
type Report struct {
	Strategy       Strategy
	SizeBytes      int64
	Iterations     int
	Failures       int
	Unsupported    int
	BytesRequested int64
	Min            time.Duration
	Max            time.Duration
	Mean           time.Duration
	P50            time.Duration
	P90            time.Duration
	P99            time.Duration
	LastErr        error
}

// Run executes opts.Iterations rounds of create, preallocate and remove in
// opts.Dir. Cancelling ctx stops the run between iterations and returns the
// partial report along with ctx's error.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "bench")
	if opts.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", opts.Iterations)
	}
	if opts.SizeBytes <= 0 {
		return nil, fmt.Errorf("size must be positive, got %d", opts.SizeBytes)
	}
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}

	td, err := tdigest.New()
	if err != nil {
		return nil, fmt.Errorf("tdigest.New failed: %w", err)
	}

	rep := &Report{Strategy: strategy, SizeBytes: opts.SizeBytes, Min: time.Duration(math.MaxInt64)}
	var total time.Duration
	var ok int
	for i := 0; i < opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			finish(rep, td, total, ok)
			return rep, err
		}
		d, err := once(opts.Dir, opts.SizeBytes, strategy)
		rep.Iterations++
		rep.BytesRequested += opts.SizeBytes
		if err != nil {
			if errors.Is(err, sys.ErrPreallocNotSupported) {
				rep.Unsupported++
			} else {
				rep.Failures++
			}
			rep.LastErr = err
			logger.Debug("Iteration failed", "iteration", i, "error", err)
			continue
		}
		if err := td.AddWeighted(float64(d), 1); err != nil {
			return nil, fmt.Errorf("tdigest add: %w", err)
		}
		total += d
		ok++
		rep.Min = min(rep.Min, d)
		rep.Max = max(rep.Max, d)
	}
	finish(rep, td, total, ok)
	logger.Info("Benchmark finished", "strategy", strategy, "iterations", rep.Iterations, "failures", rep.Failures, "p50", rep.P50, "p99", rep.P99)
	return rep, nil
}

func finish(rep *Report, td *tdigest.TDigest, total time.Duration, ok int) {
	if ok == 0 {
		rep.Min = 0
		return
	}
	rep.Mean = total / time.Duration(ok)
	rep.P50 = time.Duration(td.Quantile(0.50))
	rep.P90 = time.Duration(td.Quantile(0.90))
	rep.P99 = time.Duration(td.Quantile(0.99))
}

// once times a single preallocation on a fresh temp file.
func once(dir string, size int64, strategy Strategy) (time.Duration, error) {
	f, err := sys.CreateTemp(dir, "fsprobe-bench-*")
	if err != nil {
		return 0, err
	}
	defer sys.SafeRemove(f.Name())
	defer f.Close()

	start := time.Now()
	switch strategy {
	case StrategyKeepSize:
		err = sys.Fallocate(f, sys.KeepSize, 0, size)
	case StrategyBestEffort:
		err = sys.Preallocate(f, size)
	default:
		err = sys.Fallocate(f, 0, 0, size)
	}
	return time.Since(start), err
}
