package bench

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	for _, s := range []Strategy{StrategyRaw, StrategyKeepSize, StrategyBestEffort} {
		t.Run(string(s), func(t *testing.T) {
			dir := t.TempDir()
			rep, err := Run(context.Background(), Options{Dir: dir, SizeBytes: 64 * 1024, Iterations: 5, Strategy: s}, nil)
			require.NoError(t, err)

			assert.Equal(t, s, rep.Strategy)
			assert.Equal(t, 5, rep.Iterations)
			assert.Equal(t, int64(5*64*1024), rep.BytesRequested)
			if rep.Failures+rep.Unsupported == 0 {
				assert.GreaterOrEqual(t, rep.Max, rep.Min)
				assert.LessOrEqual(t, rep.Min, rep.P50)
				assert.LessOrEqual(t, rep.P50, rep.Max)
				assert.LessOrEqual(t, rep.Min, rep.Mean)
			}

			left, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, left, "bench files must be removed")
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := Run(ctx, Options{Dir: t.TempDir(), SizeBytes: 4096, Iterations: 10}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Equal(t, 0, rep.Iterations)
	assert.Zero(t, rep.Min)
}

func TestRun_InvalidOptions(t *testing.T) {
	_, err := Run(context.Background(), Options{Dir: t.TempDir(), SizeBytes: 4096, Iterations: 0}, nil)
	assert.Error(t, err)

	_, err = Run(context.Background(), Options{Dir: t.TempDir(), SizeBytes: 0, Iterations: 1}, nil)
	assert.Error(t, err)

	_, err = Run(context.Background(), Options{Dir: t.TempDir(), SizeBytes: 1, Iterations: 1, Strategy: "mmap"}, nil)
	assert.Error(t, err)
}

func TestRun_MissingDirCountsFailures(t *testing.T) {
	rep, err := Run(context.Background(), Options{Dir: filepath.Join(t.TempDir(), "missing"), SizeBytes: 4096, Iterations: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Failures)
	assert.Error(t, rep.LastErr)
	assert.Zero(t, rep.Mean)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyRaw, s)

	s, err = ParseStrategy("best_effort")
	require.NoError(t, err)
	assert.Equal(t, StrategyBestEffort, s)

	_, err = ParseStrategy("nope")
	assert.Error(t, err)
}
