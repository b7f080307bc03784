package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	yamlContent := `
probe:
  path: "/tmp/reserved"
  size_bytes: 1000000
  mode: keep_size
bench:
  iterations: 5
logging:
  level: debug
`
	cfg, err := Load(strings.NewReader(yamlContent))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/tmp/reserved", cfg.Probe.Path)
	assert.Equal(t, int64(1000000), cfg.Probe.SizeBytes)
	assert.Equal(t, "keep_size", cfg.Probe.Mode)
	assert.Equal(t, 5, cfg.Bench.Iterations)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Defaults that were not overridden
	assert.Equal(t, uint32(0664), cfg.Probe.Perm)
	assert.Equal(t, "raw", cfg.Bench.Strategy)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoad_OctalPerm(t *testing.T) {
	cfg, err := Load(strings.NewReader("probe:\n  perm: 0o600\n"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0600), cfg.Probe.Perm)
}

func TestLoad_EmptyReader(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, int64(100000000), cfg.Probe.SizeBytes)
	assert.Equal(t, "creserved", cfg.Probe.Path)

	cfg, err = Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	yamlContent := `
probe:
  path: "x"
  this: is: invalid: yaml
`
	_, err := Load(strings.NewReader(yamlContent))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config yaml")
}

func TestLoadConfig_FileIntegration(t *testing.T) {
	t.Run("FileExists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("probe:\n  size_bytes: 4096\n"), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, int64(4096), cfg.Probe.SizeBytes)
	})

	t.Run("FileDoesNotExist", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "non_existent_config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, int64(100000000), cfg.Probe.SizeBytes)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestParseDuration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultDuration := 10 * time.Second

	testCases := []struct {
		name     string
		input    string
		expected time.Duration
	}{
		{"ValidSeconds", "5s", 5 * time.Second},
		{"ValidMilliseconds", "500ms", 500 * time.Millisecond},
		{"ValidMinutes", "2m", 2 * time.Minute},
		{"EmptyString", "", defaultDuration},
		{"ZeroString", "0", defaultDuration},
		{"InvalidString", "5x", defaultDuration},
		{"JustNumber", "10", defaultDuration},
		{"NilLogger", "5x", defaultDuration},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var testLogger *slog.Logger
			if tc.name != "NilLogger" {
				testLogger = logger
			}
			assert.Equal(t, tc.expected, ParseDuration(tc.input, defaultDuration, testLogger))
		})
	}
}
