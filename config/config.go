package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProbeConfig holds the parameters of a single preallocation probe.
type ProbeConfig struct {
	Path      string `yaml:"path"`
	SizeBytes int64  `yaml:"size_bytes"`
	Offset    int64  `yaml:"offset"`
	Perm      uint32 `yaml:"perm"`
	Mode      string `yaml:"mode"` // e.g. "default", "keep_size", "keep_size|zero_range"
}

// BenchConfig holds preallocation benchmark settings.
type BenchConfig struct {
	Dir        string `yaml:"dir"`
	SizeBytes  int64  `yaml:"size_bytes"`
	Iterations int    `yaml:"iterations"`
	Strategy   string `yaml:"strategy"` // "raw", "keep_size" or "best_effort"
	Timeout    string `yaml:"timeout"`
}

// MountConfig holds settings for bind mount helpers.
type MountConfig struct {
	LockTimeout string `yaml:"lock_timeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol string `yaml:"protocol"` // "grpc" or "http"
}

// Config is the top-level configuration struct.
type Config struct {
	Probe   ProbeConfig   `yaml:"probe"`
	Bench   BenchConfig   `yaml:"bench"`
	Mount   MountConfig   `yaml:"mount"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ParseDuration parses a duration string. Returns the default duration if the string is empty or invalid.
// Logs a warning if the string is invalid but not empty.
func ParseDuration(durationStr string, defaultDuration time.Duration, logger *slog.Logger) time.Duration {
	if durationStr == "" || durationStr == "0" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid duration format, using default", "input", durationStr, "default", defaultDuration.String(), "error", err)
		}
		return defaultDuration
	}
	return d
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Probe: ProbeConfig{
			Path:      "creserved",
			SizeBytes: 100_000_000,
			Offset:    0,
			Perm:      0664,
			Mode:      "default",
		},
		Bench: BenchConfig{
			Dir:        os.TempDir(),
			SizeBytes:  16 * 1024 * 1024, // 16 MiB
			Iterations: 20,
			Strategy:   "raw",
			Timeout:    "60s",
		},
		Mount: MountConfig{
			LockTimeout: "5s",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
			File:   "fsprobe.log",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Protocol: "grpc",
		},
	}
}

// Load reads configuration from an io.Reader, overlaying it on Default.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. A missing file or
// an empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Load(nil)
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
