// Package config loads and validates blockpress configuration from an
// optional YAML file, environment variables, and CLI flag overrides, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blockpress/blockpress/internal/codec"
)

// Default sizes. The block size default mirrors common per-block
// compression granularity; the resident limit caps the auto strategy.
const (
	DefaultBlockSize     = 1 << 20   // 1 MiB
	DefaultResidentLimit = 512 << 20 // 512 MiB
)

// Config is the full blockpress configuration.
type Config struct {
	Run     RunConfig     `yaml:"run"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RunConfig controls the compression pipeline.
type RunConfig struct {
	BlockSize     int64  `yaml:"block_size"`     // bytes per block
	Workers       int    `yaml:"workers"`        // 0 = runtime.NumCPU()
	Codec         string `yaml:"codec"`          // gzip | zstd | s2 | lz4
	Level         int    `yaml:"level"`          // 0 = codec default
	Strategy      string `yaml:"strategy"`       // auto | resident | ondemand
	ResidentLimit int64  `yaml:"resident_limit"` // auto goes on-demand above this input size
	Overwrite     bool   `yaml:"overwrite"`      // replace an existing output
}

// StorageConfig selects and configures the output backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // local | gcs | s3
	LocalDir   string `yaml:"local_dir"`
	GCSBucket  string `yaml:"gcs_bucket"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Endpoint string `yaml:"s3_endpoint"`
	S3Region   string `yaml:"s3_region"`
	Prefix     string `yaml:"prefix"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Format string `yaml:"format"` // json | text
	Level  string `yaml:"level"`  // debug | info | warn | error
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Run: RunConfig{
			BlockSize:     DefaultBlockSize,
			Workers:       runtime.NumCPU(),
			Codec:         string(codec.Gzip),
			Level:         codec.DefaultLevel,
			Strategy:      "auto",
			ResidentLimit: DefaultResidentLimit,
		},
		Storage: StorageConfig{
			Backend: "local",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BLOCK_SIZE"); v != "" {
		if n, err := ParseSize(v); err == nil {
			cfg.Run.BlockSize = n
		}
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.Workers = n
		}
	}
	if v := os.Getenv("CODEC"); v != "" {
		cfg.Run.Codec = v
	}
	if v := os.Getenv("LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.Level = n
		}
	}
	if v := os.Getenv("STRATEGY"); v != "" {
		cfg.Run.Strategy = v
	}
	if v := os.Getenv("RESIDENT_LIMIT"); v != "" {
		if n, err := ParseSize(v); err == nil {
			cfg.Run.ResidentLimit = n
		}
	}

	cfg.Storage.Backend = getenvDefault("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.LocalDir = getenvDefault("LOCAL_DIR", cfg.Storage.LocalDir)
	cfg.Storage.GCSBucket = getenvDefault("GCS_BUCKET", cfg.Storage.GCSBucket)
	cfg.Storage.S3Bucket = getenvDefault("S3_BUCKET", cfg.Storage.S3Bucket)
	cfg.Storage.S3Endpoint = getenvDefault("S3_ENDPOINT", cfg.Storage.S3Endpoint)
	cfg.Storage.S3Region = getenvDefault("S3_REGION", cfg.Storage.S3Region)
	cfg.Storage.Prefix = getenvDefault("STORAGE_PREFIX", cfg.Storage.Prefix)

	cfg.Logging.Format = getenvDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getenvDefault("LOG_LEVEL", cfg.Logging.Level)

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
	cfg.Metrics.Address = getenvDefault("METRICS_ADDR", cfg.Metrics.Address)
}

// Validate fails fast on configuration that would only surface mid-run.
func (c Config) Validate() error {
	if c.Run.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.Run.BlockSize)
	}
	if c.Run.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Run.Workers)
	}
	switch c.Run.Strategy {
	case "auto", "resident", "ondemand":
	default:
		return fmt.Errorf("unknown strategy %q (want auto, resident, or ondemand)", c.Run.Strategy)
	}

	known := false
	for _, t := range codec.Types() {
		if codec.Type(c.Run.Codec) == t {
			known = true
			break
		}
	}
	if !known && codec.Type(c.Run.Codec) != codec.Identity {
		return fmt.Errorf("unknown codec %q", c.Run.Codec)
	}

	switch c.Storage.Backend {
	case "", "local", "gcs", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	return nil
}

// ParseSize parses a byte size with an optional K/M/G suffix (powers of
// 1024), e.g. "900K", "64M", "2G", "1048576".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * mult, nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
