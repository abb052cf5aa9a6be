package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1048576", 1048576},
		{"900K", 900 << 10},
		{"900k", 900 << 10},
		{"64M", 64 << 20},
		{"2G", 2 << 30},
		{" 16 M ", 16 << 20},
	}
	for _, tc := range cases {
		got, err := ParseSize(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "M", "12X", "abc"} {
		_, err := ParseSize(bad)
		require.Error(t, err, bad)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Run.BlockSize = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Run.Workers = -1
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Run.Codec = "brotli"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Run.Strategy = "lazy"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Backend = "ftp"
	require.Error(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
run:
  block_size: 2097152
  workers: 8
  codec: zstd
  strategy: ondemand
storage:
  backend: local
  local_dir: /tmp/out
logging:
  format: json
  level: debug
metrics:
  enabled: true
  address: ":9191"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(2097152), cfg.Run.BlockSize)
	require.Equal(t, 8, cfg.Run.Workers)
	require.Equal(t, "zstd", cfg.Run.Codec)
	require.Equal(t, "ondemand", cfg.Run.Strategy)
	require.Equal(t, "/tmp/out", cfg.Storage.LocalDir)
	require.Equal(t, "json", cfg.Logging.Format)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, ":9191", cfg.Metrics.Address)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  codec: gzip\n"), 0644))

	t.Setenv("CODEC", "lz4")
	t.Setenv("BLOCK_SIZE", "900K")
	t.Setenv("WORKERS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "lz4", cfg.Run.Codec)
	require.Equal(t, int64(900<<10), cfg.Run.BlockSize)
	require.Equal(t, 3, cfg.Run.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidConfigFailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  block_size: -5\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}
