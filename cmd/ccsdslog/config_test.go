package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApplyConfigFileTOML(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "ccsdslog.toml", `
device = "/dev/ttyUSB1"
format = "ihex"
compress = "zstd"
interval = "250ms"
ring = 4096
stash = 96
baud = 57600
crlf = true
`)

	cfg := testConfig()
	require.NoError(t, applyConfigFile(cfg, path, nil))

	assert.Equal(t, "/dev/ttyUSB1", cfg.devicePath)
	assert.Equal(t, "ihex", cfg.format)
	assert.Equal(t, "zstd", cfg.codec)
	assert.Equal(t, 250*time.Millisecond, cfg.interval)
	assert.Equal(t, 4096, cfg.ringSize)
	assert.Equal(t, 96, cfg.stashSize)
	assert.Equal(t, 57600, cfg.baud)
	assert.True(t, cfg.crlf)
	assert.Equal(t, 2, cfg.count, "keys missing from the file keep their value")
}

func TestApplyConfigFileFlagsWin(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, "ccsdslog.yaml", "format: base85\nring: 2048\n")

	cfg := testConfig()
	cfg.format = "hd"
	require.NoError(t, applyConfigFile(cfg, path, map[string]bool{"format": true}))

	assert.Equal(t, "hd", cfg.format)
	assert.Equal(t, 2048, cfg.ringSize)
}

func TestApplyConfigFileErrors(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	require.Error(t, applyConfigFile(cfg, filepath.Join(t.TempDir(), "missing.toml"), nil))

	path := writeConfigFile(t, "bad.toml", `interval = "soon"`)
	require.ErrorContains(t, applyConfigFile(cfg, path, nil), "interval")
}
