package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PEATRACK_DATA_DIR", dir)
	t.Setenv("PEATRACK_PORT", "")
	t.Setenv("PEATRACK_PORTFOLIO", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "portfolio.json"), cfg.PortfolioPath)
	assert.Equal(t, 8420, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PEATRACK_DATA_DIR", dir)
	t.Setenv("PEATRACK_PORT", "9100")
	t.Setenv("PEATRACK_PORTFOLIO", "/tmp/custom.json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/custom.json", cfg.PortfolioPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
}

func TestLoadCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("PEATRACK_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.DirExists(t, cfg.DataDir)
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 42, getEnvAsInt("SOME_INT", 42))
}
