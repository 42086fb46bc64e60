package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "choromap.db", cfg.Store.DSN)
	assert.Equal(t, 5, cfg.Analyze.Classes)
	assert.Equal(t, []string{"equal", "quantile", "jenks"}, cfg.Analyze.Methods)
	assert.Equal(t, "density", cfg.Analyze.Mode)
	assert.Equal(t, "ylorrd", cfg.Analyze.Ramp)
	assert.Equal(t, "pt-BR", cfg.Analyze.Locale)
	assert.True(t, cfg.Analyze.LogVariant)
	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.Equal(t, []string{"*"}, cfg.Serve.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile("config.yaml", []byte(`
store:
  driver: postgres
  dsn: postgres://localhost/choromap
analyze:
  classes: 7
  mode: raw
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/choromap", cfg.Store.DSN)
	assert.Equal(t, 7, cfg.Analyze.Classes)
	assert.Equal(t, "raw", cfg.Analyze.Mode)
	// Unset keys keep defaults.
	assert.Equal(t, "ylorrd", cfg.Analyze.Ramp)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHOROMAP_ANALYZE_CLASSES", "9")
	t.Setenv("CHOROMAP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Analyze.Classes)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))

	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
