package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("NAVCHECK_ORIGIN sets link origin", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NAVCHECK_ORIGIN", "https://staging.example.com")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "https://staging.example.com", cfg.Links.Origin)
	})

	t.Run("NAVCHECK_DB and NAVCHECK_ADDR", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NAVCHECK_DB", "/tmp/runs.db")
		t.Setenv("NAVCHECK_ADDR", "127.0.0.1:9999")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "/tmp/runs.db", cfg.Store.DatabasePath)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	})

	t.Run("NAVCHECK_SEED parses", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NAVCHECK_SEED", "1234")

		cfg := &Config{}
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, uint64(1234), cfg.Simulation.Seed)
	})

	t.Run("NAVCHECK_SEED rejects garbage", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NAVCHECK_SEED", "lots")

		cfg := &Config{}
		assert.Error(t, cfg.applyEnvOverrides())
	})

	t.Run("NAVCHECK_BASE_URL switches to http probing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NAVCHECK_BASE_URL", "http://localhost:4173")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, ProbeHTTP, cfg.Probe.Mode)
		assert.Equal(t, "http://localhost:4173", cfg.Probe.BaseURL)
	})

	t.Run("empty values leave config alone", func(t *testing.T) {
		clearEnv(t)

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestEnvOverridesBeatFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "navcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  database_path: file.db\n"), 0644))
	t.Setenv("NAVCHECK_DB", "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Store.DatabasePath)
}

func TestEnvOverridesApplyWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("NAVCHECK_ADDR", ":7000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}
