package token_reaper_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, 24*time.Hour, cfg.Reaper.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Reaper.Timeout)
	assert.Equal(t, ":8082", cfg.Reaper.MetricsAddr)
	assert.Equal(t, "postgres", cfg.StoreConfig().Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REAPER_INTERVAL", "1h")
	t.Setenv("STORE", "redis")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Reaper.Interval)
	assert.Equal(t, "redis", cfg.Store)
}

func TestLoad_RejectsZeroInterval(t *testing.T) {
	t.Setenv("REAPER_INTERVAL", "0s")
	_, err := Load("")
	require.Error(t, err)
}
