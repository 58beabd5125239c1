package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("RAWG_API_KEY", "")
		t.Setenv("SESSION_SECRET", "")
		t.Setenv("CATALOG_CACHE_TTL", "")
		t.Setenv("TIMEZONE", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "", cfg.RAWGAPIKey)
		assert.Equal(t, "https://api.rawg.io/api", cfg.RAWGBaseURL)
		assert.Equal(t, "happygame.db", cfg.DBPath)
		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Equal(t, time.Hour, cfg.CacheTTL)
		assert.True(t, cfg.EphemeralSecret)
		assert.Len(t, cfg.SessionSecret, 48)
		require.NotNil(t, cfg.Location)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("RAWG_API_KEY", "k")
		t.Setenv("SESSION_SECRET", "s3cret")
		t.Setenv("CATALOG_CACHE_TTL", "90s")
		t.Setenv("SERVER_PORT", "9090")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "k", cfg.RAWGAPIKey)
		assert.Equal(t, "s3cret", cfg.SessionSecret)
		assert.False(t, cfg.EphemeralSecret)
		assert.Equal(t, 90*time.Second, cfg.CacheTTL)
		assert.Equal(t, "9090", cfg.ServerPort)
	})

	t.Run("invalid ttl falls back", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("CATALOG_CACHE_TTL", "soon")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, time.Hour, cfg.CacheTTL)
	})

	t.Run("unknown timezone falls back to BRT", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TIMEZONE", "Nowhere/Land")

		cfg, err := Load()
		require.NoError(t, err)
		_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, cfg.Location).Zone()
		assert.Equal(t, -3*60*60, offset)
	})
}
