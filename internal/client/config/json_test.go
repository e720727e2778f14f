package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"base_url":              "http://dev.example/api/v1",
		"online_check_interval": "10s",
		"broadcast_cache_ttl":   "15s",
		"retry_max_attempts":    5,
		"retry_base_delay":      "250ms",
		"pinned_keys":           []string{"pin1"},
	})

	t.Run("loads from -config", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, "http://dev.example/api/v1", cfg.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, 15*time.Second, cfg.Cache.Broadcasts)
		assert.Equal(t, 2*time.Minute, cfg.Cache.Vehicles, "absent keys keep defaults")
		assert.Equal(t, RetryConfig{MaxAttempts: 5, BaseDelay: 250 * time.Millisecond}, cfg.Retry)
		assert.Equal(t, []string{"pin1"}, cfg.PinnedKeys)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		cfg := &Config{BaseURL: "defaults", OnlineCheckInterval: 42 * time.Second}
		parseJson(cfg, nil)

		assert.Equal(t, "defaults", cfg.BaseURL)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg, []string{"-c", bad}) })
	})
}
