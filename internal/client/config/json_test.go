package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccelrecreo/recreo/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"api_base_url":    "http://www.example:9000/api",
		"request_timeout": "10s",
		"device_key_file": "",
	})

	t.Run("loads from flags", func(t *testing.T) {
		withArgs(t, "-config", pathFlag)

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "http://www.example:9000/api", cfg.APIBaseURL)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Empty(t, cfg.DeviceKeyFile, "explicit empty value overrides the default")
		assert.Equal(t, "sqlite", cfg.StoreBackend, "absent keys keep earlier values")
	})

	t.Run("loads from environment", func(t *testing.T) {
		withArgs(t)
		t.Setenv(flagx.ConfigEnv, pathFlag)

		cfg := &Config{}
		parseJson(cfg)
		assert.Equal(t, "http://www.example:9000/api", cfg.APIBaseURL)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		withArgs(t)

		cfg := &Config{
			APIBaseURL:     "http://defaults:1234",
			RequestTimeout: 42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.APIBaseURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("nanosecond durations", func(t *testing.T) {
		p := writeTempJSON(t, dir, "ns.json", map[string]any{"request_timeout": 2_000_000_000})
		withArgs(t, "-c", p)

		cfg := &Config{}
		parseJson(cfg)
		assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		withArgs(t, "-config", bad)

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(dir, "nope.json"))
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
