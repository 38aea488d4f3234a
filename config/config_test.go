package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.StartTimeout())
	assert.Equal(t, 30*time.Second, cfg.CallTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.StartupStagger())
	assert.True(t, cfg.StartStoredServers)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"listen_addr": ":9090",
		"database_path": "/tmp/bridge.db",
		"call_timeout_seconds": 60,
		"startup_stagger_ms": 250
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/bridge.db", cfg.DatabasePath)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.StartupStagger())

	// Untouched fields keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.StartTimeout())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedJSON(t *testing.T) {
	path := writeConfigFile(t, `{"listen_addr": `)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"empty listen addr", `{"listen_addr": ""}`},
		{"empty database path", `{"database_path": ""}`},
		{"zero start timeout", `{"start_timeout_seconds": 0}`},
		{"negative stagger", `{"startup_stagger_ms": -1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.contents)

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
