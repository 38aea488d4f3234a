package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds the bridge's runtime settings, loaded from a JSON file with
// defaults for everything omitted.
type Config struct {
	ListenAddr   string `json:"listen_addr"`
	DatabasePath string `json:"database_path"`

	LogPath     string `json:"log_path"`
	LogLevel    string `json:"log_level"`
	MaxLogFiles int    `json:"max_log_files"`

	StartTimeoutSeconds int `json:"start_timeout_seconds"`
	CallTimeoutSeconds  int `json:"call_timeout_seconds"`
	StopGraceSeconds    int `json:"stop_grace_seconds"`
	StartupStaggerMs    int `json:"startup_stagger_ms"`

	StartStoredServers bool `json:"start_stored_servers"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":8080",
		DatabasePath:        "mcp-bridge.db",
		LogPath:             "mcp-bridge.log",
		LogLevel:            "info",
		MaxLogFiles:         5,
		StartTimeoutSeconds: 10,
		CallTimeoutSeconds:  30,
		StopGraceSeconds:    2,
		StartupStaggerMs:    500,
		StartStoredServers:  true,
	}
}

// LoadConfig reads a JSON config file over the defaults.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects settings the bridge cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}

	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}

	if c.StartTimeoutSeconds <= 0 {
		return errors.New("start_timeout_seconds must be positive")
	}

	if c.CallTimeoutSeconds <= 0 {
		return errors.New("call_timeout_seconds must be positive")
	}

	if c.StartupStaggerMs < 0 {
		return errors.New("startup_stagger_ms must not be negative")
	}

	return nil
}

// StartTimeout returns the handshake deadline as a duration.
func (c Config) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutSeconds) * time.Second
}

// CallTimeout returns the tool invocation deadline as a duration.
func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// StopGrace returns the graceful shutdown window as a duration.
func (c Config) StopGrace() time.Duration {
	return time.Duration(c.StopGraceSeconds) * time.Second
}

// StartupStagger returns the per-server launch delay as a duration.
func (c Config) StartupStagger() time.Duration {
	return time.Duration(c.StartupStaggerMs) * time.Millisecond
}
