// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ripple.
//
// Supports TOML configuration with sensible defaults and environment
// variable overrides.
//
// Configuration file locations (in order of precedence):
//   - ~/.ripple/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ripple configuration.
type Config struct {
	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Logging configuration
	Log LogConfig `toml:"log"`
}

// BackendConfig contains chat backend connection settings.
type BackendConfig struct {
	// BaseURL is the root URL of the chat backend.
	BaseURL string `toml:"base_url"`
	// ConnectTimeoutSecs bounds the initial connection attempt.
	// The stream itself has no timeout once established.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs"`
}

// StorageConfig contains conversation persistence settings.
type StorageConfig struct {
	// DatabasePath is the path to the sqlite database file
	// (empty = default ~/.ripple/ripple.db).
	DatabasePath string `toml:"database_path"`
	// MaxSessions caps how many conversations are retained.
	// 0 means unlimited.
	MaxSessions int `toml:"max_sessions"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// WrapWidth is the word-wrap width for rendered assistant output.
	WrapWidth int `toml:"wrap_width"`
	// WelcomeText is shown when no previous conversation exists.
	WelcomeText string `toml:"welcome_text"`
}

// LogConfig contains log file settings.
type LogConfig struct {
	// Level is the minimum level written: "debug", "info", "warn", "error"
	Level string `toml:"level"`
	// Path is the log file path (empty = default ~/.ripple/ripple.log).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:            "http://127.0.0.1:8080",
			ConnectTimeoutSecs: 30,
		},
		Storage: StorageConfig{
			DatabasePath: "",
			MaxSessions:  0, // unlimited
		},
		UI: UIConfig{
			Theme:       "auto",
			WrapWidth:   80,
			WelcomeText: "Hi! Ask me anything.",
		},
		Log: LogConfig{
			Level: "info",
			Path:  "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the ripple configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ripple"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DatabasePath resolves the sqlite database path, applying the default
// when the config leaves it empty.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ripple.db"), nil
}

// LogPath resolves the log file path, applying the default when the
// config leaves it empty.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ripple.log"), nil
}

// ConnectTimeout returns the backend connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Backend.ConnectTimeoutSecs) * time.Second
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with
// full validation. Used by tests and the --config flag.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# ripple configuration file")
	fmt.Fprintln(file, "# Generated by ripple - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION AND DEFAULTS
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Backend.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: "must not be empty",
		})
	} else {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "backend.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Backend.BaseURL),
			})
		}
	}

	if c.Backend.ConnectTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.connect_timeout_secs",
			Message: "must be non-negative",
		})
	}

	if c.Storage.MaxSessions < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_sessions",
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.WrapWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.wrap_width",
			Message: "must be non-negative",
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if c.Backend.ConnectTimeoutSecs == 0 {
		c.Backend.ConnectTimeoutSecs = defaults.Backend.ConnectTimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.WrapWidth == 0 {
		c.UI.WrapWidth = defaults.UI.WrapWidth
	}
	if c.UI.WelcomeText == "" {
		c.UI.WelcomeText = defaults.UI.WelcomeText
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIPPLE_BACKEND_URL: overrides backend.base_url
//   - RIPPLE_DB_PATH: overrides storage.database_path
//   - RIPPLE_MAX_SESSIONS: overrides storage.max_sessions
//   - RIPPLE_THEME: overrides ui.theme
//   - RIPPLE_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if base := os.Getenv("RIPPLE_BACKEND_URL"); base != "" {
		c.Backend.BaseURL = base
	}
	if path := os.Getenv("RIPPLE_DB_PATH"); path != "" {
		c.Storage.DatabasePath = path
	}
	if max := os.Getenv("RIPPLE_MAX_SESSIONS"); max != "" {
		if n, err := strconv.Atoi(max); err == nil && n >= 0 {
			c.Storage.MaxSessions = n
		}
	}
	if theme := os.Getenv("RIPPLE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if level := os.Getenv("RIPPLE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}
