// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for ragchat.
//
// Configuration sources (in order of precedence):
//   - Environment variables (RAGCHAT_*)
//   - ~/.ragchat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragchat configuration.
type Config struct {
	// Backend is the REST backend connection configuration.
	Backend BackendConfig `toml:"backend"`

	// Chat holds startup defaults for the chat settings panel.
	Chat ChatConfig `toml:"chat"`

	// UI configuration.
	UI UIConfig `toml:"ui"`
}

// BackendConfig describes how to reach the chatbot backend.
type BackendConfig struct {
	// URL is the base URL of the backend server.
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout in seconds. Chat and upload
	// calls can legitimately take a while, so the default is generous.
	TimeoutSecs int `toml:"timeout_secs"`
}

// ChatConfig contains startup defaults for chat settings. These only seed
// the settings panel; everything is changeable at runtime and nothing is
// written back.
type ChatConfig struct {
	// UseRAG enables retrieval-augmented answers from the start.
	UseRAG bool `toml:"use_rag"`
	// CollectionName is the initial document collection.
	CollectionName string `toml:"collection_name"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 120,
		},
		Chat: ChatConfig{
			UseRAG:         false,
			CollectionName: "default_collection",
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last, then the
// result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadFile(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		} else if os.IsNotExist(statErr) {
			// First run: write the defaults so there is a file to edit.
			// Best effort; a read-only home directory is not fatal.
			_ = Save(cfg)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile loads configuration from a TOML file into cfg.
func LoadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Used by the --config flag.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
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

// Save saves the configuration to the default TOML file with 0600
// permissions.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# ragchat configuration file")
	fmt.Fprintln(file, "# Generated by ragchat - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if c.Chat.CollectionName == "" {
		c.Chat.CollectionName = defaults.Chat.CollectionName
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("backend.url: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.url: scheme must be http or https, got %q", u.Scheme)
	}

	if c.Backend.TimeoutSecs < 1 {
		return fmt.Errorf("backend.timeout_secs: must be at least 1, got %d", c.Backend.TimeoutSecs)
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		return fmt.Errorf("ui.theme: invalid theme %q, must be one of: dark, light, auto", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RAGCHAT_API_URL: overrides backend.url
//   - RAGCHAT_TIMEOUT_SECS: overrides backend.timeout_secs
//   - RAGCHAT_COLLECTION: overrides chat.collection_name
//   - RAGCHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("RAGCHAT_API_URL"); u != "" {
		c.Backend.URL = u
	}
	if secs := os.Getenv("RAGCHAT_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			c.Backend.TimeoutSecs = n
		}
	}
	if name := os.Getenv("RAGCHAT_COLLECTION"); name != "" {
		c.Chat.CollectionName = name
	}
	if theme := os.Getenv("RAGCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}
