// Package config handles configuration for the orion client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", or path to JSON theme
	Enabled          bool   `json:"enabled"`           // Render assistant answers as markdown
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the user configuration
type Config struct {
	// BackendURL is the base URL of the research assistant backend.
	BackendURL string `json:"backend_url"`
	// UserID scopes the backend conversation archive.
	UserID string `json:"user_id"`
	// DefaultMode selects the request mode for new chats: "standard" for
	// a direct answer, "deep" for the multi-agent research pipeline.
	DefaultMode string `json:"default_mode"`
	// RequestTimeout is the number of seconds a streaming request may run
	// before it is abandoned. Deep research runs long; default is 300.
	RequestTimeout int `json:"request_timeout"`
	// Verbose enables detailed output during operations: stage
	// transitions, request timing, thread ids.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"` // TUI color theme
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		Enabled:          true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BackendURL:      "http://localhost:8000",
		UserID:          "default_user",
		DefaultMode:     "standard",
		RequestTimeout:  300, // 5 minutes
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".orion")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetHistoryDir returns the path of the local conversation archive
func GetHistoryDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "history"), nil
}

// LoadConfig loads the configuration from disk and layers environment
// overrides on top. A missing file yields defaults; a corrupted file
// yields defaults plus the parse error so callers can warn without dying.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = DefaultConfig()
		applyEnv(&cfg)
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv applies ORION_* variables over the file config. A .env file in
// the working directory is honored first, matching the backend's own
// configuration surface.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ORION_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("ORION_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("ORION_MODE"); v != "" {
		cfg.DefaultMode = v
	}
	if v := os.Getenv("ORION_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RequestTimeout = secs
		}
	}
	if v := os.Getenv("ORION_VERBOSE"); v != "" {
		cfg.Verbose = v == "1" || strings.EqualFold(v, "true")
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AvailableModes returns the recognized request mode names
func AvailableModes() []string {
	return []string{
		"standard",
		"deep",
	}
}
