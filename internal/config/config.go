package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"

	"github.com/gerunddev/duomark/internal/cursor"
)

// DefaultDebounce is the quiet period before an edit is synced
const DefaultDebounce = 300 * time.Millisecond

// Config represents the duomark configuration
type Config struct {
	Debounce       time.Duration   `json:"-"` // Custom JSON handling below
	CursorStrategy cursor.Strategy `json:"cursor_strategy"`
	LogFile        string          `json:"log_file"`
	LogLevel       string          `json:"log_level"`
	PreviewStyle   string          `json:"preview_style,omitempty"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Debounce:       DefaultDebounce,
		CursorStrategy: cursor.StrategyFraction,
		LogFile:        filepath.Join(xdg.StateHome, "duomark", "duomark.log"),
		LogLevel:       "info",
		PreviewStyle:   "auto",
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to XDG if home dir unavailable
		return filepath.Join(xdg.ConfigHome, "duomark", "config.json")
	}
	return filepath.Join(home, ".config", "duomark", "config.json")
}

// rawConfig mirrors Config with the debounce delay as a duration string
type rawConfig struct {
	Debounce       string `json:"debounce"`
	CursorStrategy string `json:"cursor_strategy,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
	LogLevel       string `json:"log_level,omitempty"`
	PreviewStyle   string `json:"preview_style,omitempty"`
}

// Load reads configuration from the config directory. Keys missing from the
// file keep their defaults.
func Load() (*Config, error) {
	configPath := ConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	return Parse(data)
}

// Parse decodes configuration JSON on top of the defaults
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig()

	if raw.Debounce != "" {
		debounce, err := time.ParseDuration(raw.Debounce)
		if err != nil {
			return nil, fmt.Errorf("invalid debounce format '%s': %w", raw.Debounce, err)
		}
		cfg.Debounce = debounce
	}
	if raw.CursorStrategy != "" {
		cfg.CursorStrategy = cursor.Strategy(raw.CursorStrategy)
	}
	if raw.LogFile != "" {
		cfg.LogFile = raw.LogFile
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.PreviewStyle != "" {
		cfg.PreviewStyle = raw.PreviewStyle
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Expand paths
	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the config directory
func (c *Config) Save() error {
	configPath := ConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw := rawConfig{
		Debounce:       c.Debounce.String(),
		CursorStrategy: string(c.CursorStrategy),
		LogFile:        c.LogFile,
		LogLevel:       c.LogLevel,
		PreviewStyle:   c.PreviewStyle,
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	if _, err := cursor.ParseStrategy(string(c.CursorStrategy)); err != nil {
		return err
	}
	if c.LogFile == "" {
		return fmt.Errorf("log_file cannot be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	validStyles := map[string]bool{
		"":      true,
		"auto":  true,
		"dark":  true,
		"light": true,
		"notty": true,
	}
	if !validStyles[c.PreviewStyle] {
		return fmt.Errorf("invalid preview_style '%s': must be one of: auto, dark, light, notty", c.PreviewStyle)
	}

	return nil
}

// Level returns the parsed log level
func (c *Config) Level() (log.Level, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log_level '%s': %w", c.LogLevel, err)
	}
	return level, nil
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
