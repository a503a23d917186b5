package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gerunddev/duomark/internal/cursor"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Debounce != 300*time.Millisecond {
		t.Errorf("Expected Debounce to be 300ms, got %v", cfg.Debounce)
	}
	if cfg.CursorStrategy != cursor.StrategyFraction {
		t.Errorf("Expected fraction cursor strategy, got %q", cfg.CursorStrategy)
	}
	if cfg.LogFile == "" {
		t.Error("Expected LogFile to be set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "diff strategy", modify: func(c *Config) { c.CursorStrategy = cursor.StrategyDiff }},
		{name: "zero debounce", modify: func(c *Config) { c.Debounce = 0 }, wantErr: true},
		{name: "negative debounce", modify: func(c *Config) { c.Debounce = -5 * time.Millisecond }, wantErr: true},
		{name: "unknown strategy", modify: func(c *Config) { c.CursorStrategy = "nearest" }, wantErr: true},
		{name: "empty log_file", modify: func(c *Config) { c.LogFile = "" }, wantErr: true},
		{name: "bad log_level", modify: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "bad preview_style", modify: func(c *Config) { c.PreviewStyle = "neon" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePartialConfig(t *testing.T) {
	cfg, err := Parse([]byte(`{"debounce": "150ms", "log_level": "debug"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Debounce != 150*time.Millisecond {
		t.Errorf("Debounce = %v, want 150ms", cfg.Debounce)
	}
	if cfg.CursorStrategy != cursor.StrategyFraction {
		t.Errorf("CursorStrategy = %q, want default", cfg.CursorStrategy)
	}
	level, err := cfg.Level()
	if err != nil || level != log.DebugLevel {
		t.Errorf("Level() = %v, %v, want debug", level, err)
	}
}

func TestParseInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed json", data: `{"debounce": `},
		{name: "bad duration", data: `{"debounce": "soon"}`},
		{name: "bad strategy", data: `{"cursor_strategy": "nearest"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	// Create a temporary directory for test config
	tmpDir := t.TempDir()
	testConfigPath := filepath.Join(tmpDir, "config.json")

	// Override ConfigPath for testing
	originalConfigPath := ConfigPath
	ConfigPath = func() string {
		return testConfigPath
	}
	defer func() {
		ConfigPath = originalConfigPath
	}()

	testCfg := &Config{
		Debounce:       450 * time.Millisecond,
		CursorStrategy: cursor.StrategyDiff,
		LogFile:        "/tmp/duomark-test.log",
		LogLevel:       "warn",
		PreviewStyle:   "dark",
	}

	if err := testCfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(testConfigPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loadedCfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.Debounce != testCfg.Debounce {
		t.Errorf("Debounce mismatch: got %v, want %v", loadedCfg.Debounce, testCfg.Debounce)
	}
	if loadedCfg.CursorStrategy != cursor.StrategyDiff {
		t.Errorf("CursorStrategy mismatch: got %q", loadedCfg.CursorStrategy)
	}
	if loadedCfg.LogFile != "/tmp/duomark-test.log" {
		t.Errorf("LogFile mismatch: got %q", loadedCfg.LogFile)
	}
	if loadedCfg.PreviewStyle != "dark" {
		t.Errorf("PreviewStyle mismatch: got %q", loadedCfg.PreviewStyle)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	testConfigPath := filepath.Join(tmpDir, "nonexistent.json")

	originalConfigPath := ConfigPath
	ConfigPath = func() string {
		return testConfigPath
	}
	defer func() {
		ConfigPath = originalConfigPath
	}()

	// Load should return default config when file doesn't exist
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}

	if cfg.Debounce != DefaultDebounce {
		t.Errorf("Expected default debounce, got %v", cfg.Debounce)
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "tilde expansion", input: "~/test", contains: homeDir},
		{name: "tilde only", input: "~", contains: homeDir},
		{name: "absolute path", input: "/tmp/test", contains: "/tmp/test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := expandPath(tt.input)
			if err != nil {
				t.Fatalf("expandPath() error = %v", err)
			}
			if result == "" {
				t.Error("expandPath() returned empty string")
			}
			if tt.input[0] == '~' && result == tt.input {
				t.Errorf("Path was not expanded: %s", result)
			}
		})
	}
}

func TestLogFileExpanded(t *testing.T) {
	cfg, err := Parse([]byte(`{"log_file": "~/duomark.log"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.LogFile[0] == '~' {
		t.Error("LogFile was not expanded")
	}
}
