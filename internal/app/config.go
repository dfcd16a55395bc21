// Package app provides configuration management for the NES emulator.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Frontend  FrontendConfig  `json:"frontend"`
	Emulation EmulationConfig `json:"emulation"`
	Input     InputConfig     `json:"input"`
	Debug     DebugConfig     `json:"debug"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
}

// FrontendConfig selects and tunes the frontend
type FrontendConfig struct {
	Backend    string `json:"backend"` // "ebiten", "terminal", "headless"
	VSync      bool   `json:"vsync"`
	Filter     string `json:"filter"`     // "nearest", "linear"
	Screenshot string `json:"screenshot"` // headless only: PPM written on exit
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	MaxFrames    uint64 `json:"max_frames"` // 0 runs until quit
	BatterySaves bool   `json:"battery_saves"`
	SaveDir      string `json:"save_dir"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Controller2 bool `json:"controller2"` // accept player 2 keys
	LogInput    bool `json:"log_input"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	TraceCPU   bool   `json:"trace_cpu"`
	TracePath  string `json:"trace_path"` // empty writes to stderr
	TraceLimit uint64 `json:"trace_limit"`
	LogCPU     bool   `json:"log_cpu"`
	MemvizPath string `json:"memviz_path"`
	Statsview  bool   `json:"statsview"`
}

var validBackends = map[string]bool{
	"ebiten":   true,
	"terminal": true,
	"headless": true,
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  768,
			Height: 720,
		},
		Frontend: FrontendConfig{
			Backend: "ebiten",
			VSync:   true,
			Filter:  "nearest",
		},
		Emulation: EmulationConfig{
			BatterySaves: true,
			SaveDir:      "./saves",
		},
		Input: InputConfig{
			Controller2: true,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// validate rejects values no frontend can run with and fills in the
// harmless ones
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{
			Field:   "window",
			Message: fmt.Sprintf("invalid window dimensions: %dx%d", c.Window.Width, c.Window.Height),
		}
	}

	if !validBackends[c.Frontend.Backend] {
		return &ConfigError{
			Field:   "frontend.backend",
			Message: fmt.Sprintf("unknown frontend %q", c.Frontend.Backend),
		}
	}

	if c.Frontend.Filter != "nearest" && c.Frontend.Filter != "linear" {
		c.Frontend.Filter = "nearest"
	}

	if c.Emulation.BatterySaves && c.Emulation.SaveDir == "" {
		c.Emulation.SaveDir = "./saves"
	}

	return nil
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/nescore.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s': %s", e.Field, e.Message)
}
