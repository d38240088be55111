// Package config loads and saves the engine's tunables: the shunting-yard
// stack limits, the assembly clock's optional fixed instant, and the
// console/API's display defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable the engine otherwise carries as a magic
// number, decoded from a TOML file.
type Config struct {
	// Engine settings
	Engine struct {
		MaxValues    int `toml:"max_values"`
		MaxOperators int `toml:"max_operators"`
		MaxEvalDepth int `toml:"max_eval_depth"`
	} `toml:"engine"`

	// Clock settings
	Clock struct {
		// FixedTime, if non-empty, is an RFC3339 timestamp every TIME$/
		// EVAL call within a run sees instead of the wall clock, for
		// reproducible golden-file tests.
		FixedTime string `toml:"fixed_time"`
	} `toml:"clock"`

	// Display settings
	Display struct {
		TimeFormat   string `toml:"time_format"`
		ColorOutput  bool   `toml:"color_output"`
		NumberFormat string `toml:"number_format"` // hex, dec
	} `toml:"display"`

	// Console settings
	Console struct {
		HistorySize   int  `toml:"history_size"`
		ShowSymbols   bool `toml:"show_symbols"`
		ScrollbackMax int  `toml:"scrollback_max"`
	} `toml:"console"`

	// API server settings
	API struct {
		Port           int `toml:"port"`
		MaxSessions    int `toml:"max_sessions"`
		BroadcastQueue int `toml:"broadcast_queue"`
	} `toml:"api"`
}

// DefaultConfig returns a configuration with the engine's built-in
// defaults, before any file on disk is consulted.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Engine.MaxValues = 64
	cfg.Engine.MaxOperators = 64
	cfg.Engine.MaxEvalDepth = 64

	cfg.Clock.FixedTime = ""

	cfg.Display.TimeFormat = "%a,%d %b %Y.%X"
	cfg.Display.ColorOutput = true
	cfg.Display.NumberFormat = "hex"

	cfg.Console.HistorySize = 1000
	cfg.Console.ShowSymbols = true
	cfg.Console.ScrollbackMax = 5000

	cfg.API.Port = 6502
	cfg.API.MaxSessions = 64
	cfg.API.BroadcastQueue = 256

	return cfg
}

// FixedAssemblyTime parses Clock.FixedTime, if set. ok is false when no
// fixed time is configured, meaning the caller should use the wall clock.
func (c *Config) FixedAssemblyTime() (t time.Time, ok bool) {
	if c.Clock.FixedTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, c.Clock.FixedTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "beebasm-expr")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "beebasm-expr")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "beebasm-expr", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "beebasm-expr", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// DefaultConfig() if no file exists there yet.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
