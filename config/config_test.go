package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.MaxValues != 64 {
		t.Errorf("Expected MaxValues=64, got %d", cfg.Engine.MaxValues)
	}
	if cfg.Engine.MaxOperators != 64 {
		t.Errorf("Expected MaxOperators=64, got %d", cfg.Engine.MaxOperators)
	}
	if cfg.Engine.MaxEvalDepth != 64 {
		t.Errorf("Expected MaxEvalDepth=64, got %d", cfg.Engine.MaxEvalDepth)
	}

	if cfg.Clock.FixedTime != "" {
		t.Errorf("Expected FixedTime empty by default, got %q", cfg.Clock.FixedTime)
	}

	if cfg.Display.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", cfg.Display.NumberFormat)
	}
	if !cfg.Display.ColorOutput {
		t.Error("Expected ColorOutput=true")
	}

	if cfg.Console.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Console.HistorySize)
	}

	if cfg.API.Port != 6502 {
		t.Errorf("Expected Port=6502, got %d", cfg.API.Port)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}

	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "beebasm-expr" && path != "config.toml" {
			t.Errorf("Expected path in beebasm-expr directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Engine.MaxValues = 128
	cfg.Clock.FixedTime = "2026-03-05T13:04:05Z"
	cfg.Display.ColorOutput = false
	cfg.Console.HistorySize = 500

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Engine.MaxValues != 128 {
		t.Errorf("Expected MaxValues=128, got %d", loaded.Engine.MaxValues)
	}
	if loaded.Clock.FixedTime != "2026-03-05T13:04:05Z" {
		t.Errorf("Expected FixedTime=2026-03-05T13:04:05Z, got %s", loaded.Clock.FixedTime)
	}
	if loaded.Display.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.Console.HistorySize != 500 {
		t.Errorf("Expected HistorySize=500, got %d", loaded.Console.HistorySize)
	}
}

func TestFixedAssemblyTime(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := cfg.FixedAssemblyTime(); ok {
		t.Fatal("expected no fixed time by default")
	}

	cfg.Clock.FixedTime = "2026-03-05T13:04:05Z"
	tm, ok := cfg.FixedAssemblyTime()
	if !ok {
		t.Fatal("expected a fixed time once Clock.FixedTime is set")
	}
	if tm.Year() != 2026 || tm.Month() != 3 || tm.Day() != 5 {
		t.Errorf("FixedAssemblyTime() = %v, want 2026-03-05", tm)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Engine.MaxValues != 64 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[engine]
max_values = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
