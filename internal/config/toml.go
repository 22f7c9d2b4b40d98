// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Breath BreathConfig `toml:"breath"`
	Relax  RelaxConfig  `toml:"relax"`
	Sync   SyncConfig   `toml:"sync"`
	Log    LogConfig    `toml:"log"`
}

// BreathConfig maps breathing session settings.
type BreathConfig struct {
	Pattern *string `toml:"pattern"`
	Cycles  *int    `toml:"cycles"`
}

// RelaxConfig maps relaxation technique settings.
type RelaxConfig struct {
	Level    *string `toml:"level"`
	Duration *int    `toml:"duration"`
	Mode     *string `toml:"mode"`
	Timezone *string `toml:"timezone"`
}

// SyncConfig maps remote sync settings.
type SyncConfig struct {
	Enabled  *bool   `toml:"enabled"`
	Endpoint *string `toml:"endpoint"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// SaveConfig writes cfg as TOML, creating parent directories.
func SaveConfig(path string, cfg FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}

// Defaults returns a config with every setting filled in.
func Defaults() FileConfig {
	pattern := "box"
	cycles := 4
	level := "beginner"
	duration := 10
	mode := "text"
	timezone := "Local"
	enabled := false
	endpoint := ""
	logLevel := "info"
	logPath := DefaultLogPath()
	return FileConfig{
		Breath: BreathConfig{Pattern: &pattern, Cycles: &cycles},
		Relax:  RelaxConfig{Level: &level, Duration: &duration, Mode: &mode, Timezone: &timezone},
		Sync:   SyncConfig{Enabled: &enabled, Endpoint: &endpoint},
		Log:    LogConfig{Level: &logLevel, Path: &logPath},
	}
}
