package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the capture CLI's settings file.
type Config struct {
	Server string `toml:"server"`
	UserID string `toml:"user_id"`
	Token  string `toml:"token"`
}

func defaultConfig() Config {
	return Config{Server: "http://localhost:8080"}
}

// defaultConfigPath is ~/.config/voicenotes/capture.toml (or the platform equivalent).
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "capture.toml"
	}
	return filepath.Join(dir, "voicenotes", "capture.toml")
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
