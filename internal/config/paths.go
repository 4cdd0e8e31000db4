package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global configuration directory
// (~/.explainer). It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigName), nil
}

// GetDataDir returns where crash logs and other runtime files go.
// Resolution order (first match wins):
// 1. Explicit config via "data.path" (Viper/env/flag)
// 2. Local directory .explainer (if it exists)
// 3. XDG_DATA_HOME/explainer (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.explainer
func GetDataDir() string {
	if path := viper.GetString("data.path"); path != "" {
		return path
	}

	if info, err := os.Stat(ConfigName); err == nil && info.IsDir() {
		return ConfigName
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "explainer")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return ConfigName
	}
	return dir
}
