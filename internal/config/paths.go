package config

import (
	"os"
	"path/filepath"
)

const appDirName = "ddclient"

// GetConfigDir returns the directory holding settings and logs.
// Follows os.UserConfigDir (XDG_CONFIG_HOME, APPDATA, ~/Library/Application Support).
func GetConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, appDirName)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetConfigDir(), "settings.json")
}

// GetLogPath returns the log file used while the TUI is running.
func GetLogPath() string {
	return filepath.Join(GetConfigDir(), "ddclient.log")
}

// EnsureDirs creates the config directory if needed.
func EnsureDirs() error {
	return os.MkdirAll(GetConfigDir(), 0o755)
}
