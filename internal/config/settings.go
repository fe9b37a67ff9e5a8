package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DDCLIENT_SERVER_BASE_URL.
const EnvPrefix = "DDCLIENT"

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general" mapstructure:"general"`
	Server  ServerSettings  `json:"server" mapstructure:"server"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	RefreshInterval  time.Duration `json:"refresh_interval" mapstructure:"refresh_interval"`
	ClipboardPrefill bool          `json:"clipboard_prefill" mapstructure:"clipboard_prefill"`
	Preview          bool          `json:"preview" mapstructure:"preview"`
	Theme            int           `json:"theme" mapstructure:"theme"`
	LogLevel         string        `json:"log_level" mapstructure:"log_level"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// ServerSettings describes how to reach the ddownloader backend.
type ServerSettings struct {
	BaseURL        string        `json:"base_url" mapstructure:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
	PageSize       int           `json:"page_size" mapstructure:"page_size"`
}

// SettingMeta provides metadata for a single setting (for UI rendering).
type SettingMeta struct {
	Key         string // dotted key, also the env/viper key
	Label       string // Human-readable label
	Description string // Help text
	Type        string // "string", "int", "bool", "duration"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"Server": {
			{Key: "server.base_url", Label: "Base URL", Description: "Address of the ddownloader service (http or https).", Type: "string"},
			{Key: "server.request_timeout", Label: "Request Timeout", Description: "Give up on a backend request after this long (e.g., 30s).", Type: "duration"},
			{Key: "server.page_size", Label: "Page Size", Description: "Number of tasks requested per listing page.", Type: "int"},
		},
		"General": {
			{Key: "general.refresh_interval", Label: "Refresh Interval", Description: "Reload the task list this often. 0 disables polling.", Type: "duration"},
			{Key: "general.clipboard_prefill", Label: "Clipboard Prefill", Description: "Fill the add-task URL from the clipboard when it holds a URL.", Type: "bool"},
			{Key: "general.preview", Label: "Image Preview", Description: "Sniff small images before queuing them.", Type: "bool"},
			{Key: "general.theme", Label: "App Theme", Description: "UI Theme (System, Light, Dark).", Type: "int"},
			{Key: "general.log_level", Label: "Log Level", Description: "debug, info, warn or error.", Type: "string"},
		},
	}
}

// CategoryOrder returns the order of categories for display.
func CategoryOrder() []string {
	return []string{"Server", "General"}
}

const (
	KB = 1024
	MB = 1024 * KB
)

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			RefreshInterval:  5 * time.Second,
			ClipboardPrefill: true,
			Preview:          true,
			Theme:            ThemeAdaptive,
			LogLevel:         "info",
		},
		Server: ServerSettings{
			BaseURL:        "http://127.0.0.1:5000",
			RequestTimeout: 30 * time.Second,
			PageSize:       30,
		},
	}
}

// FlagKeys maps command line flag names to settings keys.
var FlagKeys = map[string]string{
	"base-url":  "server.base_url",
	"timeout":   "server.request_timeout",
	"log-level": "general.log_level",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultSettings()
	v.SetDefault("general.refresh_interval", d.General.RefreshInterval)
	v.SetDefault("general.clipboard_prefill", d.General.ClipboardPrefill)
	v.SetDefault("general.preview", d.General.Preview)
	v.SetDefault("general.theme", d.General.Theme)
	v.SetDefault("general.log_level", d.General.LogLevel)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.page_size", d.Server.PageSize)
	return v
}

// LoadSettings loads settings from the default path. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	return Load(GetSettingsPath(), nil)
}

// Load reads settings from path, then applies DDCLIENT_* environment
// overrides, then any changed flags listed in FlagKeys.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate rejects settings the client cannot run with.
func (s *Settings) Validate() error {
	base := strings.TrimSpace(s.Server.BaseURL)
	if base == "" {
		return errors.New("server.base_url must not be empty")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("server.base_url must start with http:// or https://, got %q", base)
	}
	s.Server.BaseURL = strings.TrimRight(base, "/")

	if s.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}
	if s.Server.PageSize < 1 {
		s.Server.PageSize = DefaultSettings().Server.PageSize
	}
	if s.General.RefreshInterval < 0 {
		s.General.RefreshInterval = 0
	}
	return nil
}

// SaveSettings saves settings to the default path.
func SaveSettings(s *Settings) error {
	return Save(GetSettingsPath(), s)
}

// Save writes settings atomically while holding a lock next to the file.
func Save(path string, s *Settings) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock settings: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// Values flattens settings into dotted keys, in the order of the metadata.
func (s *Settings) Values() map[string]any {
	return map[string]any{
		"server.base_url":           s.Server.BaseURL,
		"server.request_timeout":    s.Server.RequestTimeout,
		"server.page_size":          s.Server.PageSize,
		"general.refresh_interval":  s.General.RefreshInterval,
		"general.clipboard_prefill": s.General.ClipboardPrefill,
		"general.preview":           s.General.Preview,
		"general.theme":             s.General.Theme,
		"general.log_level":         s.General.LogLevel,
	}
}
