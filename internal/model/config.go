package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// StorageConfig selects where tasks, stats and settings are persisted.
type StorageConfig struct {
	// Backend is "local" (SQLite file) or "remote" (Supabase).
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the SQLite database file used by the local backend.
	Path string `mapstructure:"path" yaml:"path"`
}

// RemoteConfig holds the hosted row-store endpoint.
type RemoteConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	Key string `mapstructure:"key" yaml:"key"`

	// AccessToken overrides the token stored in the keyring.
	// Usually supplied through SUPABASE_ACCESS_TOKEN rather than the file.
	AccessToken string `mapstructure:"access_token" yaml:"-"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// DeviceConfig identifies this installation. The ID is the owner of all
// rows written by the local backend.
type DeviceConfig struct {
	ID string `mapstructure:"id" yaml:"id"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Device  DeviceConfig  `mapstructure:"device" yaml:"device"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/focus/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultDataDir returns ~/.config/focus, falling back to the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "focus")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Backend: BackendLocal,
			Path:    filepath.Join(DefaultDataDir(), "focus.db"),
		},
		Display: DisplayConfig{Theme: "default"},
		Log:     LogConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables override file values. If the file does not exist,
// defaults (plus environment) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaultAppConfig()
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("log.level", def.Log.Level)

	_ = v.BindEnv("storage.backend", "FOCUS_BACKEND")
	_ = v.BindEnv("storage.path", "FOCUS_DB_PATH")
	_ = v.BindEnv("remote.url", "SUPABASE_URL")
	_ = v.BindEnv("remote.key", "SUPABASE_KEY")
	_ = v.BindEnv("remote.access_token", "SUPABASE_ACCESS_TOKEN")
	_ = v.BindEnv("log.level", "FOCUS_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := def
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the local backend")
		}
	case BackendRemote:
		if c.Remote.URL == "" || c.Remote.Key == "" {
			return fmt.Errorf("remote.url and remote.key are required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// EnsureDeviceID assigns a device ID when none is configured.
// It reports whether the config changed and should be saved.
func (c *AppConfig) EnsureDeviceID() bool {
	if c.Device.ID != "" {
		return false
	}
	c.Device.ID = uuid.New().String()
	return true
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", map[string]any{
		"backend": cfg.Storage.Backend,
		"path":    cfg.Storage.Path,
	})
	v.Set("remote", map[string]any{
		"url": cfg.Remote.URL,
		"key": cfg.Remote.Key,
	})
	v.Set("display", map[string]any{"theme": cfg.Display.Theme})
	v.Set("device", map[string]any{"id": cfg.Device.ID})
	v.Set("log", map[string]any{"level": cfg.Log.Level})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
