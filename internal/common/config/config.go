package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrTrackingURLNotSet  = errors.New("tracking url is not configured")
	ErrWaybillNotSet      = errors.New("tracking waybill is not configured: set tracking.waybill or point tracking.profile at a page profile")
	ErrSnapshotPathNotSet = errors.New("snapshot path is not configured")
)

// Defaults for a fresh configuration
const (
	DefaultWaybill        = "89812865391"
	DefaultTrackingURL    = "https://www.bluedart.com/web/guest/trackdartresult?trackFor=0&trackNo=" + DefaultWaybill
	DefaultSnapshotPath   = "temp.json"
	DefaultNotifyEndpoint = "https://api.pushover.net/1/messages.json"
	DefaultNotifyTitle    = "New Scan Update"
	DefaultTimeoutSeconds = 30
)

// Config represents the application configuration
type Config struct {
	Tracking TrackingConfig `yaml:"tracking"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// TrackingConfig describes the page being polled
type TrackingConfig struct {
	URL            string            `yaml:"url"`
	Waybill        string            `yaml:"waybill"`
	Profile        string            `yaml:"profile,omitempty"`    // Optional TOML page profile
	UserAgent      string            `yaml:"user_agent,omitempty"` // Empty means the build's default
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"` // Values may use ${VAR}
}

// SnapshotConfig holds where the last known state is kept
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig holds push notification settings
type NotifyConfig struct {
	Endpoint string `yaml:"endpoint"`
	Title    string `yaml:"title"`
}

// Default returns a configuration tracking the built-in carrier page
func Default() *Config {
	return &Config{
		Tracking: TrackingConfig{
			URL:            DefaultTrackingURL,
			Waybill:        DefaultWaybill,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Snapshot: SnapshotConfig{
			Path: DefaultSnapshotPath,
		},
		Notify: NotifyConfig{
			Endpoint: DefaultNotifyEndpoint,
			Title:    DefaultNotifyTitle,
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/scanwatch/config.yaml (XDG standard - priority)
// 2. ~/.scanwatch/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "scanwatch", "config.yaml"),
		filepath.Join(home, ".scanwatch", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// Load reads configuration from the first available config file
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file is created with defaults. Keys absent from an existing
// file keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings a run cannot do without
func (c *Config) Validate() error {
	if c.Tracking.URL == "" {
		return ErrTrackingURLNotSet
	}
	if c.Tracking.Waybill == "" && c.Tracking.Profile == "" {
		return ErrWaybillNotSet
	}
	if c.Snapshot.Path == "" {
		return ErrSnapshotPathNotSet
	}
	return nil
}

// Timeout returns the page fetch timeout
func (t TrackingConfig) Timeout() time.Duration {
	if t.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// SnapshotPath returns the snapshot path with a leading ~ expanded
func (c *Config) SnapshotPath() (string, error) {
	return ExpandHome(c.Snapshot.Path)
}

// ProfilePath returns the page profile path with a leading ~ expanded.
// Returns an empty string when no profile is configured.
func (c *Config) ProfilePath() (string, error) {
	return ExpandHome(c.Tracking.Profile)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
