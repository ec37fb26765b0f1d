package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultKey is the storage key the task sequence is kept under
const DefaultKey = "taskflow_data_v1"

// ErrInvalid is returned by Validate for unusable configurations
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// StorageConfig selects and locates the durable slot
type StorageConfig struct {
	Backend string `toml:"backend"` // a registered storage backend: sqlite, file or memory
	Path    string `toml:"path"`    // database file for sqlite, directory for file
	Key     string `toml:"key"`
	Watch   bool   `toml:"watch"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// UIConfig holds presentation settings
type UIConfig struct {
	Intro         bool          `toml:"intro"`
	IntroDuration time.Duration `toml:"intro_duration"`
}

// Default returns the default configuration
func Default() *Config {
	dir := configDir()
	return &Config{
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(dir, "taskflow.db"),
			Key:     DefaultKey,
			Watch:   true,
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "taskflow.log"),
			Level: "info",
		},
		UI: UIConfig{
			Intro:         true,
			IntroDuration: 2500 * time.Millisecond,
		},
	}
}

// Path returns the standard config file location
func Path() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "taskflow")
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from a specific path
func LoadFrom(configPath string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the application cannot run
// with. Backend names and their path requirements are checked by the storage
// registry when the backend is opened.
func (c *Config) Validate() error {
	if c.Storage.Backend == "" {
		return fmt.Errorf("%w: storage.backend must not be empty", ErrInvalid)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("%w: storage.key must not be empty", ErrInvalid)
	}
	if c.UI.IntroDuration < 0 {
		return fmt.Errorf("%w: ui.intro_duration must not be negative", ErrInvalid)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	if err := os.MkdirAll(configDir(), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return c.SaveTo(Path())
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
