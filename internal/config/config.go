// Package config loads daybook settings from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	UI      UIConfig      `yaml:"ui" toml:"ui"`
	Focus   FocusConfig   `yaml:"focus" toml:"focus"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // sqlite or memory
	Path   string `yaml:"path" toml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text or json
	File   string `yaml:"file" toml:"file"`     // empty logs to stderr
}

type UIConfig struct {
	DefaultView string `yaml:"default_view" toml:"default_view"`
}

// FocusConfig sets the pomodoro lengths used by the focus view.
type FocusConfig struct {
	WorkMinutes  int `yaml:"work_minutes" toml:"work_minutes"`
	BreakMinutes int `yaml:"break_minutes" toml:"break_minutes"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var (
	drivers = []string{DriverSQLite, DriverMemory}
	levels  = []string{"debug", "info", "warn", "error"}
	formats = []string{"text", "json"}
	views   = []string{"", "today", "goals", "habits", "focus", "settings"}
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Driver: DriverSQLite},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Focus:   FocusConfig{WorkMinutes: 25, BreakMinutes: 5},
	}
}

// DefaultPath returns ~/.config/daybook/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "daybook", "config.yaml"), nil
}

// Load reads path, expanding ${VAR} references before parsing. Files ending
// in .toml are parsed as TOML, anything else as YAML. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := Parse(path, data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Parse decodes data over cfg using the format implied by name.
func Parse(name string, data []byte, cfg *Config) error {
	expanded := expandEnvVars(string(data))
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	return nil
}

var envVar = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	return envVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVar.FindStringSubmatch(match)[1])
	})
}

// Validate checks enumerated fields and fills in blanks with defaults.
func (c *Config) Validate() error {
	def := Default()
	if c.Storage.Driver == "" {
		c.Storage.Driver = def.Storage.Driver
	}
	if !slices.Contains(drivers, c.Storage.Driver) {
		return fmt.Errorf("storage.driver must be one of %v, got %q", drivers, c.Storage.Driver)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if !slices.Contains(levels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("logging.level must be one of %v, got %q", levels, c.Logging.Level)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if !slices.Contains(formats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", formats, c.Logging.Format)
	}
	if !slices.Contains(views, c.UI.DefaultView) {
		return fmt.Errorf("ui.default_view %q is not a view", c.UI.DefaultView)
	}
	if c.Focus.WorkMinutes == 0 {
		c.Focus.WorkMinutes = def.Focus.WorkMinutes
	}
	if c.Focus.BreakMinutes == 0 {
		c.Focus.BreakMinutes = def.Focus.BreakMinutes
	}
	if c.Focus.WorkMinutes < 1 || c.Focus.WorkMinutes > 180 {
		return fmt.Errorf("focus.work_minutes must be between 1 and 180")
	}
	if c.Focus.BreakMinutes < 1 || c.Focus.BreakMinutes > 60 {
		return fmt.Errorf("focus.break_minutes must be between 1 and 60")
	}
	return nil
}
