// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. AZKAR_NOTIFY__BACKEND=beeep.
// A double underscore separates the section from the key.
const EnvPrefix = "AZKAR_"

// Tick bounds for the scheduler loop.
const (
	MinTick     = 100 * time.Millisecond
	MaxTick     = 10 * time.Second
	DefaultTick = time.Second
)

// Notification delivery backends.
const (
	BackendDBus  = "dbus"
	BackendBeeep = "beeep"
	BackendLog   = "log"
)

// ValidBackends returns all valid notification backends.
func ValidBackends() []string {
	return []string{BackendDBus, BackendBeeep, BackendLog}
}

// ValidUrgencies returns all valid notification urgencies.
func ValidUrgencies() []string {
	return []string{"low", "normal", "critical"}
}

// ValidFormats returns all valid CLI output formats.
func ValidFormats() []string {
	return []string{"plain", "json", "yaml"}
}

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the azkar configuration, shared by azkard and the azkar CLI.
// Loaded from ~/.config/azkar/azkard.toml
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Notify    NotifyConfig    `toml:"notify"`
	Audio     AudioConfig     `toml:"audio"`
	History   HistoryConfig   `toml:"history"`
	Metrics   MetricsConfig   `toml:"metrics"`
	State     StateConfig     `toml:"state"`
	CLI       CLIConfig       `toml:"cli"`
}

// SchedulerConfig contains scheduler loop settings.
type SchedulerConfig struct {
	Tick Duration `toml:"tick"` // How often the due-check runs
}

// NotifyConfig contains notification delivery settings.
type NotifyConfig struct {
	Backend string   `toml:"backend"` // dbus, beeep or log
	AppName string   `toml:"app_name"`
	Icon    string   `toml:"icon"`    // Icon name or path
	Timeout Duration `toml:"timeout"` // 0 = server default
	Urgency string   `toml:"urgency"` // low, normal, critical
}

// AudioConfig contains chime settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Sound   string `toml:"sound"`  // wav, mp3 or ogg file
	Volume  int    `toml:"volume"` // 0-100
}

// HistoryConfig contains firing history settings.
type HistoryConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"` // Pruned on startup, 0 = unlimited
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	Textfile string   `toml:"textfile"` // Empty = disabled
	Interval Duration `toml:"interval"`
}

// StateConfig contains state file settings.
type StateConfig struct {
	Path string `toml:"path"` // Empty = ~/.local/share/azkar/azkar_data.json
}

// CLIConfig contains azkar CLI settings.
type CLIConfig struct {
	Format    string `toml:"format"`    // Default output format for "get"
	Clipboard string `toml:"clipboard"` // TUI copy command; empty = auto-detect
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Tick: Duration(DefaultTick),
		},
		Notify: NotifyConfig{
			Backend: BackendDBus,
			AppName: "Azkar",
			Icon:    "appointment-soon",
			Timeout: Duration(10 * time.Second),
			Urgency: "normal",
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Metrics: MetricsConfig{
			Interval: Duration(15 * time.Second),
		},
		CLI: CLIConfig{
			Format: "plain",
		},
	}
}

// Dir returns the azkar config directory.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "azkar"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "azkard.toml"), nil
}

// Load loads the configuration from path (the default path when empty),
// applies AZKAR_* environment overrides and validates the result.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Start with defaults, then overlay with file contents
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays AZKAR_<SECTION>__<KEY> environment variables onto cfg.
func applyEnv(cfg *Config) error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if len(k.Keys()) == 0 {
		return nil
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "toml"}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	tick := c.Scheduler.Tick.Duration()
	if tick < MinTick || tick > MaxTick {
		return fmt.Errorf("%w: scheduler tick must be between %s and %s, got %s", ErrInvalidConfig, MinTick, MaxTick, tick)
	}

	if !slices.Contains(ValidBackends(), c.Notify.Backend) {
		return fmt.Errorf("%w: invalid notify backend %q, must be one of: %v", ErrInvalidConfig, c.Notify.Backend, ValidBackends())
	}
	if !slices.Contains(ValidUrgencies(), c.Notify.Urgency) {
		return fmt.Errorf("%w: invalid urgency %q, must be one of: %v", ErrInvalidConfig, c.Notify.Urgency, ValidUrgencies())
	}
	if c.Notify.Timeout < 0 {
		return fmt.Errorf("%w: notify timeout must not be negative", ErrInvalidConfig)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100, got %d", ErrInvalidConfig, c.Audio.Volume)
	}

	if c.History.MaxEntries < 0 {
		return fmt.Errorf("%w: history max_entries must not be negative, got %d", ErrInvalidConfig, c.History.MaxEntries)
	}

	if c.Metrics.Textfile != "" && c.Metrics.Interval.Duration() < time.Second {
		return fmt.Errorf("%w: metrics interval must be at least 1s", ErrInvalidConfig)
	}

	if !slices.Contains(ValidFormats(), c.CLI.Format) {
		return fmt.Errorf("%w: invalid cli format %q, must be one of: %v", ErrInvalidConfig, c.CLI.Format, ValidFormats())
	}

	return nil
}

// UrgencyLevel maps the configured urgency to the freedesktop byte value.
func (n NotifyConfig) UrgencyLevel() byte {
	switch n.Urgency {
	case "low":
		return 0
	case "critical":
		return 2
	default:
		return 1
	}
}

// SoundPath returns the chime path with ~ expanded.
func (a AudioConfig) SoundPath() string {
	return expandPath(a.Sound)
}

// StatePath returns the configured state path with ~ expanded, or "" for the default.
func (s StateConfig) StatePath() string {
	return expandPath(s.Path)
}

// MetricsPath returns the metrics textfile path with ~ expanded.
func (m MetricsConfig) MetricsPath() string {
	return expandPath(m.Textfile)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
