// Package config loads runtime settings for the coroutine runtime from YAML
// or TOML files and watches them for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	yaml "go.yaml.in/yaml/v3"

	"github.com/Swind/go-coroutine-registry/logging"
)

// ErrInvalidConfig is wrapped by every load and validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the resolved configuration.
type Config struct {
	Runtime Runtime
	Logging Logging
	Metrics Metrics
}

type Runtime struct {
	// TickInterval is the period of the tick loop.
	TickInterval time.Duration

	// TimeScale multiplies scaled time. 0 freezes it.
	TimeScale float64

	// EditorMode enables development-only behaviour such as pausing.
	EditorMode bool

	// Paused is honoured only when EditorMode is set.
	Paused bool

	// HistorySize bounds the finished-task history.
	HistorySize int
}

type Logging struct {
	Level  string
	Format string
}

type Metrics struct {
	Enabled      bool
	Namespace    string
	Listen       string
	PollInterval time.Duration
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Runtime: Runtime{
			TickInterval: 16 * time.Millisecond,
			TimeScale:    1,
			HistorySize:  100,
		},
		Logging: Logging{Level: "info", Format: "console"},
		Metrics: Metrics{
			Namespace:    "coroutine",
			Listen:       ":9090",
			PollInterval: 5 * time.Second,
		},
	}
}

// EffectivePaused reports whether the clock should be paused.
func (c *Config) EffectivePaused() bool {
	return c.Runtime.EditorMode && c.Runtime.Paused
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Runtime.TickInterval <= 0 {
		errs = append(errs, errors.New("runtime.tick_interval must be > 0"))
	}
	if c.Runtime.TimeScale < 0 {
		errs = append(errs, errors.New("runtime.time_scale must be >= 0"))
	}
	if c.Runtime.HistorySize < 0 {
		errs = append(errs, errors.New("runtime.history_size must be >= 0"))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: want console or json, got %q", c.Logging.Format))
	}
	if c.Metrics.Enabled {
		if strings.TrimSpace(c.Metrics.Listen) == "" {
			errs = append(errs, errors.New("metrics.listen is required when metrics are enabled"))
		}
		if c.Metrics.PollInterval <= 0 {
			errs = append(errs, errors.New("metrics.poll_interval must be > 0"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ---- File format ----

// fileConfig mirrors the on-disk layout. Pointer fields distinguish "absent"
// from the zero value so defaults survive partial files.
type fileConfig struct {
	Runtime fileRuntime `yaml:"runtime" toml:"runtime"`
	Logging fileLogging `yaml:"logging" toml:"logging"`
	Metrics fileMetrics `yaml:"metrics" toml:"metrics"`
}

type fileRuntime struct {
	TickInterval string   `yaml:"tick_interval" toml:"tick_interval"`
	TimeScale    *float64 `yaml:"time_scale" toml:"time_scale"`
	EditorMode   *bool    `yaml:"editor_mode" toml:"editor_mode"`
	Paused       *bool    `yaml:"paused" toml:"paused"`
	HistorySize  *int     `yaml:"history_size" toml:"history_size"`
}

type fileLogging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type fileMetrics struct {
	Enabled      *bool  `yaml:"enabled" toml:"enabled"`
	Namespace    string `yaml:"namespace" toml:"namespace"`
	Listen       string `yaml:"listen" toml:"listen"`
	PollInterval string `yaml:"poll_interval" toml:"poll_interval"`
}

// Load reads, resolves and validates the file at path. The format is chosen
// by extension: .yaml, .yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data as if it were read from path.
func Parse(path string, data []byte) (*Config, error) {
	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: yaml: %w", ErrInvalidConfig, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, fmt.Errorf("%w: toml: %w", ErrInvalidConfig, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%w: toml: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}

	cfg, err := raw.resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *fileConfig) resolve() (*Config, error) {
	cfg := Default()

	d, err := ParseDurationOrDefault("runtime.tick_interval", f.Runtime.TickInterval, cfg.Runtime.TickInterval)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.TickInterval = d
	if f.Runtime.TimeScale != nil {
		cfg.Runtime.TimeScale = *f.Runtime.TimeScale
	}
	if f.Runtime.EditorMode != nil {
		cfg.Runtime.EditorMode = *f.Runtime.EditorMode
	}
	if f.Runtime.Paused != nil {
		cfg.Runtime.Paused = *f.Runtime.Paused
	}
	if f.Runtime.HistorySize != nil {
		cfg.Runtime.HistorySize = *f.Runtime.HistorySize
	}

	if s := strings.TrimSpace(f.Logging.Level); s != "" {
		cfg.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(f.Logging.Format); s != "" {
		cfg.Logging.Format = strings.ToLower(s)
	}

	if f.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *f.Metrics.Enabled
	}
	if s := strings.TrimSpace(f.Metrics.Namespace); s != "" {
		cfg.Metrics.Namespace = s
	}
	if s := strings.TrimSpace(f.Metrics.Listen); s != "" {
		cfg.Metrics.Listen = s
	}
	d, err = ParseDurationOrDefault("metrics.poll_interval", f.Metrics.PollInterval, cfg.Metrics.PollInterval)
	if err != nil {
		return nil, err
	}
	cfg.Metrics.PollInterval = d
	return cfg, nil
}

// ParseDurationField parses a duration string, returning 0 for blank input.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with def for blank or zero input.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
