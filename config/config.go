// Package config loads the application configuration from a YAML file,
// falling back to sensible defaults when the file (or a field) is absent.
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	BodyLimit int    `yaml:"body_limit_mb"`
}

// PollConfig configures the operation poller.
type PollConfig struct {
	IntervalMS int `yaml:"interval_ms"`
	MaxTicks   int `yaml:"max_ticks"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root application configuration.
type Config struct {
	Server         ServerConfig `yaml:"server"`
	SamplesDir     string       `yaml:"samples_dir"`
	DefaultModel   string       `yaml:"default_model"`
	Poll           PollConfig   `yaml:"poll"`
	SessionTTLMins int          `yaml:"session_ttl_mins"`
	Log            LogConfig    `yaml:"log"`
}

// PollInterval returns the poll pacing as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// SessionTTL returns the session idle lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:         ServerConfig{Addr: ":8080", BodyLimit: 32},
		SamplesDir:     "samples",
		DefaultModel:   "gemini-2.5-flash",
		Poll:           PollConfig{IntervalMS: 500, MaxTicks: 600},
		SessionTTLMins: 120,
		Log:            LogConfig{Level: "info", Format: "json"},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = def.Server.BodyLimit
	}
	if cfg.SamplesDir == "" {
		cfg.SamplesDir = def.SamplesDir
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = def.DefaultModel
	}
	if cfg.Poll.IntervalMS == 0 {
		cfg.Poll.IntervalMS = def.Poll.IntervalMS
	}
	if cfg.Poll.MaxTicks == 0 {
		cfg.Poll.MaxTicks = def.Poll.MaxTicks
	}
	if cfg.SessionTTLMins == 0 {
		cfg.SessionTTLMins = def.SessionTTLMins
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}
