package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for svginspect configuration
	DefaultConfigDir = "~/.config/svginspect"
)

// Config represents the svginspect configuration
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`
	Serve  ServeConfig  `yaml:"serve"`
	TUI    TUIConfig    `yaml:"tui"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	// File receives log output. Empty means stderr, which the terminal UI
	// cannot share, so edit sessions fall back to discarding logs.
	File string `yaml:"file,omitempty"`
}

type OutputConfig struct {
	// Compact strips formatting whitespace from pushed documents.
	Compact bool `yaml:"compact"`
}

type ServeConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	Path string `yaml:"path" validate:"required,startswith=/"`
}

type TUIConfig struct {
	ShowHiddenMarker bool `yaml:"show_hidden_marker"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:7331",
			Path: "/ws",
		},
		TUI: TUIConfig{
			ShowHiddenMarker: true,
		},
	}
}

// DefaultPath returns the expanded path of the default config file.
func DefaultPath() (string, error) {
	dir, err := homedir.Expand(DefaultConfigDir)
	if err != nil {
		return "", fmt.Errorf("failed to expand config directory: %w", err)
	}
	return filepath.Join(dir, ConfigFileName), nil
}

var validate = validator.New()

// Load reads the config file at path, layered over the defaults. A missing
// file is not an error. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints and expands ~ in
// the log file path.
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Log.File != "" {
		f, err := homedir.Expand(c.Log.File)
		if err != nil {
			return fmt.Errorf("failed to expand log file path: %w", err)
		}
		c.Log.File = f
	}
	return nil
}

// Save writes the configuration to path, creating its directory.
func Save(c *Config, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SlogLevel returns the slog level named by the config.
func (c LogConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Logger builds a logger writing to w in the configured format.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenLogger opens the configured log file and returns a logger writing to
// it, plus a close function. Without a log file it writes to fallback, or
// discards everything when fallback is nil.
func (c LogConfig) OpenLogger(fallback io.Writer) (*slog.Logger, func() error, error) {
	nop := func() error { return nil }
	if c.File == "" {
		if fallback == nil {
			return slog.New(slog.DiscardHandler), nop, nil
		}
		return c.Logger(fallback), nop, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return c.Logger(f), f.Close, nil
}
