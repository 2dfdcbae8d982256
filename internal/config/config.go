// Package config loads the hslog CLI configuration.
//
// Values come from, in increasing priority: built-in defaults, a YAML file,
// HSLOG_* environment variables. Command-line flags are applied on top by
// the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hslog/hslog-go/internal/logfinder"
	"github.com/hslog/hslog-go/pkg/hslog"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "HSLOG_"

// Output formats.
const (
	FormatJSONL  = "jsonl"
	FormatPretty = "pretty"
)

// Config is the CLI configuration.
type Config struct {
	LogFile       string   `yaml:"log_file" env:"LOG_FILE"`
	EngineConfig  string   `yaml:"engine_config" env:"ENGINE_CONFIG"`
	LineBreak     string   `yaml:"line_break" env:"LINE_BREAK"`
	TurnOnePolicy string   `yaml:"turn_one_policy" env:"TURN_ONE_POLICY"`
	Format        string   `yaml:"format" env:"FORMAT"`
	Poll          bool     `yaml:"poll" env:"POLL"`
	Patterns      []string `yaml:"patterns" env:"PATTERNS" envSeparator:","`
	Plugins       []string `yaml:"plugins" env:"PLUGINS" envSeparator:","`

	Redis RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
	Serve ServeConfig `yaml:"serve" envPrefix:"SERVE_"`
}

// RedisConfig configures the Redis publisher. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Channel  string `yaml:"channel" env:"CHANNEL"`
}

// ServeConfig configures the WebSocket server.
type ServeConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format: FormatJSONL,
		Redis: RedisConfig{
			Channel: "hslog:events",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:1780",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hslog", "config.yaml"), nil
}

// Load builds the configuration from path and the environment.
// An empty path falls back to DefaultPath, which may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.decode(f, path)
}

func (c *Config) decode(r io.Reader, name string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", name, err)
	}
	return nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSONL, FormatPretty:
	default:
		return fmt.Errorf("invalid format %q (want %s or %s)", c.Format, FormatJSONL, FormatPretty)
	}
	if _, err := hslog.ParseTurnOnePolicy(c.TurnOnePolicy); err != nil {
		return err
	}
	return nil
}

// SessionLineBreak resolves LineBreak. The names "lf" and "crlf" are
// accepted so the value can be set from the environment; anything else is
// used literally. Empty selects the platform default.
func (c *Config) SessionLineBreak() string {
	switch c.LineBreak {
	case "":
		return logfinder.DefaultLineBreak(runtime.GOOS)
	case "lf":
		return "\n"
	case "crlf":
		return "\r\n"
	default:
		return c.LineBreak
	}
}

// SessionOptions converts the config to session options.
func (c *Config) SessionOptions() ([]hslog.SessionOption, error) {
	policy, err := hslog.ParseTurnOnePolicy(c.TurnOnePolicy)
	if err != nil {
		return nil, err
	}
	return []hslog.SessionOption{
		hslog.WithLineBreak(c.SessionLineBreak()),
		hslog.WithTurnOnePolicy(policy),
	}, nil
}
