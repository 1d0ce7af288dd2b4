// Package config loads the bridge configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mbridge/mbridge/internal/bridge"
)

// Config is the mbridge configuration. All fields are optional; the zero
// value with defaults applied runs an in-memory engine with one worker.
type Config struct {
	// Database is the engine database path. Empty keeps all state in
	// memory.
	Database string `yaml:"database,omitempty"`

	// Workers is the dispatch worker count.
	Workers int `yaml:"workers,omitempty"`

	// Debug is the dispatch-tracing level: off, low, medium or high.
	Debug string `yaml:"debug,omitempty"`

	// Mode is the default value-typing mode: strict or canonical.
	Mode string `yaml:"mode,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{Workers: 1, Debug: "off", Mode: "canonical"}
}

// Load reads and parses a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration YAML. Unknown fields are rejected so typos
// fail loudly instead of silently falling back to a default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := bridge.ParseDebug(c.Debug); err != nil {
		return err
	}
	if c.Mode != "strict" && c.Mode != "canonical" {
		return fmt.Errorf("mode must be strict or canonical, got %q", c.Mode)
	}
	return nil
}

// DebugLevel returns the parsed debug level.
func (c Config) DebugLevel() bridge.DebugLevel {
	level, _ := bridge.ParseDebug(c.Debug)
	return level
}
