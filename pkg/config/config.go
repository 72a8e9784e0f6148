package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quvis/engine/pkg/layout"
)

// Config errors
var (
	ErrBadBatchSize = errors.New("history batch size must be positive")
	ErrBadDecayBase = errors.New("history decay base must be greater than 1")
)

// HistoryConfig tunes the interaction history aggregation.
type HistoryConfig struct {
	BatchSize int     `yaml:"batch_size"`
	DecayBase float64 `yaml:"decay_base"`
}

// Config is the engine configuration, loadable from YAML.
type Config struct {
	History  HistoryConfig `yaml:"history"`
	Layout   layout.Params `yaml:"layout"`
	Seed     int64         `yaml:"seed"`
	LogLevel string        `yaml:"log_level"`
	Metrics  bool          `yaml:"metrics"`
}

// Default returns the engine's default configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			BatchSize: 500,
			DecayBase: 1.3,
		},
		Layout:   layout.DefaultParams(),
		LogLevel: "INFO",
		Metrics:  true,
	}
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.History.BatchSize <= 0 {
		return ErrBadBatchSize
	}
	if c.History.DecayBase <= 1 {
		return ErrBadDecayBase
	}
	return c.Layout.Validate()
}
