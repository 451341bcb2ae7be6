// Package config loads the YAML configuration shared by the CLI commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/FlavioCFOliveira/semihard/internal/logging"
	"github.com/FlavioCFOliveira/semihard/internal/loss"
	"github.com/FlavioCFOliveira/semihard/internal/opt"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	Loss  LossConfig  `yaml:"loss"`
	Smoke SmokeConfig `yaml:"smoke"`
	Log   LogConfig   `yaml:"log"`
}

// LossConfig configures the semi-hard triplet loss.
type LossConfig struct {
	Margin    float64        `yaml:"margin"`
	Reduction loss.Reduction `yaml:"reduction"`
	Workers   int            `yaml:"workers"`
}

// SmokeConfig configures the random-batch smoke run.
type SmokeConfig struct {
	Batch        int     `yaml:"batch"`
	Dim          int     `yaml:"dim"`
	Classes      int     `yaml:"classes"`
	Seed         uint64  `yaml:"seed"`
	Steps        int     `yaml:"steps"`
	Optimizer    string  `yaml:"optimizer"`
	LearningRate float64 `yaml:"learning_rate"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Loss: LossConfig{
			Margin:    loss.DefaultMargin,
			Reduction: loss.ReductionMean,
		},
		Smoke: SmokeConfig{
			Batch:        800,
			Dim:          2048,
			Classes:      750,
			Seed:         1,
			Steps:        1,
			Optimizer:    "sgd",
			LearningRate: 0.01,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// TripletLoss builds the loss described by the configuration.
func (c *Config) TripletLoss() loss.SemiHardTriplet {
	return loss.SemiHardTriplet{
		Margin:    c.Loss.Margin,
		Reduction: c.Loss.Reduction,
		Workers:   c.Loss.Workers,
	}
}

// Validate checks every section and joins the problems found.
func (c *Config) Validate() error {
	var errs []error
	if err := c.TripletLoss().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("loss: %w", err))
	}

	s := c.Smoke
	if s.Batch < 0 {
		errs = append(errs, fmt.Errorf("smoke.batch must be >= 0, got %d", s.Batch))
	}
	if s.Dim < 1 {
		errs = append(errs, fmt.Errorf("smoke.dim must be >= 1, got %d", s.Dim))
	}
	if s.Classes < 1 {
		errs = append(errs, fmt.Errorf("smoke.classes must be >= 1, got %d", s.Classes))
	}
	if s.Steps < 0 {
		errs = append(errs, fmt.Errorf("smoke.steps must be >= 0, got %d", s.Steps))
	}
	if !(s.LearningRate > 0) {
		errs = append(errs, fmt.Errorf("smoke.learning_rate must be > 0, got %v", s.LearningRate))
	}
	if _, ok := opt.New(s.Optimizer, s.LearningRate); !ok {
		errs = append(errs, fmt.Errorf("smoke.optimizer: unknown optimizer %q", s.Optimizer))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
