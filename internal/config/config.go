package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/blocksim/internal/experiment"
)

const (
	DefaultScenario   = "pitch"
	DefaultIntegrator = "rk4"
)

// Config is a run configuration. Zero Period, Cycles and Duration fall back
// to the scenario's own defaults.
type Config struct {
	Scenario   string             `yaml:"scenario"`
	Integrator string             `yaml:"integrator"`
	Period     float64            `yaml:"period"`
	Cycles     int                `yaml:"cycles,omitempty"`
	Duration   float64            `yaml:"duration"`
	Seed       int64              `yaml:"seed"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Probes     []string           `yaml:"probes,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   DefaultScenario,
		Integrator: DefaultIntegrator,
		Params:     map[string]float64{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	if !nonNegative(c.Period) {
		return fmt.Errorf("period must not be negative, got %v", c.Period)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("cycles must not be negative, got %d", c.Cycles)
	}
	if !nonNegative(c.Duration) {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// CyclesAt returns the explicit cycle count, or Duration divided by period
// when only a duration is set. The period is the scheduler's minor frame.
func (c *Config) CyclesAt(period float64) int {
	if c.Cycles > 0 {
		return c.Cycles
	}
	if period <= 0 {
		return 0
	}
	return int(math.Round(c.Duration / period))
}

// Merge overlays the non-zero fields of o onto c. Params are merged key by
// key.
func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}
	if o.Scenario != "" {
		c.Scenario = o.Scenario
	}
	if o.Integrator != "" {
		c.Integrator = o.Integrator
	}
	if o.Period > 0 {
		c.Period = o.Period
	}
	if o.Cycles > 0 {
		c.Cycles = o.Cycles
	}
	if o.Duration > 0 {
		c.Duration = o.Duration
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if len(o.Probes) > 0 {
		c.Probes = append([]string(nil), o.Probes...)
	}
	if c.Params == nil {
		c.Params = map[string]float64{}
	}
	for k, v := range o.Params {
		c.Params[k] = v
	}
}

// Experiment converts the file configuration to an experiment configuration.
func (c *Config) Experiment() experiment.Config {
	params := make(map[string]float64, len(c.Params))
	for k, v := range c.Params {
		params[k] = v
	}
	return experiment.Config{
		Scenario:   c.Scenario,
		Integrator: c.Integrator,
		Period:     c.Period,
		Cycles:     c.Cycles,
		Duration:   c.Duration,
		Seed:       c.Seed,
		Params:     params,
		Probes:     append([]string(nil), c.Probes...),
	}
}
