// Package automation runs scripted batches of scenarios and Monte Carlo
// trials over seeds and parameter perturbations.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/experiment"
	"github.com/san-kum/blocksim/internal/sim"
)

// Batch is a scripted sequence of runs loaded from YAML.
type Batch struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a batch. An unset scenario or integrator takes the
// config package default.
type Step struct {
	Name          string `yaml:"name"`
	config.Config `yaml:",inline"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(b.Steps) == 0 {
		return nil, fmt.Errorf("batch %s has no steps", path)
	}
	for i := range b.Steps {
		step := &b.Steps[i]
		if step.Scenario == "" {
			step.Scenario = config.DefaultScenario
		}
		if step.Integrator == "" {
			step.Integrator = config.DefaultIntegrator
		}
		if step.Params == nil {
			step.Params = map[string]float64{}
		}
		if step.Name == "" {
			step.Name = fmt.Sprintf("%s-%d", step.Scenario, i+1)
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &b, nil
}

type StepResult struct {
	Step   Step
	Result *sim.Result
}

// RunBatch executes the steps in order and stops at the first failure.
func RunBatch(ctx context.Context, b *Batch, reg *experiment.Registry, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(b.Steps))

	for i, step := range b.Steps {
		logger.Info("batch step", "batch", b.Name, "step", i+1, "of", len(b.Steps), "name", step.Name)

		ecfg := step.Experiment()
		ecfg.Logger = logger
		exp := experiment.New(ecfg)
		if err := exp.Setup(reg); err != nil {
			return results, fmt.Errorf("step %d (%s) setup: %w", i+1, step.Name, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d (%s) run: %w", i+1, step.Name, err)
		}
		results = append(results, StepResult{Step: step, Result: result})
	}
	return results, nil
}

// MonteCarloConfig describes repeated runs of one configuration with
// per-trial seeds and uniformly perturbed parameters.
type MonteCarloConfig struct {
	Base   config.Config
	Trials int
	// Seed drives the trial seeds and perturbations.
	Seed int64
	// Perturb maps a parameter to its relative spread: value*(1+u*spread)
	// with u uniform in [-1, 1).
	Perturb map[string]float64
	// Bound is the magnitude above which a final probe value counts as
	// unstable. Defaults to 1e6.
	Bound float64
}

type MonteCarloResult struct {
	Trial   int
	Seed    int64
	Params  map[string]float64
	Metrics map[string]float64
	Final   []float64
	Stable  bool
	Err     error
}

// RunMonteCarlo executes the trials sequentially. Setup failures are fatal,
// runtime errors only mark the trial unstable.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *experiment.Registry, logger *slog.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.Trials)
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = 1e6
	}

	scenario, err := reg.GetScenario(cfg.Base.Scenario)
	if err != nil {
		return nil, err
	}
	base, err := scenario.Resolve(cfg.Base.Params)
	if err != nil {
		return nil, err
	}
	for name := range cfg.Perturb {
		if _, ok := base[name]; !ok {
			return nil, fmt.Errorf("cannot perturb unknown parameter %s", name)
		}
	}

	// perturbed names are visited in sorted order so a seed always yields
	// the same draws
	names := make([]string, 0, len(cfg.Perturb))
	for name := range cfg.Perturb {
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(cfg.Seed))
	results := make([]MonteCarloResult, 0, cfg.Trials)

	for trial := 0; trial < cfg.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		params := make(map[string]float64, len(base))
		for k, v := range base {
			params[k] = v
		}
		for _, name := range names {
			params[name] *= 1 + (rng.Float64()*2-1)*cfg.Perturb[name]
		}

		run := cfg.Base
		run.Seed = rng.Int63()
		run.Params = params
		ecfg := run.Experiment()
		ecfg.Logger = logger

		exp := experiment.New(ecfg)
		if err := exp.Setup(reg); err != nil {
			return results, fmt.Errorf("trial %d setup: %w", trial, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("trial %d run: %w", trial, err)
		}

		r := MonteCarloResult{
			Trial:   trial,
			Seed:    run.Seed,
			Params:  params,
			Metrics: result.Metrics,
			Stable:  len(result.Errors) == 0,
		}
		if len(result.Errors) > 0 {
			r.Err = result.Errors[0]
		}
		if n := len(result.Rows); n > 0 {
			r.Final = result.Rows[n-1]
			for _, v := range r.Final {
				if math.IsNaN(v) || math.Abs(v) > bound {
					r.Stable = false
				}
			}
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", "done", trial+1, "of", cfg.Trials)
		}
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return stable, unstable
}

// Summary is the spread of one metric over the stable trials.
type Summary struct {
	Metric    string
	N         int
	Mean, Std float64
	Min, Max  float64
}

func Summarize(results []MonteCarloResult, metric string) Summary {
	s := Summary{Metric: metric, Min: math.Inf(1), Max: math.Inf(-1)}
	var sum, sumSq float64
	for _, r := range results {
		v, ok := r.Metrics[metric]
		if !r.Stable || !ok {
			continue
		}
		s.N++
		sum += v
		sumSq += v * v
		s.Min, s.Max = min(s.Min, v), max(s.Max, v)
	}
	if s.N == 0 {
		return Summary{Metric: metric}
	}
	s.Mean = sum / float64(s.N)
	s.Std = math.Sqrt(max(0, sumSq/float64(s.N)-s.Mean*s.Mean))
	return s
}
