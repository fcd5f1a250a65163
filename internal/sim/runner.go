package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Runner is the host loop around a Solver: it drives cycles, samples the
// probes after each solve phase and feeds metrics and observers.
type Runner struct {
	solver    *Solver
	probes    []Probe
	nodes     []int
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func NewRunner(solver *Solver, probes ...Probe) (*Runner, error) {
	r := &Runner{
		solver:    solver,
		probes:    probes,
		nodes:     make([]int, len(probes)),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    solver.logger,
	}

	seen := make(map[string]bool, len(probes))
	for k, p := range probes {
		if p.Name == "" {
			return nil, fmt.Errorf("probe %d has no name", k)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate probe %q", p.Name)
		}
		seen[p.Name] = true

		i, ok := solver.lookup(p.Block)
		if !ok {
			return nil, fmt.Errorf("probe %q: %w", p.Name, dynamo.ErrUnknownBlock)
		}
		if err := checkProbe(&solver.nodes[i], p); err != nil {
			return nil, fmt.Errorf("probe %q: %w", p.Name, err)
		}
		r.nodes[k] = i
	}
	return r, nil
}

func checkProbe(n *node, p Probe) error {
	var declared []dynamo.Signal
	switch p.Source {
	case FromOutput:
		declared = n.block.Outputs()
	case FromInput:
		declared = n.block.Inputs()
	case FromState:
		if n.stateful == nil {
			return fmt.Errorf("%w: block %q has no state", dynamo.ErrMissingSignal, n.block.Name())
		}
		declared = n.stateful.States()
	default:
		return fmt.Errorf("unknown probe source %v", p.Source)
	}
	if !slices.Contains(declared, p.Signal) {
		return &dynamo.SignalError{Block: n.block.Name(), Role: p.Source.String(), Signal: p.Signal}
	}
	return nil
}

func (r *Runner) AddMetric(m Metric)       { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)   { r.observers = append(r.observers, o) }
func (r *Runner) SetLogger(l *slog.Logger) { r.logger = l }
func (r *Runner) Solver() *Solver          { return r.solver }

// Columns returns the probe names in recording order.
func (r *Runner) Columns() []string {
	cols := make([]string, len(r.probes))
	for i, p := range r.probes {
		cols[i] = p.Name
	}
	return cols
}

func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Columns: r.Columns(),
		Times:   make([]float64, 0, cfg.Cycles),
		Rows:    make([][]float64, 0, cfg.Cycles),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	start := time.Now()
	r.logger.Info("run starting",
		"cycles", cfg.Cycles,
		"blocks", len(r.solver.nodes),
		"minor_frame", r.solver.minor,
	)

	err := r.loop(ctx, cfg, func(s Sample) bool {
		result.Times = append(result.Times, s.Time)
		result.Rows = append(result.Rows, s.Values)
		result.CyclesRun++
		return true
	}, &result.Errors)

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	r.logger.Info("run finished",
		"cycles", result.CyclesRun,
		"errors", len(result.Errors),
		"elapsed", time.Since(start),
	)
	return result, err
}

// RunWithCallback streams samples to callback instead of recording them.
// Returning false from callback stops the run without error.
func (r *Runner) RunWithCallback(ctx context.Context, cfg Config, callback func(Sample) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	var errs []error
	if err := r.loop(ctx, cfg, callback, &errs); err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (r *Runner) loop(ctx context.Context, cfg Config, emit func(Sample) bool, errs *[]error) error {
	for n := 0; n < cfg.Cycles; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.solver.Solve(); err != nil {
			return err
		}

		sample := r.sample()
		if cfg.ValidateState && !sample.IsValid() {
			*errs = append(*errs, SimError{
				Time:    sample.Time,
				Cycle:   sample.Cycle,
				Message: "invalid probe value (NaN/Inf)",
			})
			r.logger.Warn("run stopped", "cycle", sample.Cycle, "reason", "non-finite value")
			return nil
		}

		for _, m := range r.metrics {
			m.Observe(sample)
		}
		for _, obs := range r.observers {
			obs.OnCycle(sample)
		}
		if !emit(sample) {
			return nil
		}

		if err := r.solver.Update(); err != nil {
			return err
		}
		r.logger.Debug("cycle", "counter", r.solver.counter, "time", r.solver.Time())
	}
	return nil
}

func (r *Runner) sample() Sample {
	s := Sample{
		Cycle:   r.solver.counter,
		Time:    r.solver.Time(),
		Columns: r.Columns(),
		Values:  make([]float64, len(r.probes)),
	}
	for k, p := range r.probes {
		n := &r.solver.nodes[r.nodes[k]]
		var bus dynamo.Bus
		switch p.Source {
		case FromOutput:
			bus = n.output
		case FromState:
			bus = n.state
		case FromInput:
			bus = n.input
		}
		v, ok := bus[p.Signal]
		if !ok {
			v = math.NaN()
		}
		s.Values[k] = v
	}
	return s
}

func validateConfig(cfg Config) error {
	if cfg.Cycles <= 0 {
		return fmt.Errorf("cycles must be positive, got %d", cfg.Cycles)
	}
	return nil
}
