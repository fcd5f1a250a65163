package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/san-kum/blocksim/internal/sim"
)

type Config struct {
	Scenario   string
	Integrator string
	// Period overrides the scenario's default scheduler period when > 0.
	Period float64
	// Cycles wins over Duration when > 0.
	Cycles   int
	Duration float64
	Seed     int64
	Params   map[string]float64
	// Probes restricts the recorded columns. Empty records every probe.
	Probes []string
	Logger *slog.Logger
}

type Experiment struct {
	cfg      Config
	scenario Scenario
	params   Params
	solver   *sim.Solver
	runner   *sim.Runner
	cycles   int
}

func New(cfg Config) *Experiment {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Experiment{cfg: cfg}
}

// Setup builds the scenario diagram, the solver and the runner.
func (e *Experiment) Setup(reg *Registry) error {
	scenario, err := reg.GetScenario(e.cfg.Scenario)
	if err != nil {
		return err
	}
	params, err := scenario.Resolve(e.cfg.Params)
	if err != nil {
		return err
	}

	name := e.cfg.Integrator
	if name == "" {
		name = "rk4"
	}
	integ, err := reg.GetIntegrator(name)
	if err != nil {
		return err
	}

	period := scenario.Period
	if e.cfg.Period > 0 {
		period = e.cfg.Period
	}

	diagram, err := scenario.Build(params, e.cfg.Seed)
	if err != nil {
		return fmt.Errorf("build %s: %w", scenario.Name, err)
	}

	solver, err := sim.NewSolver(diagram.Blocks, diagram.Links, period,
		sim.WithIntegrator(integ),
		sim.WithLogger(e.cfg.Logger),
	)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	probes, err := selectProbes(diagram.Probes, e.cfg.Probes)
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(solver, probes...)
	if err != nil {
		return err
	}
	for _, m := range diagram.Metrics {
		runner.AddMetric(m)
	}

	e.cfg.Integrator = name
	e.cfg.Period = period
	e.scenario = scenario
	e.params = params
	e.solver = solver
	e.runner = runner
	e.cycles = e.cfg.Cycles
	if e.cycles <= 0 {
		duration := e.cfg.Duration
		if duration <= 0 {
			duration = scenario.Duration
		}
		e.cycles = sim.CyclesFor(duration, solver.MinorFrame())
	}
	return nil
}

func selectProbes(all []sim.Probe, names []string) ([]sim.Probe, error) {
	if len(names) == 0 {
		return all, nil
	}
	out := make([]sim.Probe, 0, len(names))
	for _, n := range names {
		i := slices.IndexFunc(all, func(p sim.Probe) bool { return p.Name == n })
		if i < 0 {
			return nil, fmt.Errorf("unknown probe: %s", n)
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.runner.Run(ctx, sim.Config{
		Cycles:        e.cycles,
		ValidateState: true,
	})
}

// Config returns the configuration with the integrator and period resolved
// once Setup has run.
func (e *Experiment) Config() Config { return e.cfg }

func (e *Experiment) Scenario() Scenario  { return e.scenario }
func (e *Experiment) Runner() *sim.Runner { return e.runner }
func (e *Experiment) Solver() *sim.Solver { return e.solver }
func (e *Experiment) Params() Params      { return e.params }
func (e *Experiment) Cycles() int         { return e.cycles }

// Describe writes the resolved execution order and frame structure.
func (e *Experiment) Describe(w io.Writer) error {
	if e.solver == nil {
		return fmt.Errorf("experiment not setup")
	}
	s := e.solver
	if _, err := fmt.Fprintf(w, "scenario: %s\nminor_frame: %.4f\nmajor_frame: %.4f\norder:\n",
		e.scenario.Name, s.MinorFrame(), s.MajorFrame()); err != nil {
		return err
	}
	for i, blk := range s.Order() {
		period, _ := s.Period(blk)
		rel, _ := s.RelativePeriod(blk)
		if _, err := fmt.Fprintf(w, "  %d. %-12s period=%.4f relative=%d\n", i+1, blk.Name(), period, rel); err != nil {
			return err
		}
	}
	return nil
}
