package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/experiment"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/storage"
	"github.com/san-kum/blocksim/internal/viz"
)

// runFlags are shared by every command that builds an experiment.
type runFlags struct {
	integrator string
	period     float64
	cycles     int
	duration   float64
	seed       int64
	params     []string
	probes     []string
	configFile string
	preset     string
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.integrator, "integrator", config.DefaultIntegrator, "integrator (euler|rk4)")
	cmd.Flags().Float64Var(&f.period, "period", 0, "default block period in seconds (0 = scenario default)")
	cmd.Flags().IntVar(&f.cycles, "cycles", 0, "number of minor frames (overrides --time)")
	cmd.Flags().Float64Var(&f.duration, "time", 0, "duration in seconds (0 = scenario default)")
	cmd.Flags().Int64Var(&f.seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "scenario parameter name=value (repeatable)")
	cmd.Flags().StringSliceVar(&f.probes, "probe", nil, "probes to record (default all)")
	cmd.Flags().StringVar(&f.configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "use preset configuration")
}

func parseParams(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

// resolveConfig layers the defaults, the preset, the config file and the
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string, f *runFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if f.preset != "" {
		p := config.GetPreset(cfg.Scenario, f.preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets(cfg.Scenario))
		}
		cfg.Merge(p)
	}

	if f.configFile != "" {
		fileCfg, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			fileCfg.Scenario = args[0]
		}
		cfg.Merge(fileCfg)
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if flags.Changed("period") {
		cfg.Period = f.period
	}
	if flags.Changed("cycles") {
		cfg.Cycles = f.cycles
	}
	if flags.Changed("time") {
		cfg.Duration = f.duration
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = f.seed
	}
	if flags.Changed("probe") {
		cfg.Probes = f.probes
	}
	params, err := parseParams(f.params)
	if err != nil {
		return nil, err
	}
	for k, v := range params {
		cfg.Params[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupExperiment(cfg *config.Config) (*experiment.Experiment, error) {
	ecfg := cfg.Experiment()
	ecfg.Logger = slog.Default()
	exp := experiment.New(ecfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return nil, err
	}
	return exp, nil
}

func newRunCmd() *cobra.Command {
	var (
		f      runFlags
		noSave bool
		plot   bool
	)
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args, &f)
			if err != nil {
				return err
			}
			return runScenario(cmd, cfg, !noSave, plot)
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot the recorded probes")
	return cmd
}

func runScenario(cmd *cobra.Command, cfg *config.Config, save, plot bool) error {
	exp, err := setupExperiment(cfg)
	if err != nil {
		return err
	}
	solver := exp.Solver()

	fmt.Printf("running %s (%d cycles, minor frame %gs)...\n", cfg.Scenario, exp.Cycles(), solver.MinorFrame())
	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(viz.Header("run " + cfg.Scenario))
	fmt.Println(viz.KeyValue("integrator", exp.Config().Integrator))
	fmt.Println(viz.KeyValue("cycles", result.CyclesRun))
	fmt.Println(viz.KeyValue("simulated", fmt.Sprintf("%gs", solver.Time())))
	fmt.Println(viz.KeyValue("elapsed", elapsed.Round(time.Microsecond)))

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Scenario:   cfg.Scenario,
			Seed:       cfg.Seed,
			Integrator: exp.Config().Integrator,
			MinorFrame: solver.MinorFrame(),
			MajorFrame: solver.MajorFrame(),
			Params:     exp.Params(),
		}, result)
		if err != nil {
			return err
		}
		fmt.Println(viz.KeyValue("run id", runID))
	}

	fmt.Println()
	fmt.Println(viz.Header("metrics"))
	fmt.Print(viz.MetricTable(result.Metrics))

	for _, e := range result.Errors {
		fmt.Println(viz.Error(e.Error()))
	}

	if plot {
		fmt.Println()
		return plotResult(result, cfg.Scenario, nil)
	}
	return nil
}

// plotResult charts the named columns of result, or all of them.
func plotResult(result *sim.Result, caption string, columns []string) error {
	if len(columns) == 0 {
		columns = result.Columns
	}
	series := make([]viz.Series, 0, len(columns))
	for _, c := range columns {
		values, ok := result.Column(c)
		if !ok {
			return fmt.Errorf("unknown column: %s (available: %v)", c, result.Columns)
		}
		series = append(series, viz.Series{Name: c, Values: values})
	}
	graph, err := viz.PlotColumns(series, viz.PlotOptions{Width: 80, Height: 12, Caption: caption})
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}
