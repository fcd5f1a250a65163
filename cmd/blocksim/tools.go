package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/automation"
	"github.com/san-kum/blocksim/internal/config"
	"github.com/san-kum/blocksim/internal/experiment"
	"github.com/san-kum/blocksim/internal/optim"
	"github.com/san-kum/blocksim/internal/storage"
	"github.com/san-kum/blocksim/internal/viz"
)

func newBenchCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "benchmark a scenario at increasing cycle counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args, &f)
			if err != nil {
				return err
			}

			fmt.Printf("benchmarking %s\n\n", cfg.Scenario)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INTEG\tCYCLES\tTIME\tCYCLES/SEC")

			for _, integ := range []string{"euler", "rk4"} {
				for _, cycles := range []int{1_000, 10_000, 100_000} {
					run := *cfg
					run.Integrator = integ
					run.Cycles = cycles
					exp, err := setupExperiment(&run)
					if err != nil {
						return err
					}

					start := time.Now()
					result, err := exp.Run(cmd.Context())
					if err != nil {
						return err
					}
					elapsed := time.Since(start)

					rate := float64(result.CyclesRun) / elapsed.Seconds()
					fmt.Fprintf(w, "%s\t%s\t%v\t%s\n",
						integ,
						humanize.Comma(int64(result.CyclesRun)),
						elapsed.Round(time.Microsecond),
						humanize.SIWithDigits(rate, 2, ""),
					)
				}
			}
			return w.Flush()
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}

func newCompareCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "compare [scenario] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same scenario",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args[:1], &f)
			if err != nil {
				return err
			}

			var reference []float64
			fmt.Printf("comparing integrators for %s\n\n", cfg.Scenario)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INTEG\tCOLUMN\tFINAL\tMAX_DIFF\tTIME")

			for _, integ := range args[1:] {
				run := *cfg
				run.Integrator = integ
				exp, err := setupExperiment(&run)
				if err != nil {
					fmt.Fprintf(w, "%s\terror: %v\n", integ, err)
					continue
				}

				start := time.Now()
				result, err := exp.Run(cmd.Context())
				elapsed := time.Since(start)
				if err != nil {
					return err
				}

				if len(result.Columns) == 0 {
					return fmt.Errorf("scenario %s records no probes", cfg.Scenario)
				}
				col := result.Columns[0]
				values, _ := result.Column(col)
				// the first integrator is the reference for MAX_DIFF
				if reference == nil {
					reference = values
				}
				diff := 0.0
				for i := range min(len(values), len(reference)) {
					diff = math.Max(diff, math.Abs(values[i]-reference[i]))
				}

				final := math.NaN()
				if len(values) > 0 {
					final = values[len(values)-1]
				}
				fmt.Fprintf(w, "%s\t%s\t%.6g\t%.2e\t%.2fms\n",
					integ, col, final, diff, float64(elapsed.Microseconds())/1000)
			}
			return w.Flush()
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			for _, name := range reg.ListScenarios() {
				s, err := reg.GetScenario(name)
				if err != nil {
					return err
				}
				fmt.Println(viz.Header(s.Name))
				fmt.Println(viz.Muted(s.Description))
				fmt.Println(viz.KeyValue("period", fmt.Sprintf("%gs", s.Period)))
				fmt.Println(viz.KeyValue("duration", fmt.Sprintf("%gs", s.Duration)))
				params := make([]string, 0, len(s.Defaults))
				for _, p := range s.ParamNames() {
					params = append(params, fmt.Sprintf("%s=%g", p, s.Defaults[p]))
				}
				fmt.Println(viz.KeyValue("params", strings.Join(params, " ")))
				fmt.Println()
			}
			fmt.Println(viz.KeyValue("integrators", strings.Join(reg.ListIntegrators(), ", ")))
			return nil
		},
	}
}

func newOrderCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "order [scenario]",
		Short: "show the resolved execution order and frame structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args, &f)
			if err != nil {
				return err
			}
			exp, err := setupExperiment(cfg)
			if err != nil {
				return err
			}
			return exp.Describe(os.Stdout)
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}

func newTuneCmd() *cobra.Command {
	var (
		f      runFlags
		axes   []string
		metric string
	)
	cmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search scenario parameters minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(axes) == 0 {
				return fmt.Errorf("at least one --axis is required")
			}
			cfg, err := resolveConfig(cmd, args, &f)
			if err != nil {
				return err
			}

			parsed := make([]optim.Axis, 0, len(axes))
			for _, a := range axes {
				axis, err := optim.ParseAxis(a)
				if err != nil {
					return err
				}
				parsed = append(parsed, axis)
			}
			g := optim.NewGridSearch(parsed...)

			fmt.Printf("tuning %s over %s combinations (metric %s)\n\n",
				cfg.Scenario, humanize.Comma(int64(g.Size())), metric)

			out, err := g.Search(cmd.Context(), optim.Builder(experiment.NewRegistry(), cfg.Experiment()), metric)
			if err != nil {
				return err
			}

			fmt.Println(viz.Header("best"))
			for _, axis := range parsed {
				fmt.Println(viz.KeyValue(axis.Name, out.Best[axis.Name]))
			}
			fmt.Println(viz.KeyValue(metric, fmt.Sprintf("%.6g", out.BestValue)))
			if n := out.Failed(); n > 0 {
				fmt.Println(viz.Warn(fmt.Sprintf("%d of %d trials failed", n, len(out.Trials))))
			}
			return nil
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().StringArrayVar(&axes, "axis", nil, "parameter axis name=start:stop:step or name=v1,v2 (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "tracking_error", "metric to minimize")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run the steps of a batch file in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := automation.LoadBatch(args[0])
			if err != nil {
				return err
			}

			results, err := automation.RunBatch(cmd.Context(), b, experiment.NewRegistry(), slog.Default())
			for _, r := range results {
				fmt.Println(viz.Header(r.Step.Name))
				fmt.Println(viz.KeyValue("scenario", r.Step.Scenario))
				fmt.Println(viz.KeyValue("cycles", humanize.Comma(int64(r.Result.CyclesRun))))
				if save {
					runID, err := storage.New(dataDir).Save(storage.RunMetadata{
						Scenario:   r.Step.Scenario,
						Seed:       r.Step.Seed,
						Integrator: r.Step.Integrator,
						Params:     r.Step.Params,
					}, r.Result)
					if err != nil {
						return err
					}
					fmt.Println(viz.KeyValue("run id", runID))
				}
				fmt.Print(viz.MetricTable(r.Result.Metrics))
				fmt.Println()
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store every step as a run")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	var (
		f       runFlags
		trials  int
		perturb []string
		metric  string
		bound   float64
	)
	cmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "repeat a scenario over random seeds and perturbed parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args, &f)
			if err != nil {
				return err
			}
			spreads, err := parseParams(perturb)
			if err != nil {
				return err
			}

			results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
				Base:    *cfg,
				Trials:  trials,
				Seed:    cfg.Seed,
				Perturb: spreads,
				Bound:   bound,
			}, experiment.NewRegistry(), slog.Default())
			if err != nil {
				return err
			}

			stable, unstable := automation.MonteCarloStats(results)
			s := automation.Summarize(results, metric)
			fmt.Println(viz.Header("monte carlo " + cfg.Scenario))
			fmt.Println(viz.KeyValue("trials", len(results)))
			fmt.Println(viz.KeyValue("stable", stable))
			if unstable > 0 {
				fmt.Println(viz.KeyValue("unstable", viz.Warn(fmt.Sprint(unstable))))
			}
			fmt.Println(viz.KeyValue(metric+" mean", fmt.Sprintf("%.6g", s.Mean)))
			fmt.Println(viz.KeyValue(metric+" std", fmt.Sprintf("%.6g", s.Std)))
			fmt.Println(viz.KeyValue(metric+" range", fmt.Sprintf("[%.6g, %.6g]", s.Min, s.Max)))
			return nil
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().StringArrayVar(&perturb, "perturb", nil, "relative parameter spread name=fraction (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "tracking_error", "metric to summarize")
	cmd.Flags().Float64Var(&bound, "bound", 1e6, "final value magnitude treated as unstable")
	return cmd
}
