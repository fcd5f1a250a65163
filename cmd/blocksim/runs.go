package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/blocksim/internal/analysis"
	"github.com/san-kum/blocksim/internal/sim"
	"github.com/san-kum/blocksim/internal/storage"
	"github.com/san-kum/blocksim/internal/viz"
)

// loadRun reads a stored run back as a result.
func loadRun(runID string) (*storage.RunMetadata, *sim.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(tr.Rows) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}

	result := &sim.Result{
		Columns:   tr.Columns,
		Times:     tr.Times,
		Rows:      tr.Rows,
		Metrics:   meta.Metrics,
		CyclesRun: meta.Cycles,
	}
	for _, e := range meta.Errors {
		result.Errors = append(result.Errors, errors.New(e))
	}
	return meta, result, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCENARIO\tCREATED\tCYCLES\tMINOR\tINTEG")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%gs\t%s\n",
					run.ID,
					run.Scenario,
					humanize.Time(run.Timestamp),
					humanize.Comma(int64(run.Cycles)),
					run.MinorFrame,
					run.Integrator,
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var (
		columns []string
		phase   []string
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args[0])
			if err != nil {
				return err
			}

			fmt.Println(viz.Header("run " + meta.ID))
			fmt.Println(viz.KeyValue("scenario", meta.Scenario))
			fmt.Println(viz.KeyValue("samples", humanize.Comma(int64(len(result.Rows)))))
			fmt.Println()

			if len(phase) > 0 {
				if len(phase) != 2 {
					return fmt.Errorf("--phase takes two columns, got %d", len(phase))
				}
				return plotPhase(result, phase[0], phase[1])
			}
			return plotResult(result, meta.Scenario, columns)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to plot (default all)")
	cmd.Flags().StringSliceVar(&phase, "phase", nil, "plot column y against column x (x,y)")
	return cmd
}

func plotPhase(result *sim.Result, x, y string) error {
	xs, ok := result.Column(x)
	if !ok {
		return fmt.Errorf("unknown column: %s", x)
	}
	ys, ok := result.Column(y)
	if !ok {
		return fmt.Errorf("unknown column: %s", y)
	}
	p, err := analysis.NewPhasePortrait(x, xs, y, ys)
	if err != nil {
		return err
	}
	fmt.Print(viz.Phase(p, 60, 16))
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := storage.New(dataDir).Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}
}

func newExportCSVCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run signals to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.ExportCSV(output, result)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output path (- for stdout)")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run signals to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(output, storage.NewExport(meta.Scenario, meta.Integrator, meta.MinorFrame, result))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output path (- for stdout)")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and step response analysis of a recorded signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if column == "" {
				column = result.Columns[0]
			}
			data, ok := result.Column(column)
			if !ok {
				return fmt.Errorf("unknown column: %s (available: %v)", column, result.Columns)
			}

			fmt.Println(viz.Header("analysis " + meta.ID))
			fmt.Println(viz.KeyValue("scenario", meta.Scenario))
			fmt.Println(viz.KeyValue("column", column))
			fmt.Println()

			if ps := analysis.PowerSpectrum(data); len(ps) > 4 {
				graph := asciigraph.Plot(ps[:len(ps)/4],
					asciigraph.Height(15),
					asciigraph.Width(80),
					asciigraph.Caption("power spectrum ("+column+")"),
				)
				fmt.Println(graph)
				fmt.Println()
			}

			hz, power := analysis.DominantFrequency(data, meta.MinorFrame)
			fmt.Println(viz.KeyValue("dominant freq", fmt.Sprintf("%.3f hz", hz)))
			fmt.Println(viz.KeyValue("peak power", fmt.Sprintf("%.4g", power)))

			r := analysis.StepResponse(result.Times, data, 0.02)
			fmt.Println(viz.KeyValue("final value", fmt.Sprintf("%.6g", r.Final)))
			fmt.Println(viz.KeyValue("rise time", fmt.Sprintf("%.4fs", r.RiseTime)))
			fmt.Println(viz.KeyValue("overshoot", fmt.Sprintf("%.1f%%", 100*r.Overshoot)))
			fmt.Println(viz.KeyValue("settling time", fmt.Sprintf("%.4fs", r.SettlingTime)))
			fmt.Println(viz.KeyValue("trace", "") + viz.Sparkline(data, 60))
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "column to analyze (default first)")
	return cmd
}

func newExportSVGCmd() *cobra.Command {
	var (
		output  string
		columns []string
		phase   []string
	)
	cmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a plot of run signals as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := loadRun(args[0])
			if err != nil {
				return err
			}

			var svg string
			if len(phase) > 0 {
				if len(phase) != 2 {
					return fmt.Errorf("--phase takes two columns, got %d", len(phase))
				}
				xs, okX := result.Column(phase[0])
				ys, okY := result.Column(phase[1])
				if !okX || !okY {
					return fmt.Errorf("unknown column in %v (available: %v)", phase, result.Columns)
				}
				p, err := analysis.NewPhasePortrait(phase[0], xs, phase[1], ys)
				if err != nil {
					return err
				}
				svg, err = viz.PhaseSVG(p, 600, 600)
				if err != nil {
					return err
				}
			} else {
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
				svg, err = viz.TraceSVG(result.Times, series, 800, 400)
				if err != nil {
					return err
				}
			}

			if output == "-" {
				_, err = os.Stdout.WriteString(svg)
				return err
			}
			return os.WriteFile(output, []byte(svg), 0644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output path (- for stdout)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to draw (default all)")
	cmd.Flags().StringSliceVar(&phase, "phase", nil, "draw column y against column x (x,y)")
	return cmd
}
