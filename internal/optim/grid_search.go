// Package optim tunes scenario parameters by exhaustive grid search.
package optim

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/blocksim/internal/experiment"
)

// Axis is one parameter and the values to try for it.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=start:stop:step" or "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, values, ok := strings.Cut(s, "=")
	if !ok || name == "" || values == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=start:stop:step or name=v1,v2", s)
	}
	axis := Axis{Name: strings.TrimSpace(name)}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Axis{}, fmt.Errorf("axis %s: %w", axis.Name, err)
			}
			bounds[i] = v
		}
		start, stop, step := bounds[0], bounds[1], bounds[2]
		if step <= 0 || stop < start {
			return Axis{}, fmt.Errorf("axis %s: empty range %v:%v:%v", axis.Name, start, stop, step)
		}
		n := int(math.Floor((stop-start)/step+1e-9)) + 1
		for i := 0; i < n; i++ {
			axis.Values = append(axis.Values, start+float64(i)*step)
		}
		return axis, nil
	}

	for _, p := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %s: %w", axis.Name, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}

// BuildFunc sets up an experiment for one parameter combination.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

// Builder returns a BuildFunc that overlays the trial parameters on base.
func Builder(reg *experiment.Registry, base experiment.Config) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base
		cfg.Params = make(map[string]float64, len(base.Params)+len(params))
		for k, v := range base.Params {
			cfg.Params[k] = v
		}
		for k, v := range params {
			cfg.Params[k] = v
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Outcome struct {
	Best      map[string]float64
	BestValue float64
	Trials    []Trial
}

// Failed counts the trials that could not be built or run.
func (o *Outcome) Failed() int {
	n := 0
	for _, t := range o.Trials {
		if t.Err != nil {
			n++
		}
	}
	return n
}

type GridSearch struct {
	axes []Axis
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Size is the number of combinations the search will run.
func (g *GridSearch) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Search runs every combination in order and keeps the one with the lowest
// value of metric. Trials that fail, end with a runtime error or produce a
// non-finite metric are recorded and skipped.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metric string) (*Outcome, error) {
	out := &Outcome{BestValue: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, build, metric, out); err != nil {
		return out, err
	}
	if out.Best == nil {
		return out, fmt.Errorf("no successful trial for metric %s", metric)
	}
	return out, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metric string,
	out *Outcome,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.axes) {
		trial := Trial{Params: current}
		trial.Value, trial.Err = runTrial(ctx, build, current, metric)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out.Trials = append(out.Trials, trial)
		if trial.Err == nil && trial.Value < out.BestValue {
			out.BestValue = trial.Value
			out.Best = current
		}
		return nil
	}

	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Name] = val

		if err := g.searchRecursive(ctx, depth+1, next, build, metric, out); err != nil {
			return err
		}
	}
	return nil
}

func runTrial(ctx context.Context, build BuildFunc, params map[string]float64, metric string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	if len(result.Errors) > 0 {
		return 0, result.Errors[0]
	}
	v, ok := result.Metrics[metric]
	if !ok {
		return 0, fmt.Errorf("metric %s not produced", metric)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("metric %s is %v", metric, v)
	}
	return v, nil
}
