package sim_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/sim"
)

type sumMetric struct {
	column string
	total  float64
	seen   int
}

func (m *sumMetric) Name() string { return "sum_" + m.column }
func (m *sumMetric) Observe(s sim.Sample) {
	if v, ok := s.Value(m.column); ok {
		m.total += v
	}
	m.seen++
}
func (m *sumMetric) Value() float64 { return m.total }
func (m *sumMetric) Reset()         { m.total, m.seen = 0, 0 }

type recorder struct{ cycles []int }

func (r *recorder) OnCycle(s sim.Sample) { r.cycles = append(r.cycles, s.Cycle) }

// clockRig is a clock feeding a function block.
func clockRig(t *testing.T, fn blocks.Func) (*sim.Solver, *blocks.Clock, *blocks.Function, dynamo.Signal, dynamo.Signal) {
	t.Helper()
	ts, in, y := dynamo.NewSignal("t"), dynamo.NewSignal("f.u"), dynamo.NewSignal("f.y")
	clock, err := blocks.NewClock("clock", ts, 0)
	require.NoError(t, err)
	f, err := blocks.NewFunction("f", in, y, fn)
	require.NoError(t, err)
	solver, err := sim.NewSolver([]dynamo.Block{f, clock}, []dynamo.Link{dynamo.Connect(clock, ts, f, in)}, 0.1)
	require.NoError(t, err)
	return solver, clock, f, ts, y
}

func TestRunner_RecordsTrace(t *testing.T) {
	solver, clock, f, ts, y := clockRig(t, blocks.Scale(2))

	runner, err := sim.NewRunner(solver,
		sim.OutputProbe("t", clock, ts),
		sim.OutputProbe("y", f, y),
	)
	require.NoError(t, err)
	metric := &sumMetric{column: "y"}
	rec := &recorder{}
	runner.AddMetric(metric)
	runner.AddObserver(rec)

	result, err := runner.Run(context.Background(), sim.Config{Cycles: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"t", "y"}, result.Columns)
	assert.Equal(t, 5, result.CyclesRun)
	require.Len(t, result.Rows, 5)
	for i, row := range result.Rows {
		assert.InDelta(t, 0.1*float64(i), result.Times[i], 1e-12)
		assert.InDelta(t, 0.1*float64(i), row[0], 1e-12)
		assert.InDelta(t, 0.2*float64(i), row[1], 1e-12)
	}
	assert.InDelta(t, 2.0, result.Metrics["sum_y"], 1e-12)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, rec.cycles)

	col, ok := result.Column("y")
	require.True(t, ok)
	assert.Len(t, col, 5)
	_, ok = result.Column("missing")
	assert.False(t, ok)
}

func TestRunner_StateProbe(t *testing.T) {
	count := dynamo.NewSignal("count")
	timer, err := blocks.NewTimer("timer", count, 2, 0)
	require.NoError(t, err)
	solver, err := sim.NewSolver([]dynamo.Block{timer}, nil, 1)
	require.NoError(t, err)

	runner, err := sim.NewRunner(solver, sim.StateProbe("x", timer, timer.States()[0]))
	require.NoError(t, err)
	result, err := runner.Run(context.Background(), sim.Config{Cycles: 4})
	require.NoError(t, err)

	col, _ := result.Column("x")
	assert.Equal(t, []float64{0, 1, 2, 0}, col)
}

func TestRunner_StopsOnInvalidValue(t *testing.T) {
	solver, _, f, _, y := clockRig(t, func(now float64) float64 {
		if now > 0.25 {
			return math.NaN()
		}
		return now
	})
	runner, err := sim.NewRunner(solver, sim.OutputProbe("y", f, y))
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), sim.Config{Cycles: 10, ValidateState: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.CyclesRun)
	require.Len(t, result.Errors, 1)

	var simErr sim.SimError
	require.ErrorAs(t, result.Errors[0], &simErr)
	assert.Equal(t, 3, simErr.Cycle)
}

func TestRunner_ContextCancelled(t *testing.T) {
	solver, _, f, _, y := clockRig(t, blocks.Abs())
	runner, err := sim.NewRunner(solver, sim.OutputProbe("y", f, y))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := runner.Run(ctx, sim.Config{Cycles: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.CyclesRun)
}

func TestRunner_Callback(t *testing.T) {
	solver, _, f, _, y := clockRig(t, blocks.Abs())
	runner, err := sim.NewRunner(solver, sim.OutputProbe("y", f, y))
	require.NoError(t, err)

	seen := 0
	err = runner.RunWithCallback(context.Background(), sim.Config{Cycles: 10}, func(s sim.Sample) bool {
		seen++
		return s.Cycle < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
}

func TestRunner_InvalidConfig(t *testing.T) {
	solver, _, _, _, _ := clockRig(t, blocks.Abs())
	runner, err := sim.NewRunner(solver)
	require.NoError(t, err)

	for _, cycles := range []int{0, -1} {
		_, err := runner.Run(context.Background(), sim.Config{Cycles: cycles})
		assert.Error(t, err)
	}
}

func TestNewRunner_RejectsBadProbes(t *testing.T) {
	solver, clock, f, ts, y := clockRig(t, blocks.Abs())
	stranger, _, strangerOut := gain(t, "stranger", 1)

	tests := []struct {
		name   string
		probes []sim.Probe
	}{
		{"unnamed", []sim.Probe{sim.OutputProbe("", f, y)}},
		{"duplicate", []sim.Probe{sim.OutputProbe("y", f, y), sim.OutputProbe("y", clock, ts)}},
		{"unknown block", []sim.Probe{sim.OutputProbe("s", stranger, strangerOut)}},
		{"undeclared signal", []sim.Probe{sim.OutputProbe("t", clock, y)}},
		{"state of direct block", []sim.Probe{sim.StateProbe("y", f, y)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.NewRunner(solver, tt.probes...)
			assert.Error(t, err)
		})
	}
}

func TestCyclesFor(t *testing.T) {
	assert.Equal(t, 1000, sim.CyclesFor(10, 0.01))
	assert.Equal(t, 0, sim.CyclesFor(10, 0))
}

func TestSimError(t *testing.T) {
	err := sim.SimError{Time: 1.5, Cycle: 150, Message: "test error"}
	assert.Equal(t, "cycle 150 (t=1.5000): test error", err.Error())
}
