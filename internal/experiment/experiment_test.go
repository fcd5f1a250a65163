package experiment

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/blocksim/internal/sim"
)

func setup(t *testing.T, cfg Config) *Experiment {
	t.Helper()
	exp := New(cfg)
	require.NoError(t, exp.Setup(NewRegistry()))
	return exp
}

func formatTrace(r *sim.Result) []byte {
	var buf bytes.Buffer
	buf.WriteString("time," + strings.Join(r.Columns, ",") + "\n")
	for i, row := range r.Rows {
		fmt.Fprintf(&buf, "%.4f", r.Times[i])
		for _, v := range row {
			fmt.Fprintf(&buf, ",%.4f", v)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTimerTraceGolden(t *testing.T) {
	exp := setup(t, Config{Scenario: "timer", Cycles: 12})
	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	golden(t).Assert(t, "timer_trace", formatTrace(result))
}

func TestPitchTraceGolden(t *testing.T) {
	exp := setup(t, Config{Scenario: "pitch", Integrator: "rk4", Seed: 42})
	result, err := exp.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rows, 1000)

	golden(t).Assert(t, "pitch_trace", formatTrace(result))
}

func TestPitchMultirateFramesGolden(t *testing.T) {
	exp := setup(t, Config{Scenario: "pitch_multirate"})

	var buf bytes.Buffer
	require.NoError(t, exp.Describe(&buf))
	golden(t).Assert(t, "pitch_multirate_frames", buf.Bytes())
}

func TestPitchScenario(t *testing.T) {
	exp := setup(t, Config{Scenario: "pitch"})
	assert.Equal(t, 1000, exp.Cycles())

	names := make([]string, 0, 4)
	for _, b := range exp.Solver().Order() {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{"actuator", "plant", "sensor", "controller"}, names)

	result, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000, result.CyclesRun)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"theta", "thetaD", "theta_m", "beta_c", "beta"}, result.Columns)

	first := result.Rows[0]
	assert.Equal(t, 0.0, first[0])
	assert.Equal(t, 0.1, first[1])
	assert.InDelta(t, 0.1, first[2], 1e-12)
	assert.InDelta(t, -0.1, first[3], 1e-12)

	for _, m := range []string{"tracking_error", "control_effort", "stability", "peak_beta"} {
		assert.Contains(t, result.Metrics, m)
	}
}

func TestScenarioIsDeterministic(t *testing.T) {
	cfg := Config{
		Scenario: "pitch",
		Cycles:   200,
		Seed:     7,
		Params:   map[string]float64{"sigma2": 1e-4},
	}
	a, err := setup(t, cfg).Run(context.Background())
	require.NoError(t, err)
	b, err := setup(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
}

func TestPIDLoopTracksReference(t *testing.T) {
	exp := setup(t, Config{Scenario: "pid_loop", Integrator: "euler", Duration: 10})
	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	y, ok := result.Column("y")
	require.True(t, ok)
	assert.InDelta(t, 1.0, y[len(y)-1], 1e-3)
}

func TestTFStepSettles(t *testing.T) {
	exp := setup(t, Config{Scenario: "tf_step"})
	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	y1, _ := result.Column("y1")
	y2, _ := result.Column("y2")
	assert.InDelta(t, 1.0, y1[len(y1)-1], 1e-3)
	assert.InDelta(t, 1.0, y2[len(y2)-1], 1e-2)
	assert.Greater(t, result.Metrics["peak_y2"], 1.2)
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown scenario", Config{Scenario: "nope"}},
		{"unknown integrator", Config{Scenario: "pitch", Integrator: "verlet"}},
		{"unknown parameter", Config{Scenario: "pitch", Params: map[string]float64{"mass": 1}}},
		{"unknown probe", Config{Scenario: "pitch", Probes: []string{"phi"}}},
		{"malformed block", Config{Scenario: "pitch", Params: map[string]float64{"I": 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, New(tt.cfg).Setup(NewRegistry()))
		})
	}

	_, err := New(Config{Scenario: "pitch"}).Run(context.Background())
	assert.Error(t, err)
}

func TestProbeSelection(t *testing.T) {
	exp := setup(t, Config{Scenario: "pitch", Cycles: 3, Probes: []string{"beta", "theta"}})
	result, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "theta"}, result.Columns)
}

func TestRegistryLists(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{"pid_loop", "pitch", "pitch_multirate", "tf_step", "timer"}, reg.ListScenarios())
	assert.Equal(t, []string{"euler", "rk4"}, reg.ListIntegrators())
}
