package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/blocksim/internal/dynamo"
)

var (
	sigX    = dynamo.NewSignal("x")
	sigXDot = dynamo.NewSignal("xD")
	sigV    = dynamo.NewSignal("v")
	sigVDot = dynamo.NewSignal("vD")
	sigRate = dynamo.NewSignal("a")
)

// decay is dx/dt = -a*x.
type decay struct {
	dynamo.StateBase
}

func newDecay(t testing.TB, a, x0 float64, mapping map[dynamo.Signal]dynamo.Signal) *decay {
	t.Helper()
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition:  dynamo.Definition{Name: "decay", Outputs: []dynamo.Signal{sigX}, Parameters: []dynamo.Signal{sigRate}},
		States:      []dynamo.Signal{sigX},
		Derivatives: mapping,
	}, dynamo.Bus{sigRate: a}, dynamo.Bus{sigX: x0})
	if err != nil {
		t.Fatalf("newDecay: %v", err)
	}
	return &decay{StateBase: base}
}

func (d *decay) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	return dynamo.Bus{sigXDot: -d.Param(sigRate) * state[sigX]}, nil
}

func (d *decay) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	return dynamo.Bus{sigX: state[sigX]}, nil
}

// oscillator is x' = v, v' = -x.
type oscillator struct {
	dynamo.StateBase
}

func newOscillator(t testing.TB) *oscillator {
	t.Helper()
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition:  dynamo.Definition{Name: "oscillator", Outputs: []dynamo.Signal{sigX}},
		States:      []dynamo.Signal{sigX, sigV},
		Derivatives: map[dynamo.Signal]dynamo.Signal{sigX: sigXDot, sigV: sigVDot},
	}, nil, dynamo.Bus{sigX: 1, sigV: 0})
	if err != nil {
		t.Fatalf("newOscillator: %v", err)
	}
	return &oscillator{StateBase: base}
}

func (o *oscillator) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	return dynamo.Bus{sigXDot: state[sigV], sigVDot: -state[sigX]}, nil
}

func (o *oscillator) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	return dynamo.Bus{sigX: state[sigX]}, nil
}

func run(t *testing.T, integ dynamo.Integrator, blk dynamo.Stateful, dt float64, steps int) dynamo.Bus {
	t.Helper()
	x := blk.InitialCondition()
	for i := 0; i < steps; i++ {
		next, err := integ.Integrate(blk, x, nil, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		x = next
	}
	return x
}

func decayError(t *testing.T, integ dynamo.Integrator, dt float64) float64 {
	blk := newDecay(t, 1.0, 1.0, map[dynamo.Signal]dynamo.Signal{sigX: sigXDot})
	steps := int(math.Round(1.0 / dt))
	x := run(t, integ, blk, dt, steps)
	return math.Abs(x[sigX] - math.Exp(-1.0))
}

func TestConvergenceOrder(t *testing.T) {
	tests := []struct {
		name     string
		integ    dynamo.Integrator
		min, max float64
	}{
		{"euler", NewEuler(), 1.8, 2.2},
		{"rk4", NewRK4(), 14, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coarse := decayError(t, tt.integ, 0.1)
			fine := decayError(t, tt.integ, 0.05)
			ratio := coarse / fine
			if ratio < tt.min || ratio > tt.max {
				t.Errorf("error ratio %.3f outside [%.1f, %.1f] (errors %e, %e)", ratio, tt.min, tt.max, coarse, fine)
			}
		})
	}
}

func TestRK4Accuracy(t *testing.T) {
	blk := newOscillator(t)
	dt := 0.01
	steps := 100

	x := run(t, NewRK4(), blk, dt, steps)

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[sigX]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[sigX], expectedX)
	}
	if math.Abs(x[sigV]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[sigV], expectedV)
	}
}

func TestEulerSingleStep(t *testing.T) {
	blk := newDecay(t, 2.0, 1.0, map[dynamo.Signal]dynamo.Signal{sigX: sigXDot})
	x, err := NewEuler().Integrate(blk, dynamo.Bus{sigX: 1.0}, nil, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[sigX]-0.8) > 1e-15 {
		t.Errorf("expected 0.8, got %v", x[sigX])
	}
}

func TestIntegrateDoesNotMutateState(t *testing.T) {
	for _, integ := range []dynamo.Integrator{NewEuler(), NewRK4()} {
		blk := newOscillator(t)
		state := dynamo.Bus{sigX: 1, sigV: 0}
		if _, err := integ.Integrate(blk, state, nil, 0.1); err != nil {
			t.Fatal(err)
		}
		if state[sigX] != 1 || state[sigV] != 0 {
			t.Errorf("%T mutated state: %v", integ, state)
		}
	}
}

func TestMissingDerivativeMapping(t *testing.T) {
	for _, integ := range []dynamo.Integrator{NewEuler(), NewRK4()} {
		blk := newDecay(t, 1.0, 1.0, map[dynamo.Signal]dynamo.Signal{})
		_, err := integ.Integrate(blk, blk.InitialCondition(), nil, 0.1)
		if !errors.Is(err, dynamo.ErrMissingDerivativeMapping) {
			t.Errorf("%T: expected ErrMissingDerivativeMapping, got %v", integ, err)
		}
	}
}

func TestMissingDerivativeSignal(t *testing.T) {
	blk := newDecay(t, 1.0, 1.0, map[dynamo.Signal]dynamo.Signal{sigX: sigVDot})
	_, err := NewRK4().Integrate(blk, blk.InitialCondition(), nil, 0.1)
	if !errors.Is(err, dynamo.ErrMissingSignal) {
		t.Errorf("expected ErrMissingSignal, got %v", err)
	}
}
