package blocks

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// discrete supplies the continuous half of the stateful contract for blocks
// that only evolve through Next.
type discrete struct {
	dynamo.StateBase
}

func (d *discrete) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	return nil, errors.Wrapf(dynamo.ErrMissingDerivativeMapping, "%s is a discrete block", d.Name())
}

// Timer counts update cycles modulo max+1: x{n+1} = (x{n}+1) mod (max+1),
// y = x.
type Timer struct {
	discrete
	out, current, max dynamo.Signal
}

func NewTimer(name string, out dynamo.Signal, maximum int, period float64) (*Timer, error) {
	if maximum < 0 {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock, "timer %q: negative maximum %d", name, maximum)
	}
	t := &Timer{
		out:     out,
		current: dynamo.NewSignal(name + ".count"),
		max:     dynamo.NewSignal(name + ".max"),
	}
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition: dynamo.Definition{
			Name:         name,
			Outputs:      []dynamo.Signal{out},
			Parameters:   []dynamo.Signal{t.max},
			UpdatePeriod: period,
		},
		States: []dynamo.Signal{t.current},
	}, dynamo.Bus{t.max: float64(maximum)}, dynamo.Bus{t.current: 0})
	if err != nil {
		return nil, errors.Wrapf(err, "timer %q", name)
	}
	t.StateBase = base
	return t, nil
}

func (t *Timer) Next(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := t.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{t.current: math.Mod(state[t.current]+1, t.Param(t.max)+1)}, nil
}

func (t *Timer) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := t.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{t.out: state[t.current]}, nil
}

// ZeroOrderHold delays its input by one update: x{n+1} = u{n}, y = x. It
// never needs the current input to produce its output, so it breaks
// algebraic loops and resamples faster signals at its own period.
type ZeroOrderHold struct {
	discrete
	in, out, held dynamo.Signal
}

func NewZeroOrderHold(name string, in, out dynamo.Signal, period float64) (*ZeroOrderHold, error) {
	z := &ZeroOrderHold{
		in:   in,
		out:  out,
		held: dynamo.NewSignal(name + ".held"),
	}
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition: dynamo.Definition{
			Name:         name,
			Inputs:       []dynamo.Signal{in},
			Outputs:      []dynamo.Signal{out},
			UpdatePeriod: period,
		},
		States: []dynamo.Signal{z.held},
	}, nil, dynamo.Bus{z.held: 0})
	if err != nil {
		return nil, errors.Wrapf(err, "zero order hold %q", name)
	}
	z.StateBase = base
	return z, nil
}

func (z *ZeroOrderHold) Next(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := z.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{z.held: input[z.in]}, nil
}

func (z *ZeroOrderHold) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := z.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{z.out: state[z.held]}, nil
}

// Clock outputs simulation time sampled at its own update period.
type Clock struct {
	dynamo.StateBase
	out, t, rate dynamo.Signal
}

// NewClock builds a clock. Its state integrates dt/dt = 1, so y equals
// counter times the clock's update period whichever integrator runs it.
func NewClock(name string, out dynamo.Signal, period float64) (*Clock, error) {
	c := &Clock{
		out:  out,
		t:    dynamo.NewSignal(name + ".t"),
		rate: dynamo.NewSignal(name + ".rate"),
	}
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition: dynamo.Definition{
			Name:         name,
			Outputs:      []dynamo.Signal{out},
			UpdatePeriod: period,
		},
		States:      []dynamo.Signal{c.t},
		Derivatives: map[dynamo.Signal]dynamo.Signal{c.t: c.rate},
	}, nil, dynamo.Bus{c.t: 0})
	if err != nil {
		return nil, errors.Wrapf(err, "clock %q", name)
	}
	c.StateBase = base
	return c, nil
}

func (c *Clock) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	return dynamo.Bus{c.rate: 1}, nil
}

func (c *Clock) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := c.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{c.out: state[c.t]}, nil
}
