package blocks

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Func maps one input value to one output value.
type Func func(u float64) float64

// Function is a memoryless block y = fn(u).
type Function struct {
	dynamo.Base
	in, out dynamo.Signal
	fn      Func
}

func NewFunction(name string, in, out dynamo.Signal, fn Func) (*Function, error) {
	if fn == nil {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock, "function %q: nil function", name)
	}
	base, err := dynamo.NewBase(dynamo.Definition{
		Name:    name,
		Inputs:  []dynamo.Signal{in},
		Outputs: []dynamo.Signal{out},
	}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "function %q", name)
	}
	return &Function{Base: base, in: in, out: out, fn: fn}, nil
}

func (f *Function) Output(input dynamo.Bus) (dynamo.Bus, error) {
	if err := f.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{f.out: f.fn(input[f.in])}, nil
}

func Scale(k float64) Func { return func(u float64) float64 { return k * u } }

func Abs() Func { return math.Abs }
func Sin() Func { return math.Sin }
func Cos() Func { return math.Cos }

// Saturation clamps to [-limit, limit].
func Saturation(limit float64) Func {
	return func(u float64) float64 {
		return math.Max(-limit, math.Min(limit, u))
	}
}

// Step is 0 before t0 and k from t0 on. Feed it a clock.
func Step(t0, k float64) Func {
	return func(t float64) float64 {
		if t < t0 {
			return 0
		}
		return k
	}
}

// Ramp is 0 before t0 and t - t0 from t0 on.
func Ramp(t0 float64) Func {
	return func(t float64) float64 {
		if t < t0 {
			return 0
		}
		return t - t0
	}
}

// Square alternates between low and high with the given period. Feed it a
// clock or a timer.
func Square(low, high, period float64) Func {
	return func(t float64) float64 {
		if math.Mod(t, period) < period/2 {
			return low
		}
		return high
	}
}
