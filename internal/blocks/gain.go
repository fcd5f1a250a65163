package blocks

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Gain is y = k u.
type Gain struct {
	dynamo.Base
	in, out, k dynamo.Signal
}

func NewGain(name string, in, out dynamo.Signal, k float64) (*Gain, error) {
	g := &Gain{in: in, out: out, k: dynamo.NewSignal(name + ".k")}
	base, err := dynamo.NewBase(dynamo.Definition{
		Name:       name,
		Inputs:     []dynamo.Signal{in},
		Outputs:    []dynamo.Signal{out},
		Parameters: []dynamo.Signal{g.k},
	}, dynamo.Bus{g.k: k})
	if err != nil {
		return nil, errors.Wrapf(err, "gain %q", name)
	}
	g.Base = base
	return g, nil
}

func (g *Gain) Output(input dynamo.Bus) (dynamo.Bus, error) {
	if err := g.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{g.out: g.Param(g.k) * input[g.in]}, nil
}

// Sum is y = sum_i sign_i u_i.
type Sum struct {
	dynamo.Base
	out   dynamo.Signal
	signs map[dynamo.Signal]float64
}

func NewSum(name string, out dynamo.Signal, ins []dynamo.Signal, signs []float64) (*Sum, error) {
	if len(ins) == 0 || len(ins) != len(signs) {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock,
			"sum %q: %d inputs and %d signs", name, len(ins), len(signs))
	}
	s := &Sum{out: out, signs: make(map[dynamo.Signal]float64, len(ins))}
	for i, in := range ins {
		if _, dup := s.signs[in]; dup {
			return nil, errors.Wrapf(dynamo.ErrMalformedBlock, "sum %q: input %s listed twice", name, in)
		}
		s.signs[in] = signs[i]
	}
	base, err := dynamo.NewBase(dynamo.Definition{
		Name:    name,
		Inputs:  ins,
		Outputs: []dynamo.Signal{out},
	}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "sum %q", name)
	}
	s.Base = base
	return s, nil
}

func (s *Sum) Output(input dynamo.Bus) (dynamo.Bus, error) {
	if err := s.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	y := 0.0
	for _, in := range s.Inputs() {
		y += s.signs[in] * input[in]
	}
	return dynamo.Bus{s.out: y}, nil
}

// Constant is a source block with no inputs.
type Constant struct {
	dynamo.Base
	out, value dynamo.Signal
}

func NewConstant(name string, out dynamo.Signal, v float64) (*Constant, error) {
	c := &Constant{out: out, value: dynamo.NewSignal(name + ".value")}
	base, err := dynamo.NewBase(dynamo.Definition{
		Name:       name,
		Outputs:    []dynamo.Signal{out},
		Parameters: []dynamo.Signal{c.value},
	}, dynamo.Bus{c.value: v})
	if err != nil {
		return nil, errors.Wrapf(err, "constant %q", name)
	}
	c.Base = base
	return c, nil
}

func (c *Constant) Output(input dynamo.Bus) (dynamo.Bus, error) {
	return dynamo.Bus{c.out: c.Param(c.value)}, nil
}
