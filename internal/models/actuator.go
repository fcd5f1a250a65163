package models

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Actuator is a second order servo driving the nozzle:
//
//	beta'' = w^2 beta_c - w^2 beta - 2 w zeta beta'
type Actuator struct {
	dynamo.StateBase
}

type ActuatorConfig struct {
	NaturalFrequency float64
	DampingRatio     float64
	Deflection0      float64
	Rate0            float64
	Period           float64
}

func DefaultActuatorConfig() ActuatorConfig {
	return ActuatorConfig{
		NaturalFrequency: 80,
		DampingRatio:     0.7,
	}
}

func NewActuator(name string, cfg ActuatorConfig) (*Actuator, error) {
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition: dynamo.Definition{
			Name:         name,
			Inputs:       []dynamo.Signal{CommandedDeflection},
			Outputs:      []dynamo.Signal{Deflection},
			Parameters:   []dynamo.Signal{NaturalFrequency, DampingRatio},
			UpdatePeriod: cfg.Period,
		},
		States: []dynamo.Signal{Deflection, DeflectionRate},
		Derivatives: map[dynamo.Signal]dynamo.Signal{
			Deflection:     DeflectionRate,
			DeflectionRate: DeflectionAccel,
		},
	},
		dynamo.Bus{NaturalFrequency: cfg.NaturalFrequency, DampingRatio: cfg.DampingRatio},
		dynamo.Bus{Deflection: cfg.Deflection0, DeflectionRate: cfg.Rate0},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "actuator %q", name)
	}
	return &Actuator{StateBase: base}, nil
}

func (a *Actuator) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := a.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := a.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	w := a.Param(NaturalFrequency)
	w2 := w * w
	beta, rate := state[Deflection], state[DeflectionRate]
	return dynamo.Bus{
		DeflectionRate:  rate,
		DeflectionAccel: w2*input[CommandedDeflection] - w2*beta - 2*w*a.Param(DampingRatio)*rate,
	}, nil
}

func (a *Actuator) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := a.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{Deflection: state[Deflection]}, nil
}
