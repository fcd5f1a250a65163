package models

import (
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Plant is the pitch axis of a launcher steered by nozzle deflection:
//
//	theta'' = T l / I sin(beta)
type Plant struct {
	dynamo.StateBase
}

type PlantConfig struct {
	Inertia float64
	Arm     float64
	Thrust  float64
	Angle0  float64
	Rate0   float64
	Period  float64
}

func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		Inertia: 10,
		Arm:     1,
		Thrust:  100,
		Angle0:  0,
		Rate0:   0.1,
	}
}

func NewPlant(name string, cfg PlantConfig) (*Plant, error) {
	if cfg.Inertia == 0 {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock, "plant %q: zero moment of inertia", name)
	}
	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition: dynamo.Definition{
			Name:         name,
			Inputs:       []dynamo.Signal{Deflection},
			Outputs:      []dynamo.Signal{Angle},
			Parameters:   []dynamo.Signal{Inertia, Arm, Thrust},
			UpdatePeriod: cfg.Period,
		},
		States: []dynamo.Signal{Angle, AngularVelocity},
		Derivatives: map[dynamo.Signal]dynamo.Signal{
			Angle:           AngularVelocity,
			AngularVelocity: AngularAcceleration,
		},
	},
		dynamo.Bus{Inertia: cfg.Inertia, Arm: cfg.Arm, Thrust: cfg.Thrust},
		dynamo.Bus{Angle: cfg.Angle0, AngularVelocity: cfg.Rate0},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "plant %q", name)
	}
	return &Plant{StateBase: base}, nil
}

func (p *Plant) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := p.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := p.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	k := p.Param(Thrust) * p.Param(Arm) / p.Param(Inertia)
	return dynamo.Bus{
		AngularVelocity:     state[AngularVelocity],
		AngularAcceleration: k * math.Sin(input[Deflection]),
	}, nil
}

func (p *Plant) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := p.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{Angle: state[Angle]}, nil
}
