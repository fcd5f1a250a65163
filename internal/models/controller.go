package models

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Controller commands a deflection proportional to the angle error:
// beta_c = Kp (theta_m - theta_r).
type Controller struct {
	dynamo.Base
}

type ControllerConfig struct {
	Gain      float64
	Reference float64
	Period    float64
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{Gain: -1}
}

func NewController(name string, cfg ControllerConfig) (*Controller, error) {
	base, err := dynamo.NewBase(dynamo.Definition{
		Name:         name,
		Inputs:       []dynamo.Signal{MeasuredAngle},
		Outputs:      []dynamo.Signal{CommandedDeflection},
		Parameters:   []dynamo.Signal{ControllerGain, Reference},
		UpdatePeriod: cfg.Period,
	}, dynamo.Bus{ControllerGain: cfg.Gain, Reference: cfg.Reference})
	if err != nil {
		return nil, errors.Wrapf(err, "controller %q", name)
	}
	return &Controller{Base: base}, nil
}

func (c *Controller) Output(input dynamo.Bus) (dynamo.Bus, error) {
	if err := c.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	return dynamo.Bus{
		CommandedDeflection: c.Param(ControllerGain) * (input[MeasuredAngle] - c.Param(Reference)),
	}, nil
}
