package models

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Sensor measures the pitch angle with a scale factor error, a bias and
// gaussian noise: theta_m = s theta + b + sqrt(sigma2) n.
type Sensor struct {
	dynamo.Base
	rng *rand.Rand
}

type SensorConfig struct {
	ScaleFactor   float64
	Bias          float64
	NoiseVariance float64
	Seed          int64
	Period        float64
}

func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		ScaleFactor: 1.01,
		Bias:        0.1,
		Seed:        42,
	}
}

func NewSensor(name string, cfg SensorConfig) (*Sensor, error) {
	if cfg.NoiseVariance < 0 {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock, "sensor %q: negative noise variance %g", name, cfg.NoiseVariance)
	}
	base, err := dynamo.NewBase(dynamo.Definition{
		Name:         name,
		Inputs:       []dynamo.Signal{Angle},
		Outputs:      []dynamo.Signal{MeasuredAngle},
		Parameters:   []dynamo.Signal{ScaleFactor, Bias, NoiseVariance},
		UpdatePeriod: cfg.Period,
	}, dynamo.Bus{ScaleFactor: cfg.ScaleFactor, Bias: cfg.Bias, NoiseVariance: cfg.NoiseVariance})
	if err != nil {
		return nil, errors.Wrapf(err, "sensor %q", name)
	}
	return &Sensor{Base: base, rng: rand.New(rand.NewSource(cfg.Seed))}, nil
}

func (s *Sensor) Output(input dynamo.Bus) (dynamo.Bus, error) {
	if err := s.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	m := input[Angle]*s.Param(ScaleFactor) + s.Param(Bias)
	if v := s.Param(NoiseVariance); v > 0 {
		m += math.Sqrt(v) * s.rng.NormFloat64()
	}
	return dynamo.Bus{MeasuredAngle: m}, nil
}
