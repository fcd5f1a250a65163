package experiment

import (
	"math"

	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/metrics"
	"github.com/san-kum/blocksim/internal/models"
	"github.com/san-kum/blocksim/internal/sim"
)

func pitchDefaults() Params {
	return Params{
		"I":       10,
		"l":       1,
		"T":       100,
		"theta0":  0,
		"thetaD0": 0.1,
		"s":       1.01,
		"b":       0.1,
		"sigma2":  0,
		"omega":   80,
		"zeta":    0.7,
		"Kp":      -1,
		"theta_r": 0,
	}
}

type pitchLoop struct {
	sensor     *models.Sensor
	controller *models.Controller
	actuator   *models.Actuator
	plant      *models.Plant
}

func newPitchLoop(p Params, seed int64, controlPeriod float64) (*pitchLoop, error) {
	var (
		l   pitchLoop
		err error
	)
	l.sensor, err = models.NewSensor("sensor", models.SensorConfig{
		ScaleFactor:   p["s"],
		Bias:          p["b"],
		NoiseVariance: p["sigma2"],
		Seed:          seed,
	})
	if err != nil {
		return nil, err
	}
	l.controller, err = models.NewController("controller", models.ControllerConfig{
		Gain:      p["Kp"],
		Reference: p["theta_r"],
		Period:    controlPeriod,
	})
	if err != nil {
		return nil, err
	}
	l.actuator, err = models.NewActuator("actuator", models.ActuatorConfig{
		NaturalFrequency: p["omega"],
		DampingRatio:     p["zeta"],
	})
	if err != nil {
		return nil, err
	}
	l.plant, err = models.NewPlant("plant", models.PlantConfig{
		Inertia: p["I"],
		Arm:     p["l"],
		Thrust:  p["T"],
		Angle0:  p["theta0"],
		Rate0:   p["thetaD0"],
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *pitchLoop) probes() []sim.Probe {
	return []sim.Probe{
		sim.OutputProbe("theta", l.plant, models.Angle),
		sim.StateProbe("thetaD", l.plant, models.AngularVelocity),
		sim.OutputProbe("theta_m", l.sensor, models.MeasuredAngle),
		sim.OutputProbe("beta_c", l.controller, models.CommandedDeflection),
		sim.OutputProbe("beta", l.actuator, models.Deflection),
	}
}

func pitchMetrics(p Params) []sim.Metric {
	return []sim.Metric{
		metrics.NewTrackingError("theta", p["theta_r"]),
		metrics.NewControlEffort("beta_c"),
		metrics.NewStability(math.Pi/2, "theta"),
		metrics.NewPeak("beta"),
	}
}

func pitch() Scenario {
	return Scenario{
		Name:        "pitch",
		Description: "launcher pitch loop: sensor, proportional controller, nozzle actuator, rigid body",
		Period:      0.01,
		Duration:    10,
		Defaults:    pitchDefaults(),
		Build: func(p Params, seed int64) (*Diagram, error) {
			l, err := newPitchLoop(p, seed, 0)
			if err != nil {
				return nil, err
			}
			return &Diagram{
				Blocks: []dynamo.Block{l.sensor, l.controller, l.actuator, l.plant},
				Links: []dynamo.Link{
					dynamo.Connect(l.sensor, models.MeasuredAngle, l.controller, models.MeasuredAngle),
					dynamo.Connect(l.controller, models.CommandedDeflection, l.actuator, models.CommandedDeflection),
					dynamo.Connect(l.actuator, models.Deflection, l.plant, models.Deflection),
					dynamo.Connect(l.plant, models.Angle, l.sensor, models.Angle),
				},
				Probes:  l.probes(),
				Metrics: pitchMetrics(p),
			}, nil
		},
	}
}

func pitchMultirate() Scenario {
	defaults := pitchDefaults()
	defaults["control_period"] = 0.05
	return Scenario{
		Name:        "pitch_multirate",
		Description: "pitch loop with the controller sampling a held measurement at a slower rate",
		Period:      0.01,
		Duration:    10,
		Defaults:    defaults,
		Build: func(p Params, seed int64) (*Diagram, error) {
			l, err := newPitchLoop(p, seed, p["control_period"])
			if err != nil {
				return nil, err
			}
			sampled := dynamo.NewSignal("theta_s")
			hold, err := blocks.NewZeroOrderHold("hold", models.MeasuredAngle, sampled, p["control_period"])
			if err != nil {
				return nil, err
			}
			return &Diagram{
				Blocks: []dynamo.Block{l.sensor, hold, l.controller, l.actuator, l.plant},
				Links: []dynamo.Link{
					dynamo.Connect(l.sensor, models.MeasuredAngle, hold, models.MeasuredAngle),
					dynamo.Connect(hold, sampled, l.controller, models.MeasuredAngle),
					dynamo.Connect(l.controller, models.CommandedDeflection, l.actuator, models.CommandedDeflection),
					dynamo.Connect(l.actuator, models.Deflection, l.plant, models.Deflection),
					dynamo.Connect(l.plant, models.Angle, l.sensor, models.Angle),
				},
				Probes:  append(l.probes(), sim.OutputProbe("theta_s", hold, sampled)),
				Metrics: pitchMetrics(p),
			}, nil
		},
	}
}

func tfStep() Scenario {
	return Scenario{
		Name:        "tf_step",
		Description: "unit step into a first order lag and a second order servo",
		Period:      0.01,
		Duration:    5,
		Defaults: Params{
			"t0":     0.1,
			"amp":    1,
			"K1":     1,
			"tau":    0.5,
			"K2":     1,
			"omega":  5,
			"zeta":   0.3,
			"period": 0,
		},
		Build: func(p Params, seed int64) (*Diagram, error) {
			ts, u := dynamo.NewSignal("t"), dynamo.NewSignal("u")
			u1, y1 := dynamo.NewSignal("lag.u"), dynamo.NewSignal("y1")
			u2, y2 := dynamo.NewSignal("servo.u"), dynamo.NewSignal("y2")

			clock, err := blocks.NewClock("clock", ts, 0)
			if err != nil {
				return nil, err
			}
			step, err := blocks.NewFunction("step", ts, u, blocks.Step(p["t0"], p["amp"]))
			if err != nil {
				return nil, err
			}
			lag, err := blocks.NewFirstOrder("lag", u1, y1, p["K1"], p["tau"], p["period"])
			if err != nil {
				return nil, err
			}
			servo, err := blocks.NewSecondOrder("servo", u2, y2, p["K2"], p["omega"], p["zeta"], p["period"])
			if err != nil {
				return nil, err
			}
			return &Diagram{
				Blocks: []dynamo.Block{clock, step, lag, servo},
				Links: []dynamo.Link{
					dynamo.Connect(clock, ts, step, ts),
					dynamo.Connect(step, u, lag, u1),
					dynamo.Connect(step, u, servo, u2),
				},
				Probes: []sim.Probe{
					sim.OutputProbe("u", step, u),
					sim.OutputProbe("y1", lag, y1),
					sim.OutputProbe("y2", servo, y2),
				},
				Metrics: []sim.Metric{
					metrics.NewTrackingError("y1", p["K1"]*p["amp"]),
					metrics.NewPeak("y2"),
				},
			}, nil
		},
	}
}

func pidLoop() Scenario {
	return Scenario{
		Name:        "pid_loop",
		Description: "PID controller closing a unity feedback loop around a first order plant",
		Period:      0.005,
		Duration:    5,
		Defaults: Params{
			"ref": 1,
			"Kp":  2,
			"Ti":  0.5,
			"Td":  0.1,
			"N":   10,
			"K":   1,
			"tau": 1,
		},
		Build: func(p Params, seed int64) (*Diagram, error) {
			r, e, u, y := dynamo.NewSignal("r"), dynamo.NewSignal("e"), dynamo.NewSignal("u"), dynamo.NewSignal("y")
			sumRef, sumFb := dynamo.NewSignal("sum.r"), dynamo.NewSignal("sum.y")
			pidIn, plantIn := dynamo.NewSignal("pid.e"), dynamo.NewSignal("plant.u")

			ref, err := blocks.NewConstant("ref", r, p["ref"])
			if err != nil {
				return nil, err
			}
			sum, err := blocks.NewSum("error", e, []dynamo.Signal{sumRef, sumFb}, []float64{1, -1})
			if err != nil {
				return nil, err
			}
			pid, err := blocks.NewPID("pid", pidIn, u, p["Kp"], p["Ti"], p["Td"], p["N"], 0)
			if err != nil {
				return nil, err
			}
			plant, err := blocks.NewFirstOrder("plant", plantIn, y, p["K"], p["tau"], 0)
			if err != nil {
				return nil, err
			}
			return &Diagram{
				Blocks: []dynamo.Block{ref, sum, pid, plant},
				Links: []dynamo.Link{
					dynamo.Connect(ref, r, sum, sumRef),
					dynamo.Connect(plant, y, sum, sumFb),
					dynamo.Connect(sum, e, pid, pidIn),
					dynamo.Connect(pid, u, plant, plantIn),
				},
				Probes: []sim.Probe{
					sim.OutputProbe("y", plant, y),
					sim.OutputProbe("u", pid, u),
					sim.OutputProbe("e", sum, e),
				},
				Metrics: []sim.Metric{
					metrics.NewTrackingError("y", p["ref"]),
					metrics.NewControlEffort("u"),
					metrics.NewPeak("y"),
				},
			}, nil
		},
	}
}

func timer() Scenario {
	return Scenario{
		Name:        "timer",
		Description: "clock at the base rate, timer and clock sample hold at a slower rate",
		Period:      0.05,
		Duration:    1,
		Defaults: Params{
			"max":         3,
			"slow_period": 0.1,
		},
		Build: func(p Params, seed int64) (*Diagram, error) {
			ts, count, held := dynamo.NewSignal("t"), dynamo.NewSignal("count"), dynamo.NewSignal("held")
			holdIn := dynamo.NewSignal("hold.u")

			clock, err := blocks.NewClock("clock", ts, 0)
			if err != nil {
				return nil, err
			}
			tm, err := blocks.NewTimer("timer", count, int(p["max"]), p["slow_period"])
			if err != nil {
				return nil, err
			}
			hold, err := blocks.NewZeroOrderHold("hold", holdIn, held, p["slow_period"])
			if err != nil {
				return nil, err
			}
			return &Diagram{
				Blocks: []dynamo.Block{clock, tm, hold},
				Links:  []dynamo.Link{dynamo.Connect(clock, ts, hold, holdIn)},
				Probes: []sim.Probe{
					sim.OutputProbe("clock", clock, ts),
					sim.OutputProbe("count", tm, count),
					sim.OutputProbe("held", hold, held),
				},
			}, nil
		},
	}
}
