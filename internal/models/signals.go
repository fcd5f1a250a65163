// Package models holds the physical blocks of a launcher pitch control loop:
// a thrust-vectored rigid body, a second order nozzle actuator, a noisy
// angle sensor and a proportional controller.
package models

import "github.com/san-kum/blocksim/internal/dynamo"

// Loop signals. Blocks share these so that wiring reads naturally.
var (
	Angle               = dynamo.NewSignal("theta")
	AngularVelocity     = dynamo.NewSignal("thetaD")
	AngularAcceleration = dynamo.NewSignal("thetaDD")

	MeasuredAngle = dynamo.NewSignal("theta_m")

	CommandedDeflection = dynamo.NewSignal("beta_c")
	Deflection          = dynamo.NewSignal("beta")
	DeflectionRate      = dynamo.NewSignal("betaD")
	DeflectionAccel     = dynamo.NewSignal("betaDD")
)

// Parameters.
var (
	Inertia = dynamo.NewSignal("I")
	Arm     = dynamo.NewSignal("l")
	Thrust  = dynamo.NewSignal("T")

	ScaleFactor   = dynamo.NewSignal("s")
	Bias          = dynamo.NewSignal("b")
	NoiseVariance = dynamo.NewSignal("sigma2")

	NaturalFrequency = dynamo.NewSignal("omega")
	DampingRatio     = dynamo.NewSignal("zeta")

	ControllerGain = dynamo.NewSignal("Kp")
	Reference      = dynamo.NewSignal("theta_r")
)
