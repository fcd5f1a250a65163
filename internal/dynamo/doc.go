// Package dynamo provides the core primitives of the block-diagram kernel.
//
// The package defines the vocabulary shared by the solver, the integrators
// and every block implementation:
//
//   - [Signal]: opaque, identity-compared handle for a scalar quantity
//   - [Bus]: mapping from signals to values, with [Sum] and [Scale]
//   - [Direct]: combinational block, output = f(input, parameter)
//   - [Stateful]: block owning a state bus evolved by a derivative law
//   - [Discrete]: stateful block evolved by a difference equation
//   - [Link]: wire from one block's output signal to another's input
//   - [Integrator]: fixed-step advance of a stateful block
//
// # Example
//
//	var in, out = dynamo.NewSignal("u"), dynamo.NewSignal("y")
//	gain, _ := blocks.NewGain("k", in, out, 2)
//	solver, _ := sim.NewSolver([]dynamo.Block{gain}, nil, 0.01)
//
// Block definitions are immutable once built. Per-cycle buses and state are
// owned by the solver, so a block value may be shared by several solvers.
package dynamo
