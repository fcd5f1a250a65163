package dynamo

// Block is the part of the block contract shared by every kind of block.
type Block interface {
	Name() string
	Inputs() []Signal
	Outputs() []Signal
	Parameters() []Signal
	Parameter() Bus
	// UpdatePeriod is the block's own period in seconds, or 0 to run at the
	// scheduler default.
	UpdatePeriod() float64
}

// Direct blocks are combinational: the output depends on the current input
// and the parameters only.
type Direct interface {
	Block
	Output(input Bus) (Bus, error)
}

// Stateful blocks own a state bus that persists across cycles.
type Stateful interface {
	Block
	States() []Signal
	InitialCondition() Bus
	// InputRequired reports whether Output needs the current-cycle input.
	// When false the block breaks algebraic loops.
	InputRequired() bool
	// Derivatives maps each state signal to the signal of the derivative bus
	// holding its time derivative.
	Derivatives() map[Signal]Signal
	// Derivative returns a bus keyed by the derivative signals.
	Derivative(state, input Bus) (Bus, error)
	// Output is called with a nil input when InputRequired is false.
	Output(state, input Bus) (Bus, error)
}

// Discrete is implemented by stateful blocks evolving by a difference
// equation. The solver calls Next instead of integrating Derivative.
type Discrete interface {
	Stateful
	Next(state, input Bus) (Bus, error)
}

// Integrator advances a stateful block by one step of length dt. It must not
// mutate state.
type Integrator interface {
	Integrate(blk Stateful, state, input Bus, dt float64) (Bus, error)
}

// Port addresses one signal of one block.
type Port struct {
	Block  Block
	Signal Signal
}

// Link wires an output port to an input port.
type Link struct {
	From Port
	To   Port
}

// Connect is shorthand for building a Link.
func Connect(from Block, out Signal, to Block, in Signal) Link {
	return Link{From: Port{Block: from, Signal: out}, To: Port{Block: to, Signal: in}}
}
