package dynamo

// Definition declares the signal sets of a block.
type Definition struct {
	Name         string
	Inputs       []Signal
	Outputs      []Signal
	Parameters   []Signal
	UpdatePeriod float64
}

// StateDefinition extends Definition for stateful blocks.
type StateDefinition struct {
	Definition
	States        []Signal
	Derivatives   map[Signal]Signal
	InputRequired bool
}

// Base implements the Block accessors and the pre-condition guards. Concrete
// blocks embed it and add Output (and, for stateful blocks, Derivative).
type Base struct {
	def       Definition
	parameter Bus
}

// NewBase validates that parameter carries every declared parameter signal.
func NewBase(def Definition, parameter Bus) (Base, error) {
	if err := Check(parameter, def.Name, "parameter", def.Parameters); err != nil {
		return Base{}, err
	}
	return Base{def: def, parameter: parameter.Clone()}, nil
}

func (b *Base) Name() string          { return b.def.Name }
func (b *Base) Inputs() []Signal      { return b.def.Inputs }
func (b *Base) Outputs() []Signal     { return b.def.Outputs }
func (b *Base) Parameters() []Signal  { return b.def.Parameters }
func (b *Base) Parameter() Bus        { return b.parameter }
func (b *Base) UpdatePeriod() float64 { return b.def.UpdatePeriod }
func (b *Base) String() string        { return b.def.Name }

// Param returns the value of a parameter signal.
func (b *Base) Param(s Signal) float64 {
	return b.parameter[s]
}

func (b *Base) CheckInput(input Bus) error {
	return Check(input, b.def.Name, "input", b.def.Inputs)
}

func (b *Base) CheckOutput(output Bus) error {
	return Check(output, b.def.Name, "output", b.def.Outputs)
}

func (b *Base) CheckParameter(parameter Bus) error {
	return Check(parameter, b.def.Name, "parameter", b.def.Parameters)
}

// StateBase adds the stateful part of the contract to Base.
type StateBase struct {
	Base
	states        []Signal
	initial       Bus
	derivatives   map[Signal]Signal
	inputRequired bool
}

// NewStateBase validates parameters and the initial condition.
func NewStateBase(def StateDefinition, parameter, initialCondition Bus) (StateBase, error) {
	base, err := NewBase(def.Definition, parameter)
	if err != nil {
		return StateBase{}, err
	}
	if err := Check(initialCondition, def.Name, "state", def.States); err != nil {
		return StateBase{}, err
	}
	derivatives := make(map[Signal]Signal, len(def.Derivatives))
	for s, d := range def.Derivatives {
		derivatives[s] = d
	}
	return StateBase{
		Base:          base,
		states:        def.States,
		initial:       initialCondition.Clone(),
		derivatives:   derivatives,
		inputRequired: def.InputRequired,
	}, nil
}

func (b *StateBase) States() []Signal               { return b.states }
func (b *StateBase) InputRequired() bool            { return b.inputRequired }
func (b *StateBase) Derivatives() map[Signal]Signal { return b.derivatives }

// InitialCondition returns a copy so that solvers never share state storage.
func (b *StateBase) InitialCondition() Bus {
	return b.initial.Clone()
}

func (b *StateBase) CheckState(state Bus) error {
	return Check(state, b.Name(), "state", b.states)
}
