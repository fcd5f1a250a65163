package sim

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/integrators"
)

// Option configures a Solver.
type Option func(*options)

type options struct {
	integrator dynamo.Integrator
	epsilon    float64
	logger     *slog.Logger
}

// WithIntegrator selects the integration scheme for continuous blocks.
// The default is RK4.
func WithIntegrator(i dynamo.Integrator) Option {
	return func(o *options) { o.integrator = i }
}

// WithEpsilon sets the tolerance used when computing the minor frame.
func WithEpsilon(eps float64) Option {
	return func(o *options) { o.epsilon = eps }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type target struct {
	block  int
	signal dynamo.Signal
}

// node is the solver-side runtime record of one block.
type node struct {
	block    dynamo.Block
	direct   dynamo.Direct
	stateful dynamo.Stateful
	discrete dynamo.Discrete

	period   float64
	relative int

	deps       []int
	dependents []int
	fanout     map[dynamo.Signal][]target
	inputs     map[dynamo.Signal]bool

	input  dynamo.Bus
	output dynamo.Bus
	state  dynamo.Bus
}

// Solver schedules a fixed set of blocks. Each cycle is one Solve followed
// by one Update; the caller owns the loop.
type Solver struct {
	nodes []node
	index map[dynamo.Block]int
	order []int

	minor   float64
	major   float64
	counter int

	integrator dynamo.Integrator
	epsilon    float64
	logger     *slog.Logger
}

// NewSolver validates the blocks and links, resolves the execution order and
// computes the frames. A block with UpdatePeriod 0 runs at defaultPeriod.
func NewSolver(blocks []dynamo.Block, links []dynamo.Link, defaultPeriod float64, opts ...Option) (*Solver, error) {
	o := options{
		integrator: integrators.NewRK4(),
		epsilon:    DefaultEpsilon,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Solver{
		nodes:      make([]node, 0, len(blocks)),
		index:      make(map[dynamo.Block]int, len(blocks)),
		integrator: o.integrator,
		epsilon:    o.epsilon,
		logger:     o.logger,
	}

	for _, blk := range blocks {
		if err := s.register(blk); err != nil {
			return nil, err
		}
	}

	sources, err := s.wire(links)
	if err != nil {
		return nil, err
	}
	s.dependencies(sources)

	order, err := s.resolveOrder()
	if err != nil {
		return nil, err
	}
	if err := s.checkAlgebraicLoops(order); err != nil {
		return nil, err
	}
	s.order = order

	if err := s.computeFrames(defaultPeriod); err != nil {
		return nil, err
	}

	s.logger.Debug("solver ready",
		"blocks", len(s.nodes),
		"links", len(links),
		"order", s.names(s.order),
		"minor_frame", s.minor,
		"major_frame", s.major,
	)
	return s, nil
}

func (s *Solver) register(blk dynamo.Block) error {
	if blk == nil {
		return fmt.Errorf("%w: nil block", dynamo.ErrUnsupportedBlockKind)
	}
	if !reflect.TypeOf(blk).Comparable() {
		return fmt.Errorf("%w: block %q has an uncomparable type %T", dynamo.ErrUnsupportedBlockKind, blk.Name(), blk)
	}
	if _, dup := s.index[blk]; dup {
		return fmt.Errorf("%w: %q", dynamo.ErrDuplicateBlock, blk.Name())
	}

	n := node{
		block:  blk,
		fanout: make(map[dynamo.Signal][]target),
		inputs: make(map[dynamo.Signal]bool, len(blk.Inputs())),
		input:  dynamo.Bus{},
		output: dynamo.Bus{},
	}
	for _, sig := range blk.Inputs() {
		n.inputs[sig] = true
	}

	switch b := blk.(type) {
	case dynamo.Stateful:
		n.stateful = b
		n.discrete, _ = b.(dynamo.Discrete)
		n.state = b.InitialCondition().Clone()
		if err := dynamo.Check(n.state, blk.Name(), "state", b.States()); err != nil {
			return err
		}
	case dynamo.Direct:
		n.direct = b
	default:
		return fmt.Errorf("%w: block %q (%T)", dynamo.ErrUnsupportedBlockKind, blk.Name(), blk)
	}

	s.index[blk] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return nil
}

// wire builds the fanout lists and returns, per block, the distinct blocks
// feeding it in link order.
func (s *Solver) wire(links []dynamo.Link) ([][]int, error) {
	sources := make([][]int, len(s.nodes))
	driven := make(map[target]dynamo.Link, len(links))

	for _, l := range links {
		from, ok := s.lookup(l.From.Block)
		if !ok {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownBlock, portName(l.From))
		}
		to, ok := s.lookup(l.To.Block)
		if !ok {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownBlock, portName(l.To))
		}
		if !slices.Contains(s.nodes[from].block.Outputs(), l.From.Signal) {
			return nil, fmt.Errorf("%w: link %s -> %s: %s is not an output",
				dynamo.ErrMissingSignal, portName(l.From), portName(l.To), portName(l.From))
		}
		if !s.nodes[to].inputs[l.To.Signal] {
			return nil, fmt.Errorf("%w: link %s -> %s: %s is not an input",
				dynamo.ErrMissingSignal, portName(l.From), portName(l.To), portName(l.To))
		}

		t := target{block: to, signal: l.To.Signal}
		if prev, dup := driven[t]; dup {
			return nil, fmt.Errorf("%w: %s is driven by %s and %s",
				dynamo.ErrFanIn, portName(l.To), portName(prev.From), portName(l.From))
		}
		driven[t] = l

		s.nodes[from].fanout[l.From.Signal] = append(s.nodes[from].fanout[l.From.Signal], t)
		if !slices.Contains(sources[to], from) {
			sources[to] = append(sources[to], from)
		}
	}
	return sources, nil
}

func (s *Solver) lookup(blk dynamo.Block) (int, bool) {
	if blk == nil || !reflect.TypeOf(blk).Comparable() {
		return 0, false
	}
	i, ok := s.index[blk]
	return i, ok
}

// Solve computes the outputs of every block ready on the current cycle in
// execution order and propagates them along the links. Blocks that are not
// ready keep their previous outputs.
func (s *Solver) Solve() error {
	for _, i := range s.order {
		n := &s.nodes[i]
		if !s.ready(n) {
			continue
		}

		out, err := s.evaluate(n)
		if err != nil {
			return s.cycleError(n, "solve", err)
		}
		if err := dynamo.Check(out, n.block.Name(), "output", n.block.Outputs()); err != nil {
			return s.cycleError(n, "solve", err)
		}
		n.output = out

		for _, sig := range n.block.Outputs() {
			v := out[sig]
			for _, t := range n.fanout[sig] {
				s.nodes[t.block].input[t.signal] = v
			}
		}
	}
	return nil
}

func (s *Solver) evaluate(n *node) (dynamo.Bus, error) {
	switch {
	case n.stateful != nil:
		if !n.stateful.InputRequired() {
			return n.stateful.Output(n.state, nil)
		}
		if err := dynamo.Check(n.input, n.block.Name(), "input", n.block.Inputs()); err != nil {
			return nil, err
		}
		return n.stateful.Output(n.state, n.input)
	case n.direct != nil:
		if err := dynamo.Check(n.input, n.block.Name(), "input", n.block.Inputs()); err != nil {
			return nil, err
		}
		return n.direct.Output(n.input)
	}
	return nil, dynamo.ErrUnsupportedBlockKind
}

// Update advances the state of every ready stateful block by its own update
// period, then increments the cycle counter.
func (s *Solver) Update() error {
	for _, i := range s.order {
		n := &s.nodes[i]
		if n.stateful == nil || !s.ready(n) {
			continue
		}

		next, err := s.advance(n)
		if err != nil {
			return s.cycleError(n, "update", err)
		}
		if err := dynamo.Check(next, n.block.Name(), "state", n.stateful.States()); err != nil {
			return s.cycleError(n, "update", err)
		}
		n.state = next
	}
	s.counter++
	return nil
}

func (s *Solver) advance(n *node) (dynamo.Bus, error) {
	if n.discrete != nil {
		return n.discrete.Next(n.state, n.input)
	}
	return s.integrator.Integrate(n.stateful, n.state, n.input, n.period)
}

// Step runs one full cycle.
func (s *Solver) Step() error {
	if err := s.Solve(); err != nil {
		return err
	}
	return s.Update()
}

// Reset rewinds the solver to cycle 0 with every state at its initial
// condition and every bus empty.
func (s *Solver) Reset() {
	for i := range s.nodes {
		n := &s.nodes[i]
		n.input = dynamo.Bus{}
		n.output = dynamo.Bus{}
		if n.stateful != nil {
			n.state = n.stateful.InitialCondition().Clone()
		}
	}
	s.counter = 0
}

func (s *Solver) ready(n *node) bool {
	return s.counter%n.relative == 0
}

func (s *Solver) cycleError(n *node, phase string, err error) error {
	return &dynamo.CycleError{
		Cycle:   s.counter,
		Time:    s.Time(),
		Block:   n.block.Name(),
		Phase:   phase,
		Wrapped: err,
	}
}

// Counter is the number of completed cycles.
func (s *Solver) Counter() int { return s.counter }

// Time is the simulation time of the current cycle: Counter * MinorFrame.
func (s *Solver) Time() float64 { return float64(s.counter) * s.minor }

func (s *Solver) MinorFrame() float64 { return s.minor }
func (s *Solver) MajorFrame() float64 { return s.major }

func (s *Solver) Integrator() dynamo.Integrator { return s.integrator }

// Blocks returns the blocks in declaration order.
func (s *Solver) Blocks() []dynamo.Block {
	out := make([]dynamo.Block, len(s.nodes))
	for i := range s.nodes {
		out[i] = s.nodes[i].block
	}
	return out
}

// Order returns the blocks in execution order.
func (s *Solver) Order() []dynamo.Block {
	out := make([]dynamo.Block, len(s.order))
	for k, i := range s.order {
		out[k] = s.nodes[i].block
	}
	return out
}

// Lookup finds a block by name.
func (s *Solver) Lookup(name string) (dynamo.Block, bool) {
	for i := range s.nodes {
		if s.nodes[i].block.Name() == name {
			return s.nodes[i].block, true
		}
	}
	return nil, false
}

// Period returns the resolved update period of blk.
func (s *Solver) Period(blk dynamo.Block) (float64, bool) {
	i, ok := s.lookup(blk)
	if !ok {
		return 0, false
	}
	return s.nodes[i].period, true
}

// RelativePeriod returns blk's update period in minor frames.
func (s *Solver) RelativePeriod(blk dynamo.Block) (int, bool) {
	i, ok := s.lookup(blk)
	if !ok {
		return 0, false
	}
	return s.nodes[i].relative, true
}

// Ready reports whether blk runs on the current cycle.
func (s *Solver) Ready(blk dynamo.Block) bool {
	i, ok := s.lookup(blk)
	return ok && s.ready(&s.nodes[i])
}

// Input returns a copy of blk's input bus.
func (s *Solver) Input(blk dynamo.Block) dynamo.Bus {
	if i, ok := s.lookup(blk); ok {
		return s.nodes[i].input.Clone()
	}
	return nil
}

// Output returns a copy of blk's latest output bus.
func (s *Solver) Output(blk dynamo.Block) dynamo.Bus {
	if i, ok := s.lookup(blk); ok {
		return s.nodes[i].output.Clone()
	}
	return nil
}

// State returns a copy of blk's state bus, or nil for direct blocks.
func (s *Solver) State(blk dynamo.Block) dynamo.Bus {
	if i, ok := s.lookup(blk); ok && s.nodes[i].stateful != nil {
		return s.nodes[i].state.Clone()
	}
	return nil
}

// SetInput writes an external value into one of blk's declared inputs.
// Values written to linked inputs are overwritten by the next Solve.
func (s *Solver) SetInput(blk dynamo.Block, sig dynamo.Signal, v float64) error {
	i, ok := s.lookup(blk)
	if !ok {
		return fmt.Errorf("%w: %v", dynamo.ErrUnknownBlock, blk)
	}
	n := &s.nodes[i]
	if !n.inputs[sig] {
		return &dynamo.SignalError{Block: n.block.Name(), Role: "input", Signal: sig}
	}
	n.input[sig] = v
	return nil
}

func portName(p dynamo.Port) string {
	if p.Block == nil {
		return fmt.Sprintf("<nil>.%s", p.Signal)
	}
	return fmt.Sprintf("%s.%s", p.Block.Name(), p.Signal)
}
