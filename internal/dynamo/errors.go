package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for block construction, wiring and execution.
var (
	// ErrMissingSignal indicates a required signal absent from a bus.
	ErrMissingSignal = errors.New("dynamo: missing signal")

	// ErrMissingDerivativeMapping indicates a state signal with no derivative.
	ErrMissingDerivativeMapping = errors.New("dynamo: state signal has no derivative mapping")

	// ErrUnsupportedBlockKind indicates a block that is neither Direct nor Stateful.
	ErrUnsupportedBlockKind = errors.New("dynamo: unsupported block kind")

	// ErrAlgebraicLoop indicates a dependency graph that cannot be ordered.
	ErrAlgebraicLoop = errors.New("dynamo: algebraic loop detected")

	// ErrMalformedBlock indicates an inconsistent block definition.
	ErrMalformedBlock = errors.New("dynamo: malformed block definition")

	// ErrFanIn indicates two links writing the same input signal.
	ErrFanIn = errors.New("dynamo: input signal driven by more than one link")

	// ErrUnknownBlock indicates a link naming a block the solver does not own.
	ErrUnknownBlock = errors.New("dynamo: link refers to unknown block")

	// ErrDuplicateBlock indicates the same block instance registered twice.
	ErrDuplicateBlock = errors.New("dynamo: block registered more than once")

	// ErrInvalidPeriod indicates a non-positive or non-finite update period.
	ErrInvalidPeriod = errors.New("dynamo: invalid update period")
)

// SignalError reports which block and bus lacked a signal.
type SignalError struct {
	Block  string
	Role   string // parameter, input, output, state, derivative
	Signal Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("dynamo: block %q: %s signal %s is not found in the bus", e.Block, e.Role, e.Signal)
}

func (e *SignalError) Unwrap() error {
	return ErrMissingSignal
}

// LoopError names the blocks whose outputs could not be ordered.
type LoopError struct {
	// Stalled holds every block left unresolved, in declaration order.
	Stalled []string
	// Cycles holds the strongly connected groups that form the loops.
	Cycles [][]string
}

func (e *LoopError) Error() string {
	var sb strings.Builder
	sb.WriteString("dynamo: algebraic loop detected: cannot compute the output of ")
	sb.WriteString(strings.Join(e.Stalled, ", "))
	for _, c := range e.Cycles {
		sb.WriteString("; loop ")
		path := append(append([]string(nil), c...), c[0])
		sb.WriteString(strings.Join(path, " -> "))
	}
	return sb.String()
}

func (e *LoopError) Unwrap() error {
	return ErrAlgebraicLoop
}

// CycleError wraps a failure raised while solving or updating a cycle.
type CycleError struct {
	Cycle   int
	Time    float64
	Block   string
	Phase   string // solve or update
	Wrapped error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %d (t=%.4f) %s %q: %v", e.Cycle, e.Time, e.Phase, e.Block, e.Wrapped)
}

func (e *CycleError) Unwrap() error {
	return e.Wrapped
}
