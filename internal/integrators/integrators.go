// Package integrators provides fixed-step integrators for stateful blocks.
//
// Both integrators work on buses through the block's derivative mapping, so
// one derivative signal may feed several state signals.
package integrators

import (
	"fmt"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// convert reshapes a derivative bus into a state-shaped bus: the value for
// state s is derivative[blk.Derivatives()[s]].
func convert(blk dynamo.Stateful, derivative dynamo.Bus) (dynamo.Bus, error) {
	mapping := blk.Derivatives()
	out := make(dynamo.Bus, len(blk.States()))
	for _, s := range blk.States() {
		d, ok := mapping[s]
		if !ok {
			return nil, fmt.Errorf("%w: block %q state %s", dynamo.ErrMissingDerivativeMapping, blk.Name(), s)
		}
		if !derivative.Contains(d) {
			return nil, &dynamo.SignalError{Block: blk.Name(), Role: "derivative", Signal: d}
		}
		out[s] = derivative[d]
	}
	return out, nil
}

func slope(blk dynamo.Stateful, state, input dynamo.Bus) (dynamo.Bus, error) {
	d, err := blk.Derivative(state, input)
	if err != nil {
		return nil, err
	}
	return convert(blk, d)
}
