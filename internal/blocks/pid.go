package blocks

import (
	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// NewPID builds a PID controller with a filtered derivative,
//
//	C(s) = Kp (1 + 1/(Ti s) + Td s / (1 + Td s / N))
//
// as a second order transfer function. Ti, Td and N must be positive.
func NewPID(name string, in, out dynamo.Signal, kp, ti, td, n, period float64) (*TransferFunction, error) {
	if ti <= 0 || td <= 0 || n <= 0 {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock,
			"pid %q: Ti=%g Td=%g N=%g must be positive", name, ti, td, n)
	}
	tt := ti * td
	return NewTransferFunction(name, in, out,
		[]float64{
			kp * (1 + n),
			kp * (td + n*ti) / tt,
			kp * n / tt,
		},
		[]float64{n / td, 0},
		period)
}
