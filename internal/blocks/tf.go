package blocks

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// TransferFunction realises
//
//	Y(s)   b0 s^n + b1 s^(n-1) + ... + bn
//	---- = -------------------------------
//	U(s)      s^n + a1 s^(n-1) + ... + an
//
// in controllable canonical form with states x1..xn, zero initial condition:
//
//	x_i' = x_(i+1)                    i < n
//	x_n' = u - (an x1 + ... + a1 xn)
//	y    = sum_i (b_(n-i+1) - a_(n-i+1) b0) x_i + b0 u
//
// The output needs the current input only when b0 != 0.
type TransferFunction struct {
	dynamo.StateBase
	in, out dynamo.Signal
	x       []dynamo.Signal
	b       []dynamo.Signal
	a       []dynamo.Signal
	last    dynamo.Signal
	n       int
}

// NewTransferFunction builds a transfer function from num = [b0..bn] and
// den = [a1..an]. It fails with dynamo.ErrMalformedBlock unless n >= 1 and
// len(num) == n+1.
func NewTransferFunction(name string, in, out dynamo.Signal, num, den []float64, period float64) (*TransferFunction, error) {
	n := len(den)
	if n == 0 || len(num) != n+1 {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock,
			"transfer function %q: numerator has %d coefficients, denominator %d; want n+1 and n with n >= 1",
			name, len(num), len(den))
	}

	tf := &TransferFunction{
		in:   in,
		out:  out,
		x:    make([]dynamo.Signal, n),
		b:    make([]dynamo.Signal, n+1),
		a:    make([]dynamo.Signal, n),
		last: dynamo.NewSignal(name + ".dx"),
		n:    n,
	}

	parameter := dynamo.Bus{}
	params := make([]dynamo.Signal, 0, 2*n+1)
	for i, v := range num {
		tf.b[i] = dynamo.NewSignal(fmt.Sprintf("%s.b%d", name, i))
		parameter[tf.b[i]] = v
		params = append(params, tf.b[i])
	}
	for i, v := range den {
		tf.a[i] = dynamo.NewSignal(fmt.Sprintf("%s.a%d", name, i+1))
		parameter[tf.a[i]] = v
		params = append(params, tf.a[i])
	}

	initial := dynamo.Bus{}
	derivatives := make(map[dynamo.Signal]dynamo.Signal, n)
	for i := range tf.x {
		tf.x[i] = dynamo.NewSignal(fmt.Sprintf("%s.x%d", name, i+1))
		initial[tf.x[i]] = 0
	}
	for i := 0; i < n-1; i++ {
		derivatives[tf.x[i]] = tf.x[i+1]
	}
	derivatives[tf.x[n-1]] = tf.last

	base, err := dynamo.NewStateBase(dynamo.StateDefinition{
		Definition: dynamo.Definition{
			Name:         name,
			Inputs:       []dynamo.Signal{in},
			Outputs:      []dynamo.Signal{out},
			Parameters:   params,
			UpdatePeriod: period,
		},
		States:        tf.x,
		Derivatives:   derivatives,
		InputRequired: num[0] != 0,
	}, parameter, initial)
	if err != nil {
		return nil, errors.Wrapf(err, "transfer function %q", name)
	}
	tf.StateBase = base
	return tf, nil
}

// Order is the denominator degree n.
func (tf *TransferFunction) Order() int { return tf.n }

func (tf *TransferFunction) coefficient(s []dynamo.Signal, i int) float64 {
	return tf.Param(s[i])
}

func (tf *TransferFunction) Derivative(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := tf.CheckInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := tf.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}

	d := make(dynamo.Bus, tf.n)
	for i := 1; i < tf.n; i++ {
		d[tf.x[i]] = state[tf.x[i]]
	}
	last := input[tf.in]
	for i := 0; i < tf.n; i++ {
		// x_(i+1) weighs a_(n-i), stored at a[n-i-1].
		last -= state[tf.x[i]] * tf.coefficient(tf.a, tf.n-i-1)
	}
	d[tf.last] = last
	return d, nil
}

func (tf *TransferFunction) Output(state, input dynamo.Bus) (dynamo.Bus, error) {
	if err := tf.CheckState(state); err != nil {
		return nil, errors.WithStack(err)
	}
	b0 := tf.coefficient(tf.b, 0)
	y := 0.0
	for i := 0; i < tf.n; i++ {
		k := tf.n - i
		y += state[tf.x[i]] * (tf.coefficient(tf.b, k) - tf.coefficient(tf.a, k-1)*b0)
	}
	if tf.InputRequired() {
		if err := tf.CheckInput(input); err != nil {
			return nil, errors.WithStack(err)
		}
		y += b0 * input[tf.in]
	}
	return dynamo.Bus{tf.out: y}, nil
}

// NewFirstOrder builds K / (tau s + 1).
func NewFirstOrder(name string, in, out dynamo.Signal, k, tau, period float64) (*TransferFunction, error) {
	if tau == 0 {
		return nil, errors.Wrapf(dynamo.ErrMalformedBlock, "first order %q: zero time constant", name)
	}
	return NewTransferFunction(name, in, out, []float64{0, k / tau}, []float64{1 / tau}, period)
}

// NewSecondOrder builds K w^2 / (s^2 + 2 zeta w s + w^2).
func NewSecondOrder(name string, in, out dynamo.Signal, k, omega, zeta, period float64) (*TransferFunction, error) {
	w2 := omega * omega
	return NewTransferFunction(name, in, out,
		[]float64{0, 0, k * w2},
		[]float64{2 * zeta * omega, w2},
		period)
}
