package integrators

import "github.com/san-kum/blocksim/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method. The input bus is held
// constant over the four stages.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Integrate(blk dynamo.Stateful, state, input dynamo.Bus, dt float64) (dynamo.Bus, error) {
	k1, err := slope(blk, state, input)
	if err != nil {
		return nil, err
	}
	k2, err := slope(blk, dynamo.Sum(state, k1.Scale(0.5*dt)), input)
	if err != nil {
		return nil, err
	}
	k3, err := slope(blk, dynamo.Sum(state, k2.Scale(0.5*dt)), input)
	if err != nil {
		return nil, err
	}
	k4, err := slope(blk, dynamo.Sum(state, k3.Scale(dt)), input)
	if err != nil {
		return nil, err
	}

	incr := dynamo.Sum(k1, k2.Scale(2), k3.Scale(2), k4).Scale(dt / 6.0)
	result := make(dynamo.Bus, len(k1))
	for s, v := range incr {
		result[s] = state[s] + v
	}
	return result, nil
}
