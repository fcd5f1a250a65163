package integrators

import "github.com/san-kum/blocksim/internal/dynamo"

// Euler is the explicit Euler method: x{n+1} = x{n} + dt * f(x{n}, u{n}).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Integrate(blk dynamo.Stateful, state, input dynamo.Bus, dt float64) (dynamo.Bus, error) {
	dx, err := slope(blk, state, input)
	if err != nil {
		return nil, err
	}
	result := make(dynamo.Bus, len(dx))
	for s, v := range dx {
		result[s] = state[s] + dt*v
	}
	return result, nil
}
