package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// DefaultEpsilon is the remainder below which the Euclidean algorithm treats
// a period as zero. Periods expressed as exact binary fractions or whole
// milliseconds avoid drift.
const DefaultEpsilon = 1e-10

// GCD returns the greatest common divisor of positive real values using a
// tolerance-based Euclidean algorithm. It returns 0 for no values.
func GCD(values []float64, eps float64) float64 {
	if len(values) == 0 {
		return 0
	}
	g := values[0]
	for _, v := range values[1:] {
		g = gcdPair(g, v, eps)
	}
	return g
}

// LCM folds lcm(a, b) = a*b / gcd(a, b) across values. It returns 0 for no
// values.
func LCM(values []float64, eps float64) float64 {
	if len(values) == 0 {
		return 0
	}
	l := values[0]
	for _, v := range values[1:] {
		l = l * v / gcdPair(l, v, eps)
	}
	return l
}

func gcdPair(a, b, eps float64) float64 {
	a, b = math.Abs(a), math.Abs(b)
	for b >= eps {
		a, b = b, math.Mod(a, b)
	}
	return a
}

// computeFrames resolves every block's period and derives the minor frame,
// the major frame and the relative update periods.
func (s *Solver) computeFrames(defaultPeriod float64) error {
	if !validPeriod(defaultPeriod) {
		return periodError("default", defaultPeriod)
	}
	if len(s.nodes) == 0 {
		s.minor, s.major = defaultPeriod, defaultPeriod
		return nil
	}

	periods := make([]float64, len(s.nodes))
	for i := range s.nodes {
		n := &s.nodes[i]
		p := n.block.UpdatePeriod()
		if p == 0 {
			p = defaultPeriod
		}
		if !validPeriod(p) {
			return periodError(n.block.Name(), p)
		}
		n.period = p
		periods[i] = p
	}

	s.minor = GCD(periods, s.epsilon)
	s.major = LCM(periods, s.epsilon)
	if !validPeriod(s.minor) {
		return periodError("minor frame", s.minor)
	}

	for i := range s.nodes {
		n := &s.nodes[i]
		n.relative = int(math.Round(n.period / s.minor))
		if n.relative < 1 {
			n.relative = 1
		}
	}
	return nil
}

func validPeriod(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

func periodError(name string, p float64) error {
	return fmt.Errorf("%w: %s period %v", dynamo.ErrInvalidPeriod, name, p)
}
