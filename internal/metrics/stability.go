package metrics

import (
	"math"

	"github.com/san-kum/blocksim/internal/sim"
)

// Stability is the fraction of cycles on which every watched column stays
// within threshold. With no columns every probe is watched.
type Stability struct {
	name       string
	threshold  float64
	columns    []string
	violations int
	samples    int
}

func NewStability(threshold float64, columns ...string) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		columns:   columns,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sample sim.Sample) {
	s.samples++
	if len(s.columns) == 0 {
		for _, v := range sample.Values {
			if math.Abs(v) > s.threshold {
				s.violations++
				return
			}
		}
		return
	}
	for _, col := range s.columns {
		if v, ok := sample.Value(col); ok && math.Abs(v) > s.threshold {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
