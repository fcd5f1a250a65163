package metrics

import (
	"math"

	"github.com/san-kum/blocksim/internal/sim"
)

// ControlEffort is the mean absolute value of the named command columns.
type ControlEffort struct {
	name    string
	columns []string
	sum     float64
	samples int
}

func NewControlEffort(columns ...string) *ControlEffort {
	return &ControlEffort{
		name:    "control_effort",
		columns: columns,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s sim.Sample) {
	for _, col := range c.columns {
		if v, ok := s.Value(col); ok {
			c.sum += math.Abs(v)
		}
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
