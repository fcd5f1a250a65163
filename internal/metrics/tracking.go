package metrics

import (
	"math"

	"github.com/san-kum/blocksim/internal/sim"
)

// TrackingError is the RMS deviation of a column from a constant reference.
type TrackingError struct {
	name      string
	column    string
	reference float64
	sumSq     float64
	samples   int
}

func NewTrackingError(column string, reference float64) *TrackingError {
	return &TrackingError{
		name:      "tracking_error",
		column:    column,
		reference: reference,
	}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(s sim.Sample) {
	v, ok := s.Value(e.column)
	if !ok {
		return
	}
	d := v - e.reference
	e.sumSq += d * d
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}

// Peak is the largest absolute value seen in a column.
type Peak struct {
	name   string
	column string
	peak   float64
}

func NewPeak(column string) *Peak {
	return &Peak{name: "peak_" + column, column: column}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s sim.Sample) {
	if v, ok := s.Value(p.column); ok {
		p.peak = math.Max(p.peak, math.Abs(v))
	}
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }
