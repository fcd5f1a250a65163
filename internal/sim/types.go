package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// Source selects which bus of a block a probe reads.
type Source int

const (
	FromOutput Source = iota
	FromState
	FromInput
)

func (s Source) String() string {
	switch s {
	case FromOutput:
		return "output"
	case FromState:
		return "state"
	case FromInput:
		return "input"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Probe records one signal of one block every cycle under a column name.
type Probe struct {
	Name   string
	Block  dynamo.Block
	Signal dynamo.Signal
	Source Source
}

func OutputProbe(name string, blk dynamo.Block, sig dynamo.Signal) Probe {
	return Probe{Name: name, Block: blk, Signal: sig, Source: FromOutput}
}

func StateProbe(name string, blk dynamo.Block, sig dynamo.Signal) Probe {
	return Probe{Name: name, Block: blk, Signal: sig, Source: FromState}
}

// Sample is the probed values after the solve phase of one cycle.
type Sample struct {
	Cycle   int
	Time    float64
	Columns []string
	Values  []float64
}

// Value looks up a column by name.
func (s Sample) Value(name string) (float64, bool) {
	for i, c := range s.Columns {
		if c == name {
			return s.Values[i], true
		}
	}
	return 0, false
}

func (s Sample) IsValid() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnCycle(s Sample)
}

type Config struct {
	Cycles int
	// ValidateState stops the run at the first NaN or Inf probe value.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Cycles:        1000,
		ValidateState: true,
	}
}

// CyclesFor converts a duration to a cycle count at the given minor frame.
func CyclesFor(duration, minorFrame float64) int {
	if minorFrame <= 0 {
		return 0
	}
	return int(math.Round(duration / minorFrame))
}

type Result struct {
	Columns   []string
	Times     []float64
	Rows      [][]float64
	Metrics   map[string]float64
	CyclesRun int
	Errors    []error
}

// Column returns the recorded history of one probe.
func (r *Result) Column(name string) ([]float64, bool) {
	idx := -1
	for i, c := range r.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[idx]
	}
	return out, true
}

type SimError struct {
	Time    float64
	Cycle   int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("cycle %d (t=%.4f): %s", e.Cycle, e.Time, e.Message)
}
