package dynamo

import "sort"

// Bus maps signals to values. A nil Bus is a valid, empty bus.
type Bus map[Signal]float64

func (b Bus) Contains(s Signal) bool {
	if b == nil {
		return false
	}
	_, ok := b[s]
	return ok
}

func (b Bus) Clone() Bus {
	c := make(Bus, len(b))
	for s, v := range b {
		c[s] = v
	}
	return c
}

// Signals returns the signals present in b in creation order.
func (b Bus) Signals() []Signal {
	out := make([]Signal, 0, len(b))
	for s := range b {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (b Bus) Scale(k float64) Bus {
	return Scale(b, k)
}

// Sum adds buses signal by signal. A signal missing from a bus counts as 0.
func Sum(buses ...Bus) Bus {
	out := make(Bus)
	for _, bus := range buses {
		for s, v := range bus {
			out[s] += v
		}
	}
	return out
}

// Scale multiplies every value of b by k into a new bus.
func Scale(b Bus, k float64) Bus {
	out := make(Bus, len(b))
	for s, v := range b {
		out[s] = v * k
	}
	return out
}

// Check returns a *SignalError for the first signal missing from b.
func Check(b Bus, block, role string, signals []Signal) error {
	for _, s := range signals {
		if !b.Contains(s) {
			return &SignalError{Block: block, Role: role, Signal: s}
		}
	}
	return nil
}
