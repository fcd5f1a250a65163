package dynamo

import (
	"fmt"
	"sync"
)

// Signal is an opaque handle naming one scalar quantity. Two signals are
// equal only if they were returned by the same NewSignal call; the label is
// for diagnostics and never takes part in comparisons.
type Signal struct {
	id uint32
}

var registry = struct {
	sync.Mutex
	labels []string
}{labels: []string{"<invalid>"}}

// NewSignal interns a new signal. Blocks usually create their internal
// signals once, in their constructor.
func NewSignal(label string) Signal {
	registry.Lock()
	defer registry.Unlock()

	registry.labels = append(registry.labels, label)
	return Signal{id: uint32(len(registry.labels) - 1)}
}

// Valid reports whether s was created by NewSignal.
func (s Signal) Valid() bool {
	return s.id != 0
}

func (s Signal) Label() string {
	registry.Lock()
	defer registry.Unlock()

	if int(s.id) >= len(registry.labels) {
		return registry.labels[0]
	}
	return registry.labels[s.id]
}

func (s Signal) String() string {
	return fmt.Sprintf("%s#%d", s.Label(), s.id)
}

// Less orders signals by creation, which gives buses a stable iteration order.
func (s Signal) Less(other Signal) bool {
	return s.id < other.id
}
