package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/blocksim/internal/dynamo"
	"github.com/san-kum/blocksim/internal/sim"
)

// Params are named scenario parameters.
type Params map[string]float64

// Diagram is a fully wired block diagram ready for a solver.
type Diagram struct {
	Blocks  []dynamo.Block
	Links   []dynamo.Link
	Probes  []sim.Probe
	Metrics []sim.Metric
}

// Scenario is a named, parameterised block diagram.
type Scenario struct {
	Name        string
	Description string
	// Period is the default scheduler period; Duration the default run
	// length. Both can be overridden by the run configuration.
	Period   float64
	Duration float64
	Defaults Params
	Build    func(p Params, seed int64) (*Diagram, error)
}

// Resolve merges overrides into the scenario defaults. Unknown names are an
// error so that typos do not silently run the defaults.
func (s Scenario) Resolve(overrides map[string]float64) (Params, error) {
	p := make(Params, len(s.Defaults))
	for k, v := range s.Defaults {
		p[k] = v
	}
	for k, v := range overrides {
		if _, ok := s.Defaults[k]; !ok {
			return nil, fmt.Errorf("scenario %s has no parameter %q (have %v)", s.Name, k, s.ParamNames())
		}
		p[k] = v
	}
	return p, nil
}

func (s Scenario) ParamNames() []string {
	names := make([]string, 0, len(s.Defaults))
	for k := range s.Defaults {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
