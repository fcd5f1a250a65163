package sim

import (
	"sort"

	"github.com/san-kum/blocksim/internal/dynamo"
)

// dependencies fills deps and dependents. A block depends algebraically on
// the blocks feeding its inputs only when it needs them to produce its
// output: always for direct blocks, never for stateful blocks that compute
// their output from state alone.
func (s *Solver) dependencies(sources [][]int) {
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.stateful != nil && !n.stateful.InputRequired() {
			n.deps = nil
			continue
		}
		n.deps = sources[i]
	}
	for i := range s.nodes {
		for _, d := range s.nodes[i].deps {
			s.nodes[d].dependents = append(s.nodes[d].dependents, i)
		}
	}
}

func (s *Solver) missingInputs() []map[int]bool {
	missing := make([]map[int]bool, len(s.nodes))
	for i := range s.nodes {
		missing[i] = make(map[int]bool, len(s.nodes[i].deps))
		for _, d := range s.nodes[i].deps {
			missing[i][d] = true
		}
	}
	return missing
}

// resolveOrder orders blocks so that every block runs after the blocks it
// depends on. Ties keep declaration order. Blocks that are not ready are
// requeued; if a window of 2*len(queue) pops does not shrink the queue, the
// remaining blocks are stuck in an algebraic loop.
func (s *Solver) resolveOrder() ([]int, error) {
	missing := s.missingInputs()

	queue := make([]int, len(s.nodes))
	for i := range queue {
		queue[i] = i
	}
	order := make([]int, 0, len(s.nodes))
	baseline := len(queue)
	pops := 0

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		if len(missing[i]) == 0 {
			order = append(order, i)
			for _, d := range s.nodes[i].dependents {
				delete(missing[d], i)
			}
		} else {
			queue = append(queue, i)
		}

		pops++
		if pops >= 2*baseline {
			if len(queue) == baseline {
				return nil, s.loopError(queue, missing)
			}
			baseline = len(queue)
			pops = 0
		}
	}
	return order, nil
}

// checkAlgebraicLoops replays order with fresh dependency sets and verifies
// that every block's inputs are resolved by forward propagation alone.
func (s *Solver) checkAlgebraicLoops(order []int) error {
	if len(order) != len(s.nodes) {
		placed := make(map[int]bool, len(order))
		for _, i := range order {
			placed[i] = true
		}
		var rest []int
		for i := range s.nodes {
			if !placed[i] {
				rest = append(rest, i)
			}
		}
		return s.loopError(rest, s.missingInputs())
	}

	missing := s.missingInputs()
	for pos, i := range order {
		if len(missing[i]) > 0 {
			return s.loopError(order[pos:], missing)
		}
		for _, d := range s.nodes[i].dependents {
			delete(missing[d], i)
		}
	}
	return nil
}

// loopError names the stalled blocks and the strongly connected groups among
// them that actually close a loop.
func (s *Solver) loopError(stalled []int, missing []map[int]bool) error {
	ids := append([]int(nil), stalled...)
	sort.Ints(ids)

	inSet := make(map[int]bool, len(ids))
	for _, i := range ids {
		inSet[i] = true
	}
	edges := make(map[int][]int, len(ids))
	for _, i := range ids {
		for d := range missing[i] {
			if inSet[d] {
				edges[i] = append(edges[i], d)
			}
		}
		sort.Ints(edges[i])
	}

	err := &dynamo.LoopError{Stalled: s.names(ids)}
	for _, scc := range tarjan(ids, edges) {
		if len(scc) > 1 || hasSelfLoop(scc[0], edges) {
			sort.Ints(scc)
			err.Cycles = append(err.Cycles, s.names(scc))
		}
	}
	return err
}

func (s *Solver) names(ids []int) []string {
	out := make([]string, len(ids))
	for k, i := range ids {
		out[k] = s.nodes[i].block.Name()
	}
	return out
}

func hasSelfLoop(i int, edges map[int][]int) bool {
	for _, d := range edges[i] {
		if d == i {
			return true
		}
	}
	return false
}

// tarjan returns the strongly connected components of the graph restricted
// to ids, in discovery order of their roots.
func tarjan(ids []int, edges map[int][]int) [][]int {
	index := 0
	indices := make(map[int]int)
	lowlink := make(map[int]int)
	onStack := make(map[int]bool)
	var stack []int
	var sccs [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range ids {
		if _, seen := indices[v]; !seen {
			strongConnect(v)
		}
	}
	sort.Slice(sccs, func(a, b int) bool { return minOf(sccs[a]) < minOf(sccs[b]) })
	return sccs
}

func minOf(ids []int) int {
	m := ids[0]
	for _, i := range ids[1:] {
		m = min(m, i)
	}
	return m
}
