package cpm

import (
	"github.com/joshharrison/riskloom/internal/graph"
)

// Network is an index-based, read-only form of a task graph for callers that
// rerun the forward pass many times with different durations. Index i always
// refers to IDs[i], which are in topological order.
type Network struct {
	IDs       []string
	Durations []float64 // nominal
	Risks     []graph.RiskLevel
	CostRates []float64
	Resources []string

	preds [][]int
	succs [][]int
	index map[string]int
}

// Compile flattens g into a Network. It fails only if g contains a cycle.
func Compile(g *graph.TaskGraph) (*Network, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	n := &Network{
		IDs:       order,
		Durations: make([]float64, len(order)),
		Risks:     make([]graph.RiskLevel, len(order)),
		CostRates: make([]float64, len(order)),
		Resources: make([]string, len(order)),
		preds:     make([][]int, len(order)),
		succs:     make([][]int, len(order)),
		index:     make(map[string]int, len(order)),
	}
	for i, id := range order {
		n.index[id] = i
	}
	for i, id := range order {
		t := g.Tasks[id]
		n.Durations[i] = t.Duration
		n.Risks[i] = t.Risk
		n.CostRates[i] = t.CostRate
		n.Resources[i] = t.Resource
		for _, p := range g.RevAdj[id] {
			n.preds[i] = append(n.preds[i], n.index[p])
		}
		for _, s := range g.Adj[id] {
			n.succs[i] = append(n.succs[i], n.index[s])
		}
	}
	return n, nil
}

// Len returns the number of tasks.
func (n *Network) Len() int { return len(n.IDs) }

// Index returns the position of a task ID.
func (n *Network) Index(id string) (int, bool) {
	i, ok := n.index[id]
	return i, ok
}

// Preds returns predecessor indices of task i. The slice must not be modified.
func (n *Network) Preds(i int) []int { return n.preds[i] }

// Succs returns successor indices of task i. The slice must not be modified.
func (n *Network) Succs(i int) []int { return n.succs[i] }

// Finish runs the forward pass over durations (indexed like IDs) and returns
// the project completion time. scratch, if at least Len() long, is used for
// intermediate finish times so that repeated calls do not allocate.
func (n *Network) Finish(durations, scratch []float64) float64 {
	if len(scratch) < len(n.IDs) {
		scratch = make([]float64, len(n.IDs))
	}
	finish := 0.0
	for i := range n.IDs {
		es := 0.0
		for _, p := range n.preds[i] {
			if ef := scratch[p]; ef > es {
				es = ef
			}
		}
		ef := es + durations[i]
		scratch[i] = ef
		if ef > finish {
			finish = ef
		}
	}
	return finish
}

// Baseline returns the project completion time at nominal durations.
func (n *Network) Baseline() float64 {
	return n.Finish(n.Durations, nil)
}
