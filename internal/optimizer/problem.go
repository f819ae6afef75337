package optimizer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
)

// ErrInvalidRoster is returned when the roster cannot describe the task table.
var ErrInvalidRoster = errors.New("invalid resource roster")

const eps = 1e-9

// problem is the flattened assignment model shared by the LP relaxation,
// the list scheduler and the branch-and-bound search.
type problem struct {
	net      *cpm.Network
	res      []Resource // sorted by ID, capacities resolved
	resIndex map[string]int
	orig     []int   // original resource index per task
	order    []int   // priority order for list scheduling (ES, LS, topological)
	cands    [][]int // per task: eligible resources, original first, then by ID
	cpLen    float64
	total    float64
	totalCap int
}

func newProblem(g *graph.TaskGraph, sched *cpm.Schedule, roster []Resource, defaultCap int) (*problem, error) {
	if defaultCap < 1 {
		defaultCap = 1
	}

	net, err := cpm.Compile(g)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Resource, len(roster))
	for _, r := range roster {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: resource with empty id", ErrInvalidRoster)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate resource %s", ErrInvalidRoster, r.ID)
		}
		if r.Capacity < 0 || r.MaxWorkload < 0 || r.CostRate < 0 {
			return nil, fmt.Errorf("%w: resource %s has a negative capacity, ceiling or cost rate", ErrInvalidRoster, r.ID)
		}
		if r.Capacity == 0 {
			r.Capacity = defaultCap
		}
		byID[r.ID] = r
	}
	// Resources that only appear on tasks join the roster with defaults.
	for _, res := range net.Resources {
		if _, ok := byID[res]; !ok {
			byID[res] = Resource{ID: res, Capacity: defaultCap}
		}
	}

	p := &problem{
		net:      net,
		resIndex: make(map[string]int, len(byID)),
		cpLen:    sched.ProjectDuration,
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for i, id := range ids {
		r := byID[id]
		// More slots than tasks are never used.
		if r.Capacity > net.Len() && net.Len() > 0 {
			r.Capacity = net.Len()
		}
		p.res = append(p.res, r)
		p.resIndex[id] = i
		p.totalCap += r.Capacity
	}

	n := net.Len()
	p.orig = make([]int, n)
	p.cands = make([][]int, n)
	for i, id := range net.IDs {
		p.orig[i] = p.resIndex[net.Resources[i]]
		p.total += net.Durations[i]

		eligible := g.Tasks[id].EligibleResources
		allowed := make(map[int]bool, len(eligible))
		for _, e := range eligible {
			ri, ok := p.resIndex[e]
			if !ok {
				return nil, fmt.Errorf("%w: task %s lists unknown eligible resource %s", ErrInvalidRoster, id, e)
			}
			allowed[ri] = true
		}
		ok := func(r int) bool { return len(eligible) == 0 || allowed[r] }

		if ok(p.orig[i]) {
			p.cands[i] = append(p.cands[i], p.orig[i])
		}
		for r := range p.res {
			if r != p.orig[i] && ok(r) {
				p.cands[i] = append(p.cands[i], r)
			}
		}
	}

	p.order = make([]int, n)
	for i := range p.order {
		p.order[i] = i
	}
	sort.SliceStable(p.order, func(a, b int) bool {
		ea := sched.Entries[net.IDs[p.order[a]]]
		eb := sched.Entries[net.IDs[p.order[b]]]
		if ea.ES != eb.ES {
			return ea.ES < eb.ES
		}
		if ea.LS != eb.LS {
			return ea.LS < eb.LS
		}
		// Topological position; a predecessor must precede its successors
		// even when a tiny duration leaves their ES and LS equal.
		return p.order[a] < p.order[b]
	})

	return p, nil
}

// rate is the per-day cost of task i on resource r.
func (p *problem) rate(i, r int) float64 {
	if p.res[r].CostRate > 0 {
		return p.res[r].CostRate
	}
	return p.net.CostRates[i]
}

func (p *problem) cost(assign []int) float64 {
	c := 0.0
	for i, r := range assign {
		c += p.net.Durations[i] * p.rate(i, r)
	}
	return c
}

// withinCeilings reports whether an assignment respects every workload ceiling.
func (p *problem) withinCeilings(assign []int) bool {
	load := make([]float64, len(p.res))
	for i, r := range assign {
		load[r] += p.net.Durations[i]
	}
	for r, res := range p.res {
		if res.MaxWorkload > 0 && load[r] > res.MaxWorkload+eps {
			return false
		}
	}
	return true
}

// staticBound is a makespan lower bound valid for every assignment.
func (p *problem) staticBound() float64 {
	lb := p.cpLen
	if p.totalCap > 0 {
		lb = math.Max(lb, p.total/float64(p.totalCap))
	}
	return lb
}

func (p *problem) loads(assign []int) []ResourceLoad {
	out := make([]ResourceLoad, len(p.res))
	for r, res := range p.res {
		out[r] = ResourceLoad{ID: res.ID, Capacity: res.Capacity}
	}
	for _, i := range p.sortedTasks() {
		r := assign[i]
		out[r].TaskIDs = append(out[r].TaskIDs, p.net.IDs[i])
		out[r].Workload += p.net.Durations[i]
		out[r].Cost += p.net.Durations[i] * p.rate(i, r)
	}
	return out
}

// sortedTasks returns task indices ordered by task ID.
func (p *problem) sortedTasks() []int {
	idx := make([]int, p.net.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return p.net.IDs[idx[a]] < p.net.IDs[idx[b]] })
	return idx
}
