package optimizer

import "math"

// listScheduler evaluates an assignment with a serial schedule-generation
// scheme: tasks are taken in priority order and each starts at the later of
// its predecessors' finish and the earliest free slot on its resource.
// Precedence and per-resource concurrency are therefore always respected.
type listScheduler struct {
	p      *problem
	finish []float64
	slots  [][]float64
}

func newListScheduler(p *problem) *listScheduler {
	ls := &listScheduler{
		p:      p,
		finish: make([]float64, p.net.Len()),
		slots:  make([][]float64, len(p.res)),
	}
	for r, res := range p.res {
		ls.slots[r] = make([]float64, res.Capacity)
	}
	return ls
}

// makespan returns the completion time of assign. When starts is non-nil it
// receives each task's start offset.
func (ls *listScheduler) makespan(assign []int, starts []float64) float64 {
	for r := range ls.slots {
		for k := range ls.slots[r] {
			ls.slots[r][k] = 0
		}
	}

	net := ls.p.net
	ms := 0.0
	for _, i := range ls.p.order {
		ready := 0.0
		for _, q := range net.Preds(i) {
			ready = math.Max(ready, ls.finish[q])
		}

		slots := ls.slots[assign[i]]
		k := 0
		for j := 1; j < len(slots); j++ {
			if slots[j] < slots[k] {
				k = j
			}
		}

		start := math.Max(ready, slots[k])
		f := start + net.Durations[i]
		slots[k] = f
		ls.finish[i] = f
		if starts != nil {
			starts[i] = start
		}
		ms = math.Max(ms, f)
	}
	return ms
}

// greedy builds an earliest-finish assignment in priority order, keeping a
// task on its original resource when that is no worse. It returns nil if the
// workload ceilings leave some task without a resource.
func (ls *listScheduler) greedy() []int {
	for r := range ls.slots {
		for k := range ls.slots[r] {
			ls.slots[r][k] = 0
		}
	}

	p := ls.p
	net := p.net
	assign := make([]int, net.Len())
	load := make([]float64, len(p.res))
	for _, i := range p.order {
		ready := 0.0
		for _, q := range net.Preds(i) {
			ready = math.Max(ready, ls.finish[q])
		}
		d := net.Durations[i]

		bestR, bestK, bestF := -1, 0, math.Inf(1)
		for _, r := range p.cands[i] {
			if ceil := p.res[r].MaxWorkload; ceil > 0 && load[r]+d > ceil+eps {
				continue
			}
			slots := ls.slots[r]
			k := 0
			for j := 1; j < len(slots); j++ {
				if slots[j] < slots[k] {
					k = j
				}
			}
			if f := math.Max(ready, slots[k]) + d; f < bestF-eps {
				bestR, bestK, bestF = r, k, f
			}
		}
		if bestR < 0 {
			return nil
		}
		assign[i] = bestR
		load[bestR] += d
		ls.slots[bestR][bestK] = bestF
		ls.finish[i] = bestF
	}
	return assign
}
