// Package optimizer reassigns tasks to resources to shorten the project.
//
// The model binds every task to exactly one eligible resource. A candidate
// assignment is scored by list-scheduling it against the precedence graph and
// each resource's concurrent slots, so precedence and capacity hold by
// construction; workload ceilings are enforced during the search. The search is
// an exact branch-and-bound over the binary assignment variables, seeded with a
// greedy earliest-finish assignment and pruned with the LP relaxation bound.
// Durations and dependency edges are never touched.
package optimizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
)

// Optimize searches for a task-to-resource assignment that minimizes makespan,
// breaking ties on total cost. Infeasibility and timeouts are reported through
// Result.Status; an error is returned only for unusable input.
func Optimize(ctx context.Context, g *graph.TaskGraph, sched *cpm.Schedule, roster []Resource, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p, err := newProblem(g, sched, roster, cfg.DefaultCapacity)
	if err != nil {
		return nil, err
	}

	if p.net.Len() == 0 {
		return &Result{
			Status:     StatusOptimal,
			Feasible:   true,
			Assignment: map[string]string{},
			Slots:      map[string]Slot{},
			Before:     p.loads(nil),
			After:      p.loads(nil),
		}, nil
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	ls := newListScheduler(p)
	baseMs := ls.makespan(p.orig, nil)
	baseCost := p.cost(p.orig)

	s := &search{
		ctx:      ctx,
		p:        p,
		ls:       ls,
		maxNodes: cfg.MaxNodes,
		bestMs:   baseMs,
		bestCost: baseCost,
		assign:   append([]int(nil), p.orig...),
		load:     make([]float64, len(p.res)),
	}

	lb := p.staticBound()
	relaxed, err := boundWithin(ctx, p)
	switch {
	case errors.Is(err, errRelaxationInfeasible):
		log.Debug("optimizer: workload ceilings admit no assignment")
		return s.result(baseMs, baseCost, lb, StatusNoImprovement), nil
	case errors.Is(err, errRelaxationTooLarge):
		log.Debug("optimizer: skipping LP relaxation", "err", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn("optimizer: deadline reached during LP relaxation", "timeout", cfg.Timeout)
	case err != nil:
		log.Warn("optimizer: LP relaxation failed, using combinatorial bound", "err", err)
	default:
		lb = math.Max(lb, relaxed)
	}
	s.rootBound = lb

	if seed := ls.greedy(); seed != nil {
		s.offer(seed, p.cost(seed))
	}

	if ctx.Err() != nil {
		s.stopped = true
	} else {
		s.prepare()
		s.dfs(0, 0)
	}

	status := StatusNoImprovement
	switch {
	case s.stopped:
		status = StatusTimedOut
	case s.best != nil:
		status = StatusOptimal
	}
	log.Debug("optimizer: search finished",
		"status", status, "nodes", s.nodes, "baseline", baseMs, "best", s.bestMs, "lower_bound", lb)

	return s.result(baseMs, baseCost, lb, status), nil
}

// search is the branch-and-bound state. best is nil until an assignment that
// strictly beats the baseline is found.
type search struct {
	ctx       context.Context
	p         *problem
	ls        *listScheduler
	maxNodes  int
	rootBound float64

	bbOrder []int     // tasks in branching order (longest first)
	minRest []float64 // minRest[k] = cheapest possible cost of bbOrder[k:]

	assign []int
	load   []float64
	nodes  int

	best     []int
	bestMs   float64
	bestCost float64
	stopped  bool
}

func (s *search) prepare() {
	p := s.p
	n := p.net.Len()
	s.bbOrder = make([]int, n)
	pos := make([]int, n)
	for k, i := range p.order {
		s.bbOrder[k] = i
		pos[i] = k
	}
	sort.SliceStable(s.bbOrder, func(a, b int) bool {
		da, db := p.net.Durations[s.bbOrder[a]], p.net.Durations[s.bbOrder[b]]
		if da != db {
			return da > db
		}
		return pos[s.bbOrder[a]] < pos[s.bbOrder[b]]
	})

	s.minRest = make([]float64, n+1)
	for k := n - 1; k >= 0; k-- {
		i := s.bbOrder[k]
		cheapest := math.Inf(1)
		for _, r := range p.cands[i] {
			cheapest = math.Min(cheapest, p.net.Durations[i]*p.rate(i, r))
		}
		s.minRest[k] = s.minRest[k+1] + cheapest
	}
}

// better reports whether (ms, cost) strictly beats the incumbent.
func (s *search) better(ms, cost float64) bool {
	if ms < s.bestMs-eps {
		return true
	}
	return math.Abs(ms-s.bestMs) <= eps && cost < s.bestCost-eps
}

func (s *search) offer(assign []int, cost float64) {
	if !s.p.withinCeilings(assign) {
		return
	}
	ms := s.ls.makespan(assign, nil)
	if s.better(ms, cost) {
		s.best = append(s.best[:0], assign...)
		s.bestMs, s.bestCost = ms, cost
	}
}

func (s *search) dfs(k int, cost float64) {
	if s.stopped {
		return
	}
	s.nodes++
	if s.maxNodes > 0 && s.nodes > s.maxNodes {
		s.stopped = true
		return
	}
	if s.nodes&1023 == 0 && s.ctx.Err() != nil {
		s.stopped = true
		return
	}

	p := s.p
	if k == len(s.bbOrder) {
		ms := s.ls.makespan(s.assign, nil)
		if s.better(ms, cost) {
			s.best = append(s.best[:0], s.assign...)
			s.bestMs, s.bestCost = ms, cost
		}
		return
	}

	i := s.bbOrder[k]
	d := p.net.Durations[i]
	for _, r := range p.cands[i] {
		if ceil := p.res[r].MaxWorkload; ceil > 0 && s.load[r]+d > ceil+eps {
			continue
		}
		c := cost + d*p.rate(i, r)
		s.load[r] += d
		s.assign[i] = r
		if !s.prune(k+1, c) {
			s.dfs(k+1, c)
		}
		s.load[r] -= d
		if s.stopped {
			return
		}
	}
}

// prune reports whether no completion of the current partial assignment can
// beat the incumbent.
func (s *search) prune(next int, cost float64) bool {
	lb := s.rootBound
	for r, res := range s.p.res {
		lb = math.Max(lb, s.load[r]/float64(res.Capacity))
	}
	if lb > s.bestMs+eps {
		return true
	}
	return lb >= s.bestMs-eps && cost+s.minRest[next] >= s.bestCost-eps
}

func (s *search) result(baseMs, baseCost, lb float64, status Status) *Result {
	p := s.p
	chosen := p.orig
	if s.best != nil {
		chosen = s.best
	}

	starts := make([]float64, p.net.Len())
	ms := s.ls.makespan(chosen, starts)

	res := &Result{
		Status:            status,
		Feasible:          s.best != nil,
		OriginalMakespan:  baseMs,
		OptimizedMakespan: ms,
		OriginalCost:      baseCost,
		OptimizedCost:     p.cost(chosen),
		LowerBound:        lb,
		Assignment:        make(map[string]string, p.net.Len()),
		Slots:             make(map[string]Slot, p.net.Len()),
		Before:            p.loads(p.orig),
		After:             p.loads(chosen),
		Nodes:             s.nodes,
	}
	if baseMs > 0 {
		res.ChangePct = (baseMs - ms) / baseMs * 100
		res.ImprovementPct = math.Max(0, res.ChangePct)
	}

	for _, i := range p.sortedTasks() {
		id := p.net.IDs[i]
		res.Assignment[id] = p.res[chosen[i]].ID
		res.Slots[id] = Slot{Start: starts[i], Finish: starts[i] + p.net.Durations[i]}
		if chosen[i] != p.orig[i] {
			res.Reassignments = append(res.Reassignments, Reassignment{
				TaskID: id,
				From:   p.res[p.orig[i]].ID,
				To:     p.res[chosen[i]].ID,
			})
		}
	}
	return res
}
