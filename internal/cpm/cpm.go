package cpm

import (
	"math"
	"sort"

	"github.com/joshharrison/riskloom/internal/graph"
)

// epsilon is the tolerance below which slack counts as zero.
const epsilon = 1e-9

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// Analyze performs critical path method analysis on a task graph.
// An empty graph yields an empty schedule with zero duration.
func Analyze(g *graph.TaskGraph) (*Schedule, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	result := &Schedule{
		Entries: make(map[string]*Entry, len(order)),
		Order:   order,
	}

	for _, id := range order {
		result.Entries[id] = &Entry{TaskID: id, Duration: g.Tasks[id].Duration}
	}

	// Forward pass: ES = max(EF of all predecessors)
	for _, id := range order {
		e := result.Entries[id]
		es := 0.0
		for _, pred := range g.RevAdj[id] {
			if ef := result.Entries[pred].EF; ef > es {
				es = ef
			}
		}
		e.ES = es
		e.EF = es + e.Duration
	}

	// Project finish is the latest finish among tasks with no successors.
	for _, id := range order {
		if len(g.Adj[id]) > 0 {
			continue
		}
		if ef := result.Entries[id].EF; ef > result.ProjectDuration {
			result.ProjectDuration = ef
		}
	}

	// Backward pass in reverse topological order
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		e := result.Entries[id]

		lf := result.ProjectDuration
		for _, succ := range g.Adj[id] {
			if ls := result.Entries[succ].LS; ls < lf {
				lf = ls
			}
		}
		e.LF = lf
		e.LS = lf - e.Duration

		e.Slack = e.LS - e.ES
		if nearlyEqual(e.LS, e.ES) {
			e.Slack = 0
		}
		e.Critical = e.Slack == 0
	}

	result.CriticalPath = criticalSequence(g, result)
	result.Waves = computeWaves(result)

	return result, nil
}

// topoSort performs Kahn's algorithm for topological sorting.
func topoSort(g *graph.TaskGraph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Tasks))
	for id := range g.Tasks {
		inDegree[id] = len(g.RevAdj[id])
	}

	// Start with roots (in-degree 0), sorted for determinism
	var queue []string
	for id := range g.Tasks {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(g.Tasks))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Strings(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Tasks) {
		cycle := g.DetectCycle()
		if len(cycle) > 1 {
			cycle = cycle[:len(cycle)-1]
		}
		return nil, &graph.CyclicDependencyError{TaskIDs: cycle}
	}

	return order, nil
}

// criticalSequence picks one canonical chain of zero-slack tasks. Among
// competing chains it prefers the greatest cumulative duration, then the
// lowest task ID at each step.
func criticalSequence(g *graph.TaskGraph, s *Schedule) []string {
	// tail[id] = longest cumulative duration of a tight critical chain starting at id
	tail := make(map[string]float64)
	next := make(map[string]string)
	for i := len(s.Order) - 1; i >= 0; i-- {
		id := s.Order[i]
		e := s.Entries[id]
		if !e.Critical {
			continue
		}
		best := 0.0
		bestNext := ""
		for _, succ := range g.Adj[id] {
			se := s.Entries[succ]
			if !se.Critical || !nearlyEqual(se.ES, e.EF) {
				continue
			}
			// Adj is sorted, so strict comparison keeps the lowest ID on ties.
			if t := tail[succ]; bestNext == "" || t > best+epsilon {
				best, bestNext = t, succ
			}
		}
		tail[id] = e.Duration + best
		next[id] = bestNext
	}

	ids := append([]string(nil), s.Order...)
	sort.Strings(ids)

	start := ""
	for _, id := range ids {
		e := s.Entries[id]
		if !e.Critical || !nearlyEqual(e.ES, 0) {
			continue
		}
		if start == "" || tail[id] > tail[start]+epsilon {
			start = id
		}
	}
	if start == "" {
		return nil
	}

	var path []string
	for id := start; id != ""; id = next[id] {
		path = append(path, id)
	}
	return path
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(s *Schedule) []Wave {
	esGroups := make(map[float64][]string)
	for _, id := range s.Order {
		es := s.Entries[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]float64, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Float64s(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Strings(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			s.Entries[id].Wave = i
			if s.Entries[id].Critical {
				hasCritical = true
			}
		}

		// Critical tasks first within a wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return s.Entries[taskIDs[a]].Critical && !s.Entries[taskIDs[b]].Critical
		})

		waves[i] = Wave{
			Index:      i,
			Start:      es,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}
