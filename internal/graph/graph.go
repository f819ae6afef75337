package graph

import (
	"fmt"
	"math"
	"sort"
)

// Build constructs a TaskGraph from a validated task table.
//
// The table is checked for duplicate IDs, non-positive durations, predecessor
// references to tasks that are not in the table, and dependency cycles. Any of
// these aborts the build; nothing is repaired silently.
func Build(tasks []Task) (*TaskGraph, error) {
	g := &TaskGraph{
		Tasks:  make(map[string]*Task, len(tasks)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
	}

	// Index all tasks
	for i := range tasks {
		t := tasks[i]
		if _, ok := g.Tasks[t.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		if !(t.Duration > 0) || math.IsInf(t.Duration, 0) {
			return nil, fmt.Errorf("%w: task %s has duration %v", ErrInvalidDuration, t.ID, t.Duration)
		}
		if t.Risk == "" {
			t.Risk = RiskLow
		}
		if t.Resource == "" {
			t.Resource = Unassigned
		}
		t.Predecessors = append([]string(nil), t.Predecessors...)
		t.EligibleResources = append([]string(nil), t.EligibleResources...)
		g.Tasks[t.ID] = &t
		g.IDs = append(g.IDs, t.ID)
	}
	sort.Strings(g.IDs)

	// Walk in table order so the first reported unresolved reference is the
	// one a reader of the input would hit first.
	edgeSet := make(map[[2]string]bool)
	for i := range tasks {
		id := tasks[i].ID
		for _, pred := range tasks[i].Predecessors {
			if _, ok := g.Tasks[pred]; !ok {
				return nil, &UnresolvedDependencyError{TaskID: id, Missing: pred}
			}
			key := [2]string{pred, id}
			if edgeSet[key] {
				continue
			}
			edgeSet[key] = true
			g.Adj[pred] = append(g.Adj[pred], id)
			g.RevAdj[id] = append(g.RevAdj[id], pred)
		}
	}

	// Sort adjacency lists for deterministic ordering
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}

	for _, id := range g.IDs {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &CyclicDependencyError{TaskIDs: cycle[:len(cycle)-1]}
	}

	return g, nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// The returned path is closed: its first and last elements are the same task.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.sortedIDs() {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// sortedIDs tolerates graphs assembled by hand without IDs populated.
func (g *TaskGraph) sortedIDs() []string {
	if len(g.IDs) == len(g.Tasks) {
		return g.IDs
	}
	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// TaskList returns copies of the tasks sorted by ID.
func (g *TaskGraph) TaskList() []Task {
	out := make([]Task, 0, len(g.Tasks))
	for _, id := range g.sortedIDs() {
		out = append(out, *g.Tasks[id])
	}
	return out
}

// Filter returns a new TaskGraph containing only tasks matching the predicate.
// Predecessor references to filtered-out tasks are dropped.
func (g *TaskGraph) Filter(pred func(*Task) bool) (*TaskGraph, error) {
	keep := make(map[string]bool)
	for id, t := range g.Tasks {
		if pred(t) {
			keep[id] = true
		}
	}

	var filtered []Task
	for _, id := range g.sortedIDs() {
		if !keep[id] {
			continue
		}
		t := *g.Tasks[id]
		var preds []string
		for _, p := range t.Predecessors {
			if keep[p] {
				preds = append(preds, p)
			}
		}
		t.Predecessors = preds
		filtered = append(filtered, t)
	}
	return Build(filtered)
}

// Resources groups tasks by their assigned resource, sorted by resource ID.
// Each resource is classified against the average task count per resource.
func (g *TaskGraph) Resources() []Resource {
	byID := make(map[string]*Resource)
	var order []string
	for _, id := range g.sortedIDs() {
		t := g.Tasks[id]
		r, ok := byID[t.Resource]
		if !ok {
			r = &Resource{ID: t.Resource}
			byID[t.Resource] = r
			order = append(order, t.Resource)
		}
		r.TaskIDs = append(r.TaskIDs, t.ID)
		r.Workload += t.Duration
		r.Cost += t.Cost()
	}
	sort.Strings(order)

	avg := 0.0
	if len(order) > 0 {
		avg = float64(len(g.Tasks)) / float64(len(order))
	}
	out := make([]Resource, 0, len(order))
	for _, id := range order {
		r := byID[id]
		r.Utilization = classify(len(r.TaskIDs), avg)
		out = append(out, *r)
	}
	return out
}
