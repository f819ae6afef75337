package cpm

import (
	"errors"
	"math"
	"testing"

	"github.com/joshharrison/riskloom/internal/graph"
)

func buildTestGraph(t *testing.T, tasks []graph.Task) *graph.TaskGraph {
	t.Helper()
	g, err := graph.Build(tasks)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestAnalyze_LinearChain(t *testing.T) {
	// A -> B -> C (each duration 1)
	g := buildTestGraph(t, []graph.Task{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1, Predecessors: []string{"a"}},
		{ID: "c", Duration: 1, Predecessors: []string{"b"}},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProjectDuration != 3 {
		t.Errorf("expected project duration 3, got %v", result.ProjectDuration)
	}
	if len(result.CriticalPath) != 3 {
		t.Errorf("expected 3 tasks on critical path, got %v", result.CriticalPath)
	}
	if len(result.Waves) != 3 {
		t.Errorf("expected 3 waves, got %d", len(result.Waves))
	}

	assertEntry(t, result.Entries["a"], 0, 1, 0, 1, 0, true)
	assertEntry(t, result.Entries["b"], 1, 2, 1, 2, 0, true)
	assertEntry(t, result.Entries["c"], 2, 3, 2, 3, 0, true)
}

func TestAnalyze_ForkScenario(t *testing.T) {
	// A(5); B(3) after A; C(4) after A -> duration 9, critical path A, C
	g := buildTestGraph(t, []graph.Task{
		{ID: "A", Duration: 5},
		{ID: "B", Duration: 3, Predecessors: []string{"A"}},
		{ID: "C", Duration: 4, Predecessors: []string{"A"}},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProjectDuration != 9 {
		t.Errorf("expected project duration 9, got %v", result.ProjectDuration)
	}
	if len(result.CriticalPath) != 2 || result.CriticalPath[0] != "A" || result.CriticalPath[1] != "C" {
		t.Errorf("expected critical path [A C], got %v", result.CriticalPath)
	}
	assertEntry(t, result.Entries["B"], 5, 8, 6, 9, 1, false)
	assertEntry(t, result.Entries["C"], 5, 9, 5, 9, 0, true)
}

func TestAnalyze_DiamondTieBreak(t *testing.T) {
	// A -> B -> D and A -> C -> D with equal durations: both chains are
	// critical, the canonical sequence takes the lowest ID.
	g := buildTestGraph(t, []graph.Task{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1, Predecessors: []string{"a"}},
		{ID: "c", Duration: 1, Predecessors: []string{"a"}},
		{ID: "d", Duration: 1, Predecessors: []string{"b", "c"}},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProjectDuration != 3 {
		t.Errorf("expected project duration 3, got %v", result.ProjectDuration)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !result.Entries[id].Critical {
			t.Errorf("expected task %s to be critical", id)
		}
	}
	want := []string{"a", "b", "d"}
	if len(result.CriticalPath) != len(want) {
		t.Fatalf("expected critical path %v, got %v", want, result.CriticalPath)
	}
	for i := range want {
		if result.CriticalPath[i] != want[i] {
			t.Errorf("expected critical path %v, got %v", want, result.CriticalPath)
			break
		}
	}
	if len(result.Waves) != 3 || len(result.Waves[1].TaskIDs) != 2 {
		t.Errorf("expected waves [a] [b c] [d], got %+v", result.Waves)
	}
}

func TestAnalyze_WithDurations(t *testing.T) {
	// A(5) -> B(1) -> D(1)
	// A(5) -> C(10) -> D(1)
	g := buildTestGraph(t, []graph.Task{
		{ID: "a", Duration: 5},
		{ID: "b", Duration: 1, Predecessors: []string{"a"}},
		{ID: "c", Duration: 10, Predecessors: []string{"a"}},
		{ID: "d", Duration: 1, Predecessors: []string{"b", "c"}},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProjectDuration != 16 {
		t.Errorf("expected project duration 16, got %v", result.ProjectDuration)
	}
	if result.Entries["b"].Critical {
		t.Error("expected task B to NOT be critical")
	}
	if result.Entries["b"].Slack != 9 {
		t.Errorf("expected B slack=9, got %v", result.Entries["b"].Slack)
	}
	for _, id := range []string{"a", "c", "d"} {
		if !result.Entries[id].Critical {
			t.Errorf("expected task %s to be critical", id)
		}
	}
}

func TestAnalyze_FractionalDurations(t *testing.T) {
	// 0.1 + 0.2 is not exactly 0.3 in floating point; both branches still
	// need to be recognised as critical.
	g := buildTestGraph(t, []graph.Task{
		{ID: "a", Duration: 0.1},
		{ID: "b", Duration: 0.2, Predecessors: []string{"a"}},
		{ID: "c", Duration: 0.3},
		{ID: "d", Duration: 1, Predecessors: []string{"b", "c"}},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !result.Entries[id].Critical {
			t.Errorf("expected %s critical, slack=%v", id, result.Entries[id].Slack)
		}
	}
}

func TestAnalyze_ParallelIndependent(t *testing.T) {
	g := buildTestGraph(t, []graph.Task{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1},
		{ID: "c", Duration: 2},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Waves) != 1 {
		t.Errorf("expected 1 wave, got %d", len(result.Waves))
	}
	if result.ProjectDuration != 2 {
		t.Errorf("expected project duration 2, got %v", result.ProjectDuration)
	}
	if len(result.CriticalPath) != 1 || result.CriticalPath[0] != "c" {
		t.Errorf("expected critical path [c], got %v", result.CriticalPath)
	}
	if result.Entries["a"].Slack != 1 {
		t.Errorf("expected a slack=1, got %v", result.Entries["a"].Slack)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	g := buildTestGraph(t, nil)

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 || result.ProjectDuration != 0 || len(result.CriticalPath) != 0 {
		t.Errorf("expected empty schedule, got %+v", result)
	}
}

func TestAnalyze_HandBuiltCycle(t *testing.T) {
	g := &graph.TaskGraph{
		Tasks: map[string]*graph.Task{
			"a": {ID: "a", Duration: 1},
			"b": {ID: "b", Duration: 1},
		},
		Adj:    map[string][]string{"a": {"b"}, "b": {"a"}},
		RevAdj: map[string][]string{"a": {"b"}, "b": {"a"}},
	}

	_, err := Analyze(g)
	if !errors.Is(err, graph.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestAnalyze_Properties(t *testing.T) {
	g := buildTestGraph(t, []graph.Task{
		{ID: "t1", Duration: 3},
		{ID: "t2", Duration: 2, Predecessors: []string{"t1"}},
		{ID: "t3", Duration: 7},
		{ID: "t4", Duration: 1.5, Predecessors: []string{"t2", "t3"}},
		{ID: "t5", Duration: 4, Predecessors: []string{"t1"}},
		{ID: "t6", Duration: 0.5, Predecessors: []string{"t4", "t5"}},
		{ID: "t7", Duration: 2, Predecessors: []string{"t3"}},
	})

	result, err := Analyze(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duration equals the latest end of a task without successors.
	maxLeafEnd := 0.0
	for _, id := range g.Leaves {
		maxLeafEnd = math.Max(maxLeafEnd, result.Entries[id].End())
	}
	if result.ProjectDuration != maxLeafEnd {
		t.Errorf("project duration %v != max leaf end %v", result.ProjectDuration, maxLeafEnd)
	}

	for _, id := range result.CriticalPath {
		if result.Entries[id].Slack != 0 {
			t.Errorf("critical path task %s has slack %v", id, result.Entries[id].Slack)
		}
	}

	// Precedence and slack sanity for every task.
	for id, e := range result.Entries {
		if e.Slack < 0 {
			t.Errorf("task %s has negative slack %v", id, e.Slack)
		}
		for _, p := range g.RevAdj[id] {
			if result.Entries[p].End() > e.Start() {
				t.Errorf("task %s starts before predecessor %s ends", id, p)
			}
		}
	}
}

func TestNetwork_FinishMatchesAnalyze(t *testing.T) {
	g := buildTestGraph(t, []graph.Task{
		{ID: "A", Duration: 5},
		{ID: "B", Duration: 3, Predecessors: []string{"A"}},
		{ID: "C", Duration: 4, Predecessors: []string{"A"}},
	})

	n, err := Compile(g)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := n.Baseline(); got != 9 {
		t.Errorf("expected baseline 9, got %v", got)
	}

	// Stretch B past C.
	durs := append([]float64(nil), n.Durations...)
	i, _ := n.Index("B")
	durs[i] = 6
	scratch := make([]float64, n.Len())
	if got := n.Finish(durs, scratch); got != 11 {
		t.Errorf("expected 11 after stretching B, got %v", got)
	}
}

func assertEntry(t *testing.T, e *Entry, es, ef, ls, lf, slack float64, critical bool) {
	t.Helper()
	if e.ES != es {
		t.Errorf("task %s: expected ES=%v, got %v", e.TaskID, es, e.ES)
	}
	if e.EF != ef {
		t.Errorf("task %s: expected EF=%v, got %v", e.TaskID, ef, e.EF)
	}
	if e.LS != ls {
		t.Errorf("task %s: expected LS=%v, got %v", e.TaskID, ls, e.LS)
	}
	if e.LF != lf {
		t.Errorf("task %s: expected LF=%v, got %v", e.TaskID, lf, e.LF)
	}
	if e.Slack != slack {
		t.Errorf("task %s: expected slack=%v, got %v", e.TaskID, slack, e.Slack)
	}
	if e.Critical != critical {
		t.Errorf("task %s: expected critical=%v, got %v", e.TaskID, critical, e.Critical)
	}
}
