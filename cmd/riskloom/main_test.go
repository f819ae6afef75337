package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
)

func buildGraph(t *testing.T) *graph.TaskGraph {
	t.Helper()
	g, err := graph.Build([]graph.Task{
		{ID: "design", Name: "Design", Duration: 5, Resource: "alice", Risk: graph.RiskLow},
		{ID: "backend", Name: "Backend", Duration: 8, Resource: "bob", Risk: graph.RiskHigh, Predecessors: []string{"design"}},
		{ID: "docs", Name: "Docs", Duration: 2, Resource: "alice", Risk: graph.RiskLow, Predecessors: []string{"design"}},
	})
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestApplyFilter_Risk(t *testing.T) {
	g, err := applyFilter(buildGraph(t), "risk=high")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 1 || g.Tasks["backend"] == nil {
		t.Fatalf("expected only backend, got %v", g.IDs)
	}
	if len(g.Tasks["backend"].Predecessors) != 0 {
		t.Errorf("edge to filtered-out task should be dropped, got %v", g.Tasks["backend"].Predecessors)
	}
}

func TestApplyFilter_Resource(t *testing.T) {
	g, err := applyFilter(buildGraph(t), "resource=alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 2 {
		t.Errorf("expected 2 tasks for alice, got %v", g.IDs)
	}
}

func TestApplyFilter_Errors(t *testing.T) {
	for _, f := range []string{"priority<=2", "risk=extreme"} {
		if _, err := applyFilter(buildGraph(t), f); err == nil {
			t.Errorf("%s: expected error", f)
		}
	}
}

func TestParseStart(t *testing.T) {
	d, err := parseStart("2025-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 3 || d.Day() != 10 {
		t.Errorf("unexpected date: %v", d)
	}

	d, err = parseStart("")
	if err != nil || !d.IsZero() {
		t.Errorf("empty start should be zero, got %v %v", d, err)
	}

	if _, err := parseStart("10/03/2025"); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestPrintDOT(t *testing.T) {
	g := buildGraph(t)
	s, err := cpm.Analyze(g)
	if err != nil {
		t.Fatalf("cpm analyze: %v", err)
	}

	var buf bytes.Buffer
	if err := printDOT(&buf, g, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph riskloom {") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, `"design" -> "backend" [color=red, penwidth=2];`) {
		t.Errorf("critical edge should be highlighted:\n%s", out)
	}
	if !strings.Contains(out, `"design" -> "docs";`) {
		t.Errorf("non-critical edge should be plain:\n%s", out)
	}
}

func TestPrintDOT_EscapesLabels(t *testing.T) {
	g, err := graph.Build([]graph.Task{
		{ID: "api", Name: `Ship "v2" C:\build`, Duration: 3},
		{ID: "ops", Name: "Deploy\nnightly", Duration: 1, Predecessors: []string{"api"}},
	})
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	s, err := cpm.Analyze(g)
	if err != nil {
		t.Fatalf("cpm analyze: %v", err)
	}

	var buf bytes.Buffer
	if err := printDOT(&buf, g, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	want := `"api" [label="api\nShip \"v2\" C:\\build (3d)"`
	if !strings.Contains(out, want) {
		t.Errorf("label not escaped, want %s in:\n%s", want, out)
	}
	if !strings.Contains(out, `label="ops\nDeploy\nnightly (1d)"`) {
		t.Errorf("raw newline should become \\n:\n%s", out)
	}
	for i, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if (strings.Count(line, `"`)-strings.Count(line, `\"`))%2 != 0 {
			t.Errorf("line %d has unbalanced quotes: %s", i+1, line)
		}
	}
}

func TestInterruptible(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	ctx, stop := interruptible(cmd)
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send SIGINT: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("SIGINT did not cancel the command context")
	}
}

func TestSuggest(t *testing.T) {
	ids := []string{"backend", "design", "docs", "frontend"}
	got := suggest("bkend", ids)
	if len(got) == 0 || got[0] != "backend" {
		t.Errorf("expected backend first, got %v", got)
	}
	if got := suggest("zzz", ids); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
}
