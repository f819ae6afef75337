package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/optimizer"
	"github.com/joshharrison/riskloom/internal/simulator"
	"github.com/joshharrison/riskloom/internal/ui"
)

const nameWidth = 36

// Text renders a deterministic terminal report. It needs no network.
type Text struct{}

// Generate implements Generator.
func (Text) Generate(_ context.Context, in Input) (string, error) {
	var b strings.Builder
	Write(&b, in)
	return b.String(), nil
}

// Write renders every section that has data to w.
func Write(w io.Writer, in Input) {
	if in.Graph != nil && in.Schedule != nil {
		WriteSchedule(w, in.Graph, in.Schedule)
	}
	if in.Optimization != nil {
		WriteOptimization(w, in.Optimization)
	}
	if in.Simulation != nil {
		WriteSimulation(w, in.Simulation)
	}
}

// WriteSchedule writes the plan header, per-wave breakdown and critical path.
func WriteSchedule(w io.Writer, g *graph.TaskGraph, s *cpm.Schedule) {
	fmt.Fprintf(w, "\n📅 %s\n", ui.BoldCyan("Schedule"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	fmt.Fprintf(w, "Tasks:     %d\n", g.TaskCount())
	fmt.Fprintf(w, "Duration:  %s\n", ui.Bold(days(s.ProjectDuration)))
	fmt.Fprintf(w, "Waves:     %d\n\n", len(s.Waves))

	for _, wave := range s.Waves {
		fmt.Fprintf(w, "  🌊 %s %d  %s  (%d tasks)\n",
			ui.BoldWhite("Wave"), wave.Index+1,
			ui.Dim("day "+trim(wave.Start)), len(wave.TaskIDs))
		for _, id := range wave.TaskIDs {
			writeTask(w, g.Tasks[id], s.Entries[id])
		}
		fmt.Fprintln(w)
	}

	if len(s.CriticalPath) > 0 {
		fmt.Fprintf(w, "Critical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(s.CriticalPath, " → ")))
	}

	var high []string
	for _, id := range g.IDs {
		if g.Tasks[id].Risk == graph.RiskHigh {
			high = append(high, id)
		}
	}
	if len(high) > 0 {
		fmt.Fprintf(w, "High risk: %s\n", ui.Red(strings.Join(high, ", ")))
	}

	m := g.Metrics()
	if m.TotalTasks == 0 {
		return
	}
	fmt.Fprintf(w, "Structure: %d dependent, %d independent, %d with several predecessors\n",
		m.Dependent, m.Independent, len(m.Complex))
	fmt.Fprintf(w, "Workload:  %s tasks / %s per resource on average\n",
		trim(m.AvgTasksPerResource), days(m.AvgDaysPerResource))
	for _, r := range m.Resources {
		switch r.Utilization {
		case graph.UtilizationOverloaded:
			fmt.Fprintf(w, "  %s %s  %d tasks, %s\n", ui.Red("overloaded   "), ui.Resource(r.ID), len(r.TaskIDs), days(r.Workload))
		case graph.UtilizationUnderutilized:
			fmt.Fprintf(w, "  %s %s  %d tasks, %s\n", ui.Yellow("underutilized"), ui.Resource(r.ID), len(r.TaskIDs), days(r.Workload))
		}
	}
}

// workloadActions suggests rebalancing when task counts are uneven.
func workloadActions(g *graph.TaskGraph) []string {
	m := g.Metrics()
	var out []string
	if len(m.Overloaded) > 0 {
		out = append(out, fmt.Sprintf("Rebalance %s: above %s tasks per resource",
			strings.Join(m.Overloaded, ", "), trim(m.AvgTasksPerResource*1.5)))
	}
	if len(m.Underutilized) > 0 {
		out = append(out, fmt.Sprintf("Give more work to %s", strings.Join(m.Underutilized, ", ")))
	}
	return out
}

func writeTask(w io.Writer, t *graph.Task, e *cpm.Entry) {
	critical := " "
	if e.Critical {
		critical = ui.BoldYellow("⚡")
	}

	name := t.Name
	if name == "" {
		name = t.ID
	}
	name = runewidth.FillRight(runewidth.Truncate(name, nameWidth, "..."), nameWidth)

	timing := ui.Dim(fmt.Sprintf("[%s–%s, slack %s]", trim(e.ES), trim(e.EF), trim(e.Slack)))
	fmt.Fprintf(w, "    %s %s %s %s  %s  %s\n",
		ui.RiskIcon(string(t.Risk)), ui.BoldMagenta(t.ID), name, critical, ui.Resource(t.Resource), timing)
}

// WriteOptimization writes the before/after comparison and recommended moves.
func WriteOptimization(w io.Writer, r *optimizer.Result) {
	fmt.Fprintf(w, "\n👥 %s\n", ui.BoldCyan("Resource Optimization"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	fmt.Fprintf(w, "Status:    %s\n", ui.Status(string(r.Status)))
	fmt.Fprintf(w, "Makespan:  %s → %s\n", days(r.OriginalMakespan), ui.Bold(days(r.OptimizedMakespan)))
	fmt.Fprintf(w, "Cost:      %s → %s\n", money(r.OriginalCost), money(r.OptimizedCost))

	switch {
	case r.ImprovementPct > 0:
		fmt.Fprintf(w, "Improved:  %s\n", ui.BoldGreen(fmt.Sprintf("%.1f%%", r.ImprovementPct)))
	case r.ChangePct < 0:
		fmt.Fprintf(w, "Improved:  0%% %s\n", ui.Red(fmt.Sprintf("(regression of %.1f%%)", -r.ChangePct)))
	default:
		fmt.Fprintf(w, "Improved:  0%%\n")
	}
	fmt.Fprintf(w, "Bound:     %s %s\n\n", days(r.LowerBound), ui.Dim(fmt.Sprintf("(%d nodes searched)", r.Nodes)))

	if len(r.Reassignments) > 0 {
		fmt.Fprintf(w, "  %s\n", ui.BoldWhite("Reassignments"))
		for _, m := range r.Reassignments {
			fmt.Fprintf(w, "    ↪ %s  %s → %s\n", ui.BoldMagenta(m.TaskID), ui.Resource(m.From), ui.Resource(m.To))
		}
		fmt.Fprintln(w)
	}

	before := make(map[string]optimizer.ResourceLoad, len(r.Before))
	for _, l := range r.Before {
		before[l.ID] = l
	}
	fmt.Fprintf(w, "  %s\n", ui.BoldWhite("Allocation"))
	for _, l := range r.After {
		fmt.Fprintf(w, "    %s  %d tasks  %s → %s  %s\n",
			ui.Resource(l.ID), len(l.TaskIDs),
			ui.Dim(days(before[l.ID].Workload)), days(l.Workload), money(l.Cost))
	}

	fmt.Fprintf(w, "\n💡 %s\n", ui.BoldWhite("Key actions"))
	for i, a := range optimizationActions(r) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, a)
	}
}

func optimizationActions(r *optimizer.Result) []string {
	var out []string
	switch {
	case r.Status == optimizer.StatusTimedOut && r.Feasible:
		out = append(out, "Apply the reassignments above; the search ran out of budget, so a better allocation may exist")
	case r.Status == optimizer.StatusTimedOut:
		out = append(out, "Keep the current allocation; raise the optimizer timeout to search further")
	case r.Feasible:
		out = append(out, "Apply the reassignments above to shorten the project")
	default:
		out = append(out, "Keep the current allocation; no reassignment improves on it")
	}
	if r.OptimizedMakespan > r.LowerBound+1e-9 {
		out = append(out, fmt.Sprintf("Capacity, not dependencies, limits the plan: the best possible is %s", days(r.LowerBound)))
	}
	out = append(out,
		"Monitor the critical path during execution",
		"Re-run the optimizer when tasks are added or durations change",
	)
	return out
}

// WriteSimulation writes duration and cost analysis with the risk assessment.
func WriteSimulation(w io.Writer, r *simulator.Result) {
	fmt.Fprintf(w, "\n🎲 %s\n", ui.BoldCyan("Monte Carlo Risk Simulation"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	fmt.Fprintf(w, "Iterations: %s  %s\n", humanize.Comma(int64(r.Iterations)), ui.Dim(fmt.Sprintf("(seed %d)", r.Seed)))

	if r.Empty {
		fmt.Fprintf(w, "%s\n", ui.Dim("No tasks to simulate; statistics are undefined."))
		return
	}

	fmt.Fprintf(w, "\n📊 %s\n", ui.BoldWhite("Duration"))
	fmt.Fprintf(w, "  Baseline:  %s\n", days(r.BaselineDuration))
	fmt.Fprintf(w, "  Mean:      %s (%+.1f%%)\n", days(r.Mean), pct(r.Mean, r.BaselineDuration))
	fmt.Fprintf(w, "  Std dev:   ±%s\n", days(r.StdDev))
	fmt.Fprintf(w, "  Range:     %s – %s\n", days(r.Min), days(r.Max))
	fmt.Fprintf(w, "  Confidence intervals:\n")
	for _, p := range r.Percentiles {
		note := ""
		switch p.P {
		case 90:
			note = ui.Dim(" (recommended buffer)")
		case 95:
			note = ui.Dim(" (conservative estimate)")
		}
		fmt.Fprintf(w, "    • %s%% confidence: ≤ %s%s\n", trim(p.P), days(p.Value), note)
	}

	fmt.Fprintf(w, "\n💰 %s\n", ui.BoldWhite("Cost"))
	fmt.Fprintf(w, "  Baseline:  %s\n", money(r.BaselineCost))
	fmt.Fprintf(w, "  Mean:      %s (%+.1f%%)\n", money(r.MeanCost), pct(r.MeanCost, r.BaselineCost))
	fmt.Fprintf(w, "  Std dev:   ±%s\n", money(r.StdDevCost))
	fmt.Fprintf(w, "  Budget:    %s %s\n", ui.Bold(money(r.MeanCost+r.StdDevCost)), ui.Dim("(mean + 1σ)"))

	fmt.Fprintf(w, "\n⚠️  %s\n", ui.BoldWhite("Risk assessment"))
	fmt.Fprintf(w, "  Probability of delay: %.1f%%\n", r.RiskProbability*100)
	fmt.Fprintf(w, "  Risk level:           %s\n", ui.Category(string(r.RiskCategory)))
	fmt.Fprintf(w, "  %s\n", categoryVerdict(r.RiskCategory))

	fmt.Fprintf(w, "\n📋 %s\n", ui.BoldWhite("Recommendations"))
	for i, rec := range simulationActions(r) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}

	fmt.Fprintf(w, "\nConfidence level: %.1f%%", r.ConfidenceLevel)
	if r.ConfidenceLevel < 85 {
		fmt.Fprintf(w, "  %s", ui.Yellow("consider 10,000+ iterations"))
	}
	fmt.Fprintln(w)
}

func categoryVerdict(c simulator.Category) string {
	switch c {
	case simulator.CategoryHigh:
		return "Significant chance of exceeding the baseline"
	case simulator.CategoryMedium:
		return "Moderate chance of delays"
	}
	return "Project likely to meet the timeline"
}

func simulationActions(r *simulator.Result) []string {
	buffer := math.Max(0, r.Percentile(90)-r.BaselineDuration)
	contingency := math.Max(0, r.MeanCost+r.StdDevCost-r.BaselineCost)

	out := []string{
		fmt.Sprintf("Add %s of buffer for 90%% confidence", days(buffer)),
		fmt.Sprintf("Budget an extra %s for contingency", money(contingency)),
	}
	if r.StdDev > 0.2*r.BaselineDuration {
		out = append(out, "Focus on high-risk tasks to reduce variance")
	} else {
		out = append(out, "Current risk profile is acceptable")
	}
	return append(out, "Re-run the simulation after major project changes")
}

// Recommendations collects the action items of every section present.
func Recommendations(in Input) []string {
	var out []string
	if in.Graph != nil {
		out = append(out, workloadActions(in.Graph)...)
	}
	if in.Optimization != nil {
		out = append(out, optimizationActions(in.Optimization)...)
	}
	if in.Simulation != nil && !in.Simulation.Empty {
		out = append(out, simulationActions(in.Simulation)...)
	}
	return out
}

func days(d float64) string {
	if math.IsNaN(d) {
		return "n/a"
	}
	if d == 1 {
		return "1 day"
	}
	return trim(d) + " days"
}

// trim formats with at most one decimal.
func trim(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}

func money(f float64) string {
	if math.IsNaN(f) {
		return "n/a"
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

func pct(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (v - base) / base * 100
}
