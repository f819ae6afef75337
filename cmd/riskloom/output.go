package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/engine"
	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/timeline"
	"github.com/joshharrison/riskloom/internal/ui"
)

const dateLayout = "Mon 2006-01-02"

func printCalendar(tl *timeline.Timeline) {
	fmt.Printf("\n🗓️  %s\n", ui.BoldCyan("Calendar"))
	fmt.Println(ui.Cyan("══════════════════════════"))
	fmt.Printf("Start:     %s\n", tl.Start.Format(dateLayout))
	fmt.Printf("Finish:    %s\n", ui.Bold(tl.Finish.Format(dateLayout)))
	fmt.Println()

	for _, wave := range tl.Waves {
		fmt.Printf("  🌊 %s %d  %s\n", ui.BoldWhite("Wave"), wave.Index+1, ui.Dim(wave.StartDate.Format(dateLayout)))
		for _, r := range wave.Rows {
			crit := " "
			if r.IsCritical {
				crit = ui.BoldYellow("⚡")
			}
			fmt.Printf("    %s %s  %s → %s  %s\n", crit, ui.BoldMagenta(r.TaskID),
				r.StartDate.Format("01-02"), r.EndDate.Format("01-02"), ui.Resource(r.Resource))
		}
	}
}

func printFooter(resp *engine.Response) {
	fmt.Println()
	fmt.Println(ui.Dim(fmt.Sprintf("request %s, %s", resp.ID, resp.Elapsed.Round(time.Millisecond))))
}

func printASCIIDAG(tl *timeline.Timeline) {
	fmt.Printf("🔗 %s\n", ui.BoldCyan("Task Dependency Graph"))
	fmt.Println(ui.Cyan("═══════════════════════"))
	fmt.Println()

	for _, wave := range tl.Waves {
		fmt.Printf("%s 🌊 Wave %d %s\n", ui.Cyan("──"), wave.Index+1, ui.Cyan("──────────────────────────────"))
		for _, r := range wave.Rows {
			crit := " "
			if r.IsCritical {
				crit = ui.BoldYellow("⚡")
			}
			name := r.Name
			if name == "" {
				name = ui.Dim("(unnamed)")
			}
			fmt.Printf("  %s %s [%s] %s\n", crit, ui.RiskIcon(r.Risk), ui.BoldMagenta(r.TaskID), name)

			// Show edges
			for _, next := range tl.Deps.Successors[r.TaskID] {
				fmt.Printf("      %s %s\n", ui.Dim("└──→"), ui.Magenta(next))
			}
		}
		fmt.Println()
	}
}

func printDOT(w io.Writer, g *graph.TaskGraph, s *cpm.Schedule) error {
	fmt.Fprintln(w, "digraph riskloom {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	critical := func(id string) bool {
		e, ok := s.Entries[id]
		return ok && e.Critical
	}

	for _, id := range g.IDs {
		task := g.Tasks[id]
		label := dotEscape(id) + `\n` + dotEscape(task.Name) + fmt.Sprintf(" (%gd)", task.Duration)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if critical(id) {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  \"%s\" [%s];\n", dotEscape(id), attrs)
	}

	fmt.Fprintln(w)

	for _, from := range g.IDs {
		for _, to := range g.Adj[from] {
			style := ""
			if critical(from) && critical(to) {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Fprintf(w, "  \"%s\" -> \"%s\"%s;\n", dotEscape(from), dotEscape(to), style)
		}
	}

	fmt.Fprintln(w, "}")
	return nil
}

// dotEscape escapes s for a DOT double-quoted string. Newlines become the
// \n line break DOT understands.
var dotEscape = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "").Replace

// suggest returns up to three task IDs that fuzzily match a mistyped one.
func suggest(id string, ids []string) []string {
	var out []string
	for _, m := range fuzzy.Find(id, ids) {
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}
