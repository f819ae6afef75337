// Package timeline turns schedule offsets into calendar dates.
package timeline

import (
	"fmt"
	"time"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
)

// Build lays the schedule out on the calendar from start. Offsets are
// calendar days; fractional days become hours.
func Build(g *graph.TaskGraph, sched *cpm.Schedule, start time.Time) (*Timeline, error) {
	if start.IsZero() {
		y, m, d := time.Now().Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}

	tl := &Timeline{
		ID:           fmt.Sprintf("timeline-%s", start.Format("2006-01-02")),
		CreatedAt:    time.Now(),
		Start:        start,
		Finish:       At(start, sched.ProjectDuration),
		Duration:     sched.ProjectDuration,
		TotalTasks:   g.TaskCount(),
		TotalWaves:   len(sched.Waves),
		CriticalPath: sched.CriticalPath,
		Tasks:        make(map[string]*Row, g.TaskCount()),
		Deps: TaskDeps{
			Predecessors: make(map[string][]string, g.TaskCount()),
			Successors:   make(map[string][]string, g.TaskCount()),
		},
	}

	for _, wave := range sched.Waves {
		w := Wave{
			Index:     wave.Index,
			StartDate: At(start, wave.Start),
		}

		// Each wave depends on all previous waves
		if wave.Index > 0 {
			w.DependsOn = []int{wave.Index - 1}
		}

		for _, taskID := range wave.TaskIDs {
			task, ok := g.Tasks[taskID]
			entry := sched.Entries[taskID]
			if !ok || entry == nil {
				return nil, fmt.Errorf("task %s is scheduled but not in the graph", taskID)
			}

			w.Rows = append(w.Rows, Row{
				TaskID:     taskID,
				Name:       task.Name,
				Resource:   task.Resource,
				Risk:       string(task.Risk),
				Duration:   entry.Duration,
				Slack:      entry.Slack,
				IsCritical: entry.Critical,
				StartDate:  At(start, entry.ES),
				EndDate:    At(start, entry.EF),
				WaveIndex:  wave.Index,
			})
		}

		tl.Waves = append(tl.Waves, w)
	}

	for wi := range tl.Waves {
		for ti := range tl.Waves[wi].Rows {
			r := &tl.Waves[wi].Rows[ti]
			tl.Tasks[r.TaskID] = r
		}
	}
	for _, id := range g.IDs {
		tl.Deps.Predecessors[id] = append([]string{}, g.RevAdj[id]...)
		tl.Deps.Successors[id] = append([]string{}, g.Adj[id]...)
	}

	return tl, nil
}

// At returns the date offset days after start.
func At(start time.Time, days float64) time.Time {
	whole := int(days)
	frac := days - float64(whole)
	return start.AddDate(0, 0, whole).Add(time.Duration(frac * 24 * float64(time.Hour)))
}
