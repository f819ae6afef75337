package graph

// Utilization classifies a resource's task count against the project average.
type Utilization string

const (
	UtilizationBalanced      Utilization = "balanced"
	UtilizationOverloaded    Utilization = "overloaded"    // more than 1.5x the average task count
	UtilizationUnderutilized Utilization = "underutilized" // less than 0.5x the average task count
)

const (
	overloadFactor  = 1.5
	underloadFactor = 0.5
)

// Metrics is a deterministic summary of the task table.
type Metrics struct {
	TotalTasks int     `json:"total_tasks"`
	TotalWork  float64 `json:"total_work_days"` // sum of durations, not the makespan
	TotalCost  float64 `json:"total_cost"`

	HighRisk   int `json:"high_risk_count"`
	MediumRisk int `json:"med_risk_count"`
	LowRisk    int `json:"low_risk_count"`

	Dependent   int      `json:"dependent_tasks"`
	Independent int      `json:"independent_tasks"`
	Complex     []string `json:"complex_tasks"` // more than one predecessor

	Resources           []Resource `json:"resources"`
	AvgTasksPerResource float64    `json:"avg_tasks_per_resource"`
	AvgDaysPerResource  float64    `json:"avg_days_per_resource"`
	Overloaded          []string   `json:"overloaded_resources"`
	Underutilized       []string   `json:"underutilized_resources"`
}

// Metrics computes the summary. Slices are in ID order.
func (g *TaskGraph) Metrics() Metrics {
	m := Metrics{TotalTasks: g.TaskCount()}
	for _, id := range g.sortedIDs() {
		t := g.Tasks[id]
		m.TotalWork += t.Duration
		m.TotalCost += t.Cost()

		switch t.Risk {
		case RiskHigh:
			m.HighRisk++
		case RiskMedium:
			m.MediumRisk++
		default:
			m.LowRisk++
		}

		switch preds := len(g.RevAdj[id]); {
		case preds == 0:
			m.Independent++
		case preds > 1:
			m.Complex = append(m.Complex, id)
			m.Dependent++
		default:
			m.Dependent++
		}
	}

	m.Resources = g.Resources()
	if n := len(m.Resources); n > 0 {
		m.AvgTasksPerResource = float64(m.TotalTasks) / float64(n)
		m.AvgDaysPerResource = m.TotalWork / float64(n)
	}
	for _, r := range m.Resources {
		switch r.Utilization {
		case UtilizationOverloaded:
			m.Overloaded = append(m.Overloaded, r.ID)
		case UtilizationUnderutilized:
			m.Underutilized = append(m.Underutilized, r.ID)
		}
	}
	return m
}

func classify(tasks int, avg float64) Utilization {
	switch {
	case float64(tasks) > avg*overloadFactor:
		return UtilizationOverloaded
	case float64(tasks) < avg*underloadFactor:
		return UtilizationUnderutilized
	}
	return UtilizationBalanced
}
