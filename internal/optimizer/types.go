package optimizer

import (
	"log/slog"
	"time"
)

// Resource is a roster entry the optimizer may assign tasks to.
type Resource struct {
	ID          string  `json:"id" yaml:"id"`
	Capacity    int     `json:"capacity" yaml:"capacity"`         // concurrent task slots; 0 = Config.DefaultCapacity
	MaxWorkload float64 `json:"max_workload" yaml:"max_workload"` // ceiling on total assigned days; 0 = unlimited
	CostRate    float64 `json:"cost_rate" yaml:"cost_rate"`       // per-day override; 0 = use the task's own rate
}

// Status describes how the search ended. None of these are errors.
type Status string

const (
	// StatusOptimal means the search completed and the returned assignment
	// beats the baseline.
	StatusOptimal Status = "optimal"
	// StatusNoImprovement means the search completed without finding any
	// feasible assignment better than the baseline.
	StatusNoImprovement Status = "no_improvement"
	// StatusTimedOut means the time or node budget ran out. The result holds
	// the best assignment found before that point.
	StatusTimedOut Status = "timed_out"
)

// Reassignment records a task that moved between resources.
type Reassignment struct {
	TaskID string `json:"task_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// ResourceLoad summarises one resource under an assignment.
type ResourceLoad struct {
	ID       string   `json:"id"`
	Capacity int      `json:"capacity"`
	TaskIDs  []string `json:"task_ids"`
	Workload float64  `json:"workload"`
	Cost     float64  `json:"cost"`
}

// Slot is the resource-constrained start and finish of a task.
type Slot struct {
	Start  float64 `json:"start"`
	Finish float64 `json:"finish"`
}

// Result is the outcome of an optimization request.
type Result struct {
	Status            Status            `json:"status"`
	Feasible          bool              `json:"feasible"`
	OriginalMakespan  float64           `json:"original_makespan"`
	OptimizedMakespan float64           `json:"optimized_makespan"`
	OriginalCost      float64           `json:"original_cost"`
	OptimizedCost     float64           `json:"optimized_cost"`
	ImprovementPct    float64           `json:"improvement_pct"` // clamped to >= 0
	ChangePct         float64           `json:"change_pct"`      // signed; negative is a regression
	LowerBound        float64           `json:"lower_bound"`
	Assignment        map[string]string `json:"assignment"` // task -> resource
	Reassignments     []Reassignment    `json:"reassignments"`
	Before            []ResourceLoad    `json:"before"`
	After             []ResourceLoad    `json:"after"`
	Slots             map[string]Slot   `json:"slots"`
	Nodes             int               `json:"nodes"`
}

// Config bounds the search.
type Config struct {
	Timeout         time.Duration // wall-clock budget; 0 = no deadline beyond ctx
	DefaultCapacity int           // slots for resources with Capacity 0; <1 means 1
	MaxNodes        int           // search node budget; 0 = unlimited
	Logger          *slog.Logger
}
