package graph

import (
	"fmt"
	"strings"
)

// RiskLevel is the qualitative risk tag attached to a task.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Unassigned is the resource given to tasks that arrive without one.
const Unassigned = "unassigned"

// ParseRisk accepts the canonical tags plus the "Med" shorthand used by
// upstream task sheets. An empty string maps to Low.
func ParseRisk(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return RiskLow, nil
	case "med", "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q (want Low, Medium or High)", s)
}

// UnmarshalText lets task files carry any spelling ParseRisk understands.
func (r *RiskLevel) UnmarshalText(b []byte) error {
	v, err := ParseRisk(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Task is a single row of the validated project task table.
type Task struct {
	ID                string    `json:"id" yaml:"id"`
	Name              string    `json:"name" yaml:"name"`
	Duration          float64   `json:"duration" yaml:"duration"` // nominal, days
	Resource          string    `json:"resource" yaml:"resource"`
	CostRate          float64   `json:"cost_rate" yaml:"cost_rate"` // per day
	Predecessors      []string  `json:"predecessors,omitempty" yaml:"predecessors,omitempty"`
	Risk              RiskLevel `json:"risk" yaml:"risk"`
	EligibleResources []string  `json:"eligible_resources,omitempty" yaml:"eligible_resources,omitempty"`
}

// Cost returns the nominal cost of the task (duration × cost rate).
func (t *Task) Cost() float64 {
	return t.Duration * t.CostRate
}

// TaskGraph is a directed acyclic graph of tasks. Edges run from a
// predecessor to its dependent.
type TaskGraph struct {
	Tasks  map[string]*Task
	IDs    []string            // all task IDs, sorted
	Adj    map[string][]string // task -> tasks that depend on it
	RevAdj map[string][]string // task -> its predecessors
	Roots  []string            // tasks with no predecessors
	Leaves []string            // tasks with no successors
}

// Resource is a derived view over the task set, grouped by assignee.
type Resource struct {
	ID       string   `json:"id"`
	TaskIDs  []string `json:"task_ids"`
	Workload float64  `json:"workload"` // sum of durations, days
	Cost     float64  `json:"cost"`

	Utilization Utilization `json:"utilization"`
}
