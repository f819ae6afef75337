package cpm

// Schedule holds the complete critical path analysis of a task table.
// It is rebuilt from scratch on every Analyze call and never mutated afterwards.
type Schedule struct {
	Entries         map[string]*Entry `json:"entries"`
	Order           []string          `json:"order"`         // topological, ties by lowest ID
	CriticalPath    []string          `json:"critical_path"` // canonical zero-slack sequence
	ProjectDuration float64           `json:"project_duration"`
	Waves           []Wave            `json:"waves"` // parallelizable groups
}

// Entry holds the scheduling info for a single task. Offsets are in days from
// project start.
type Entry struct {
	TaskID   string  `json:"task_id"`
	Duration float64 `json:"duration"`
	ES       float64 `json:"early_start"`
	EF       float64 `json:"early_finish"`
	LS       float64 `json:"late_start"`
	LF       float64 `json:"late_finish"`
	Slack    float64 `json:"slack"`
	Critical bool    `json:"critical"`
	Wave     int     `json:"wave"`
}

// Start is the computed start offset.
func (e *Entry) Start() float64 { return e.ES }

// End is the computed end offset (start + duration).
func (e *Entry) End() float64 { return e.EF }

// Wave represents a group of tasks sharing the same earliest start.
type Wave struct {
	Index      int      `json:"index"`
	Start      float64  `json:"start"`
	TaskIDs    []string `json:"task_ids"`
	IsCritical bool     `json:"is_critical"` // true if wave contains critical path tasks
}
