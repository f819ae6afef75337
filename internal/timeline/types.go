package timeline

import "time"

// TaskDeps holds per-task predecessor and successor lists.
type TaskDeps struct {
	Predecessors map[string][]string `json:"predecessors"`
	Successors   map[string][]string `json:"successors"`
}

// Timeline is the calendar view of a schedule.
type Timeline struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Start        time.Time       `json:"start"`
	Finish       time.Time       `json:"finish"`
	Duration     float64         `json:"duration"` // days
	TotalTasks   int             `json:"total_tasks"`
	TotalWaves   int             `json:"total_waves"`
	CriticalPath []string        `json:"critical_path"`
	Waves        []Wave          `json:"waves"`
	Tasks        map[string]*Row `json:"tasks"`
	Deps         TaskDeps        `json:"deps"`
}

// Wave is a group of tasks that can start on the same date.
type Wave struct {
	Index     int       `json:"index"`
	StartDate time.Time `json:"start_date"`
	Rows      []Row     `json:"rows"`
	DependsOn []int     `json:"depends_on"`
}

// Row is a single task on the calendar.
type Row struct {
	TaskID     string    `json:"task_id"`
	Name       string    `json:"name"`
	Resource   string    `json:"resource"`
	Risk       string    `json:"risk"`
	Duration   float64   `json:"duration"`
	Slack      float64   `json:"slack"`
	IsCritical bool      `json:"is_critical"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	WaveIndex  int       `json:"wave_index"`
}
