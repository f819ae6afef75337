package timeline

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const defaultBriefTemplate = `Task {{.TaskID}}{{if .Name}}: {{.Name}}{{end}}

## Schedule
- Resource: {{.Resource}}
- Duration: {{days .Duration}}
- Start: {{date .StartDate}}
- Finish: {{date .EndDate}}
- Slack: {{days .Slack}}
- Risk: {{.Risk}}
{{if .Predecessors}}
## Waits on
{{range .Predecessors}}- {{.}}
{{end}}{{end}}{{if .Successors}}
## Unblocks
{{range .Successors}}- {{.}}
{{end}}{{end}}
## Context
- This task is part of wave {{.WaveIndex}} ({{.WaveSize}} tasks starting together)
{{- if .IsCritical}}
- This task is on the CRITICAL PATH: any delay moves the project finish date
{{- end}}
`

// BriefData holds the data used to render a task brief.
type BriefData struct {
	Row
	Predecessors []string
	Successors   []string
	WaveSize     int
}

// BriefFor collects the brief data for one task.
func (tl *Timeline) BriefFor(taskID string) (BriefData, bool) {
	r, ok := tl.Tasks[taskID]
	if !ok {
		return BriefData{}, false
	}
	size := 0
	if r.WaveIndex < len(tl.Waves) {
		size = len(tl.Waves[r.WaveIndex].Rows)
	}
	return BriefData{
		Row:          *r,
		Predecessors: tl.Deps.Predecessors[taskID],
		Successors:   tl.Deps.Successors[taskID],
		WaveSize:     size,
	}, true
}

var briefFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Mon 2006-01-02") },
	"days": func(d float64) string {
		s := strings.TrimRight(strings.TrimRight(strconv.FormatFloat(d, 'f', 2, 64), "0"), ".")
		if s == "1" {
			return "1 day"
		}
		return s + " days"
	},
}

// RenderBrief renders a task brief using either a custom template file or the default.
func RenderBrief(data BriefData, templatePath string) (string, error) {
	tmplStr := defaultBriefTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", err
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("brief").Funcs(briefFuncs).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
