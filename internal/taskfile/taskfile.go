// Package taskfile reads task tables and resource rosters from disk.
//
// Tasks come as JSON, YAML or the CSV export used by project spreadsheets
// (Task_ID, Task_Name, Duration_Days, Resource_Name, Cost_Per_Day,
// Predecessors, Risk_Level). Decoding does not validate the graph; that is
// graph.Build's job.
package taskfile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/optimizer"
)

// Format is a task file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned for file extensions that map to no Format.
var ErrUnknownFormat = errors.New("unknown task file format")

// File is the decoded content of a task file.
type File struct {
	Tasks  []graph.Task         `json:"tasks" yaml:"tasks"`
	Roster []optimizer.Resource `json:"roster,omitempty" yaml:"roster,omitempty"`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads a task file, choosing the decoder by extension.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return file, nil
}

// Decode reads a task file in the given format. JSON and YAML accept either a
// document with "tasks" and "roster" keys or a bare list of tasks.
func Decode(r io.Reader, format Format) (*File, error) {
	switch format {
	case FormatCSV:
		tasks, err := decodeCSV(r)
		if err != nil {
			return nil, err
		}
		return &File{Tasks: tasks}, nil
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file File
	if isList(data, format) {
		err = unmarshal(data, format, &file.Tasks)
	} else {
		err = unmarshal(data, format, &file)
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// LoadRoster reads a roster file: a bare list of resources, or a document
// with a "roster" key.
func LoadRoster(path string) ([]optimizer.Resource, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		return nil, fmt.Errorf("%w: rosters must be JSON or YAML", ErrUnknownFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var roster []optimizer.Resource
	if isList(data, format) {
		err = unmarshal(data, format, &roster)
	} else {
		var file File
		err = unmarshal(data, format, &file)
		roster = file.Roster
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return roster, nil
}

func unmarshal(data []byte, format Format, v any) error {
	if format == FormatJSON {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func isList(data []byte, format Format) bool {
	if format == FormatJSON {
		return bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}

// csvColumns maps accepted header spellings to task fields.
var csvColumns = map[string]string{
	"task_id": "id", "id": "id",
	"task_name": "name", "name": "name",
	"duration_days": "duration", "duration": "duration",
	"resource_name": "resource", "resource": "resource",
	"cost_per_day": "cost_rate", "cost_rate": "cost_rate",
	"predecessors": "predecessors", "dependencies": "predecessors",
	"risk_level": "risk", "risk": "risk",
	"eligible_resources": "eligible",
}

func decodeCSV(r io.Reader) ([]graph.Task, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	col := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := csvColumns[key]; ok {
			col[field] = i
		}
	}
	for _, req := range []string{"id", "duration"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("csv header: missing %s column", req)
		}
	}

	var tasks []graph.Task
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		get := func(field string) string {
			if i, ok := col[field]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		t := graph.Task{
			ID:                get("id"),
			Name:              get("name"),
			Resource:          get("resource"),
			Predecessors:      splitList(get("predecessors")),
			EligibleResources: splitList(get("eligible")),
		}
		if t.Duration, err = cast.ToFloat64E(get("duration")); err != nil {
			return nil, fmt.Errorf("csv line %d: duration: %w", line, err)
		}
		if v := get("cost_rate"); v != "" {
			if t.CostRate, err = cast.ToFloat64E(v); err != nil {
				return nil, fmt.Errorf("csv line %d: cost rate: %w", line, err)
			}
		}
		if t.Risk, err = graph.ParseRisk(get("risk")); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// splitList splits a comma or semicolon separated cell.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
