// Package claude narrates analysis results with the Claude API. It implements
// report.Generator and is only ever called after the engine has returned.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"

	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/report"
)

// Narrative is the structured answer requested from Claude.
type Narrative struct {
	Summary         string   `json:"summary"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}

// String renders the narrative as plain text.
func (n *Narrative) String() string {
	var b strings.Builder
	b.WriteString(n.Summary)
	b.WriteString("\n")
	if len(n.Risks) > 0 {
		b.WriteString("\nKey risks:\n")
		for _, r := range n.Risks {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	if len(n.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, r := range n.Recommendations {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
		}
	}
	return b.String()
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner   anthropic.Client
	model   anthropic.Model
	retries uint64
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	m := anthropic.ModelClaudeSonnet4_5
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m, retries: 3}, nil
}

var _ report.Generator = (*Client)(nil)

const narratePrompt = `You are a senior project manager reviewing a schedule and risk analysis.

You will receive the analysis metrics as JSON: the critical path schedule, an optional
resource optimization result and an optional Monte Carlo simulation summary.

Write for an executive audience:
- Summarise the schedule, its critical path and the overall delivery risk.
- Call out the specific tasks or resources that drive risk.
- Give concrete, quantified recommendations (buffers, reassignments, budget).

Return your answer as JSON with this exact structure:
{
  "summary": "<one paragraph>",
  "risks": ["<short risk statement>", ...],
  "recommendations": ["<short action>", ...]
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here are the metrics:
`

// metrics is the compact view of an analysis sent to Claude.
type metrics struct {
	TotalTasks      int      `json:"total_tasks"`
	ProjectDuration float64  `json:"project_duration_days"`
	CriticalPath    []string `json:"critical_path"`
	HighRiskCount   int      `json:"high_risk_count"`
	MedRiskCount    int      `json:"med_risk_count"`
	LowRiskCount    int      `json:"low_risk_count"`
	HighRiskTasks   []string `json:"high_risk_tasks,omitempty"`
	TotalCost       float64  `json:"total_cost"`

	DependentTasks   int      `json:"dependent_tasks"`
	IndependentTasks int      `json:"independent_tasks"`
	ComplexTasks     int      `json:"complex_task_count"`
	AvgTasks         float64  `json:"avg_tasks_per_resource"`
	Overloaded       []string `json:"overloaded_resources,omitempty"`
	Underutilized    []string `json:"underutilized_resources,omitempty"`

	Optimization *optimizationMetrics `json:"optimization,omitempty"`
	Simulation   *simulationMetrics   `json:"simulation,omitempty"`
	Baseline     []string             `json:"baseline_recommendations,omitempty"`
}

type optimizationMetrics struct {
	Status            string            `json:"status"`
	OriginalMakespan  float64           `json:"original_makespan"`
	OptimizedMakespan float64           `json:"optimized_makespan"`
	ImprovementPct    float64           `json:"improvement_pct"`
	Reassignments     map[string]string `json:"reassignments"`
}

type simulationMetrics struct {
	Iterations      int                `json:"iterations"`
	Mean            float64            `json:"mean_days"`
	StdDev          float64            `json:"std_dev_days"`
	Percentiles     map[string]float64 `json:"percentiles"`
	RiskProbability float64            `json:"risk_probability"`
	RiskCategory    string             `json:"risk_category"`
	MeanCost        float64            `json:"mean_cost"`
}

func collectMetrics(in report.Input) metrics {
	var m metrics
	if in.Graph != nil {
		gm := in.Graph.Metrics()
		m.TotalTasks = gm.TotalTasks
		m.TotalCost = gm.TotalCost
		m.HighRiskCount = gm.HighRisk
		m.MedRiskCount = gm.MediumRisk
		m.LowRiskCount = gm.LowRisk
		m.DependentTasks = gm.Dependent
		m.IndependentTasks = gm.Independent
		m.ComplexTasks = len(gm.Complex)
		m.AvgTasks = math.Round(gm.AvgTasksPerResource*100) / 100
		m.Overloaded = gm.Overloaded
		m.Underutilized = gm.Underutilized
		for _, id := range in.Graph.IDs {
			if in.Graph.Tasks[id].Risk == graph.RiskHigh {
				m.HighRiskTasks = append(m.HighRiskTasks, id)
			}
		}
	}
	if in.Schedule != nil {
		m.ProjectDuration = in.Schedule.ProjectDuration
		m.CriticalPath = in.Schedule.CriticalPath
	}
	if o := in.Optimization; o != nil {
		om := &optimizationMetrics{
			Status:            string(o.Status),
			OriginalMakespan:  o.OriginalMakespan,
			OptimizedMakespan: o.OptimizedMakespan,
			ImprovementPct:    o.ImprovementPct,
			Reassignments:     make(map[string]string, len(o.Reassignments)),
		}
		for _, r := range o.Reassignments {
			om.Reassignments[r.TaskID] = r.From + " -> " + r.To
		}
		m.Optimization = om
	}
	if s := in.Simulation; s != nil && !s.Empty {
		sm := &simulationMetrics{
			Iterations:      s.Iterations,
			Mean:            s.Mean,
			StdDev:          s.StdDev,
			Percentiles:     make(map[string]float64, len(s.Percentiles)),
			RiskProbability: s.RiskProbability,
			RiskCategory:    string(s.RiskCategory),
			MeanCost:        s.MeanCost,
		}
		for _, p := range s.Percentiles {
			sm.Percentiles[fmt.Sprintf("p%g", p.P)] = p.Value
		}
		m.Simulation = sm
	}
	m.Baseline = report.Recommendations(in)
	return m
}

// buildPrompt constructs the full prompt for the narrative.
func buildPrompt(in report.Input) (string, error) {
	data, err := json.MarshalIndent(collectMetrics(in), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	return narratePrompt + string(data), nil
}

// Narrate calls the Claude API and returns the structured narrative.
// Rate limits and server errors are retried with exponential backoff.
func (c *Client) Narrate(ctx context.Context, in report.Input) (*Narrative, error) {
	prompt, err := buildPrompt(in)
	if err != nil {
		return nil, err
	}

	var resp *anthropic.Message
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.inner.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: int64(4096),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if callErr != nil && transient(callErr) {
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseNarrative(text)
}

// Generate implements report.Generator.
func (c *Client) Generate(ctx context.Context, in report.Input) (string, error) {
	n, err := c.Narrate(ctx, in)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

func transient(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}

// parseNarrative extracts the narrative fields from Claude's reply.
func parseNarrative(text string) (*Narrative, error) {
	text = stripJSONFences(text)
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("parse claude response: invalid JSON\nraw: %s", text)
	}

	summary := gjson.Get(text, "summary")
	if !summary.Exists() || strings.TrimSpace(summary.String()) == "" {
		return nil, fmt.Errorf("parse claude response: missing summary\nraw: %s", text)
	}

	n := &Narrative{Summary: strings.TrimSpace(summary.String())}
	gjson.Get(text, "risks").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			n.Risks = append(n.Risks, s)
		}
		return true
	})
	gjson.Get(text, "recommendations").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			n.Recommendations = append(n.Recommendations, s)
		}
		return true
	})
	return n, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	// Remove ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
