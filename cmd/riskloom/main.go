package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/riskloom/internal/claude"
	"github.com/joshharrison/riskloom/internal/config"
	"github.com/joshharrison/riskloom/internal/engine"
	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/logger"
	"github.com/joshharrison/riskloom/internal/report"
	"github.com/joshharrison/riskloom/internal/taskfile"
	"github.com/joshharrison/riskloom/internal/timeline"
	"github.com/joshharrison/riskloom/internal/ui"
)

var (
	flagConfig     string
	flagTasks      string
	flagRoster     string
	flagJSON       bool
	flagSeed       uint64
	flagIterations int
	flagStart      string
	flagFilter     string
	flagNarrate    bool
	flagFormat     string
	flagTemplate   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "riskloom",
		Short: "Schedule, optimize and stress-test a project task list",
		Long: `Riskloom reads a project task table (durations, dependencies, resources and
risk tags), computes the critical path, searches for a resource assignment that
finishes sooner, and runs a seeded Monte-Carlo simulation of completion times.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "riskloom.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&flagTasks, "tasks", "t", "tasks.yaml", "Task file (JSON, YAML or CSV)")
	rootCmd.PersistentFlags().StringVar(&flagRoster, "roster", "", "Resource roster file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Simulation seed (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagIterations, "iterations", 0, "Simulation iterations (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "Project start date YYYY-MM-DD (default today)")
	rootCmd.PersistentFlags().StringVar(&flagFilter, "filter", "", "Filter tasks (risk=High, resource=X)")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(optimizeCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(briefCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// stages selects which engine stages a command needs.
type stages struct {
	optimize bool
	simulate bool
}

// analysis is shared state for every command.
type analysis struct {
	cfg  *config.Config
	log  *slog.Logger
	resp *engine.Response
}

func (a *analysis) input() report.Input {
	return report.Input{
		Graph:        a.resp.Graph,
		Schedule:     a.resp.Schedule,
		Optimization: a.resp.Optimization,
		Simulation:   a.resp.Simulation,
	}
}

func (a *analysis) timeline() (*timeline.Timeline, error) {
	start, err := parseStart(flagStart)
	if err != nil {
		return nil, err
	}
	tl, err := timeline.Build(a.resp.Graph, a.resp.Schedule, start)
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}
	return tl, nil
}

// interruptible returns the command context cancelled on SIGINT or SIGTERM.
// Every blocking call a command makes, the engine and Claude alike, takes it.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// runAnalysis loads config and tasks, then runs the requested engine stages.
func runAnalysis(ctx context.Context, cmd *cobra.Command, want stages) (*analysis, error) {
	cfg, err := config.LoadFrom(flagConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = flagSeed
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Simulation.Iterations = flagIterations
	}
	log := logger.New(cfg.Logging, os.Stderr)

	file, err := taskfile.Load(flagTasks)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	roster := file.Roster
	if flagRoster != "" {
		if roster, err = taskfile.LoadRoster(flagRoster); err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
	}

	tasks := file.Tasks
	if flagFilter != "" {
		g, err := graph.Build(tasks)
		if err != nil {
			return nil, fmt.Errorf("build task graph: %w", err)
		}
		if g, err = applyFilter(g, flagFilter); err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
		tasks = g.TaskList()
	}

	e := engine.New(cfg.EngineConfig(log))
	resp, err := e.Run(ctx, engine.Request{
		Tasks:        tasks,
		Roster:       roster,
		SkipOptimize: !want.optimize,
		SkipSimulate: !want.simulate,
	})
	if err != nil {
		return nil, err
	}
	return &analysis{cfg: cfg, log: log, resp: resp}, nil
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Compute the critical path and calendar timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			a, err := runAnalysis(ctx, cmd, stages{})
			if err != nil {
				return err
			}
			tl, err := a.timeline()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(tl)
			}

			ui.PrintLogo(os.Stdout)
			report.WriteSchedule(os.Stdout, a.resp.Graph, a.resp.Schedule)
			printCalendar(tl)
			return nil
		},
	}
}

func optimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Search for a resource assignment that shortens the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			a, err := runAnalysis(ctx, cmd, stages{optimize: true})
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(a.resp.Optimization)
			}
			report.WriteOptimization(os.Stdout, a.resp.Optimization)
			return nil
		},
	}
}

func simulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run a Monte-Carlo simulation of project completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			a, err := runAnalysis(ctx, cmd, stages{simulate: true})
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(a.resp.Simulation)
			}
			report.WriteSimulation(os.Stdout, a.resp.Simulation)
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Schedule, optimize and simulate, then print the full report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			a, err := runAnalysis(ctx, cmd, stages{optimize: true, simulate: true})
			if err != nil {
				return err
			}

			if !flagNarrate {
				if flagJSON {
					return outputJSON(a.resp)
				}
				ui.PrintLogo(os.Stdout)
				report.Write(os.Stdout, a.input())
				printFooter(a.resp)
				return nil
			}

			c, err := claude.NewClient("", a.cfg.Report.Model)
			if err != nil {
				return err
			}
			a.log.Info("requesting narrative", "request", a.resp.ID)

			if flagJSON {
				n, err := c.Narrate(ctx, a.input())
				if err != nil {
					return err
				}
				return outputJSON(struct {
					*engine.Response
					Narrative *claude.Narrative `json:"narrative"`
				}{a.resp, n})
			}

			var gen report.Generator = c
			narrative, err := gen.Generate(ctx, a.input())
			if err != nil {
				return err
			}
			ui.PrintLogo(os.Stdout)
			report.Write(os.Stdout, a.input())
			fmt.Printf("\n🤖 %s\n", ui.BoldCyan("Narrative"))
			fmt.Println(ui.Cyan("══════════════════════════"))
			fmt.Print(narrative)
			if !strings.HasSuffix(narrative, "\n") {
				fmt.Println()
			}
			printFooter(a.resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagNarrate, "narrate", false, "Add a Claude-written narrative (needs ANTHROPIC_API_KEY)")
	return cmd
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Print the task dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			a, err := runAnalysis(ctx, cmd, stages{})
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				return printDOT(os.Stdout, a.resp.Graph, a.resp.Schedule)
			case "ascii", "":
				tl, err := a.timeline()
				if err != nil {
					return err
				}
				printASCIIDAG(tl)
				return nil
			}
			return fmt.Errorf("unsupported format: %s (use ascii or dot)", flagFormat)
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	return cmd
}

func briefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brief <task-id>",
		Short: "Print a scheduling brief for one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			a, err := runAnalysis(ctx, cmd, stages{})
			if err != nil {
				return err
			}
			tl, err := a.timeline()
			if err != nil {
				return err
			}

			data, ok := tl.BriefFor(args[0])
			if !ok {
				msg := fmt.Sprintf("task %q not found", args[0])
				if s := suggest(args[0], a.resp.Graph.IDs); len(s) > 0 {
					msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
				}
				return fmt.Errorf("%s", msg)
			}
			if flagJSON {
				return outputJSON(data)
			}

			out, err := timeline.RenderBrief(data, flagTemplate)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagTemplate, "template", "", "Custom brief template path")
	return cmd
}

// --- Input helpers ---

func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// applyFilter parses simple filter expressions and returns a filtered graph.
func applyFilter(g *graph.TaskGraph, filter string) (*graph.TaskGraph, error) {
	// Supported formats: "risk=LEVEL", "resource=X"
	if strings.HasPrefix(filter, "risk=") {
		level, err := graph.ParseRisk(strings.TrimPrefix(filter, "risk="))
		if err != nil {
			return nil, err
		}
		return g.Filter(func(t *graph.Task) bool { return t.Risk == level })
	}
	if strings.HasPrefix(filter, "resource=") {
		res := strings.TrimPrefix(filter, "resource=")
		return g.Filter(func(t *graph.Task) bool { return t.Resource == res })
	}
	return nil, fmt.Errorf("unsupported filter: %s (use risk=LEVEL or resource=X)", filter)
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
