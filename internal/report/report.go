// Package report renders analysis results for people.
package report

import (
	"context"

	"github.com/joshharrison/riskloom/internal/cpm"
	"github.com/joshharrison/riskloom/internal/graph"
	"github.com/joshharrison/riskloom/internal/optimizer"
	"github.com/joshharrison/riskloom/internal/simulator"
)

// Input is everything a generator may draw on. Optimization and Simulation
// are nil when the corresponding stage was skipped.
type Input struct {
	Graph        *graph.TaskGraph
	Schedule     *cpm.Schedule
	Optimization *optimizer.Result
	Simulation   *simulator.Result
}

// Generator turns finished results into a narrative. Implementations are
// consumers of the engine's output and are never called by it.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}
