package optimizer

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// errRelaxationInfeasible means no fractional assignment satisfies the
// eligibility and workload ceilings, so no integer one does either.
var errRelaxationInfeasible = errors.New("assignment relaxation is infeasible")

// errRelaxationTooLarge means the dense tableau would exceed maxRelaxationCells.
var errRelaxationTooLarge = errors.New("assignment relaxation is too large")

// maxRelaxationCells caps rows x columns of the simplex tableau.
const maxRelaxationCells = 1 << 18

// relaxationSize returns the tableau dimensions relaxationBound would use.
func relaxationSize(p *problem) (rows, cols int) {
	pairs, capped := 0, 0
	for _, c := range p.cands {
		pairs += len(c)
	}
	for _, res := range p.res {
		if res.MaxWorkload > 0 {
			capped++
		}
	}
	rows = p.net.Len() + len(p.res) + capped + 1
	cols = pairs + 1 + len(p.res) + capped + 1
	return rows, cols
}

// boundWithin runs relaxationBound but gives up when ctx is done. The simplex
// call itself cannot be interrupted; an abandoned solve finishes in the
// background, which maxRelaxationCells keeps short.
func boundWithin(ctx context.Context, p *problem) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if rows, cols := relaxationSize(p); rows*cols > maxRelaxationCells {
		return 0, fmt.Errorf("%w: %dx%d", errRelaxationTooLarge, rows, cols)
	}

	type outcome struct {
		bound float64
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		lb, err := relaxationBound(p)
		done <- outcome{lb, err}
	}()

	select {
	case o := <-done:
		return o.bound, o.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// relaxationBound solves the LP relaxation of the assignment model
//
//	min M
//	s.t. Σ_r x[t,r] = 1                       for every task t
//	     Σ_t d_t·x[t,r] − cap_r·M ≤ 0         for every resource r
//	     Σ_t d_t·x[t,r] ≤ ceiling_r           for capped resources
//	     M ≥ critical path length
//	     x ≥ 0
//
// and returns its optimum, a lower bound on any integer assignment's makespan.
func relaxationBound(p *problem) (float64, error) {
	n := p.net.Len()
	if n == 0 {
		return 0, nil
	}

	// Column layout: x[t,r] for eligible pairs, M, one slack per load row,
	// one slack per ceiling row, one surplus for the critical path row.
	type pair struct{ t, r int }
	var pairs []pair
	for t := 0; t < n; t++ {
		for _, r := range p.cands[t] {
			pairs = append(pairs, pair{t, r})
		}
	}
	var capped []int
	for r, res := range p.res {
		if res.MaxWorkload > 0 {
			capped = append(capped, r)
		}
	}

	colM := len(pairs)
	colLoad := colM + 1
	colCeil := colLoad + len(p.res)
	colCP := colCeil + len(capped)
	cols := colCP + 1

	rowLoad := n
	rowCeil := rowLoad + len(p.res)
	rowCP := rowCeil + len(capped)
	rows := rowCP + 1

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	c[colM] = 1

	ceilRow := make(map[int]int, len(capped))
	for k, r := range capped {
		ceilRow[r] = rowCeil + k
		A.Set(rowCeil+k, colCeil+k, 1)
		b[rowCeil+k] = p.res[r].MaxWorkload
	}

	for j, pr := range pairs {
		d := p.net.Durations[pr.t]
		A.Set(pr.t, j, 1)
		A.Set(rowLoad+pr.r, j, d)
		if row, ok := ceilRow[pr.r]; ok {
			A.Set(row, j, d)
		}
	}
	for t := 0; t < n; t++ {
		b[t] = 1
	}
	for r, res := range p.res {
		A.Set(rowLoad+r, colM, -float64(res.Capacity))
		A.Set(rowLoad+r, colLoad+r, 1)
	}
	A.Set(rowCP, colM, 1)
	A.Set(rowCP, colCP, -1)
	b[rowCP] = p.cpLen

	optF, _, err := lp.Simplex(c, A, b, 1e-10, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, errRelaxationInfeasible
		}
		return 0, fmt.Errorf("simplex: %w", err)
	}
	return optF, nil
}
