// Package assignment solves the minimum-cost perfect matching problem over
// a square cost matrix with the Hungarian method.
package assignment

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nodeadmin/alcomo/errors"
)

// LockPenalty is added to the cost of a locked cell. Cell costs are at most
// 1, so a locked cell is chosen only when no unlocked alternative exists.
const LockPenalty = 100.0

// Coord addresses one cell of the cost matrix.
type Coord struct {
	Row, Col int
}

// Result is an optimal assignment.
type Result struct {
	// Cost sums the original (unpenalized) cost of the chosen cells.
	Cost float64
	// Assignment[row] is the column chosen for row.
	Assignment []int
}

// Solve returns a minimum-cost assignment of rows to columns. Locked cells
// are penalized by LockPenalty; cost is not modified.
func Solve(cost *mat.Dense, locks []Coord) (Result, error) {
	r, c := cost.Dims()
	if r != c {
		return Result{}, errors.Newf(errors.ErrCodeInvalidOperation, "cost matrix is %dx%d, want square", r, c)
	}
	n := r
	if n == 0 {
		return Result{}, nil
	}
	work := mat.DenseCopyOf(cost)
	for _, l := range locks {
		if l.Row < 0 || l.Row >= n || l.Col < 0 || l.Col >= n {
			return Result{}, errors.Newf(errors.ErrCodeInvalidOperation, "lock (%d,%d) outside %dx%d matrix", l.Row, l.Col, n, n)
		}
		work.Set(l.Row, l.Col, cost.At(l.Row, l.Col)+LockPenalty)
	}

	assign := solve(work, n)
	res := Result{Assignment: assign}
	for row, col := range assign {
		res.Cost += cost.At(row, col)
	}
	return res, nil
}

// solve is the O(n³) shortest augmenting path formulation with row and
// column potentials. Index 0 is a virtual row/column; real ones are 1..n.
func solve(a *mat.Dense, n int) []int {
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)   // p[col] = row matched to col
	way := make([]int, n+1) // previous column on the augmenting path
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := a.At(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assign := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assign[p[j]-1] = j - 1
		}
	}
	return assign
}
