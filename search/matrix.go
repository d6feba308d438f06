package search

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/nodeadmin/alcomo/assignment"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/mapping"
)

// MappingMatrix lays an equivalence mapping out as a square cost matrix:
// rows are source entities, columns target entities, padded with as many
// dummy rows and columns that every entity may stay unmatched. A cell
// holding correspondence c costs 1 - c.Confidence, every other cell 1.
type MappingMatrix struct {
	size   int
	cost   *mat.Dense
	coords []assignment.Coord
	index  map[assignment.Coord]int
}

// NewMappingMatrix builds the matrix for m. Only equivalence
// correspondences can be laid out.
func NewMappingMatrix(m mapping.Mapping) (*MappingMatrix, error) {
	sources := make(map[string]int)
	targets := make(map[string]int)
	for _, c := range m {
		if c.Relation != mapping.Equivalent {
			return nil, errors.New(errors.ErrCodeInvalidOperation,
				"one-to-one search works only on equivalence correspondences").WithDetail(c.Key())
		}
		if _, ok := sources[c.Source]; !ok {
			sources[c.Source] = len(sources)
		}
		if _, ok := targets[c.Target]; !ok {
			targets[c.Target] = len(targets)
		}
	}

	size := len(sources) + len(targets)
	mm := &MappingMatrix{
		size:   size,
		coords: make([]assignment.Coord, len(m)),
		index:  make(map[assignment.Coord]int, len(m)),
	}
	if size == 0 {
		return mm, nil
	}
	data := make([]float64, size*size)
	for i := range data {
		data[i] = 1
	}
	mm.cost = mat.NewDense(size, size, data)
	for i, c := range m {
		xy := assignment.Coord{Row: sources[c.Source], Col: targets[c.Target]}
		mm.coords[i] = xy
		mm.index[xy] = i
		mm.cost.Set(xy.Row, xy.Col, 1-c.Confidence)
	}
	return mm, nil
}

// Size returns the dimension of the matrix.
func (mm *MappingMatrix) Size() int { return mm.size }

// Cost returns the cost matrix; nil for an empty mapping.
func (mm *MappingMatrix) Cost() *mat.Dense { return mm.cost }

// Coord returns the cell of correspondence i.
func (mm *MappingMatrix) Coord(i int) assignment.Coord { return mm.coords[i] }

// Index returns the correspondence in cell xy.
func (mm *MappingMatrix) Index(xy assignment.Coord) (int, bool) {
	i, ok := mm.index[xy]
	return i, ok
}

// Solve runs the assignment solver with locks and returns the score and the
// correspondence indices the optimal assignment realizes, ascending.
func (mm *MappingMatrix) Solve(locks []assignment.Coord) (float64, []int, error) {
	if mm.size == 0 {
		return 0, nil, nil
	}
	res, err := assignment.Solve(mm.cost, locks)
	if err != nil {
		return 0, nil, err
	}
	var indices []int
	for row, col := range res.Assignment {
		if i, ok := mm.index[assignment.Coord{Row: row, Col: col}]; ok {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return res.Cost, indices, nil
}
