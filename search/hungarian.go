package search

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nodeadmin/alcomo/assignment"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/logging"
)

// lockNode is a state of the one-to-one search: the cells the assignment
// may not use and the optimal assignment under those locks.
type lockNode struct {
	locks    []assignment.Coord
	score    float64
	solution []int
	seq      int
}

func lockKey(locks []assignment.Coord) string {
	parts := make([]string, len(locks))
	for i, l := range locks {
		parts[i] = fmt.Sprintf("%d:%d", l.Row, l.Col)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// lockQueue orders nodes by ascending score, oldest first on ties.
type lockQueue []*lockNode

func (q lockQueue) Len() int { return len(q) }
func (q lockQueue) Less(i, j int) bool {
	if q[i].score != q[j].score {
		return q[i].score < q[j].score
	}
	return q[i].seq < q[j].seq
}
func (q lockQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *lockQueue) Push(x any) { *q = append(*q, x.(*lockNode)) }
func (q *lockQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// Hungarian is the optimal search restricted to one-to-one results. Each
// node solves an assignment problem; a conflict in its solution branches
// into one child per conflicting correspondence with that cell locked.
// Scores only grow along a branch, so the first conflict-free solution
// popped is optimal.
type Hungarian struct {
	s      *Session
	matrix *MappingMatrix
	seq    int
}

// NewHungarian returns the one-to-one search. The mapping must contain
// equivalences only and the session must not use brute-force reasoning.
func NewHungarian(s *Session) (*Hungarian, error) {
	if s.reasoning == BruteForce {
		return nil, errors.Newf(errors.ErrCodeInvalidConfig,
			"strategy %q does not support %q reasoning", StrategyOptimalOneToOne, BruteForce)
	}
	matrix, err := NewMappingMatrix(s.m)
	if err != nil {
		return nil, err
	}
	return &Hungarian{s: s, matrix: matrix}, nil
}

// Name implements Strategy.
func (h *Hungarian) Name() string { return StrategyOptimalOneToOne }

// Run implements Strategy. When cut short it returns the assignment of the
// most constrained node seen so far.
func (h *Hungarian) Run(ctx context.Context) (Result, error) {
	s := h.s
	start := time.Now()

	root, err := h.node(nil)
	if err != nil {
		return Result{}, err
	}
	queue := &lockQueue{root}
	seen := map[string]struct{}{"": {}}
	best := root
	expanded := 0
	s.log.Info("starting one-to-one search",
		logging.Int("correspondences", s.Len()),
		logging.Int("matrix", h.matrix.Size()))

	for queue.Len() > 0 {
		if ctx.Err() != nil {
			return s.finish(h.Name(), h.active(best), false, expanded, start), nil
		}
		node := heap.Pop(queue).(*lockNode)
		expanded++
		if len(node.locks) > len(best.locks) {
			best = node
		}

		active := h.active(node)
		witness := s.store.ConflictingIndicesList(node.solution)
		if witness == nil && s.reasoning.Complete() {
			learned, err := s.learn(ctx, active)
			if cancelled(ctx, err) {
				return s.finish(h.Name(), h.active(best), false, expanded, start), nil
			}
			if err != nil {
				return Result{}, err
			}
			witness = learned
		}
		if witness == nil {
			return s.finish(h.Name(), active, true, expanded, start), nil
		}

		for _, i := range witness {
			locks := make([]assignment.Coord, len(node.locks), len(node.locks)+1)
			copy(locks, node.locks)
			locks = append(locks, h.matrix.Coord(i))
			k := lockKey(locks)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			child, err := h.node(locks)
			if err != nil {
				return Result{}, err
			}
			heap.Push(queue, child)
		}
	}
	return s.finish(h.Name(), h.active(best), false, expanded, start), nil
}

func (h *Hungarian) node(locks []assignment.Coord) (*lockNode, error) {
	score, solution, err := h.matrix.Solve(locks)
	if err != nil {
		return nil, err
	}
	h.seq++
	return &lockNode{locks: locks, score: score, solution: solution, seq: h.seq}, nil
}

func (h *Hungarian) active(n *lockNode) []bool {
	active := make([]bool, h.s.Len())
	for _, i := range n.solution {
		active[i] = true
	}
	return active
}
