package search

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/nodeadmin/alcomo/logging"
)

// activeNode is a state of the optimal search: the correspondences still
// accepted, their total confidence and an estimate of the confidence that
// resolving the known conflicts will still cost.
type activeNode struct {
	active []bool
	count  int
	trust  float64
	loss   float64
	seq    int
}

func (n *activeNode) value() float64 { return n.trust - n.loss }

func (n *activeNode) key() string {
	b := make([]byte, len(n.active))
	for i, on := range n.active {
		if on {
			b[i] = 1
		}
	}
	return string(b)
}

// nodeQueue orders nodes by descending value, oldest first on ties.
type nodeQueue []*activeNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].value() != q[j].value() {
		return q[i].value() > q[j].value()
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*activeNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// AStar is the exhaustive optimal search over active sets.
type AStar struct {
	s   *Session
	seq int
}

// NewAStar returns the optimal search.
func NewAStar(s *Session) *AStar {
	return &AStar{s: s}
}

// Name implements Strategy.
func (a *AStar) Name() string { return StrategyOptimal }

// Run implements Strategy.
func (a *AStar) Run(ctx context.Context) (Result, error) {
	s := a.s
	start := time.Now()
	n := s.Len()

	root := &activeNode{active: allActive(n), count: n}
	for _, c := range s.conf {
		root.trust += c
	}
	a.estimate(root)

	queue := &nodeQueue{root}
	seen := map[string]struct{}{root.key(): {}}
	best := root
	expanded := 0
	s.log.Info("starting optimal search", logging.Int("correspondences", n), logging.String("reasoning", string(s.reasoning)))

	for queue.Len() > 0 {
		if ctx.Err() != nil {
			return s.finish(a.Name(), best.active, false, expanded, start), nil
		}
		node := heap.Pop(queue).(*activeNode)
		expanded++
		if node.count < best.count {
			best = node
			s.log.Debug("reduced mapping", logging.Int("active", node.count), logging.Int("queue", queue.Len()))
		}

		witness := s.store.ConflictingIndices(node.active)
		if witness == nil && s.reasoning.Complete() {
			learned, err := s.learn(ctx, node.active)
			if cancelled(ctx, err) {
				return s.finish(a.Name(), best.active, false, expanded, start), nil
			}
			if err != nil {
				return Result{}, err
			}
			witness = learned
		}
		if witness == nil {
			return s.finish(a.Name(), node.active, true, expanded, start), nil
		}

		for _, i := range witness {
			if !node.active[i] {
				continue
			}
			child := &activeNode{
				active: append([]bool(nil), node.active...),
				count:  node.count - 1,
				trust:  node.trust - s.conf[i],
			}
			child.active[i] = false
			k := child.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			a.estimate(child)
			heap.Push(queue, child)
		}
	}
	// Unreachable with a sound store: deactivating everything removes every
	// conflict.
	return s.finish(a.Name(), best.active, false, expanded, start), nil
}

// estimate sets the node's expected loss by resolving the known conflicts
// on a scratch copy: each round drops a whole witness and charges its
// cheapest member. Witnesses of different rounds are disjoint, so the sum
// never exceeds the true loss.
func (a *AStar) estimate(n *activeNode) {
	a.seq++
	n.seq = a.seq
	scratch := append([]bool(nil), n.active...)
	var loss float64
	for {
		w := a.s.store.ConflictingIndices(scratch)
		if w == nil {
			break
		}
		cheapest := math.Inf(1)
		for _, i := range w {
			scratch[i] = false
			cheapest = math.Min(cheapest, a.s.conf[i])
		}
		loss += cheapest
	}
	n.loss = loss
}
