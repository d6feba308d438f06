package search

import (
	"context"
	"time"

	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/logging"
)

// GreedyMinimize starts from the whole mapping and repeatedly rejects the
// correspondence involved in the most stored conflicts, the less trusted
// one on ties, until no stored conflict is left. It works on pattern
// conflicts only.
type GreedyMinimize struct {
	s *Session
}

// NewGreedyMinimize returns the minimizing search. The session must use
// pattern-only reasoning.
func NewGreedyMinimize(s *Session) (*GreedyMinimize, error) {
	if s.reasoning != PatternOnly {
		return nil, errors.Newf(errors.ErrCodeInvalidConfig,
			"strategy %q supports only %q reasoning, got %q", StrategyGreedyMinimize, PatternOnly, s.reasoning)
	}
	return &GreedyMinimize{s: s}, nil
}

// Name implements Strategy.
func (g *GreedyMinimize) Name() string { return StrategyGreedyMinimize }

// Run implements Strategy.
func (g *GreedyMinimize) Run(ctx context.Context) (Result, error) {
	s := g.s
	start := time.Now()
	active := allActive(s.Len())

	steps := 0
	for {
		if ctx.Err() != nil {
			return s.finish(g.Name(), active, false, steps, start), nil
		}
		i := s.store.TopWeightedConflictingIndex(active)
		if i < 0 {
			i = g.cheapestInWitness(active)
		}
		if i < 0 {
			break
		}
		steps++
		active[i] = false
		s.log.Debug("rejected correspondence",
			logging.String("correspondence", s.m[i].Key()),
			logging.Int("step", steps))
	}
	return s.finish(g.Name(), active, true, steps, start), nil
}

// cheapestInWitness covers conflicts larger than a pair, which carry no
// pairwise weight: it returns the least trusted member of one of them.
func (g *GreedyMinimize) cheapestInWitness(active []bool) int {
	w := g.s.store.ConflictingIndices(active)
	if w == nil {
		return -1
	}
	cheapest := w[0]
	for _, i := range w[1:] {
		if g.s.conf[i] < g.s.conf[cheapest] {
			cheapest = i
		}
	}
	return cheapest
}
