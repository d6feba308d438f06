package search

import (
	"context"
	"sort"
	"time"

	"github.com/nodeadmin/alcomo/logging"
)

// Greedy accepts correspondences in order of descending confidence and
// rejects each one that conflicts with what was accepted before. If it is
// cut short, everything not yet decided is accepted.
type Greedy struct {
	s *Session
}

// NewGreedy returns the greedy search.
func NewGreedy(s *Session) *Greedy {
	return &Greedy{s: s}
}

// Name implements Strategy.
func (g *Greedy) Name() string { return StrategyGreedy }

// Run implements Strategy.
func (g *Greedy) Run(ctx context.Context) (Result, error) {
	switch g.s.reasoning {
	case BruteForce:
		return g.runBruteForce(ctx)
	case PatternThenComplete:
		return g.runComplete(ctx)
	}
	return g.runPattern(ctx)
}

// order returns the indices sorted by descending confidence, input order
// breaking ties.
func (g *Greedy) order() []int {
	order := make([]int, g.s.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return g.s.conf[order[a]] > g.s.conf[order[b]]
	})
	return order
}

func (g *Greedy) runPattern(ctx context.Context) (Result, error) {
	s := g.s
	start := time.Now()
	order := g.order()
	accepted := make([]bool, s.Len())

	for step, i := range order {
		if ctx.Err() != nil {
			failOpen(accepted, order[step:])
			return s.finish(g.Name(), accepted, false, step, start), nil
		}
		if s.store.ConflictsWithActive(i, accepted) != nil {
			s.log.Debug("rejected correspondence", logging.String("correspondence", s.m[i].Key()))
			continue
		}
		accepted[i] = true
	}
	return s.finish(g.Name(), accepted, true, len(order), start), nil
}

func (g *Greedy) runBruteForce(ctx context.Context) (Result, error) {
	s := g.s
	start := time.Now()
	order := g.order()

	whole, err := s.complete.IsConflictSet(ctx, s.m)
	if cancelled(ctx, err) {
		return s.finish(g.Name(), allActive(s.Len()), false, 0, start), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !whole {
		return s.finish(g.Name(), allActive(s.Len()), true, 1, start), nil
	}

	accepted := make([]bool, s.Len())
	for step, i := range order {
		accepted[i] = true
		conflicting, err := s.complete.IsConflictSet(ctx, s.activeMapping(accepted))
		if cancelled(ctx, err) {
			failOpen(accepted, order[step:])
			return s.finish(g.Name(), accepted, false, step+1, start), nil
		}
		if err != nil {
			return Result{}, err
		}
		if conflicting {
			accepted[i] = false
			s.log.Debug("rejected correspondence", logging.String("correspondence", s.m[i].Key()))
		}
	}
	return s.finish(g.Name(), accepted, true, len(order)+1, start), nil
}

// runComplete proceeds in rounds. Each round picks, in order, the
// undecided correspondences free of pattern conflicts, validates them on
// top of the accepted ones with the complete reasoner and accepts the
// longest coherent prefix. The first correspondence that breaks coherence
// is rejected and the next round starts after it.
func (g *Greedy) runComplete(ctx context.Context) (Result, error) {
	s := g.s
	start := time.Now()
	undecided := g.order()
	accepted := make([]bool, s.Len())
	defer s.complete.ResetValidated()

	rounds := 0
	for len(undecided) > 0 {
		if ctx.Err() != nil {
			failOpen(accepted, undecided)
			return s.finish(g.Name(), accepted, false, rounds, start), nil
		}
		rounds++

		trial := append([]bool(nil), accepted...)
		var chosen []int
		for _, i := range undecided {
			if s.store.ConflictsWithActive(i, trial) != nil {
				continue
			}
			trial[i] = true
			chosen = append(chosen, i)
		}

		s.complete.ResetValidated()
		s.complete.AttachValidated(s.activeMapping(accepted))
		candidates := s.m.Sub(chosen)
		k, err := s.complete.SearchInvalid(ctx, candidates)
		if cancelled(ctx, err) {
			failOpen(accepted, undecided)
			return s.finish(g.Name(), accepted, false, rounds, start), nil
		}
		if err != nil {
			return Result{}, err
		}
		if k < 0 {
			failOpen(accepted, chosen)
			break
		}

		failOpen(accepted, chosen[:k])
		bad := chosen[k]
		s.log.Debug("reasoner rejected correspondence",
			logging.String("correspondence", s.m[bad].Key()),
			logging.Int("round", rounds))
		for pos, i := range undecided {
			if i == bad {
				undecided = undecided[pos+1:]
				break
			}
		}
	}
	return s.finish(g.Name(), accepted, true, rounds, start), nil
}

// failOpen marks indices as accepted.
func failOpen(active []bool, indices []int) {
	for _, i := range indices {
		active[i] = true
	}
}
