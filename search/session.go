// Package search extracts a coherent subset of a mapping. Every strategy
// works on a Session that owns a private copy of the mapping, its
// confidence vector and the conflict store, and returns a partition of the
// mapping into accepted and rejected correspondences.
package search

import (
	"context"
	"time"

	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/logging"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/metrics"
)

// Reasoning selects how conflicts are found.
type Reasoning string

const (
	// PatternOnly relies on the stored pattern conflicts.
	PatternOnly Reasoning = "pattern-only"
	// PatternThenComplete validates pattern-free candidates with the
	// complete reasoner and learns the conflicts it finds.
	PatternThenComplete Reasoning = "pattern-then-complete"
	// BruteForce uses the complete reasoner only.
	BruteForce Reasoning = "brute-force-complete"
)

// Complete reports whether r needs the complete reasoner.
func (r Reasoning) Complete() bool {
	return r == PatternThenComplete || r == BruteForce
}

// Strategy names accepted by New.
const (
	StrategyGreedy          = "greedy"
	StrategyGreedyMinimize  = "greedy-minimize"
	StrategyOptimal         = "optimal"
	StrategyOptimalOneToOne = "optimal-one-to-one"
)

// Strategy computes a partition of the session's mapping. Cancellation of
// ctx is not an error: the result is then a valid but possibly suboptimal
// partition with Completed unset.
type Strategy interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Result is the partition returned by a strategy.
type Result struct {
	Active   mapping.Mapping
	Inactive mapping.Mapping
	// Completed is false when the run was cut short.
	Completed bool
	// Expanded counts search nodes or greedy steps.
	Expanded int
}

// Trust returns the total confidence of the accepted correspondences.
func (r Result) Trust() float64 { return r.Active.Sum() }

// Options controls NewSession.
type Options struct {
	Reasoning Reasoning
	// Complete is required unless Reasoning is PatternOnly.
	Complete *conflict.Complete
	Logger   logging.Logger
}

// Session is the shared state of one search run.
type Session struct {
	m         mapping.Mapping
	conf      []float64
	store     *conflict.Store
	complete  *conflict.Complete
	reasoning Reasoning
	log       logging.Logger
}

// NewSession prepares a search over the store's mapping.
func NewSession(store *conflict.Store, opts Options) (*Session, error) {
	reasoning := opts.Reasoning
	if reasoning == "" {
		reasoning = PatternOnly
	}
	switch reasoning {
	case PatternOnly, PatternThenComplete, BruteForce:
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfig, "unknown reasoning mode %q", reasoning)
	}
	if reasoning.Complete() && opts.Complete == nil {
		return nil, errors.Newf(errors.ErrCodeInvalidConfig, "reasoning %q needs a complete reasoner", reasoning)
	}
	m := store.Mapping().Copy()
	return &Session{
		m:         m,
		conf:      m.Confidences(),
		store:     store,
		complete:  opts.Complete,
		reasoning: reasoning,
		log:       logging.OrNop(opts.Logger),
	}, nil
}

// New returns the strategy registered under name.
func New(name string, s *Session) (Strategy, error) {
	switch name {
	case StrategyGreedy:
		return NewGreedy(s), nil
	case StrategyGreedyMinimize:
		return NewGreedyMinimize(s)
	case StrategyOptimal, "":
		return NewAStar(s), nil
	case StrategyOptimalOneToOne:
		return NewHungarian(s)
	}
	return nil, errors.Newf(errors.ErrCodeInvalidConfig, "unknown strategy %q", name)
}

// Len returns the number of correspondences.
func (s *Session) Len() int { return len(s.m) }

// Mapping returns the session's mapping.
func (s *Session) Mapping() mapping.Mapping { return s.m }

func (s *Session) partition(active []bool) (in, out mapping.Mapping) {
	in = make(mapping.Mapping, 0, len(s.m))
	for i, c := range s.m {
		if active[i] {
			in = append(in, c)
		} else {
			out = append(out, c)
		}
	}
	return in, out
}

func (s *Session) activeMapping(active []bool) mapping.Mapping {
	in, _ := s.partition(active)
	return in
}

// learn validates a pattern-free active set with the complete reasoner. It
// returns the indices of a minimal conflict, stored for later queries, or
// nil when the set is coherent.
func (s *Session) learn(ctx context.Context, active []bool) ([]int, error) {
	m := s.activeMapping(active)
	conflicting, err := s.complete.IsConflictSet(ctx, m)
	if err != nil || !conflicting {
		return nil, err
	}
	minimal, err := s.complete.MinimalConflict(ctx, m)
	if err != nil {
		return nil, err
	}
	indices := s.store.AddConflictMapping(minimal)
	s.log.Info("detected conflict set", logging.Int("size", len(indices)))
	return indices, nil
}

// finish builds the result and records the run.
func (s *Session) finish(name string, active []bool, completed bool, expanded int, start time.Time) Result {
	in, out := s.partition(active)
	res := Result{Active: in, Inactive: out, Completed: completed, Expanded: expanded}
	elapsed := time.Since(start)
	metrics.RecordSearch(name, completed, elapsed, expanded, len(out))
	fields := []logging.Field{
		logging.Int("active", len(in)),
		logging.Int("inactive", len(out)),
		logging.Int("expanded", expanded),
		logging.Duration("elapsed", elapsed),
	}
	if completed {
		s.log.Info("search done", fields...)
	} else {
		s.log.Warn("search cut short, returning best effort", fields...)
	}
	return res
}

// cancelled distinguishes cancellation from reasoner failures.
func cancelled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}

func allActive(n int) []bool {
	a := make([]bool, n)
	for i := range a {
		a[i] = true
	}
	return a
}
