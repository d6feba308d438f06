package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/hierarchy"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/ontology"
	"github.com/nodeadmin/alcomo/reasoner"
)

const (
	src = "http://example.org/source#"
	tgt = "http://example.org/target#"
)

type reasoningFixture struct {
	source, target *hierarchy.Hierarchy
	m              mapping.Mapping
}

// newReasoningFixture loads two small ontologies and a mapping whose
// correspondence 1 is incoherent only for the complete reasoner: Chimera is
// unsatisfiable on its own, so the pattern detector ignores it.
//
//	0 Person = Human     0.9
//	1 Chimera = Article  0.7  unsatisfies Article
//	2 Document = Author  0.4  pattern conflict with 0 and 3
//	3 Document = Article 0.6
func newReasoningFixture(t *testing.T) *reasoningFixture {
	t.Helper()
	source := &ontology.Ontology{
		IRI: "http://example.org/source",
		Classes: []ontology.Class{
			{IRI: src + "Person"},
			{IRI: src + "Document", DisjointWith: []string{src + "Person"}},
			{IRI: src + "Chimera", SubClassOf: []string{src + "Person", src + "Document"}},
		},
	}
	target := &ontology.Ontology{
		IRI: "http://example.org/target",
		Classes: []ontology.Class{
			{IRI: tgt + "Human"},
			{IRI: tgt + "Author", SubClassOf: []string{tgt + "Human"}},
			{IRI: tgt + "Article", DisjointWith: []string{tgt + "Human"}},
		},
	}
	ctx := context.Background()
	opts := hierarchy.Options{Properties: true, RemoveIndividuals: true}
	s, err := hierarchy.Load(ctx, source, reasoner.NewSaturationClassifier(), opts)
	require.NoError(t, err)
	tg, err := hierarchy.Load(ctx, target, reasoner.NewSaturationClassifier(), opts)
	require.NoError(t, err)

	eq := func(a, b string, conf float64) mapping.Correspondence {
		return mapping.Correspondence{Source: src + a, Target: tgt + b, Relation: mapping.Equivalent, Confidence: conf}
	}
	return &reasoningFixture{
		source: s,
		target: tg,
		m: mapping.Mapping{
			eq("Person", "Human", 0.9),
			eq("Chimera", "Article", 0.7),
			eq("Document", "Author", 0.4),
			eq("Document", "Article", 0.6),
		},
	}
}

func (f *reasoningFixture) session(t *testing.T, reasoning Reasoning) *Session {
	t.Helper()
	ctx := context.Background()
	complete, err := conflict.NewComplete(ctx, f.source, f.target, conflict.CompleteOptions{})
	require.NoError(t, err)

	var store *conflict.Store
	if reasoning == BruteForce {
		store = conflict.NewEmptyStore(f.m, conflict.StoreOptions{})
	} else {
		d := conflict.NewDetector(f.source, f.target, conflict.Policy{})
		store, err = conflict.NewStore(ctx, f.m, d, conflict.StoreOptions{Workers: 2})
		require.NoError(t, err)
	}
	s, err := NewSession(store, Options{Reasoning: reasoning, Complete: complete})
	require.NoError(t, err)
	return s
}

func TestSearch_PatternOnlyMissesReasonerConflict(t *testing.T) {
	f := newReasoningFixture(t)
	d := conflict.NewDetector(f.source, f.target, conflict.Policy{})
	store, err := conflict.NewStore(context.Background(), f.m, d, conflict.StoreOptions{})
	require.NoError(t, err)
	s, err := NewSession(store, Options{})
	require.NoError(t, err)

	res := run(t, StrategyOptimal, s)
	assert.Equal(t, f.m.Sub([]int{0, 1, 3}), res.Active)
}

func TestSearch_CompleteReasoning(t *testing.T) {
	f := newReasoningFixture(t)
	want := f.m.Sub([]int{0, 3})

	cases := []struct {
		strategy  string
		reasoning Reasoning
	}{
		{StrategyGreedy, PatternThenComplete},
		{StrategyGreedy, BruteForce},
		{StrategyOptimal, PatternThenComplete},
		{StrategyOptimal, BruteForce},
		{StrategyOptimalOneToOne, PatternThenComplete},
	}
	for _, tc := range cases {
		t.Run(tc.strategy+"/"+string(tc.reasoning), func(t *testing.T) {
			s := f.session(t, tc.reasoning)
			res := run(t, tc.strategy, s)
			assert.True(t, res.Completed)
			assert.Equal(t, want, res.Active)
			assert.ElementsMatch(t, f.m.Sub([]int{1, 2}), res.Inactive)

			conflicting, err := s.complete.IsConflictSet(context.Background(), res.Active)
			require.NoError(t, err)
			assert.False(t, conflicting)
		})
	}
}

func TestSearch_LearnsConflicts(t *testing.T) {
	f := newReasoningFixture(t)
	s := f.session(t, PatternThenComplete)
	before := s.store.PairCount()

	run(t, StrategyOptimal, s)
	assert.Equal(t, before, s.store.PairCount())
	assert.Equal(t, []int{1}, s.store.ConflictingIndicesList([]int{1}), "Chimera = Article is stored as a singularity")
}

func TestSearch_UnsupportedCombinations(t *testing.T) {
	f := newReasoningFixture(t)

	_, err := New(StrategyGreedyMinimize, f.session(t, PatternThenComplete))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))

	_, err = New(StrategyOptimalOneToOne, f.session(t, BruteForce))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}
