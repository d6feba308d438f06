package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/mapping"
)

var patternStrategies = []string{StrategyGreedy, StrategyGreedyMinimize, StrategyOptimal}

// equivs builds a mapping of equivalences between sN and tN.
func equivs(pairs ...any) mapping.Mapping {
	var m mapping.Mapping
	for i := 0; i+2 < len(pairs); i += 3 {
		m = append(m, mapping.Correspondence{
			Source:     fmt.Sprintf("http://s#%v", pairs[i]),
			Target:     fmt.Sprintf("http://t#%v", pairs[i+1]),
			Relation:   mapping.Equivalent,
			Confidence: pairs[i+2].(float64),
		})
	}
	return m
}

func patternSession(t *testing.T, m mapping.Mapping, conflicts ...[]int) *Session {
	t.Helper()
	store := conflict.NewEmptyStore(m, conflict.StoreOptions{})
	for _, c := range conflicts {
		store.AddConflict(c)
	}
	s, err := NewSession(store, Options{})
	require.NoError(t, err)
	return s
}

func run(t *testing.T, name string, s *Session) Result {
	t.Helper()
	strategy, err := New(name, s)
	require.NoError(t, err)
	res, err := strategy.Run(context.Background())
	require.NoError(t, err)
	return res
}

func sources(m mapping.Mapping) []string {
	out := make([]string, len(m))
	for i, c := range m {
		out[i] = c.Source
	}
	return out
}

func TestSearch_DropsLeastTrustedOfPair(t *testing.T) {
	m := equivs("a", "a", 0.9, "b", "b", 0.8, "c", "c", 0.3)
	for _, name := range patternStrategies {
		t.Run(name, func(t *testing.T) {
			res := run(t, name, patternSession(t, m, []int{0, 1}))
			assert.True(t, res.Completed)
			assert.Equal(t, []string{"http://s#a", "http://s#c"}, sources(res.Active))
			assert.Equal(t, []string{"http://s#b"}, sources(res.Inactive))
			assert.InDelta(t, 1.2, res.Trust(), 1e-9)
		})
	}
}

func TestSearch_OptimalBeatsGreedy(t *testing.T) {
	m := equivs("a", "a", 0.9, "b", "b", 0.6, "c", "c", 0.6)
	conflicts := [][]int{{0, 1}, {0, 2}}

	greedy := run(t, StrategyGreedy, patternSession(t, m, conflicts...))
	assert.Equal(t, []string{"http://s#a"}, sources(greedy.Active))

	optimal := run(t, StrategyOptimal, patternSession(t, m, conflicts...))
	assert.True(t, optimal.Completed)
	assert.Equal(t, []string{"http://s#b", "http://s#c"}, sources(optimal.Active))
	assert.Greater(t, optimal.Trust(), greedy.Trust())

	minimize := run(t, StrategyGreedyMinimize, patternSession(t, m, conflicts...))
	assert.Equal(t, []string{"http://s#b", "http://s#c"}, sources(minimize.Active))
}

func TestSearch_HigherOrderConflict(t *testing.T) {
	m := equivs("a", "a", 0.9, "b", "b", 0.5, "c", "c", 0.7)
	for _, name := range patternStrategies {
		t.Run(name, func(t *testing.T) {
			res := run(t, name, patternSession(t, m, []int{0, 1, 2}))
			assert.Equal(t, []string{"http://s#b"}, sources(res.Inactive))
		})
	}
}

func TestSearch_Singularity(t *testing.T) {
	m := equivs("a", "a", 0.9, "b", "b", 0.5)
	for _, name := range append(patternStrategies, StrategyOptimalOneToOne) {
		t.Run(name, func(t *testing.T) {
			res := run(t, name, patternSession(t, m, []int{0}))
			assert.Equal(t, []string{"http://s#b"}, sources(res.Active))
		})
	}
}

func TestSearch_Properties(t *testing.T) {
	m := equivs(
		"a", "a", 0.9, "b", "b", 0.8, "c", "c", 0.7, "d", "d", 0.6,
		"e", "e", 0.5, "f", "f", 0.4, "g", "g", 0.3,
	)
	conflicts := [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {0, 5}, {4, 5, 6}}

	var optimal float64
	for _, name := range patternStrategies {
		t.Run(name, func(t *testing.T) {
			s := patternSession(t, m, conflicts...)
			res := run(t, name, s)
			require.True(t, res.Completed)

			assert.Equal(t, len(m), len(res.Active)+len(res.Inactive), "partition is complete")
			assert.Empty(t, res.Active.Difference(m), "active is a subset")
			assert.Nil(t, s.store.ConflictingIndicesList(indicesOf(t, m, res.Active)), "active is conflict-free")

			again := run(t, name, patternSession(t, res.Active))
			assert.Empty(t, again.Inactive, "a coherent input is kept whole")

			if name == StrategyOptimal {
				optimal = res.Trust()
			}
		})
	}
	// a, c, e and g are pairwise compatible and the best choice.
	assert.InDelta(t, 2.4, optimal, 1e-9)
}

func TestSearch_EmptyMapping(t *testing.T) {
	for _, name := range append(patternStrategies, StrategyOptimalOneToOne) {
		res := run(t, name, patternSession(t, nil))
		assert.True(t, res.Completed, name)
		assert.Empty(t, res.Active, name)
		assert.Empty(t, res.Inactive, name)
	}
}

func TestSearch_Cancelled(t *testing.T) {
	m := equivs("a", "a", 0.9, "b", "b", 0.8, "c", "c", 0.3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, name := range append(patternStrategies, StrategyOptimalOneToOne) {
		t.Run(name, func(t *testing.T) {
			strategy, err := New(name, patternSession(t, m, []int{0, 1}))
			require.NoError(t, err)
			res, err := strategy.Run(ctx)
			require.NoError(t, err)
			assert.False(t, res.Completed)
			assert.Equal(t, len(m), len(res.Active)+len(res.Inactive))
		})
	}
}

func TestHungarian_OneToOne(t *testing.T) {
	m := equivs("a", "x", 0.9, "a", "y", 0.8, "b", "y", 0.3)

	all := run(t, StrategyOptimal, patternSession(t, m))
	assert.Len(t, all.Active, 3)

	res := run(t, StrategyOptimalOneToOne, patternSession(t, m))
	assert.True(t, res.Completed)
	assert.Equal(t, m.Sub([]int{0, 2}), res.Active)

	res = run(t, StrategyOptimalOneToOne, patternSession(t, m, []int{0, 2}))
	assert.Equal(t, m.Sub([]int{0}), res.Active)
}

func TestHungarian_RejectsNonEquivalence(t *testing.T) {
	m := equivs("a", "a", 0.9)
	m[0].Relation = mapping.Sub
	_, err := New(StrategyOptimalOneToOne, patternSession(t, m))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidOperation))
}

func TestMappingMatrix(t *testing.T) {
	m := equivs("a", "x", 0.9, "a", "y", 0.8, "b", "y", 0.3)
	mm, err := NewMappingMatrix(m)
	require.NoError(t, err)
	assert.Equal(t, 4, mm.Size())
	xy := mm.Coord(2)
	assert.Equal(t, 1, xy.Row)
	assert.Equal(t, 1, xy.Col)
	assert.InDelta(t, 0.7, mm.Cost().At(xy.Row, xy.Col), 1e-9)
	assert.Equal(t, 1.0, mm.Cost().At(1, 0))

	i, ok := mm.Index(mm.Coord(1))
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	score, indices, err := mm.Solve(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, indices)
	assert.InDelta(t, 4-1.2, score, 1e-9)
}

func TestNewSession_Invalid(t *testing.T) {
	store := conflict.NewEmptyStore(nil, conflict.StoreOptions{})

	_, err := NewSession(store, Options{Reasoning: "psychic"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))

	_, err = NewSession(store, Options{Reasoning: PatternThenComplete})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))

	s, err := NewSession(store, Options{})
	require.NoError(t, err)
	_, err = New("simulated-annealing", s)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))

	strategy, err := New("", s)
	require.NoError(t, err)
	assert.Equal(t, StrategyOptimal, strategy.Name())
}

func indicesOf(t *testing.T, m, sub mapping.Mapping) []int {
	t.Helper()
	keys := make(map[string]int, len(m))
	for i, c := range m {
		keys[c.Key()] = i
	}
	out := make([]int, 0, len(sub))
	for _, c := range sub {
		i, ok := keys[c.Key()]
		require.True(t, ok)
		out = append(out, i)
	}
	return out
}
