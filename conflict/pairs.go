package conflict

import (
	"context"

	"github.com/nodeadmin/alcomo/mapping"
)

// Pair is one pairwise conflict between two correspondences of a mapping.
type Pair struct {
	I, J   int
	First  mapping.Correspondence
	Second mapping.Correspondence
}

// Pairs enumerates every pairwise conflict the detector reports over m, in
// index order.
func Pairs(ctx context.Context, m mapping.Mapping, d *Detector, opts StoreOptions) ([]Pair, error) {
	s, err := NewStore(ctx, m, d, opts)
	if err != nil {
		return nil, err
	}
	return s.ConflictPairs(), nil
}

// ConflictPairs returns the stored pairs with their correspondences.
func (s *Store) ConflictPairs() []Pair {
	idx := s.Pairs()
	out := make([]Pair, len(idx))
	for k, p := range idx {
		out[k] = Pair{I: p[0], J: p[1], First: s.m[p[0]], Second: s.m[p[1]]}
	}
	return out
}

// AsXMLConflicts converts pairs to the conflict block of the extended
// alignment format.
func AsXMLConflicts(pairs []Pair) []mapping.Conflict {
	out := make([]mapping.Conflict, len(pairs))
	for k, p := range pairs {
		out[k] = mapping.Conflict{I: p.I, J: p.J}
	}
	return out
}
