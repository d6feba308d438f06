package mapping

import (
	"sort"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

// Mapping is an ordered collection of correspondences. Positions 0..n-1 are
// the indices the search layer works with.
type Mapping []Correspondence

// Len returns the number of correspondences.
func (m Mapping) Len() int { return len(m) }

// At returns the correspondence at index i.
func (m Mapping) At(i int) Correspondence { return m[i] }

// Copy returns an independent copy.
func (m Mapping) Copy() Mapping {
	out := make(Mapping, len(m))
	copy(out, m)
	return out
}

// Confidences returns the confidence vector indexed like m.
func (m Mapping) Confidences() []float64 {
	out := make([]float64, len(m))
	for i, c := range m {
		out[i] = c.Confidence
	}
	return out
}

// Sum returns the total confidence.
func (m Mapping) Sum() float64 {
	var s float64
	for _, c := range m {
		s += c.Confidence
	}
	return s
}

// SortByConfidence sorts descending by confidence. Ties keep input order.
func (m Mapping) SortByConfidence() {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Confidence > m[j].Confidence })
}

// Normalize sets every confidence to v.
func (m Mapping) Normalize(v float64) error {
	if v < 0 || v > 1 {
		return errors.Newf(errors.ErrCodeInvalidMapping, "normalized confidence %g outside [0,1]", v)
	}
	for i := range m {
		m[i].Confidence = v
	}
	return nil
}

// Sub returns the correspondences at the given indices, in that order.
func (m Mapping) Sub(indices []int) Mapping {
	out := make(Mapping, 0, len(indices))
	for _, i := range indices {
		out = append(out, m[i])
	}
	return out
}

// Prefix returns the correspondences 0..k inclusive.
func (m Mapping) Prefix(k int) Mapping {
	if k >= len(m) {
		k = len(m) - 1
	}
	return m[:k+1].Copy()
}

// Keys returns the set of correspondence keys.
func (m Mapping) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(m))
	for _, c := range m {
		keys[c.Key()] = struct{}{}
	}
	return keys
}

// Contains reports whether a correspondence with c's key is present.
func (m Mapping) Contains(c Correspondence) bool {
	k := c.Key()
	for _, o := range m {
		if o.Key() == k {
			return true
		}
	}
	return false
}

// Difference returns the correspondences of m whose key is not in other.
func (m Mapping) Difference(other Mapping) Mapping {
	keys := other.Keys()
	out := make(Mapping, 0, len(m))
	for _, c := range m {
		if _, ok := keys[c.Key()]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Signature is a canonical string of the sorted keys, used as a cache key.
func (m Mapping) Signature() string {
	keys := make([]string, len(m))
	for i, c := range m {
		keys[i] = c.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

// Lookup resolves entity URIs against a hierarchy.
type Lookup interface {
	HasEntity(uri string) bool
}

// Bind splits m into the correspondences whose source is known to source and
// whose target is known to target, and the non-referring rest.
func Bind(m Mapping, source, target Lookup) (referring, nonReferring Mapping) {
	referring = make(Mapping, 0, len(m))
	for _, c := range m {
		if source.HasEntity(c.Source) && target.HasEntity(c.Target) {
			referring = append(referring, c)
		} else {
			nonReferring = append(nonReferring, c)
		}
	}
	return referring, nonReferring
}
