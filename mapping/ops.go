package mapping

import (
	"math"

	"github.com/nodeadmin/alcomo/errors"
)

// Threshold returns the correspondences whose confidence is strictly above
// t, in order, and the number it dropped.
func (m Mapping) Threshold(t float64) (Mapping, int) {
	out := make(Mapping, 0, len(m))
	for _, c := range m {
		if c.Confidence > t {
			out = append(out, c)
		}
	}
	return out, len(m) - len(out)
}

// ThresholdRelative keeps the best round(n*(1-rt)) correspondences,
// sorted by descending confidence.
func (m Mapping) ThresholdRelative(rt float64) (Mapping, error) {
	if rt < 0 || rt > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidOperation, "relative threshold %g outside [0,1]", rt)
	}
	out := m.Copy()
	out.SortByConfidence()
	keep := int(math.Round(float64(len(out)) * (1 - rt)))
	return out[:keep], nil
}

// Rescale maps the confidences linearly onto [lo, hi]. When every
// confidence is the same, all of them become hi.
func (m Mapping) Rescale(lo, hi float64) error {
	if lo > hi {
		return errors.Newf(errors.ErrCodeInvalidOperation, "empty range [%g, %g]", lo, hi)
	}
	if len(m) == 0 {
		return nil
	}
	minC, maxC := m[0].Confidence, m[0].Confidence
	for _, c := range m[1:] {
		minC = math.Min(minC, c.Confidence)
		maxC = math.Max(maxC, c.Confidence)
	}
	for i := range m {
		if minC == maxC {
			m[i].Confidence = hi
			continue
		}
		v := (m[i].Confidence-minC)*(hi-lo)/(maxC-minC) + lo
		m[i].Confidence = math.Min(hi, math.Max(lo, v))
	}
	return nil
}

// Invert swaps source and target of every correspondence and inverts
// its relation.
func (m Mapping) Invert() Mapping {
	out := make(Mapping, len(m))
	for i, c := range m {
		out[i] = Correspondence{Source: c.Target, Target: c.Source, Relation: c.Relation.Inverse(), Confidence: c.Confidence}
	}
	return out
}

// Union returns m followed by the correspondences of other not in m.
// Confidences of correspondences found in both are summed.
func (m Mapping) Union(other Mapping) Mapping {
	out := m.Copy()
	pos := make(map[string]int, len(out))
	for i, c := range out {
		pos[c.Key()] = i
	}
	for _, c := range other {
		if i, ok := pos[c.Key()]; ok {
			out[i].Confidence += c.Confidence
			continue
		}
		pos[c.Key()] = len(out)
		out = append(out, c)
	}
	return out
}

// Intersection returns the correspondences of m whose key is in other.
func (m Mapping) Intersection(other Mapping) Mapping {
	keys := other.Keys()
	out := make(Mapping, 0, len(m))
	for _, c := range m {
		if _, ok := keys[c.Key()]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ToEquivalence turns every correspondence into an equivalence.
func (m Mapping) ToEquivalence() Mapping {
	out := m.Copy()
	for i := range out {
		out[i].Relation = Equivalent
	}
	return out
}

// SplitToSubsumption replaces each equivalence by a Sub and a Super
// correspondence of the same confidence. Other relations are kept.
func (m Mapping) SplitToSubsumption() Mapping {
	out := make(Mapping, 0, len(m))
	for _, c := range m {
		if c.Relation != Equivalent {
			out = append(out, c)
			continue
		}
		sub, super := c, c
		sub.Relation, super.Relation = Sub, Super
		out = append(out, sub, super)
	}
	return out
}

// Scale multiplies the confidence of every correspondence selected by
// match with factor.
func (m Mapping) Scale(factor float64, match func(Correspondence) bool) {
	for i := range m {
		if match == nil || match(m[i]) {
			m[i].Confidence *= factor
		}
	}
}

// Join merges mappings into one whose confidences are the weighted sums of
// the inputs. A nil weights slice weighs every mapping equally.
// Correspondences keep the order of their first occurrence.
func Join(mappings []Mapping, weights []float64) (Mapping, error) {
	if weights == nil {
		weights = make([]float64, len(mappings))
		for i := range weights {
			weights[i] = 1 / float64(len(mappings))
		}
	}
	if len(weights) != len(mappings) {
		return nil, errors.Newf(errors.ErrCodeInvalidOperation,
			"join needs one weight per mapping, got %d weights for %d mappings", len(weights), len(mappings))
	}
	var out Mapping
	pos := make(map[string]int)
	for k, m := range mappings {
		for _, c := range m {
			w := c.Confidence * weights[k]
			if i, ok := pos[c.Key()]; ok {
				out[i].Confidence += w
				continue
			}
			pos[c.Key()] = len(out)
			c.Confidence = w
			out = append(out, c)
		}
	}
	return out, nil
}
