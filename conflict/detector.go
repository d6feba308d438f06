// Package conflict finds sets of correspondences that cannot be accepted
// together: a pattern-based pairwise detector over the interval indexes of
// both hierarchies, a store of known conflicts, and a complete check that
// classifies the merged ontologies.
package conflict

import (
	"github.com/nodeadmin/alcomo/hierarchy"
	"github.com/nodeadmin/alcomo/interval"
	"github.com/nodeadmin/alcomo/mapping"
)

// Policy configures the detector.
type Policy struct {
	// OneToOne forbids two accepted correspondences sharing a source or a
	// target; OneToMany forbids sharing a target, ManyToOne a source.
	OneToOne  bool
	OneToMany bool
	ManyToOne bool
	// OneToOneOnlyEquiv restricts the cardinality rules to pairs of
	// equivalence correspondences.
	OneToOneOnlyEquiv bool
	// DisableReasoning keeps only the cardinality rules.
	DisableReasoning bool
	// RangeExtension also compares the ranges of matched object properties.
	RangeExtension bool
}

func (p Policy) cardinality() bool {
	return p.OneToOne || p.OneToMany || p.ManyToOne
}

// Detector decides whether two correspondences conflict. It is safe for
// concurrent use.
type Detector struct {
	source, target *hierarchy.Hierarchy
	policy         Policy
}

// NewDetector returns a detector over the given hierarchies.
func NewDetector(source, target *hierarchy.Hierarchy, policy Policy) *Detector {
	return &Detector{source: source, target: target, policy: policy}
}

// Policy returns the detector's policy.
func (d *Detector) Policy() Policy { return d.policy }

// Conflicts reports whether accepting c1 and c2 together is infeasible.
func (d *Detector) Conflicts(c1, c2 mapping.Correspondence) bool {
	if d.policy.cardinality() {
		equiv := c1.Relation == mapping.Equivalent && c2.Relation == mapping.Equivalent
		if !d.policy.OneToOneOnlyEquiv || equiv {
			if (d.policy.OneToOne || d.policy.OneToMany) && c1.Target == c2.Target {
				return true
			}
			if (d.policy.OneToOne || d.policy.ManyToOne) && c1.Source == c2.Source {
				return true
			}
		}
	}
	if d.policy.DisableReasoning {
		return false
	}

	slots1, ok := d.slots(c1)
	if !ok {
		return false
	}
	slots2, ok := d.slots(c2)
	if !ok {
		return false
	}
	for _, p1 := range slots1 {
		for _, p2 := range slots2 {
			if d.patternConflict(c1, c2, p1, p2) {
				return true
			}
		}
	}
	return false
}

// ConflictsWithMapping reports whether c conflicts with any member of m.
func (d *Detector) ConflictsWithMapping(c mapping.Correspondence, m mapping.Mapping) bool {
	for _, other := range m {
		if d.Conflicts(c, other) {
			return true
		}
	}
	return false
}

// IsConflictSet reports whether any pair in m conflicts.
func (d *Detector) IsConflictSet(m mapping.Mapping) bool {
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if d.Conflicts(m[i], m[j]) {
				return true
			}
		}
	}
	return false
}

// slot is the pair of source and target nodes a correspondence relates in
// one reasoning position: the concepts themselves, or the domains (or
// ranges) of matched properties.
type slot struct {
	s, t int
}

func (d *Detector) slots(c mapping.Correspondence) ([]slot, bool) {
	se, err := d.source.Entity(c.Source)
	if err != nil {
		return nil, false
	}
	te, err := d.target.Entity(c.Target)
	if err != nil {
		return nil, false
	}
	out := []slot{{se.Domain, te.Domain}}
	if d.policy.RangeExtension && se.Kind == hierarchy.ObjectProperty && te.Kind == hierarchy.ObjectProperty {
		out = append(out, slot{se.Range, te.Range})
	}
	return out, true
}

// patternConflict checks the propagation patterns for one slot of each
// correspondence. s ⊑ t holds for sub and equivalence correspondences,
// t ⊑ s for super and equivalence.
func (d *Detector) patternConflict(c1, c2 mapping.Correspondence, p1, p2 slot) bool {
	src, tgt := d.source.Index(), d.target.Index()
	s1, t1, s2, t2 := p1.s, p1.t, p2.s, p2.t

	sub1, sup1 := c1.IsEquivOrSub(), c1.IsEquivOrSuper()
	sub2, sup2 := c2.IsEquivOrSub(), c2.IsEquivOrSuper()

	if sub1 && sub2 {
		// x ⊑ s1, x ⊑ s2 and t1, t2 disjoint.
		if d.disPattern(t1, t2, s1, s2, tgt, src, d.target, d.source) {
			return true
		}
	}
	if sub1 && sup2 {
		// t2 ⊑ s2 ⊑ s1 ⊑ t1 with a subclass of t2 disjoint with t1, or the
		// mirror image in the target.
		if d.subPattern(s2, s1, t2, t1, src, tgt, d.source, d.target) ||
			d.subPattern(t1, t2, s1, s2, tgt, src, d.target, d.source) {
			return true
		}
	}
	if sup1 && sub2 {
		if d.subPattern(s1, s2, t1, t2, src, tgt, d.source, d.target) ||
			d.subPattern(t2, t1, s2, s1, tgt, src, d.target, d.source) {
			return true
		}
	}
	if sup1 && sup2 {
		if d.disPattern(s1, s2, t1, t2, src, tgt, d.source, d.target) {
			return true
		}
	}
	return false
}

// subPattern: x1 ⊑ x2 in X and some subclass of y1 is disjoint with y2 in Y.
func (d *Detector) subPattern(x1, x2, y1, y2 int, ix, iy *interval.Index, hx, hy *hierarchy.Hierarchy) bool {
	if !usable(x1, x2, hx) || !usable(y1, y2, hy) {
		return false
	}
	return ix.IsSubClassOf(x1, x2) && iy.HasCommonSubDisjoint(y1, y2)
}

// disPattern: x1 and x2 are disjoint in X and y1, y2 share a subclass in Y.
func (d *Detector) disPattern(x1, x2, y1, y2 int, ix, iy *interval.Index, hx, hy *hierarchy.Hierarchy) bool {
	if !usable(x1, x2, hx) || !usable(y1, y2, hy) {
		return false
	}
	return ix.IsDisjointWith(x1, x2) && iy.HasCommonSubclass(y1, y2)
}

// usable rejects missing nodes and nodes that are unsatisfiable on their
// own: an already broken concept cannot additionally break.
func usable(a, b int, h *hierarchy.Hierarchy) bool {
	if a == hierarchy.NoNode || b == hierarchy.NoNode {
		return false
	}
	return !h.Unsatisfiable(a) && !h.Unsatisfiable(b)
}
