package conflict

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/hierarchy"
	"github.com/nodeadmin/alcomo/logging"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/metrics"
	"github.com/nodeadmin/alcomo/reasoner"
)

// DefaultCacheSize is the number of verdicts Complete keeps.
const DefaultCacheSize = 4096

// CompleteOptions controls NewComplete.
type CompleteOptions struct {
	RangeExtension bool
	// CacheSize of the verdict cache; <= 0 means DefaultCacheSize.
	CacheSize int
	Logger    logging.Logger
}

// verdict is the outcome of classifying the merged ontologies with one
// set of mapping axioms.
type verdict struct {
	conflict bool
	// unsat is the first named concept that became unsatisfiable, empty
	// when the conflict is an inconsistency.
	unsat        string
	inconsistent bool
	newUnsat     []string
}

// Complete checks sets of correspondences by classifying the union of both
// ontologies extended with the correspondences as axioms. It is not safe
// for concurrent use.
type Complete struct {
	source, target *hierarchy.Hierarchy
	classifier     reasoner.Classifier
	opts           CompleteOptions

	base             *reasoner.TBox
	baseUnsat        map[string]struct{}
	baseInconsistent bool

	validated mapping.Mapping
	cache     *lru.Cache[string, verdict]
	log       logging.Logger
}

// NewComplete merges the two ontologies and classifies the result once to
// learn which concepts are unsatisfiable before any correspondence is added.
func NewComplete(ctx context.Context, source, target *hierarchy.Hierarchy, opts CompleteOptions) (*Complete, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, verdict](size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "creating verdict cache")
	}

	base := reasoner.NewTBox()
	build := reasoner.BuildOptions{Individuals: true}
	base.Add(source.Ontology(), build)
	base.Add(target.Ontology(), build)

	c := &Complete{
		source:     source,
		target:     target,
		classifier: source.Classifier(),
		opts:       opts,
		base:       base,
		baseUnsat:  make(map[string]struct{}),
		cache:      cache,
		log:        logging.OrNop(opts.Logger).Named("complete"),
	}

	start := time.Now()
	cls, err := c.classifier.Classify(ctx, base.Clone(), nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeReasoning, "classifying merged ontologies")
	}
	metrics.RecordReasonerCall(c.classifier.Name(), "classify", time.Since(start))
	for _, u := range cls.Unsatisfiable {
		c.baseUnsat[base.Symbols.ConceptName(u)] = struct{}{}
	}
	c.baseInconsistent = cls.Inconsistent

	c.log.Info("merged ontologies classified",
		logging.Int("concepts", base.Symbols.ConceptCount()),
		logging.Int("unsatisfiable", len(c.baseUnsat)),
		logging.Bool("inconsistent", c.baseInconsistent))
	return c, nil
}

// AttachValidated adds m to the axioms every later check includes without
// considering it defective. Calls accumulate.
func (c *Complete) AttachValidated(m mapping.Mapping) {
	c.validated = append(c.validated, m...)
}

// ResetValidated drops all attached correspondences.
func (c *Complete) ResetValidated() {
	c.validated = nil
}

// IsConflictSet reports whether adding m makes some concept unsatisfiable
// that was satisfiable before, or makes the merged ontologies inconsistent.
func (c *Complete) IsConflictSet(ctx context.Context, m mapping.Mapping) (bool, error) {
	v, err := c.check(ctx, m)
	if err != nil {
		return false, err
	}
	return v.conflict, nil
}

// UnsatisfiableClasses returns the concepts that become unsatisfiable when m
// is added, sorted by concept id.
func (c *Complete) UnsatisfiableClasses(ctx context.Context, m mapping.Mapping) ([]string, error) {
	v, err := c.check(ctx, m)
	if err != nil {
		return nil, err
	}
	return v.newUnsat, nil
}

// MinimalConflict shrinks the conflict set m to a minimal one by dropping
// correspondences from the end as long as the conflict survives. It returns
// nil when m is not a conflict set.
func (c *Complete) MinimalConflict(ctx context.Context, m mapping.Mapping) (mapping.Mapping, error) {
	v, err := c.check(ctx, m)
	if err != nil || !v.conflict {
		return nil, err
	}
	conflict := m.Copy()
	for i := len(conflict) - 1; i >= 0; i-- {
		candidate := make(mapping.Mapping, 0, len(conflict)-1)
		candidate = append(candidate, conflict[:i]...)
		candidate = append(candidate, conflict[i+1:]...)
		still, err := c.recheck(ctx, candidate, v)
		if err != nil {
			return nil, err
		}
		if still {
			conflict = candidate
		}
	}
	c.log.Debug("minimal conflict", logging.Int("size", len(conflict)), logging.Int("from", len(m)))
	return conflict, nil
}

// SearchInvalid returns the smallest k such that m[0..k] is a conflict set,
// or -1 when m as a whole is not one.
func (c *Complete) SearchInvalid(ctx context.Context, m mapping.Mapping) (int, error) {
	if len(m) == 0 {
		return -1, nil
	}
	conflict, err := c.IsConflictSet(ctx, m)
	if err != nil || !conflict {
		return -1, err
	}
	lo, hi := 0, len(m)-1
	for lo < hi {
		mid := (lo + hi) / 2
		conflict, err := c.IsConflictSet(ctx, m.Prefix(mid))
		if err != nil {
			return -1, err
		}
		if conflict {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// recheck tests a candidate subset against the concept that was found
// unsatisfiable for the full set. Only that concept is classified.
func (c *Complete) recheck(ctx context.Context, m mapping.Mapping, full verdict) (bool, error) {
	if full.unsat == "" {
		v, err := c.check(ctx, m)
		return v.conflict, err
	}
	tbox := c.extend(m)
	id, ok := tbox.Symbols.Concept(full.unsat)
	if !ok {
		return false, nil
	}
	start := time.Now()
	cls, err := c.classifier.Classify(ctx, tbox, []reasoner.ConceptID{id})
	if err != nil {
		return false, err
	}
	metrics.RecordReasonerCall(c.classifier.Name(), "focused", time.Since(start))
	return cls.IsUnsatisfiable(id), nil
}

func (c *Complete) check(ctx context.Context, m mapping.Mapping) (verdict, error) {
	key := m.Signature() + "\x00" + c.validated.Signature()
	if v, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return v, nil
	}
	metrics.RecordCacheLookup(false)

	tbox := c.extend(m)
	start := time.Now()
	cls, err := c.classifier.Classify(ctx, tbox, nil)
	if err != nil {
		return verdict{}, err
	}
	metrics.RecordReasonerCall(c.classifier.Name(), "classify", time.Since(start))

	var v verdict
	for _, u := range cls.Unsatisfiable {
		name := tbox.Symbols.ConceptName(u)
		if _, known := c.baseUnsat[name]; known {
			continue
		}
		if v.unsat == "" {
			v.unsat = name
		}
		v.newUnsat = append(v.newUnsat, name)
	}
	v.inconsistent = cls.Inconsistent && !c.baseInconsistent
	v.conflict = v.unsat != "" || v.inconsistent
	c.cache.Add(key, v)
	return v, nil
}

// extend clones the merged base and adds m and the validated
// correspondences as axioms.
func (c *Complete) extend(m mapping.Mapping) *reasoner.TBox {
	tbox := c.base.Clone()
	for _, corr := range c.validated {
		c.addAxioms(tbox, corr)
	}
	for _, corr := range m {
		c.addAxioms(tbox, corr)
	}
	return tbox
}

// addAxioms translates one correspondence. Equivalence is subsumption in
// both directions; concept disjointness becomes s ⊓ t ⊑ ⊥. Correspondences
// between a concept and a property have no translation.
func (c *Complete) addAxioms(tbox *reasoner.TBox, corr mapping.Correspondence) {
	se, err := c.source.Entity(corr.Source)
	if err != nil {
		return
	}
	te, err := c.target.Entity(corr.Target)
	if err != nil {
		return
	}

	switch {
	case se.Kind == hierarchy.Concept && te.Kind == hierarchy.Concept:
		if corr.IsEquivOrSub() {
			tbox.AddSubClass(corr.Source, corr.Target)
		}
		if corr.IsEquivOrSuper() {
			tbox.AddSubClass(corr.Target, corr.Source)
		}
		if corr.Relation == mapping.Disjoint {
			tbox.Axioms.AddDisjoint(tbox.Concept(corr.Source), tbox.Concept(corr.Target))
		}
	case se.IsProperty() && te.IsProperty():
		ranges := c.opts.RangeExtension && se.Kind == hierarchy.ObjectProperty && te.Kind == hierarchy.ObjectProperty
		if corr.IsEquivOrSub() {
			tbox.AddSubProperty(corr.Source, corr.Target, ranges)
		}
		if corr.IsEquivOrSuper() {
			tbox.AddSubProperty(corr.Target, corr.Source, ranges)
		}
	}
}
