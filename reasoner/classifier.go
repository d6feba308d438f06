package reasoner

import (
	"context"
	"sort"

	"github.com/nodeadmin/alcomo/errors"
)

// Backend names accepted by NewClassifier.
const (
	BackendSaturation = "saturation"
	BackendNaive      = "naive"
)

// Classifier classifies a TBox and reports its unsatisfiable concepts.
// A nil focus classifies every concept; a non-nil focus restricts the work
// to those concepts (a cheap satisfiability check).
type Classifier interface {
	Name() string
	Classify(ctx context.Context, tbox *TBox, focus []ConceptID) (*Classification, error)
}

// NewClassifier returns the backend registered under name.
func NewClassifier(name string) (Classifier, error) {
	switch name {
	case BackendSaturation, "":
		return NewSaturationClassifier(), nil
	case BackendNaive:
		return NewNaiveClassifier(), nil
	}
	return nil, errors.Newf(errors.ErrCodeInvalidConfig, "unknown reasoner backend %q", name)
}

type saturateFunc func(context.Context, *SymbolTable, *AxiomStore, []ConceptID) ([]*Context, error)

type classifier struct {
	name string
	run  saturateFunc
}

// NewSaturationClassifier returns the worklist saturation backend.
func NewSaturationClassifier() Classifier {
	return &classifier{name: BackendSaturation, run: Saturate}
}

// NewNaiveClassifier returns the fixpoint-rounds backend.
func NewNaiveClassifier() Classifier {
	return &classifier{name: BackendNaive, run: naiveSaturate}
}

func (c *classifier) Name() string { return c.name }

func (c *classifier) Classify(ctx context.Context, tbox *TBox, focus []ConceptID) (*Classification, error) {
	contexts, err := c.run(ctx, tbox.Symbols, tbox.Axioms, focus)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeReasoning, "saturation failed")
	}
	return newClassification(tbox, contexts), nil
}

// Classification is the outcome of one classifier run.
type Classification struct {
	// Supers[c] is S(c) in ascending order, or nil when c was outside the
	// focus.
	Supers [][]ConceptID

	// Unsatisfiable lists the named concepts (classes and artificial
	// property concepts) equivalent to ⊥, ascending.
	Unsatisfiable []ConceptID

	// Inconsistent is set when ⊤ or a named individual is unsatisfiable.
	Inconsistent bool
}

func newClassification(tbox *TBox, contexts []*Context) *Classification {
	cls := &Classification{Supers: make([][]ConceptID, len(contexts))}
	for id, cx := range contexts {
		if cx == nil {
			continue
		}
		c := ConceptID(id)
		cls.Supers[c] = cx.Supers()
		if _, bottom := cx.superSet[Bottom]; !bottom {
			continue
		}
		switch {
		case c == Top, tbox.IsIndividual(c):
			cls.Inconsistent = true
		case tbox.IsNamed(c):
			cls.Unsatisfiable = append(cls.Unsatisfiable, c)
		}
	}
	return cls
}

// Classified reports whether c was part of the run.
func (cls *Classification) Classified(c ConceptID) bool {
	return int(c) < len(cls.Supers) && cls.Supers[c] != nil
}

// Subsumes reports whether sup ∈ S(sub).
func (cls *Classification) Subsumes(sup, sub ConceptID) bool {
	if !cls.Classified(sub) {
		return false
	}
	s := cls.Supers[sub]
	i := sort.Search(len(s), func(i int) bool { return s[i] >= sup })
	return i < len(s) && s[i] == sup
}

// IsUnsatisfiable reports whether ⊥ ∈ S(c).
func (cls *Classification) IsUnsatisfiable(c ConceptID) bool {
	return cls.Subsumes(Bottom, c)
}

// HasConflict reports whether the run found any unsatisfiable named concept
// or an inconsistency.
func (cls *Classification) HasConflict() bool {
	return cls.Inconsistent || len(cls.Unsatisfiable) > 0
}
