// Package mapping holds the weighted correspondence sets that are repaired by
// the search layer, together with their text and Alignment XML formats.
package mapping

import (
	"fmt"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

// Relation is the semantic relation a correspondence asserts between its
// source and target entity.
type Relation uint8

const (
	Equivalent Relation = iota + 1 // A = B
	Sub                            // A < B, the source is subsumed by the target
	Super                          // A > B, the source subsumes the target
	Disjoint                       // A != B
)

// String returns the symbol used by the text and XML formats.
func (r Relation) String() string {
	switch r {
	case Equivalent:
		return "="
	case Sub:
		return "<"
	case Super:
		return ">"
	case Disjoint:
		return "!="
	}
	return "?"
}

// Inverse swaps Sub and Super; other relations are their own inverse.
func (r Relation) Inverse() Relation {
	switch r {
	case Sub:
		return Super
	case Super:
		return Sub
	}
	return r
}

// ParseRelation accepts the plain symbols and the Alignment API spellings.
func ParseRelation(s string) (Relation, error) {
	switch strings.TrimSpace(s) {
	case "=", "==", "EquivRelation", "equivalence":
		return Equivalent, nil
	case "<", "&lt;", "SubsumedRelation", "subsumption":
		return Sub, nil
	case ">", "&gt;", "SubsumesRelation":
		return Super, nil
	case "!=", "%", "DisjointRelation", "disjointness":
		return Disjoint, nil
	}
	return 0, errors.Newf(errors.ErrCodeInvalidRelation, "unknown relation %q", s)
}

// Correspondence links one source entity to one target entity.
// Two correspondences with equal Key are duplicates regardless of confidence.
type Correspondence struct {
	Source     string
	Target     string
	Relation   Relation
	Confidence float64
}

// Key identifies the correspondence by its (source, target, relation) triple.
func (c Correspondence) Key() string {
	return c.Source + " " + c.Relation.String() + " " + c.Target
}

// IsEquivOrSub reports whether the correspondence implies source ⊑ target.
func (c Correspondence) IsEquivOrSub() bool {
	return c.Relation == Equivalent || c.Relation == Sub
}

// IsEquivOrSuper reports whether the correspondence implies target ⊑ source.
func (c Correspondence) IsEquivOrSuper() bool {
	return c.Relation == Equivalent || c.Relation == Super
}

func (c Correspondence) String() string {
	return fmt.Sprintf("%s %s %s | %g", c.Source, c.Relation, c.Target, c.Confidence)
}
