package reasoner

import (
	"sort"
	"time"
)

// Taxonomy holds the classified hierarchy after equivalence collapsing and
// transitive reduction. Only representatives carry parents and children.
type Taxonomy struct {
	// Representative[c] is the smallest concept equivalent to c.
	Representative []ConceptID
	// Members[rep] lists every named concept in rep's equivalence class.
	Members map[ConceptID][]ConceptID

	DirectParents  [][]ConceptID
	DirectChildren [][]ConceptID
}

// IsRepresentative reports whether c stands for its equivalence class.
func (tax *Taxonomy) IsRepresentative(c ConceptID) bool {
	return int(c) < len(tax.Representative) && tax.Representative[c] == c
}

// BuildTaxonomy extracts the direct (non-redundant) subsumption hierarchy
// over the named concepts of tbox. cls must cover every concept.
func BuildTaxonomy(cls *Classification, tbox *TBox) *Taxonomy {
	n := tbox.Symbols.ConceptCount()
	tax := &Taxonomy{
		Representative: make([]ConceptID, n),
		Members:        make(map[ConceptID][]ConceptID),
		DirectParents:  make([][]ConceptID, n),
		DirectChildren: make([][]ConceptID, n),
	}

	named := func(c ConceptID) bool {
		return c == Top || tbox.IsNamed(c)
	}

	// Collapse equivalence classes onto their smallest member. S(C) is closed
	// under subsumption, so min over mutual subsumers is consistent.
	for c := ConceptID(0); c < ConceptID(n); c++ {
		tax.Representative[c] = c
		if !named(c) || !cls.Classified(c) {
			continue
		}
		for _, s := range cls.Supers[c] {
			if s >= c {
				break
			}
			if named(s) && cls.Subsumes(c, s) {
				tax.Representative[c] = s
				break
			}
		}
		rep := tax.Representative[c]
		tax.Members[rep] = append(tax.Members[rep], c)
	}

	for c := ConceptID(1); c < ConceptID(n); c++ {
		if !named(c) || !tax.IsRepresentative(c) || !cls.Classified(c) {
			continue
		}

		// Collect candidate parents (everything in S(C) except C itself and Top).
		seen := make(map[ConceptID]struct{}, len(cls.Supers[c]))
		candidates := make([]ConceptID, 0, len(cls.Supers[c]))
		for _, s := range cls.Supers[c] {
			if s == Bottom || !named(s) {
				continue
			}
			rep := tax.Representative[s]
			if rep == c || rep == Top {
				continue
			}
			if _, dup := seen[rep]; dup {
				continue
			}
			seen[rep] = struct{}{}
			candidates = append(candidates, rep)
		}

		// Transitive reduction: B is a direct parent of C iff no other
		// candidate S also subsumes B (i.e., B ∈ S(S)).
		direct := make([]ConceptID, 0, 4)
		for _, b := range candidates {
			isDirect := true
			for _, s := range candidates {
				if s == b {
					continue
				}
				if cls.Subsumes(b, s) {
					isDirect = false
					break
				}
			}
			if isDirect {
				direct = append(direct, b)
			}
		}

		// If no direct parents were found, Top is the direct parent.
		if len(direct) == 0 {
			direct = append(direct, Top)
		}
		sort.Slice(direct, func(i, j int) bool { return direct[i] < direct[j] })

		tax.DirectParents[c] = direct
		for _, p := range direct {
			tax.DirectChildren[p] = append(tax.DirectChildren[p], c)
		}
	}

	return tax
}

// ClassifiedConcept represents a concept in the classified hierarchy.
type ClassifiedConcept struct {
	ID             string   `json:"id"`
	Equivalents    []string `json:"equivalents,omitempty"`
	DirectParents  []string `json:"direct_parents"`
	DirectChildren []string `json:"direct_children,omitempty"`
	Unsatisfiable  bool     `json:"unsatisfiable,omitempty"`
}

// ClassificationStats holds timing and size metrics.
type ClassificationStats struct {
	Backend              string `json:"backend"`
	ConceptCount         int    `json:"concept_count"`
	RoleCount            int    `json:"role_count"`
	AxiomCount           int    `json:"axiom_count"`
	InferredSubsumptions int    `json:"inferred_subsumptions"`
	Unsatisfiable        int    `json:"unsatisfiable"`
	Inconsistent         bool   `json:"inconsistent,omitempty"`
	ParseTimeMs          int64  `json:"parse_time_ms"`
	NormalizeTimeMs      int64  `json:"normalize_time_ms"`
	SaturateTimeMs       int64  `json:"saturate_time_ms"`
	ReductionTimeMs      int64  `json:"reduction_time_ms"`
	TotalTimeMs          int64  `json:"total_time_ms"`
}

// ClassifiedHierarchy is the top-level JSON output.
type ClassifiedHierarchy struct {
	Concepts []ClassifiedConcept `json:"concepts"`
	Stats    ClassificationStats `json:"stats"`
}

// ToJSON converts the taxonomy to a ClassifiedHierarchy for JSON output.
func (tax *Taxonomy) ToJSON(cls *Classification, tbox *TBox, stats ClassificationStats) *ClassifiedHierarchy {
	st := tbox.Symbols
	result := &ClassifiedHierarchy{Stats: stats}

	// Count inferred subsumptions (total S(C) entries beyond self and Top).
	inferred := 0
	for c := ConceptID(2); c < ConceptID(st.ConceptCount()); c++ {
		if !tbox.IsNamed(c) || !cls.Classified(c) {
			continue
		}
		if k := len(cls.Supers[c]) - 2; k > 0 {
			inferred += k
		}
	}
	result.Stats.InferredSubsumptions = inferred
	result.Stats.Unsatisfiable = len(cls.Unsatisfiable)
	result.Stats.Inconsistent = cls.Inconsistent

	names := func(ids []ConceptID, skip ConceptID) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != skip {
				out = append(out, st.ConceptName(id))
			}
		}
		return out
	}

	for c := ConceptID(2); c < ConceptID(st.ConceptCount()); c++ {
		if !tbox.IsNamed(c) || !tax.IsRepresentative(c) {
			continue // skip fresh/anonymous concepts and non-representatives
		}
		cc := ClassifiedConcept{
			ID:            st.ConceptName(c),
			Equivalents:   names(tax.Members[c], c),
			DirectParents: names(tax.DirectParents[c], Bottom),
			Unsatisfiable: cls.IsUnsatisfiable(c),
		}
		if len(cc.Equivalents) == 0 {
			cc.Equivalents = nil
		}
		if len(tax.DirectChildren[c]) > 0 {
			cc.DirectChildren = names(tax.DirectChildren[c], Bottom)
		}
		result.Concepts = append(result.Concepts, cc)
	}

	return result
}

// MakeStats creates a ClassificationStats from timing durations.
func MakeStats(backend string, tbox *TBox, parseTime, normTime, satTime, redTime time.Duration) ClassificationStats {
	total := parseTime + normTime + satTime + redTime
	return ClassificationStats{
		Backend:         backend,
		ConceptCount:    tbox.Symbols.ConceptCount() - 2, // exclude Top and Bottom
		RoleCount:       tbox.Symbols.RoleCount(),
		AxiomCount:      tbox.Axioms.Len(),
		ParseTimeMs:     parseTime.Milliseconds(),
		NormalizeTimeMs: normTime.Milliseconds(),
		SaturateTimeMs:  satTime.Milliseconds(),
		ReductionTimeMs: redTime.Milliseconds(),
		TotalTimeMs:     total.Milliseconds(),
	}
}
