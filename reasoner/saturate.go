package reasoner

import (
	"context"
	"sort"
)

// cancelCheckInterval is the number of worklist items processed between
// context checks.
const cancelCheckInterval = 4096

// Context holds the saturation state for a single concept.
type Context struct {
	id ConceptID

	// S(C): set of all derived superclasses. Maps ConceptID → struct{}.
	superSet map[ConceptID]struct{}

	// Forward links: linkMap[r] = list of concepts D such that (C, D) ∈ R(r).
	linkMap [][]ConceptID

	// Reverse links: predMap[r] = list of concepts E such that (E, C) ∈ R(r).
	predMap [][]ConceptID
}

// Supers returns S(C) in ascending order.
func (c *Context) Supers() []ConceptID {
	out := make([]ConceptID, 0, len(c.superSet))
	for d := range c.superSet {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// workItem represents a pending inference to process.
type workItem struct {
	concept ConceptID
	added   ConceptID
}

// linkItem represents a newly added role link to process.
type linkItem struct {
	source ConceptID
	role   RoleID
	target ConceptID
}

// saturation is the state of one goal-directed run: only concepts in the
// focus, and concepts reached from them through existential links, get a
// context.
type saturation struct {
	store    *AxiomStore
	nr       int
	contexts []*Context

	worklist     []workItem
	linkWorklist []linkItem
}

// Saturate runs the single-threaded EL saturation algorithm.
// It applies completion rules CR1–CR5, CR10, CR11 until no new inferences
// can be derived. A nil focus saturates every concept; otherwise only the
// focus concepts and what they depend on are computed, and the returned
// slice holds nil for the rest.
func Saturate(ctx context.Context, st *SymbolTable, store *AxiomStore, focus []ConceptID) ([]*Context, error) {
	n := st.ConceptCount()
	store.Grow(n)
	store.GrowRoles(st.RoleCount())

	s := &saturation{
		store:        store,
		nr:           st.RoleCount(),
		contexts:     make([]*Context, n),
		worklist:     make([]workItem, 0, n*2),
		linkWorklist: make([]linkItem, 0, n),
	}

	if focus == nil {
		for c := ConceptID(0); c < ConceptID(n); c++ {
			s.activate(c)
		}
	} else {
		for _, c := range focus {
			s.activate(c)
		}
	}

	steps := 0
	// Main saturation loop.
	for len(s.worklist) > 0 || len(s.linkWorklist) > 0 {
		// Process concept worklist items first (LIFO for cache locality).
		for len(s.worklist) > 0 {
			if steps++; steps%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			item := s.worklist[len(s.worklist)-1]
			s.worklist = s.worklist[:len(s.worklist)-1]
			s.processConcept(item.concept, item.added)
		}

		// Process link worklist items.
		for len(s.linkWorklist) > 0 {
			if steps++; steps%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			li := s.linkWorklist[len(s.linkWorklist)-1]
			s.linkWorklist = s.linkWorklist[:len(s.linkWorklist)-1]
			s.processLink(li.source, li.role, li.target)
		}
	}

	return s.contexts, ctx.Err()
}

// activate creates the context of c with S(C) = {C, ⊤} on first use.
func (s *saturation) activate(c ConceptID) *Context {
	if s.contexts[c] != nil {
		return s.contexts[c]
	}
	cx := &Context{
		id:       c,
		superSet: make(map[ConceptID]struct{}, 8),
		linkMap:  make([][]ConceptID, s.nr),
		predMap:  make([][]ConceptID, s.nr),
	}
	s.contexts[c] = cx
	s.add(c, c)
	s.add(c, Top)
	return cx
}

// add puts d into S(c) and schedules it; it reports whether d was new.
func (s *saturation) add(c, d ConceptID) bool {
	sup := s.contexts[c].superSet
	if _, exists := sup[d]; exists {
		return false
	}
	sup[d] = struct{}{}
	s.worklist = append(s.worklist, workItem{c, d})
	return true
}

func (s *saturation) processConcept(c, d ConceptID) {
	store := s.store
	cx := s.contexts[c]

	// CR1: If D ∈ S(C) and D ⊑ E in store, add E to S(C).
	for _, e := range store.subToSups[d] {
		s.add(c, e)
	}

	// CR2: For each (D, D') or (D', D) conjunction axiom where D' ∈ S(C).
	if store.conjIndex[d] != nil {
		for d2, results := range store.conjIndex[d] {
			if _, exists := cx.superSet[d2]; exists {
				for _, e := range results {
					s.add(c, e)
				}
			}
		}
	}

	// CR3: If D ⊑ ∃R.B, add link (C, B) to R(R).
	for _, rf := range store.existRight[d] {
		target := s.activate(rf.Fill)
		if addLink(cx, target, rf.Role) {
			s.linkWorklist = append(s.linkWorklist, linkItem{c, rf.Role, rf.Fill})
		}
	}

	// CR4 backward: D was added to S(C). For each predecessor E
	// that has a link (E, C) via role R, check if ∃R.D ⊑ F.
	for r := RoleID(0); r < RoleID(s.nr); r++ {
		if len(cx.predMap[r]) == 0 {
			continue
		}
		if store.existLeft[r] != nil {
			if sups, ok := store.existLeft[r][d]; ok {
				for _, pred := range cx.predMap[r] {
					for _, f := range sups {
						s.add(pred, f)
					}
				}
			}
		}
		// CR5 backward: ⊥ just reached C, so every predecessor is ⊥ too.
		if d == Bottom {
			for _, pred := range cx.predMap[r] {
				s.add(pred, Bottom)
			}
		}
	}
}

func (s *saturation) processLink(c ConceptID, r RoleID, d ConceptID) {
	store := s.store
	cx, dx := s.contexts[c], s.contexts[d]

	// CR4 forward: (C, D) ∈ R(R). For each E in S(D), check ∃R.E ⊑ F.
	if store.existLeft[r] != nil {
		for e := range dx.superSet {
			if sups, ok := store.existLeft[r][e]; ok {
				for _, f := range sups {
					s.add(c, f)
				}
			}
		}
	}

	// CR5: If ⊥ ∈ S(D), add ⊥ to S(C).
	if _, hasBottom := dx.superSet[Bottom]; hasBottom {
		s.add(c, Bottom)
	}

	// CR10: Role subsumption. If R ⊑ S, add (C, D) to R(S).
	for _, sr := range store.roleSubs[r] {
		if addLink(cx, dx, sr) {
			s.linkWorklist = append(s.linkWorklist, linkItem{c, sr, d})
		}
	}

	// CR11: Role composition. If (E, C) ∈ R(R1) and R1 ∘ R ⊑ S, add (E, D) to R(S).
	for r1 := RoleID(0); r1 < RoleID(s.nr); r1++ {
		if store.roleChains[r1] == nil {
			continue
		}
		if chains, ok := store.roleChains[r1][r]; ok {
			for _, pred := range cx.predMap[r1] {
				for _, sr := range chains {
					if addLink(s.contexts[pred], dx, sr) {
						s.linkWorklist = append(s.linkWorklist, linkItem{pred, sr, d})
					}
				}
			}
		}
	}

	// CR11 (second half): If (C, D) ∈ R(R) and (D, E) ∈ R(R2) and R ∘ R2 ⊑ S.
	if store.roleChains[r] != nil {
		for r2, chains := range store.roleChains[r] {
			for _, e := range dx.linkMap[r2] {
				for _, sr := range chains {
					if addLink(cx, s.contexts[e], sr) {
						s.linkWorklist = append(s.linkWorklist, linkItem{c, sr, e})
					}
				}
			}
		}
	}
}

// addLink adds (source, target) to R(role), updating both forward and reverse indices.
// Returns true if the link was new.
func addLink(source, target *Context, role RoleID) bool {
	// Check if link already exists.
	for _, existing := range source.linkMap[role] {
		if existing == target.id {
			return false
		}
	}
	source.linkMap[role] = append(source.linkMap[role], target.id)
	target.predMap[role] = append(target.predMap[role], source.id)
	return true
}
