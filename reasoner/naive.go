package reasoner

import "context"

// naiveSaturate computes the same closure as Saturate by applying every
// completion rule to every context in rounds until a round changes nothing.
// It is slow but has no worklist bookkeeping, which makes it a useful
// cross-check for the saturation backend.
func naiveSaturate(ctx context.Context, st *SymbolTable, store *AxiomStore, focus []ConceptID) ([]*Context, error) {
	n := st.ConceptCount()
	nr := st.RoleCount()
	store.Grow(n)
	store.GrowRoles(nr)

	contexts := make([]*Context, n)
	active := make([]ConceptID, 0, n)
	activate := func(c ConceptID) *Context {
		if contexts[c] == nil {
			contexts[c] = &Context{
				id:       c,
				superSet: map[ConceptID]struct{}{c: {}, Top: {}},
				linkMap:  make([][]ConceptID, nr),
				predMap:  make([][]ConceptID, nr),
			}
			active = append(active, c)
		}
		return contexts[c]
	}
	if focus == nil {
		for c := ConceptID(0); c < ConceptID(n); c++ {
			activate(c)
		}
	} else {
		for _, c := range focus {
			activate(c)
		}
	}

	add := func(cx *Context, d ConceptID) bool {
		if _, ok := cx.superSet[d]; ok {
			return false
		}
		cx.superSet[d] = struct{}{}
		return true
	}

	changed := true
	for changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed = false

		// CR1 - CR3 over a snapshot of every S(C).
		for i := 0; i < len(active); i++ {
			cx := contexts[active[i]]
			snapshot := make([]ConceptID, 0, len(cx.superSet))
			for d := range cx.superSet {
				snapshot = append(snapshot, d)
			}
			for _, d := range snapshot {
				for _, e := range store.subToSups[d] {
					changed = add(cx, e) || changed
				}
				for d2, results := range store.conjIndex[d] {
					if _, ok := cx.superSet[d2]; ok {
						for _, e := range results {
							changed = add(cx, e) || changed
						}
					}
				}
				for _, rf := range store.existRight[d] {
					changed = addLink(cx, activate(rf.Fill), rf.Role) || changed
				}
			}
		}

		// CR4, CR5, CR10, CR11 over every link.
		for i := 0; i < len(active); i++ {
			cx := contexts[active[i]]
			for r := RoleID(0); r < RoleID(nr); r++ {
				targets := append([]ConceptID(nil), cx.linkMap[r]...)
				for _, d := range targets {
					dx := contexts[d]
					for e := range dx.superSet {
						for _, f := range store.existLeft[r][e] {
							changed = add(cx, f) || changed
						}
					}
					if _, ok := dx.superSet[Bottom]; ok {
						changed = add(cx, Bottom) || changed
					}
					for _, sr := range store.roleSubs[r] {
						changed = addLink(cx, dx, sr) || changed
					}
					for r2, chains := range store.roleChains[r] {
						for _, e := range dx.linkMap[r2] {
							for _, sr := range chains {
								changed = addLink(cx, contexts[e], sr) || changed
							}
						}
					}
				}
			}
		}
	}
	return contexts, nil
}
