package reasoner

import (
	"github.com/nodeadmin/alcomo/ontology"
)

// TBox is a normalized axiom set over one symbol table: one ontology, or
// several ontologies merged with mapping axioms on top.
type TBox struct {
	Symbols *SymbolTable
	Axioms  *AxiomStore

	// individuals are the concepts standing for named individuals; any of
	// them being unsatisfiable makes the TBox inconsistent.
	individuals map[ConceptID]struct{}
}

// NewTBox returns an empty TBox containing only ⊤ and ⊥.
func NewTBox() *TBox {
	st := NewSymbolTable()
	return &TBox{
		Symbols:     st,
		Axioms:      NewAxiomStore(st),
		individuals: make(map[ConceptID]struct{}),
	}
}

// Clone returns an independent copy that can be extended without touching t.
func (t *TBox) Clone() *TBox {
	c := &TBox{
		Symbols:     t.Symbols.Clone(),
		Axioms:      t.Axioms.Clone(),
		individuals: make(map[ConceptID]struct{}, len(t.individuals)),
	}
	for k := range t.individuals {
		c.individuals[k] = struct{}{}
	}
	return c
}

// IsIndividual reports whether c stands for a named individual.
func (t *TBox) IsIndividual(c ConceptID) bool {
	_, ok := t.individuals[c]
	return ok
}

// IsNamed reports whether c is a named class or an artificial property
// concept, i.e. neither ⊤, ⊥, a fresh helper nor an individual.
func (t *TBox) IsNamed(c ConceptID) bool {
	return c > Bottom && t.Symbols.ConceptName(c) != "" && !t.IsIndividual(c)
}

// Concept interns name as a concept.
func (t *TBox) Concept(name string) ConceptID {
	return t.Symbols.InternConcept(name)
}

// AddSubClass adds sub ⊑ sup over concept names.
func (t *TBox) AddSubClass(sub, sup string) {
	t.Axioms.AddSubsumption(t.Concept(sub), t.Concept(sup))
}

// AddSubProperty adds sub ⊑ sup over role names. With ranges set, the
// artificial range concept of sub is also placed below the one of sup.
func (t *TBox) AddSubProperty(sub, sup string, ranges bool) {
	r, s := t.Symbols.InternRole(sub), t.Symbols.InternRole(sup)
	t.Axioms.AddRoleSub(r, s)
	t.declareDomain(sub, r)
	t.declareDomain(sup, s)
	if ranges {
		t.Axioms.AddSubsumption(t.Concept(sub+RangeSuffix), t.Concept(sup+RangeSuffix))
	}
}

// declareDomain makes name#DOMAIN equivalent to ∃name.⊤.
func (t *TBox) declareDomain(name string, r RoleID) ConceptID {
	dom := t.Concept(name + DomainSuffix)
	if int(r) < len(t.Axioms.existLeft) && t.Axioms.existLeft[r] != nil {
		for _, sup := range t.Axioms.existLeft[r][Top] {
			if sup == dom {
				return dom
			}
		}
	}
	t.Axioms.AddExistRight(dom, r, Top)
	t.Axioms.AddExistLeft(r, Top, dom)
	return dom
}

// BuildOptions controls how an ontology is normalized.
type BuildOptions struct {
	// Individuals keeps instance data as one concept per individual.
	Individuals bool
}

// Normalize converts a parsed ontology into a TBox suitable for EL
// saturation.
func Normalize(ont *ontology.Ontology, opts BuildOptions) *TBox {
	t := NewTBox()
	t.Add(ont, opts)
	return t
}

// Add normalizes ont into t. Adding two ontologies yields their union over a
// shared signature, which is how merged ontologies are built.
func (t *TBox) Add(ont *ontology.Ontology, opts BuildOptions) {
	st, store := t.Symbols, t.Axioms

	// First pass: register all concept IDs in declaration order.
	for i := range ont.Classes {
		st.InternConcept(ont.Classes[i].IRI)
	}

	for i := range ont.Classes {
		c := &ont.Classes[i]
		if c.Deprecated {
			continue
		}
		cid := st.InternConcept(c.IRI)

		for _, sup := range c.SubClassOf {
			// NF1: C ⊑ Target
			store.AddSubsumption(cid, st.InternConcept(sup))
		}
		for _, eq := range c.EquivalentTo {
			other := st.InternConcept(eq)
			store.AddSubsumption(cid, other)
			store.AddSubsumption(other, cid)
		}
		for _, r := range c.Restrictions {
			// NF3: C ⊑ ∃R.Target
			t.addExistRight(cid, r)
		}
		for _, d := range c.DisjointWith {
			store.AddDisjoint(cid, st.InternConcept(d))
		}
		// C ≡ A₁ ⊔ ... ⊔ Aₙ keeps only Aᵢ ⊑ C, the part EL can express.
		for _, u := range c.UnionOf {
			store.AddSubsumption(st.InternConcept(u), cid)
		}
		if len(c.IntersectionOf)+len(c.DefiningRestrictions) > 0 {
			for _, a := range c.IntersectionOf {
				store.AddSubsumption(cid, st.InternConcept(a))
			}
			for _, r := range c.DefiningRestrictions {
				t.addExistRight(cid, r)
			}
			t.normalizeIntersection(cid, c.IntersectionOf, c.DefiningRestrictions)
		}
	}

	for _, group := range ont.DisjointGroups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				store.AddDisjoint(st.InternConcept(group[i]), st.InternConcept(group[j]))
			}
		}
	}

	for _, p := range ont.Properties() {
		t.addProperty(p)
	}

	if opts.Individuals {
		for _, ind := range ont.Individuals {
			id := st.InternConcept("{" + ind.IRI + "}")
			t.individuals[id] = struct{}{}
			for _, typ := range ind.Types {
				store.AddSubsumption(id, st.InternConcept(typ))
			}
		}
	}

	store.Grow(st.ConceptCount())
	store.GrowRoles(st.RoleCount())
}

func (t *TBox) addExistRight(cid ConceptID, r ontology.Restriction) {
	rid := t.Symbols.InternRole(r.Property)
	t.declareDomain(r.Property, rid)
	t.Axioms.AddExistRight(cid, rid, t.Symbols.InternConcept(r.Filler))
}

// addProperty encodes domain and range through the artificial concepts
// P#DOMAIN ≡ ∃P.⊤ and P#RANGE ⊑ range.
func (t *TBox) addProperty(p ontology.Property) {
	st, store := t.Symbols, t.Axioms
	rid := st.InternRole(p.IRI)
	t.declareDomain(p.IRI, rid)
	for _, d := range p.Domain {
		// NF4: ∃P.⊤ ⊑ D
		store.AddExistLeft(rid, Top, st.InternConcept(d))
	}
	if p.Kind == ontology.ObjectProperty {
		rng := st.InternConcept(p.IRI + RangeSuffix)
		for _, r := range p.Range {
			store.AddSubsumption(rng, st.InternConcept(r))
		}
	}
	for _, sup := range p.SubPropertyOf {
		t.AddSubProperty(p.IRI, sup, p.Kind == ontology.ObjectProperty)
	}
	if p.Transitive {
		store.SetTransitive(rid)
	}
}

// normalizeIntersection adds the reverse direction of C ≡ A₁ ⊓ ... ⊓ ∃R.B:
// conjunct₁ ⊓ conjunct₂ ⊓ ... ⊑ C.
func (t *TBox) normalizeIntersection(cid ConceptID, named []string, restrictions []ontology.Restriction) {
	st, store := t.Symbols, t.Axioms
	conjuncts := make([]ConceptID, 0, len(named)+len(restrictions))
	for _, a := range named {
		conjuncts = append(conjuncts, st.InternConcept(a))
	}
	for _, r := range restrictions {
		// Differentia: ∃R.F, introduce fresh concept X, add NF4: ∃R.F ⊑ X
		rid := st.InternRole(r.Property)
		fresh := st.FreshConcept()
		store.AddExistLeft(rid, st.InternConcept(r.Filler), fresh)
		conjuncts = append(conjuncts, fresh)
	}

	if len(conjuncts) == 0 {
		return
	}
	if len(conjuncts) == 1 {
		store.AddSubsumption(conjuncts[0], cid)
		return
	}

	// Binary decomposition: ((c0 ⊓ c1) ⊓ c2) ⊓ ... ⊑ C
	acc := conjuncts[0]
	for i := 1; i < len(conjuncts); i++ {
		var result ConceptID
		if i == len(conjuncts)-1 {
			result = cid // final step targets the original concept
		} else {
			result = st.FreshConcept()
		}
		store.AddConjunction(acc, conjuncts[i], result)
		acc = result
	}
}
