package ontology

// Ontology is a parsed ontology reduced to what the coherence machinery
// needs: the class hierarchy, disjointness, properties with domain and range,
// and optional instance data.
type Ontology struct {
	IRI              string       `json:"iri,omitempty"`
	VersionIRI       string       `json:"version_iri,omitempty"`
	Classes          []Class      `json:"classes"`
	ObjectProperties []Property   `json:"object_properties,omitempty"`
	DataProperties   []Property   `json:"data_properties,omitempty"`
	Individuals      []Individual `json:"individuals,omitempty"`

	// DisjointGroups holds owl:AllDisjointClasses members; every pair in a
	// group is disjoint.
	DisjointGroups [][]string `json:"disjoint_groups,omitempty"`
}

// PropertyKind distinguishes object from data properties.
type PropertyKind uint8

const (
	ObjectProperty PropertyKind = iota + 1
	DataProperty
)

func (k PropertyKind) String() string {
	switch k {
	case ObjectProperty:
		return "object"
	case DataProperty:
		return "data"
	}
	return "unknown"
}

// Restriction is an existential restriction ∃Property.Filler.
type Restriction struct {
	Property string `json:"property"`
	Filler   string `json:"filler"`
}

// Class represents a named class and its told axioms.
type Class struct {
	IRI          string        `json:"iri"`
	Label        string        `json:"label,omitempty"`
	SubClassOf   []string      `json:"sub_class_of,omitempty"`
	EquivalentTo []string      `json:"equivalent_to,omitempty"`
	Restrictions []Restriction `json:"restrictions,omitempty"`

	// IntersectionOf lists the named conjuncts of an equivalentClass
	// intersection; restrictions inside the intersection go to Restrictions
	// and DefiningRestrictions.
	IntersectionOf       []string      `json:"intersection_of,omitempty"`
	DefiningRestrictions []Restriction `json:"defining_restrictions,omitempty"`

	// UnionOf lists the named disjuncts of an equivalentClass union.
	UnionOf []string `json:"union_of,omitempty"`

	// DisjointWith holds named classes; a disjointWith over a union of named
	// classes is expanded into its members at parse time.
	DisjointWith []string `json:"disjoint_with,omitempty"`

	Deprecated bool `json:"deprecated,omitempty"`
}

// Property represents an object or data property.
type Property struct {
	IRI           string       `json:"iri"`
	Label         string       `json:"label,omitempty"`
	Kind          PropertyKind `json:"kind"`
	Domain        []string     `json:"domain,omitempty"`
	Range         []string     `json:"range,omitempty"`
	SubPropertyOf []string     `json:"sub_property_of,omitempty"`
	Transitive    bool         `json:"transitive,omitempty"`
}

// Individual is a named individual with its asserted types.
type Individual struct {
	IRI   string   `json:"iri"`
	Types []string `json:"types,omitempty"`
}

// Class returns the class with the given IRI, or nil.
func (o *Ontology) Class(iri string) *Class {
	for i := range o.Classes {
		if o.Classes[i].IRI == iri {
			return &o.Classes[i]
		}
	}
	return nil
}

// Properties returns object and data properties together.
func (o *Ontology) Properties() []Property {
	out := make([]Property, 0, len(o.ObjectProperties)+len(o.DataProperties))
	out = append(out, o.ObjectProperties...)
	return append(out, o.DataProperties...)
}

// RemoveIndividuals drops all instance data and returns how many
// individuals were removed.
func (o *Ontology) RemoveIndividuals() int {
	n := len(o.Individuals)
	o.Individuals = nil
	return n
}

// mergeClass folds the axioms of b into a when a class is declared more
// than once in a document.
func mergeClass(a *Class, b Class) {
	if a.Label == "" {
		a.Label = b.Label
	}
	a.SubClassOf = append(a.SubClassOf, b.SubClassOf...)
	a.EquivalentTo = append(a.EquivalentTo, b.EquivalentTo...)
	a.Restrictions = append(a.Restrictions, b.Restrictions...)
	a.IntersectionOf = append(a.IntersectionOf, b.IntersectionOf...)
	a.DefiningRestrictions = append(a.DefiningRestrictions, b.DefiningRestrictions...)
	a.UnionOf = append(a.UnionOf, b.UnionOf...)
	a.DisjointWith = append(a.DisjointWith, b.DisjointWith...)
	a.Deprecated = a.Deprecated || b.Deprecated
}

// builder deduplicates classes and properties by IRI while parsing.
type builder struct {
	ont     *Ontology
	classes map[string]int
	props   map[string]int
	data    map[string]int
	inds    map[string]int
}

func newBuilder() *builder {
	return &builder{
		ont:     &Ontology{Classes: make([]Class, 0, initialClassCapacity)},
		classes: make(map[string]int, initialClassCapacity),
		props:   make(map[string]int, 32),
		data:    make(map[string]int, 32),
		inds:    make(map[string]int, 32),
	}
}

func (b *builder) addClass(c Class) {
	if c.IRI == "" || IsBuiltin(c.IRI) {
		return
	}
	if i, ok := b.classes[c.IRI]; ok {
		mergeClass(&b.ont.Classes[i], c)
		return
	}
	b.classes[c.IRI] = len(b.ont.Classes)
	b.ont.Classes = append(b.ont.Classes, c)
}

// ensureClass declares iri as a class if nothing declared it yet.
func (b *builder) ensureClass(iri string) {
	if iri == "" || IsBuiltin(iri) {
		return
	}
	if _, ok := b.classes[iri]; !ok {
		b.addClass(Class{IRI: iri})
	}
}

func (b *builder) addProperty(p Property) {
	if p.IRI == "" {
		return
	}
	index, list := b.props, &b.ont.ObjectProperties
	if p.Kind == DataProperty {
		index, list = b.data, &b.ont.DataProperties
	}
	if i, ok := index[p.IRI]; ok {
		q := &(*list)[i]
		q.Domain = append(q.Domain, p.Domain...)
		q.Range = append(q.Range, p.Range...)
		q.SubPropertyOf = append(q.SubPropertyOf, p.SubPropertyOf...)
		q.Transitive = q.Transitive || p.Transitive
		if q.Label == "" {
			q.Label = p.Label
		}
		return
	}
	index[p.IRI] = len(*list)
	*list = append(*list, p)
}

func (b *builder) addIndividual(ind Individual) {
	if ind.IRI == "" {
		return
	}
	if i, ok := b.inds[ind.IRI]; ok {
		b.ont.Individuals[i].Types = append(b.ont.Individuals[i].Types, ind.Types...)
		return
	}
	b.inds[ind.IRI] = len(b.ont.Individuals)
	b.ont.Individuals = append(b.ont.Individuals, ind)
}

// finish declares every class referenced by an axiom so that the reasoner
// and the hierarchy see the full signature.
func (b *builder) finish() *Ontology {
	n := len(b.ont.Classes)
	for i := 0; i < n; i++ {
		c := b.ont.Classes[i]
		for _, lists := range [][]string{c.SubClassOf, c.EquivalentTo, c.IntersectionOf, c.UnionOf, c.DisjointWith} {
			for _, iri := range lists {
				b.ensureClass(iri)
			}
		}
		for _, r := range append(c.Restrictions, c.DefiningRestrictions...) {
			b.ensureClass(r.Filler)
		}
	}
	for _, group := range b.ont.DisjointGroups {
		for _, iri := range group {
			b.ensureClass(iri)
		}
	}
	for _, p := range b.ont.Properties() {
		for _, iri := range p.Domain {
			b.ensureClass(iri)
		}
		if p.Kind == ObjectProperty {
			for _, iri := range p.Range {
				b.ensureClass(iri)
			}
		}
	}
	for _, ind := range b.ont.Individuals {
		for _, iri := range ind.Types {
			b.ensureClass(iri)
		}
	}
	return b.ont
}
