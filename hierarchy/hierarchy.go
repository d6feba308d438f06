// Package hierarchy binds a classified ontology to the structures the
// conflict detector queries: a DAG of concept nodes with stated
// disjointness, the entities a mapping may refer to, and the interval index.
package hierarchy

import (
	"context"
	"sort"
	"time"

	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/interval"
	"github.com/nodeadmin/alcomo/logging"
	"github.com/nodeadmin/alcomo/metrics"
	"github.com/nodeadmin/alcomo/ontology"
	"github.com/nodeadmin/alcomo/reasoner"
)

// EntityKind tells concepts from properties.
type EntityKind uint8

const (
	Concept EntityKind = iota + 1
	ObjectProperty
	DataProperty
)

func (k EntityKind) String() string {
	switch k {
	case Concept:
		return "concept"
	case ObjectProperty:
		return "object-property"
	case DataProperty:
		return "data-property"
	}
	return "unknown"
}

// NoNode marks a missing node, e.g. the range of a data property.
const NoNode = -1

// Entity is something a correspondence can refer to. Concepts point at
// their own node; properties are reduced to the nodes of their domain and
// range concepts.
type Entity struct {
	URI    string
	Kind   EntityKind
	Node   int
	Domain int
	Range  int
}

// IsProperty reports whether e is an object or data property.
func (e *Entity) IsProperty() bool {
	return e.Kind == ObjectProperty || e.Kind == DataProperty
}

// Node is one equivalence class of concepts in the DAG.
type Node struct {
	Concepts      []reasoner.ConceptID
	Parents       []int
	Children      []int
	Unsatisfiable bool
}

// Options controls Load.
type Options struct {
	// Properties binds object and data properties as entities; without it
	// only concepts can be referred to.
	Properties bool
	// RemoveIndividuals strips instance data before classification.
	RemoveIndividuals bool
	// Workers > 1 classifies concurrently.
	Workers int
	Logger  logging.Logger
}

// Hierarchy is a classified ontology. It is read-only after Load.
type Hierarchy struct {
	ont        *ontology.Ontology
	tbox       *reasoner.TBox
	classifier reasoner.Classifier

	nodes  []Node
	nodeOf []int // concept id → node, NoNode for helpers and individuals

	entities map[string]*Entity
	disjoint [][2]int
	unions   []interval.Union
	index    *interval.Index

	unsatisfiable []reasoner.ConceptID
	inconsistent  bool
}

// Load normalizes ont, classifies it once, builds the concept DAG from the
// taxonomy and indexes it. ont is modified when RemoveIndividuals is set.
func Load(ctx context.Context, ont *ontology.Ontology, classifier reasoner.Classifier, opts Options) (*Hierarchy, error) {
	log := logging.OrNop(opts.Logger).With(logging.String("ontology", ont.IRI))
	start := time.Now()

	if opts.RemoveIndividuals {
		if n := ont.RemoveIndividuals(); n > 0 {
			log.Info("removed individuals", logging.Int("count", n))
		}
	}

	tbox := reasoner.Normalize(ont, reasoner.BuildOptions{Individuals: !opts.RemoveIndividuals})

	var (
		cls *reasoner.Classification
		err error
	)
	classifyStart := time.Now()
	if opts.Workers > 1 {
		cls, err = reasoner.ClassifyParallel(ctx, classifier, tbox, opts.Workers)
	} else {
		cls, err = classifier.Classify(ctx, tbox, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReasoning, "classifying ontology").WithDetail(ont.IRI)
	}
	metrics.RecordReasonerCall(classifier.Name(), "classify", time.Since(classifyStart))

	h := &Hierarchy{
		ont:           ont,
		tbox:          tbox,
		classifier:    classifier,
		entities:      make(map[string]*Entity, len(ont.Classes)),
		unsatisfiable: cls.Unsatisfiable,
		inconsistent:  cls.Inconsistent,
	}
	h.buildNodes(cls, reasoner.BuildTaxonomy(cls, tbox))
	h.collectAxioms()
	h.bindEntities(opts.Properties)
	h.index = interval.Build(h)

	if h.inconsistent {
		log.Warn("ontology is inconsistent")
	}
	log.Info("ontology loaded",
		logging.Int("classes", len(ont.Classes)),
		logging.Int("nodes", len(h.nodes)),
		logging.Int("unsatisfiable", len(h.unsatisfiable)),
		logging.Duration("elapsed", time.Since(start)))
	return h, nil
}

func (h *Hierarchy) buildNodes(cls *reasoner.Classification, tax *reasoner.Taxonomy) {
	n := h.tbox.Symbols.ConceptCount()
	h.nodeOf = make([]int, n)
	for i := range h.nodeOf {
		h.nodeOf[i] = NoNode
	}

	// Top is node 0 and the traversal root.
	reps := []reasoner.ConceptID{reasoner.Top}
	for c := reasoner.ConceptID(2); c < reasoner.ConceptID(n); c++ {
		if h.tbox.IsNamed(c) && tax.IsRepresentative(c) {
			reps = append(reps, c)
		}
	}
	h.nodes = make([]Node, len(reps))
	for i, rep := range reps {
		h.nodes[i].Concepts = tax.Members[rep]
		if len(h.nodes[i].Concepts) == 0 {
			h.nodes[i].Concepts = []reasoner.ConceptID{rep}
		}
		h.nodes[i].Unsatisfiable = rep != reasoner.Top && cls.IsUnsatisfiable(rep)
		for _, c := range h.nodes[i].Concepts {
			h.nodeOf[c] = i
		}
	}
	for i, rep := range reps {
		if i > 0 && h.nodes[i].Unsatisfiable {
			// Unsatisfiable concepts hang off Top so they never count as a
			// common subclass of their stated supers.
			h.nodes[i].Parents = []int{0}
			h.nodes[0].Children = append(h.nodes[0].Children, i)
			continue
		}
		for _, p := range tax.DirectParents[rep] {
			pn := h.nodeOf[p]
			h.nodes[i].Parents = append(h.nodes[i].Parents, pn)
			h.nodes[pn].Children = append(h.nodes[pn].Children, i)
		}
	}
}

// collectAxioms gathers stated disjointness and unions over nodes.
func (h *Hierarchy) collectAxioms() {
	seen := make(map[[2]int]struct{})
	addPair := func(a, b string) {
		na, nb := h.nodeByName(a), h.nodeByName(b)
		if na == NoNode || nb == NoNode {
			return
		}
		if na > nb {
			na, nb = nb, na
		}
		key := [2]int{na, nb}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		h.disjoint = append(h.disjoint, key)
	}

	for i := range h.ont.Classes {
		c := &h.ont.Classes[i]
		if c.Deprecated {
			continue
		}
		for _, d := range c.DisjointWith {
			addPair(c.IRI, d)
		}
		if len(c.UnionOf) > 0 {
			u := interval.Union{Node: h.nodeByName(c.IRI)}
			for _, m := range c.UnionOf {
				if n := h.nodeByName(m); n != NoNode {
					u.Members = append(u.Members, n)
				}
			}
			if u.Node != NoNode && len(u.Members) == len(c.UnionOf) {
				h.unions = append(h.unions, u)
			}
		}
	}
	for _, group := range h.ont.DisjointGroups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				addPair(group[i], group[j])
			}
		}
	}
}

func (h *Hierarchy) bindEntities(properties bool) {
	for i := range h.ont.Classes {
		iri := h.ont.Classes[i].IRI
		if n := h.nodeByName(iri); n != NoNode {
			h.entities[iri] = &Entity{URI: iri, Kind: Concept, Node: n, Domain: n, Range: n}
		}
	}
	if !properties {
		return
	}
	for _, p := range h.ont.Properties() {
		e := &Entity{URI: p.IRI, Kind: ObjectProperty, Node: NoNode, Range: NoNode}
		if p.Kind == ontology.DataProperty {
			e.Kind = DataProperty
		}
		e.Domain = h.nodeByName(p.IRI + reasoner.DomainSuffix)
		if e.Kind == ObjectProperty {
			e.Range = h.nodeByName(p.IRI + reasoner.RangeSuffix)
		}
		if e.Domain != NoNode {
			h.entities[p.IRI] = e
		}
	}
}

func (h *Hierarchy) nodeByName(name string) int {
	c, ok := h.tbox.Symbols.Concept(name)
	if !ok {
		return NoNode
	}
	if c == reasoner.Top {
		return 0
	}
	return h.nodeOf[c]
}

// Len implements interval.Graph.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// Root implements interval.Graph.
func (h *Hierarchy) Root() int { return 0 }

// Children implements interval.Graph.
func (h *Hierarchy) Children(node int) []int { return h.nodes[node].Children }

// DisjointPairs implements interval.Graph.
func (h *Hierarchy) DisjointPairs() [][2]int { return h.disjoint }

// Unions implements interval.Graph.
func (h *Hierarchy) Unions() []interval.Union { return h.unions }

// Node returns node i.
func (h *Hierarchy) Node(i int) *Node { return &h.nodes[i] }

// Index returns the interval index.
func (h *Hierarchy) Index() *interval.Index { return h.index }

// Ontology returns the parsed ontology.
func (h *Hierarchy) Ontology() *ontology.Ontology { return h.ont }

// TBox returns the normalized axioms; callers must Clone before extending.
func (h *Hierarchy) TBox() *reasoner.TBox { return h.tbox }

// Classifier returns the backend the hierarchy was classified with.
func (h *Hierarchy) Classifier() reasoner.Classifier { return h.classifier }

// Entity returns the bound entity for uri.
func (h *Hierarchy) Entity(uri string) (*Entity, error) {
	e, ok := h.entities[uri]
	if !ok {
		return nil, errors.New(errors.ErrCodeBinding, "entity not found").WithDetail(uri)
	}
	return e, nil
}

// HasEntity implements mapping.Lookup.
func (h *Hierarchy) HasEntity(uri string) bool {
	_, ok := h.entities[uri]
	return ok
}

// Unsatisfiable reports whether node i is unsatisfiable on its own.
func (h *Hierarchy) Unsatisfiable(i int) bool {
	return i >= 0 && h.nodes[i].Unsatisfiable
}

// UnsatisfiableNames returns the unsatisfiable named concepts, sorted.
func (h *Hierarchy) UnsatisfiableNames() []string {
	out := make([]string, 0, len(h.unsatisfiable))
	for _, c := range h.unsatisfiable {
		out = append(out, h.tbox.Symbols.ConceptName(c))
	}
	sort.Strings(out)
	return out
}

// Inconsistent reports whether the ontology itself is inconsistent.
func (h *Hierarchy) Inconsistent() bool { return h.inconsistent }
