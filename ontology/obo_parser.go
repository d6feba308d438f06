package ontology

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

const scannerBufferSize = 1 << 20 // 1 MB

// internPool avoids duplicate string allocations for repeated values.
type internPool struct {
	m map[string]string
}

func newInternPool() *internPool {
	return &internPool{m: make(map[string]string, 64)}
}

func (p *internPool) get(s string) string {
	if v, ok := p.m[s]; ok {
		return v
	}
	p.m[s] = s
	return s
}

// oboParser turns OBO identifiers into purl IRIs so OBO and OWL renditions
// of the same ontology share a signature.
type oboParser struct {
	scanner *bufio.Scanner
	pool    *internPool
	b       *builder
}

// ParseOBO parses an OBO 1.2/1.4 flat-file ontology from the given reader.
// [Term] stanzas become classes, [Typedef] stanzas object properties and
// [Instance] stanzas individuals.
func ParseOBO(r io.Reader) (*Ontology, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)
	p := &oboParser{scanner: scanner, pool: newInternPool(), b: newBuilder()}

	stanza := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '!' {
			continue
		}
		if line[0] == '[' {
			stanza = line
			switch stanza {
			case "[Term]":
				p.b.addClass(p.parseTerm())
			case "[Typedef]":
				p.b.addProperty(p.parseTypedef())
			case "[Instance]":
				p.b.addIndividual(p.parseInstance())
			}
			continue
		}
		if stanza == "" {
			p.parseHeaderLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOntologyParse, "reading OBO")
	}
	return p.b.finish(), nil
}

// ParseOBOFile opens and parses path.
func ParseOBOFile(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "opening ontology").WithDetail(path)
	}
	defer f.Close()
	return ParseOBO(f)
}

// ParseFile picks the parser from the file extension.
func ParseFile(path string) (*Ontology, error) {
	if strings.HasSuffix(strings.ToLower(path), ".obo") {
		return ParseOBOFile(path)
	}
	return ParseOWLFile(path)
}

func (p *oboParser) parseHeaderLine(line string) {
	key, val, ok := strings.Cut(line, ": ")
	if !ok {
		return
	}
	switch key {
	case "ontology":
		p.b.ont.IRI = nsOBO + strings.TrimSuffix(val, ".obo") + ".owl"
	case "data-version":
		p.b.ont.VersionIRI = val
	}
}

// oboIRI converts an OBO identifier (GO:0008150) to its purl IRI
// (http://purl.obolibrary.org/obo/GO_0008150). Unprefixed identifiers such
// as relation names stay in the obo namespace.
func oboIRI(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "://") {
		return id
	}
	return nsOBO + strings.Replace(id, ":", "_", 1)
}

// stanzaLines yields key/value pairs until the blank line closing a stanza.
func (p *oboParser) stanzaLines(fn func(key, val string)) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			return
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		fn(key, stripComment(val))
	}
}

// stripComment drops the trailing "! name" comment and any {qualifiers}.
func stripComment(val string) string {
	if i := strings.Index(val, " ! "); i >= 0 {
		val = val[:i]
	}
	if i := strings.IndexByte(val, '{'); i >= 0 && !strings.HasPrefix(val, "\"") {
		val = val[:i]
	}
	return strings.TrimSpace(val)
}

func (p *oboParser) parseTerm() Class {
	var c Class
	p.stanzaLines(func(key, val string) {
		switch key {
		case "id":
			c.IRI = oboIRI(val)
		case "name":
			c.Label = val
		case "is_a":
			c.SubClassOf = append(c.SubClassOf, oboIRI(val))
		case "equivalent_to":
			c.EquivalentTo = append(c.EquivalentTo, oboIRI(val))
		case "disjoint_from":
			c.DisjointWith = append(c.DisjointWith, oboIRI(val))
		case "union_of":
			c.UnionOf = append(c.UnionOf, oboIRI(val))
		case "relationship":
			if r, ok := p.parseRelationship(val); ok {
				c.Restrictions = append(c.Restrictions, r)
			}
		case "intersection_of":
			// Genus: a bare class; differentia: "rel CLASS".
			if rel, target, ok := strings.Cut(val, " "); ok {
				r := Restriction{Property: p.pool.get(oboIRI(rel)), Filler: oboIRI(target)}
				c.DefiningRestrictions = append(c.DefiningRestrictions, r)
			} else {
				c.IntersectionOf = append(c.IntersectionOf, oboIRI(val))
			}
		case "is_obsolete":
			c.Deprecated = val == "true"
		}
	})
	return c
}

// parseRelationship parses: "part_of GO:0005634"
func (p *oboParser) parseRelationship(val string) (Restriction, bool) {
	rel, target, ok := strings.Cut(val, " ")
	if !ok {
		return Restriction{}, false
	}
	return Restriction{Property: p.pool.get(oboIRI(rel)), Filler: oboIRI(target)}, true
}

func (p *oboParser) parseTypedef() Property {
	prop := Property{Kind: ObjectProperty}
	p.stanzaLines(func(key, val string) {
		switch key {
		case "id":
			prop.IRI = p.pool.get(oboIRI(val))
		case "name":
			prop.Label = val
		case "domain":
			prop.Domain = append(prop.Domain, oboIRI(val))
		case "range":
			prop.Range = append(prop.Range, oboIRI(val))
		case "is_a":
			prop.SubPropertyOf = append(prop.SubPropertyOf, p.pool.get(oboIRI(val)))
		case "is_transitive":
			prop.Transitive = val == "true"
		}
	})
	return prop
}

func (p *oboParser) parseInstance() Individual {
	var ind Individual
	p.stanzaLines(func(key, val string) {
		switch key {
		case "id":
			ind.IRI = oboIRI(val)
		case "instance_of":
			ind.Types = append(ind.Types, oboIRI(val))
		}
	})
	return ind
}
