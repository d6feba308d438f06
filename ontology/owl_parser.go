package ontology

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

// OWL/RDF namespace URIs
const (
	nsOWL  = "http://www.w3.org/2002/07/owl#"
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	nsXML  = "http://www.w3.org/XML/1998/namespace"
	nsOBO  = "http://purl.obolibrary.org/obo/"
)

const initialClassCapacity = 1024

// Thing and Nothing are the IRIs of the top and bottom concepts.
const (
	Thing   = nsOWL + "Thing"
	Nothing = nsOWL + "Nothing"
)

// IsBuiltin reports whether iri is owl:Thing or owl:Nothing.
func IsBuiltin(iri string) bool {
	return iri == Thing || iri == Nothing
}

// owlParser carries the document base used to resolve rdf:ID and relative
// references.
type owlParser struct {
	decoder *xml.Decoder
	base    string
	b       *builder
}

// ParseOWL parses an OWL ontology in RDF/XML syntax from the given reader.
func ParseOWL(r io.Reader) (*Ontology, error) {
	p := &owlParser{decoder: xml.NewDecoder(r), b: newBuilder()}

	for {
		tok, err := p.decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeOntologyParse, "malformed RDF/XML")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case matchElement(se, nsRDF, "RDF"):
			// Container element: descend into it, don't skip
			if base := getAttr(se, nsXML, "base"); base != "" {
				p.base = base
			} else if base := getAttr(se, "xml", "base"); base != "" {
				p.base = base
			}
		case matchElement(se, nsOWL, "Ontology"):
			p.parseOntologyHeader(se)
		case matchElement(se, nsOWL, "Class"):
			p.b.addClass(p.parseClass(se))
		case matchElement(se, nsOWL, "ObjectProperty"), matchElement(se, nsOWL, "TransitiveProperty"):
			prop := p.parseProperty(se, ObjectProperty)
			if se.Name.Local == "TransitiveProperty" {
				prop.Transitive = true
			}
			p.b.addProperty(prop)
		case matchElement(se, nsOWL, "DatatypeProperty"):
			p.b.addProperty(p.parseProperty(se, DataProperty))
		case matchElement(se, nsOWL, "AllDisjointClasses"):
			if group := p.parseDisjointGroup(); len(group) > 1 {
				p.b.ont.DisjointGroups = append(p.b.ont.DisjointGroups, group)
			}
		case matchElement(se, nsOWL, "NamedIndividual"):
			p.b.addIndividual(p.parseIndividual(se, ""))
		case p.isTypedIndividual(se):
			p.b.addIndividual(p.parseIndividual(se, se.Name.Space+se.Name.Local))
		default:
			if err := p.decoder.Skip(); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeOntologyParse, "malformed RDF/XML")
			}
		}
	}

	return p.b.finish(), nil
}

// ParseOWLFile opens and parses path.
func ParseOWLFile(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "opening ontology").WithDetail(path)
	}
	defer f.Close()
	return ParseOWL(f)
}

func matchElement(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func getAttr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// resolve turns a possibly relative reference into an absolute IRI.
func (p *owlParser) resolve(ref string) string {
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "urn:") {
		return ref
	}
	base := strings.TrimSuffix(p.base, "#")
	if strings.HasPrefix(ref, "#") {
		return base + ref
	}
	return base + "#" + ref
}

// subject returns the IRI named by rdf:about or rdf:ID.
func (p *owlParser) subject(se xml.StartElement) string {
	if about := getAttr(se, nsRDF, "about"); about != "" {
		return p.resolve(about)
	}
	if id := getAttr(se, nsRDF, "ID"); id != "" {
		return p.resolve("#" + id)
	}
	return ""
}

func (p *owlParser) resource(se xml.StartElement) string {
	return p.resolve(getAttr(se, nsRDF, "resource"))
}

func (p *owlParser) parseOntologyHeader(se xml.StartElement) {
	if about := getAttr(se, nsRDF, "about"); about != "" {
		p.b.ont.IRI = about
		if p.base == "" {
			p.base = about
		}
	}

	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "versionIRI" {
				p.b.ont.VersionIRI = getAttr(t, nsRDF, "resource")
			}
			p.decoder.Skip()
		case xml.EndElement:
			return
		}
	}
}

func (p *owlParser) parseClass(se xml.StartElement) Class {
	c := Class{IRI: p.subject(se)}

	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return c
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(el, nsRDFS, "label"):
				c.Label = readCharData(p.decoder)
			case matchElement(el, nsRDFS, "subClassOf"):
				if res := p.resource(el); res != "" {
					c.SubClassOf = append(c.SubClassOf, res)
					p.decoder.Skip()
					continue
				}
				for _, ex := range p.parseExpressions() {
					if ex.Named != "" {
						c.SubClassOf = append(c.SubClassOf, ex.Named)
					}
					// C ⊑ A ⊓ ∃R.B splits into its conjuncts.
					c.SubClassOf = append(c.SubClassOf, ex.Intersection...)
					c.Restrictions = append(c.Restrictions, ex.Restrictions...)
				}
			case matchElement(el, nsOWL, "equivalentClass"):
				if res := p.resource(el); res != "" {
					c.EquivalentTo = append(c.EquivalentTo, res)
					p.decoder.Skip()
					continue
				}
				for _, ex := range p.parseExpressions() {
					switch {
					case ex.Named != "":
						c.EquivalentTo = append(c.EquivalentTo, ex.Named)
					case len(ex.Union) > 0:
						c.UnionOf = append(c.UnionOf, ex.Union...)
					default:
						c.IntersectionOf = append(c.IntersectionOf, ex.Intersection...)
						c.DefiningRestrictions = append(c.DefiningRestrictions, ex.Restrictions...)
					}
				}
			case matchElement(el, nsOWL, "disjointWith"):
				if res := p.resource(el); res != "" {
					c.DisjointWith = append(c.DisjointWith, res)
					p.decoder.Skip()
					continue
				}
				for _, ex := range p.parseExpressions() {
					if ex.Named != "" {
						c.DisjointWith = append(c.DisjointWith, ex.Named)
					}
					c.DisjointWith = append(c.DisjointWith, ex.Union...)
				}
			case el.Name.Local == "deprecated":
				c.Deprecated = strings.TrimSpace(readCharData(p.decoder)) == "true"
			default:
				p.decoder.Skip()
			}
		case xml.EndElement:
			// End of owl:Class
			return c
		}
	}
}

// classExpr is a flattened class expression: a named class, a union or an
// intersection of named classes, and existential restrictions.
type classExpr struct {
	Named        string
	Union        []string
	Intersection []string
	Restrictions []Restriction
}

// parseExpressions reads the child expressions of the current element up to
// its end tag.
func (p *owlParser) parseExpressions() []classExpr {
	var out []classExpr
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return out
		}
		switch el := tok.(type) {
		case xml.StartElement:
			out = append(out, p.parseExpression(el))
		case xml.EndElement:
			return out
		}
	}
}

// parseExpression consumes one expression element through its end tag.
func (p *owlParser) parseExpression(se xml.StartElement) classExpr {
	var ex classExpr
	if iri := p.subject(se); iri != "" {
		ex.Named = iri
		p.decoder.Skip()
		return ex
	}
	restriction := matchElement(se, nsOWL, "Restriction")
	var r Restriction

	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return ex
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case restriction && matchElement(el, nsOWL, "onProperty"):
				r.Property = p.resource(el)
				p.decoder.Skip()
			case restriction && matchElement(el, nsOWL, "someValuesFrom"):
				if res := p.resource(el); res != "" {
					r.Filler = res
					p.decoder.Skip()
				} else if inner := p.parseExpressions(); len(inner) == 1 && inner[0].Named != "" {
					r.Filler = inner[0].Named
				}
			case matchElement(el, nsOWL, "unionOf"):
				for _, m := range p.parseExpressions() {
					if m.Named != "" {
						ex.Union = append(ex.Union, m.Named)
					}
				}
			case matchElement(el, nsOWL, "intersectionOf"):
				for _, m := range p.parseExpressions() {
					if m.Named != "" {
						ex.Intersection = append(ex.Intersection, m.Named)
					}
					ex.Restrictions = append(ex.Restrictions, m.Restrictions...)
				}
			default:
				p.decoder.Skip()
			}
		case xml.EndElement:
			if restriction && r.Property != "" && r.Filler != "" {
				ex.Restrictions = append(ex.Restrictions, r)
			}
			return ex
		}
	}
}

func (p *owlParser) parseProperty(se xml.StartElement, kind PropertyKind) Property {
	prop := Property{IRI: p.subject(se), Kind: kind}

	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return prop
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(el, nsRDF, "type"):
				res := getAttr(el, nsRDF, "resource")
				if res == nsOWL+"TransitiveProperty" {
					prop.Transitive = true
				}
				p.decoder.Skip()
			case matchElement(el, nsRDFS, "label"):
				prop.Label = readCharData(p.decoder)
			case matchElement(el, nsRDFS, "domain"):
				prop.Domain = append(prop.Domain, p.namedOrUnion(el)...)
			case matchElement(el, nsRDFS, "range"):
				if kind == DataProperty {
					p.decoder.Skip()
					continue
				}
				prop.Range = append(prop.Range, p.namedOrUnion(el)...)
			case matchElement(el, nsRDFS, "subPropertyOf"):
				if res := p.resource(el); res != "" {
					prop.SubPropertyOf = append(prop.SubPropertyOf, res)
				}
				p.decoder.Skip()
			default:
				p.decoder.Skip()
			}
		case xml.EndElement:
			return prop
		}
	}
}

// namedOrUnion returns the resource of el, or the named members of a nested
// expression. Only a single named class is usable as a domain; a union is
// kept when it is the whole domain so the caller can decide.
func (p *owlParser) namedOrUnion(el xml.StartElement) []string {
	if res := p.resource(el); res != "" {
		p.decoder.Skip()
		return []string{res}
	}
	var out []string
	for _, ex := range p.parseExpressions() {
		if ex.Named != "" {
			out = append(out, ex.Named)
		}
		out = append(out, ex.Intersection...)
	}
	return out
}

func (p *owlParser) parseDisjointGroup() []string {
	var group []string
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return group
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if matchElement(el, nsOWL, "members") {
				for _, ex := range p.parseExpressions() {
					if ex.Named != "" {
						group = append(group, ex.Named)
					}
				}
				continue
			}
			p.decoder.Skip()
		case xml.EndElement:
			return group
		}
	}
}

// isTypedIndividual reports whether se is an abbreviated typed node such as
// <ex:Person rdf:about="...">, which declares an individual of class ex:Person.
func (p *owlParser) isTypedIndividual(se xml.StartElement) bool {
	switch se.Name.Space {
	case nsOWL, nsRDF, nsRDFS, "":
		return false
	}
	return p.subject(se) != ""
}

func (p *owlParser) parseIndividual(se xml.StartElement, typ string) Individual {
	ind := Individual{IRI: p.subject(se)}
	if typ != "" {
		ind.Types = append(ind.Types, typ)
	}
	for {
		tok, err := p.decoder.Token()
		if err != nil {
			return ind
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if matchElement(el, nsRDF, "type") {
				if res := p.resource(el); res != "" && res != nsOWL+"NamedIndividual" {
					ind.Types = append(ind.Types, res)
				}
			}
			p.decoder.Skip()
		case xml.EndElement:
			return ind
		}
	}
}

func readCharData(decoder *xml.Decoder) string {
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return sb.String()
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			// Nested element: recurse into it but still collect text
			inner := readCharData(decoder)
			if inner != "" {
				sb.WriteString(inner)
			}
		case xml.EndElement:
			return sb.String()
		}
	}
}
