package mapping

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

const nsRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

// ReadXML parses an Alignment API document. Every Cell element becomes one
// correspondence; a missing relation means equivalence.
func ReadXML(r io.Reader) (Mapping, error) {
	decoder := xml.NewDecoder(r)
	var m Mapping
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidMapping, "malformed alignment xml")
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Cell" {
			continue
		}
		c, err := parseCell(decoder)
		if err != nil {
			return nil, err
		}
		m = append(m, c)
	}
	return m, nil
}

func parseCell(decoder *xml.Decoder) (Correspondence, error) {
	c := Correspondence{Relation: Equivalent, Confidence: 1.0}
	var measure, relation string
	for {
		tok, err := decoder.Token()
		if err != nil {
			return c, errors.Wrap(err, errors.ErrCodeInvalidMapping, "malformed Cell")
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "entity1":
				c.Source = resourceAttr(el)
				if c.Source == "" {
					c.Source = strings.TrimSpace(readText(decoder))
				} else {
					decoder.Skip()
				}
			case "entity2":
				c.Target = resourceAttr(el)
				if c.Target == "" {
					c.Target = strings.TrimSpace(readText(decoder))
				} else {
					decoder.Skip()
				}
			case "relation":
				relation = strings.TrimSpace(readText(decoder))
			case "measure":
				measure = strings.TrimSpace(readText(decoder))
			default:
				decoder.Skip()
			}
		case xml.EndElement:
			if c.Source == "" || c.Target == "" {
				return c, errors.New(errors.ErrCodeInvalidMapping, "Cell without entity1/entity2")
			}
			if relation != "" {
				rel, err := parseXMLRelation(relation)
				if err != nil {
					return c, errors.Wrap(err, errors.ErrCodeInvalidMapping, "Cell relation").WithDetail(c.Source + " " + c.Target)
				}
				c.Relation = rel
			}
			if measure != "" {
				conf, err := parseConfidence(measure)
				if err != nil {
					return c, errors.Wrap(err, errors.ErrCodeInvalidMapping, "Cell measure").WithDetail(c.Source + " " + c.Target)
				}
				c.Confidence = conf
			}
			return c, nil
		}
	}
}

func parseXMLRelation(s string) (Relation, error) {
	s = strings.Trim(s, `"`)
	if strings.HasPrefix(s, "fr.inrialpes.exmo.align.impl.rel.") {
		s = s[strings.LastIndexByte(s, '.')+1:]
	}
	return ParseRelation(s)
}

func resourceAttr(se xml.StartElement) string {
	for _, a := range se.Attr {
		if a.Name.Local == "resource" && (a.Name.Space == nsRDF || a.Name.Space == "rdf" || a.Name.Space == "") {
			return a.Value
		}
	}
	return ""
}

func readText(decoder *xml.Decoder) string {
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
			sb.WriteString(readText(decoder))
		case xml.EndElement:
			return sb.String()
		}
	}
}

// Conflict is a pair of correspondence indices reported by the extended
// XML style.
type Conflict struct {
	I, J int
}

// XMLOptions controls WriteXML.
type XMLOptions struct {
	// Extended adds cid attributes and a conflicts block.
	Extended  bool
	Conflicts []Conflict
}

// WriteXML writes m as an Alignment API document.
func WriteXML(w io.Writer, m Mapping, opts XMLOptions) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format, args...)
	}
	p("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	p("<rdf:RDF xmlns=\"http://knowledgeweb.semanticweb.org/heterogeneity/alignment\"\n")
	p("\t xmlns:rdf=\"%s\"\n", nsRDF)
	p("\t xmlns:xsd=\"http://www.w3.org/2001/XMLSchema#\">\n\n")
	p("<Alignment>\n<xml>yes</xml>\n<level>0</level>\n<type>??</type>\n\n")
	for i, c := range m {
		p("<map>\n")
		if opts.Extended {
			p("\t<Cell cid=\"%d\">\n", i)
		} else {
			p("\t<Cell>\n")
		}
		p("\t\t<entity1 rdf:resource=\"%s\"/>\n", escape(c.Source))
		p("\t\t<entity2 rdf:resource=\"%s\"/>\n", escape(c.Target))
		p("\t\t<measure rdf:datatype=\"xsd:float\">%s</measure>\n", strconv.FormatFloat(c.Confidence, 'g', -1, 64))
		p("\t\t<relation>%s</relation>\n", escape(c.Relation.String()))
		p("\t</Cell>\n</map>\n")
	}
	if opts.Extended {
		p("\t<conflicts>\n")
		prev := -1
		for _, cf := range opts.Conflicts {
			if cf.I != prev {
				if prev >= 0 {
					p("\t\t</correspondence>\n")
				}
				p("\t\t<correspondence cid=\"%d\">\n", cf.I)
			}
			p("\t\t\t<conflictswith cid=\"%d\"/>\n", cf.J)
			prev = cf.I
		}
		if prev >= 0 {
			p("\t\t</correspondence>\n")
		}
		p("\t</conflicts>\n")
	}
	p("\n</Alignment>\n</rdf:RDF>\n")
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "writing alignment")
	}
	return nil
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
