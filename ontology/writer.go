package ontology

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/nodeadmin/alcomo/errors"
)

const writerBufferSize = 256 * 1024 // 256 KB

// WriteJSON writes v (a parsed ontology or a view derived from one) as JSON.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	bw := bufio.NewWriterSize(w, writerBufferSize)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "encoding json")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "writing json")
	}
	return nil
}

// WriteJSONFile writes v as JSON to the given file path.
func WriteJSONFile(path string, v any, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "creating output").WithDetail(path)
	}
	defer f.Close()
	return WriteJSON(f, v, pretty)
}

// Summary counts the parsed entities of an ontology.
type Summary struct {
	IRI              string `json:"iri,omitempty" yaml:"iri,omitempty"`
	Classes          int    `json:"classes" yaml:"classes"`
	ObjectProperties int    `json:"object_properties" yaml:"object_properties"`
	DataProperties   int    `json:"data_properties" yaml:"data_properties"`
	Individuals      int    `json:"individuals" yaml:"individuals"`
	DisjointAxioms   int    `json:"disjoint_axioms" yaml:"disjoint_axioms"`
}

// Summarize returns entity counts for o.
func Summarize(o *Ontology) Summary {
	s := Summary{
		IRI:              o.IRI,
		Classes:          len(o.Classes),
		ObjectProperties: len(o.ObjectProperties),
		DataProperties:   len(o.DataProperties),
		Individuals:      len(o.Individuals),
	}
	for _, c := range o.Classes {
		s.DisjointAxioms += len(c.DisjointWith)
	}
	for _, g := range o.DisjointGroups {
		s.DisjointAxioms += len(g) * (len(g) - 1) / 2
	}
	return s
}
