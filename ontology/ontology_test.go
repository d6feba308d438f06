package ontology

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ex = "http://example.org/conf#"

const owlDoc = `<?xml version="1.0"?>
<rdf:RDF xmlns="http://example.org/conf#"
     xml:base="http://example.org/conf"
     xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
     xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <owl:Ontology rdf:about="http://example.org/conf">
    <owl:versionIRI rdf:resource="http://example.org/conf/1.0"/>
  </owl:Ontology>
  <owl:Class rdf:about="#Document"/>
  <owl:Class rdf:about="#Paper">
    <rdfs:label>Paper</rdfs:label>
    <rdfs:subClassOf rdf:resource="#Document"/>
    <rdfs:subClassOf>
      <owl:Restriction>
        <owl:onProperty rdf:resource="#writtenBy"/>
        <owl:someValuesFrom rdf:resource="#Author"/>
      </owl:Restriction>
    </rdfs:subClassOf>
    <owl:disjointWith rdf:resource="#Person"/>
  </owl:Class>
  <owl:Class rdf:ID="Person">
    <owl:disjointWith>
      <owl:Class>
        <owl:unionOf rdf:parseType="Collection">
          <owl:Class rdf:about="#Event"/>
          <owl:Class rdf:about="#Place"/>
        </owl:unionOf>
      </owl:Class>
    </owl:disjointWith>
  </owl:Class>
  <owl:Class rdf:about="#Participant">
    <owl:equivalentClass>
      <owl:Class>
        <owl:unionOf rdf:parseType="Collection">
          <rdf:Description rdf:about="#Author"/>
          <rdf:Description rdf:about="#Reviewer"/>
        </owl:unionOf>
      </owl:Class>
    </owl:equivalentClass>
  </owl:Class>
  <owl:Class rdf:about="#AcceptedPaper">
    <owl:equivalentClass>
      <owl:Class>
        <owl:intersectionOf rdf:parseType="Collection">
          <owl:Class rdf:about="#Paper"/>
          <owl:Restriction>
            <owl:onProperty rdf:resource="#hasDecision"/>
            <owl:someValuesFrom rdf:resource="#Acceptance"/>
          </owl:Restriction>
        </owl:intersectionOf>
      </owl:Class>
    </owl:equivalentClass>
  </owl:Class>
  <owl:ObjectProperty rdf:about="#writtenBy">
    <rdfs:domain rdf:resource="#Paper"/>
    <rdfs:range rdf:resource="#Person"/>
  </owl:ObjectProperty>
  <owl:ObjectProperty rdf:about="#partOf">
    <rdf:type rdf:resource="http://www.w3.org/2002/07/owl#TransitiveProperty"/>
  </owl:ObjectProperty>
  <owl:DatatypeProperty rdf:about="#hasTitle">
    <rdfs:domain rdf:resource="#Document"/>
    <rdfs:range rdf:resource="http://www.w3.org/2001/XMLSchema#string"/>
  </owl:DatatypeProperty>
  <owl:AllDisjointClasses>
    <owl:members rdf:parseType="Collection">
      <owl:Class rdf:about="#Document"/>
      <owl:Class rdf:about="#Event"/>
      <owl:Class rdf:about="#Place"/>
    </owl:members>
  </owl:AllDisjointClasses>
  <owl:NamedIndividual rdf:about="#ISWC">
    <rdf:type rdf:resource="#Event"/>
  </owl:NamedIndividual>
  <Person rdf:about="#alice"/>
</rdf:RDF>`

func TestParseOWL(t *testing.T) {
	ont, err := ParseOWL(strings.NewReader(owlDoc))
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/conf", ont.IRI)
	assert.Equal(t, "http://example.org/conf/1.0", ont.VersionIRI)

	paper := ont.Class(ex + "Paper")
	require.NotNil(t, paper)
	assert.Equal(t, "Paper", paper.Label)
	assert.Equal(t, []string{ex + "Document"}, paper.SubClassOf)
	assert.Equal(t, []Restriction{{Property: ex + "writtenBy", Filler: ex + "Author"}}, paper.Restrictions)
	assert.Equal(t, []string{ex + "Person"}, paper.DisjointWith)

	person := ont.Class(ex + "Person")
	require.NotNil(t, person, "rdf:ID resolves against xml:base")
	assert.ElementsMatch(t, []string{ex + "Event", ex + "Place"}, person.DisjointWith)

	participant := ont.Class(ex + "Participant")
	require.NotNil(t, participant)
	assert.ElementsMatch(t, []string{ex + "Author", ex + "Reviewer"}, participant.UnionOf)

	accepted := ont.Class(ex + "AcceptedPaper")
	require.NotNil(t, accepted)
	assert.Equal(t, []string{ex + "Paper"}, accepted.IntersectionOf)
	assert.Equal(t, []Restriction{{Property: ex + "hasDecision", Filler: ex + "Acceptance"}}, accepted.DefiningRestrictions)

	for _, iri := range []string{"Author", "Reviewer", "Event", "Place", "Acceptance"} {
		assert.NotNil(t, ont.Class(ex+iri), "referenced class %s is declared", iri)
	}

	require.Len(t, ont.ObjectProperties, 2)
	assert.Equal(t, []string{ex + "Paper"}, ont.ObjectProperties[0].Domain)
	assert.Equal(t, []string{ex + "Person"}, ont.ObjectProperties[0].Range)
	assert.True(t, ont.ObjectProperties[1].Transitive)

	require.Len(t, ont.DataProperties, 1)
	assert.Empty(t, ont.DataProperties[0].Range, "datatype ranges are not classes")

	require.Len(t, ont.DisjointGroups, 1)
	assert.Len(t, ont.DisjointGroups[0], 3)

	require.Len(t, ont.Individuals, 2)
	assert.Equal(t, []string{ex + "Event"}, ont.Individuals[0].Types)
	assert.Equal(t, []string{ex + "Person"}, ont.Individuals[1].Types)

	assert.Equal(t, 2, ont.RemoveIndividuals())
	assert.Empty(t, ont.Individuals)
}

func TestParseOWL_Malformed(t *testing.T) {
	_, err := ParseOWL(strings.NewReader(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><a>`))
	assert.Error(t, err)
}

const oboDoc = `format-version: 1.2
data-version: 2024-01-01
ontology: go

[Term]
id: GO:0000001
name: process
disjoint_from: GO:0000003 ! location

[Term]
id: GO:0000002
name: metabolic process
is_a: GO:0000001 ! process
relationship: part_of GO:0000001 ! process

[Term]
id: GO:0000004
name: regulated process
intersection_of: GO:0000001
intersection_of: regulates GO:0000002

[Typedef]
id: part_of
name: part of
is_transitive: true

[Instance]
id: GO:inst1
instance_of: GO:0000002
`

func TestParseOBO(t *testing.T) {
	ont, err := ParseOBO(strings.NewReader(oboDoc))
	require.NoError(t, err)

	assert.Equal(t, nsOBO+"go.owl", ont.IRI)

	proc := ont.Class(nsOBO + "GO_0000001")
	require.NotNil(t, proc)
	assert.Equal(t, []string{nsOBO + "GO_0000003"}, proc.DisjointWith)
	assert.NotNil(t, ont.Class(nsOBO+"GO_0000003"))

	meta := ont.Class(nsOBO + "GO_0000002")
	require.NotNil(t, meta)
	assert.Equal(t, []string{nsOBO + "GO_0000001"}, meta.SubClassOf)
	assert.Equal(t, []Restriction{{Property: nsOBO + "part_of", Filler: nsOBO + "GO_0000001"}}, meta.Restrictions)

	reg := ont.Class(nsOBO + "GO_0000004")
	require.NotNil(t, reg)
	assert.Equal(t, []string{nsOBO + "GO_0000001"}, reg.IntersectionOf)
	assert.Len(t, reg.DefiningRestrictions, 1)

	require.Len(t, ont.ObjectProperties, 1)
	assert.True(t, ont.ObjectProperties[0].Transitive)
	require.Len(t, ont.Individuals, 1)
}

func TestWriteJSON(t *testing.T) {
	ont, err := ParseOWL(strings.NewReader(owlDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Summarize(ont), true))
	assert.Contains(t, buf.String(), `"object_properties": 2`)
	// Paper/Person, Person/Event, Person/Place, plus three pairs from the group.
	assert.Equal(t, 6, Summarize(ont).DisjointAxioms)
}
