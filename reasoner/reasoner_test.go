package reasoner

import (
	"context"
	"testing"

	"github.com/nodeadmin/alcomo/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ns = "http://example.org/o#"

func conferenceOntology() *ontology.Ontology {
	return &ontology.Ontology{
		Classes: []ontology.Class{
			{IRI: ns + "Document"},
			{IRI: ns + "Paper", SubClassOf: []string{ns + "Document"}},
			{IRI: ns + "Article", EquivalentTo: []string{ns + "Paper"}},
			{IRI: ns + "Person", DisjointWith: []string{ns + "Document"}},
			{IRI: ns + "Author", SubClassOf: []string{ns + "Person"}},
			{IRI: ns + "Review", SubClassOf: []string{ns + "Document"},
				Restrictions: []ontology.Restriction{{Property: ns + "writtenBy", Filler: ns + "Reviewer"}}},
			{IRI: ns + "Reviewer", SubClassOf: []string{ns + "Person"}},
			// Broken: a person and a document at once.
			{IRI: ns + "Ghost", SubClassOf: []string{ns + "Author", ns + "Paper"}},
			// Broken through an existential: what it writes is a Ghost.
			{IRI: ns + "GhostWriter",
				Restrictions: []ontology.Restriction{{Property: ns + "writes", Filler: ns + "Ghost"}}},
		},
		ObjectProperties: []ontology.Property{
			{IRI: ns + "writtenBy", Kind: ontology.ObjectProperty, Domain: []string{ns + "Document"}, Range: []string{ns + "Person"}},
			{IRI: ns + "writes", Kind: ontology.ObjectProperty, Domain: []string{ns + "Person"}},
			{IRI: ns + "submits", Kind: ontology.ObjectProperty, SubPropertyOf: []string{ns + "writes"}},
		},
		Individuals: []ontology.Individual{
			{IRI: ns + "alice", Types: []string{ns + "Author"}},
		},
	}
}

func backends() []Classifier {
	return []Classifier{NewSaturationClassifier(), NewNaiveClassifier()}
}

func id(t *testing.T, tbox *TBox, local string) ConceptID {
	t.Helper()
	c, ok := tbox.Symbols.Concept(ns + local)
	require.True(t, ok, "concept %s", local)
	return c
}

func names(tbox *TBox, ids []ConceptID) []string {
	out := make([]string, 0, len(ids))
	for _, c := range ids {
		out = append(out, tbox.Symbols.ConceptName(c))
	}
	return out
}

func TestClassify_Backends(t *testing.T) {
	tbox := Normalize(conferenceOntology(), BuildOptions{})
	for _, c := range backends() {
		t.Run(c.Name(), func(t *testing.T) {
			cls, err := c.Classify(context.Background(), tbox, nil)
			require.NoError(t, err)

			assert.ElementsMatch(t, []string{ns + "Ghost", ns + "GhostWriter"}, names(tbox, cls.Unsatisfiable))
			assert.False(t, cls.Inconsistent)

			assert.True(t, cls.Subsumes(id(t, tbox, "Document"), id(t, tbox, "Article")))
			assert.True(t, cls.Subsumes(id(t, tbox, "Article"), id(t, tbox, "Paper")))
			assert.False(t, cls.Subsumes(id(t, tbox, "Person"), id(t, tbox, "Paper")))

			// Domain of writtenBy reaches Review through its restriction.
			dom, ok := tbox.Symbols.Concept(ns + "writtenBy" + DomainSuffix)
			require.True(t, ok)
			assert.True(t, cls.Subsumes(dom, id(t, tbox, "Review")))
			assert.True(t, cls.Subsumes(id(t, tbox, "Document"), dom))

			// Sub-property domain and range concepts sit below the super-property's.
			subDom, _ := tbox.Symbols.Concept(ns + "submits" + DomainSuffix)
			supDom, _ := tbox.Symbols.Concept(ns + "writes" + DomainSuffix)
			assert.True(t, cls.Subsumes(supDom, subDom))
			rng, _ := tbox.Symbols.Concept(ns + "writtenBy" + RangeSuffix)
			assert.True(t, cls.Subsumes(id(t, tbox, "Person"), rng))
		})
	}
}

func TestClassify_Focus(t *testing.T) {
	tbox := Normalize(conferenceOntology(), BuildOptions{})
	writer := id(t, tbox, "GhostWriter")
	cls, err := NewSaturationClassifier().Classify(context.Background(), tbox, []ConceptID{writer})
	require.NoError(t, err)

	assert.True(t, cls.IsUnsatisfiable(writer))
	assert.True(t, cls.Classified(id(t, tbox, "Ghost")), "link targets are pulled in")
	assert.False(t, cls.Classified(id(t, tbox, "Review")))
}

func TestClassify_Individuals(t *testing.T) {
	ont := conferenceOntology()
	ont.Individuals = append(ont.Individuals, ontology.Individual{IRI: ns + "casper", Types: []string{ns + "Ghost"}})

	cls, err := NewSaturationClassifier().Classify(context.Background(), Normalize(ont, BuildOptions{Individuals: true}), nil)
	require.NoError(t, err)
	assert.True(t, cls.Inconsistent)

	cls, err = NewSaturationClassifier().Classify(context.Background(), Normalize(ont, BuildOptions{}), nil)
	require.NoError(t, err)
	assert.False(t, cls.Inconsistent, "instance data is ignored unless kept")
}

func TestClassify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, c := range backends() {
		_, err := c.Classify(ctx, Normalize(conferenceOntology(), BuildOptions{}), nil)
		assert.ErrorIs(t, err, context.Canceled, c.Name())
	}
}

func TestTBox_CloneIsIndependent(t *testing.T) {
	base := Normalize(conferenceOntology(), BuildOptions{})
	merged := base.Clone()
	merged.AddSubClass(ns+"Reviewer", ns+"Review")

	cls, err := NewSaturationClassifier().Classify(context.Background(), merged, nil)
	require.NoError(t, err)
	assert.Contains(t, names(merged, cls.Unsatisfiable), ns+"Reviewer")

	cls, err = NewSaturationClassifier().Classify(context.Background(), base, nil)
	require.NoError(t, err)
	assert.NotContains(t, names(base, cls.Unsatisfiable), ns+"Reviewer")
}

func TestBuildTaxonomy_CollapsesEquivalents(t *testing.T) {
	tbox := Normalize(conferenceOntology(), BuildOptions{})
	cls, err := NewSaturationClassifier().Classify(context.Background(), tbox, nil)
	require.NoError(t, err)
	tax := BuildTaxonomy(cls, tbox)

	paper, article := id(t, tbox, "Paper"), id(t, tbox, "Article")
	rep := tax.Representative[paper]
	assert.Equal(t, rep, tax.Representative[article])
	assert.ElementsMatch(t, []ConceptID{paper, article}, tax.Members[rep])
	assert.Equal(t, []ConceptID{id(t, tbox, "Document")}, tax.DirectParents[rep])
	assert.Nil(t, tax.DirectParents[paper+article-rep], "non-representatives carry no edges")

	assert.Equal(t, []ConceptID{Top}, tax.DirectParents[id(t, tbox, "Document")])

	out := tax.ToJSON(cls, tbox, MakeStats(BackendSaturation, tbox, 0, 0, 0, 0))
	assert.Equal(t, 2, out.Stats.Unsatisfiable)
	assert.NotEmpty(t, out.Concepts)
}

func TestClassifyParallel_MatchesSingleRun(t *testing.T) {
	tbox := Normalize(conferenceOntology(), BuildOptions{Individuals: true})
	want, err := NewSaturationClassifier().Classify(context.Background(), tbox, nil)
	require.NoError(t, err)
	got, err := ClassifyParallel(context.Background(), NewSaturationClassifier(), tbox, 4)
	require.NoError(t, err)

	assert.Equal(t, want.Unsatisfiable, got.Unsatisfiable)
	assert.Equal(t, want.Inconsistent, got.Inconsistent)
	assert.Equal(t, want.Supers, got.Supers)
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier("naive")
	require.NoError(t, err)
	assert.Equal(t, BackendNaive, c.Name())

	_, err = NewClassifier("pellet")
	assert.Error(t, err)
}
