package conflict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/alcomo/hierarchy"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/ontology"
	"github.com/nodeadmin/alcomo/reasoner"
)

const (
	src = "http://example.org/source#"
	tgt = "http://example.org/target#"
)

func sourceOntology() *ontology.Ontology {
	return &ontology.Ontology{
		IRI: "http://example.org/source",
		Classes: []ontology.Class{
			{IRI: src + "Person"},
			{IRI: src + "Student", SubClassOf: []string{src + "Person"}},
			{IRI: src + "Document", DisjointWith: []string{src + "Person"}},
			{IRI: src + "Paper", SubClassOf: []string{src + "Document"}},
			{IRI: src + "Chimera", SubClassOf: []string{src + "Person", src + "Document"}},
		},
		ObjectProperties: []ontology.Property{
			{IRI: src + "reviews", Kind: ontology.ObjectProperty, Domain: []string{src + "Person"}, Range: []string{src + "Student"}},
		},
	}
}

func targetOntology() *ontology.Ontology {
	return &ontology.Ontology{
		IRI: "http://example.org/target",
		Classes: []ontology.Class{
			{IRI: tgt + "Human"},
			{IRI: tgt + "Author", SubClassOf: []string{tgt + "Human"}},
			{IRI: tgt + "Article", DisjointWith: []string{tgt + "Human"}},
		},
		ObjectProperties: []ontology.Property{
			{IRI: tgt + "rates", Kind: ontology.ObjectProperty, Domain: []string{tgt + "Human"}, Range: []string{tgt + "Article"}},
			{IRI: tgt + "writes", Kind: ontology.ObjectProperty, Domain: []string{tgt + "Article"}},
		},
	}
}

type fixture struct {
	source, target *hierarchy.Hierarchy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	opts := hierarchy.Options{Properties: true, RemoveIndividuals: true}
	s, err := hierarchy.Load(ctx, sourceOntology(), reasoner.NewSaturationClassifier(), opts)
	require.NoError(t, err)
	tg, err := hierarchy.Load(ctx, targetOntology(), reasoner.NewSaturationClassifier(), opts)
	require.NoError(t, err)
	return &fixture{source: s, target: tg}
}

func (f *fixture) detector(p Policy) *Detector {
	return NewDetector(f.source, f.target, p)
}

func corr(s, t string, r mapping.Relation, conf float64) mapping.Correspondence {
	return mapping.Correspondence{Source: src + s, Target: tgt + t, Relation: r, Confidence: conf}
}

// The correspondences used across the package tests:
//
//	personHuman    conflicts with studentArticle, paperAuthor and reviewsWrites
//	documentArticle conflicts with studentArticle and paperAuthor
//	reviewsRates   conflicts with personHuman only through the ranges
var (
	personHuman     = corr("Person", "Human", mapping.Equivalent, 0.9)
	studentArticle  = corr("Student", "Article", mapping.Equivalent, 0.8)
	paperAuthor     = corr("Paper", "Author", mapping.Equivalent, 0.3)
	documentArticle = corr("Document", "Article", mapping.Equivalent, 0.5)
	chimeraArticle  = corr("Chimera", "Article", mapping.Equivalent, 0.7)
	reviewsWrites   = corr("reviews", "writes", mapping.Equivalent, 0.6)
	reviewsRates    = corr("reviews", "rates", mapping.Equivalent, 0.6)
)
