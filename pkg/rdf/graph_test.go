package rdf

import (
	"testing"
)

const ex = "http://example.com/"

func sampleGraph() *Graph {
	g := NewGraph()
	g.Add(Triple{IRI(ex + "a"), RDFType, IRI(ex + "Person")})
	g.Add(Triple{IRI(ex + "a"), IRI(ex + "name"), NewPlainLiteral("Alice")})
	g.Add(Triple{IRI(ex + "b"), RDFType, IRI(ex + "Person")})
	g.Add(Triple{IRI(ex + "a"), IRI(ex + "knows"), IRI(ex + "b")})
	return g
}

func TestGraphAdd(t *testing.T) {
	g := sampleGraph()
	if g.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", g.Len())
	}
	if g.Add(Triple{IRI(ex + "a"), RDFType, IRI(ex + "Person")}) {
		t.Error("Add() of a duplicate returned true")
	}
	if g.Add(Triple{IRI(ex + "a"), nil, IRI(ex + "x")}) {
		t.Error("Add() of an incomplete triple returned true")
	}
	if g.Len() != 4 {
		t.Errorf("Len() after duplicates = %d, want 4", g.Len())
	}
}

func TestGraphMatch(t *testing.T) {
	g := sampleGraph()

	tests := []struct {
		name    string
		s, p, o Term
		want    int
	}{
		{"all", nil, nil, nil, 4},
		{"by subject", IRI(ex + "a"), nil, nil, 3},
		{"by predicate", nil, RDFType, nil, 2},
		{"by object", nil, nil, IRI(ex + "Person"), 2},
		{"subject and predicate", IRI(ex + "a"), RDFType, nil, 1},
		{"fully bound", IRI(ex + "b"), RDFType, IRI(ex + "Person"), 1},
		{"no match", IRI(ex + "zzz"), nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Match(tt.s, tt.p, tt.o); len(got) != tt.want {
				t.Errorf("Match() returned %d triples, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGraphOrderAndRemove(t *testing.T) {
	g := sampleGraph()
	if !g.Remove(Triple{IRI(ex + "a"), IRI(ex + "name"), NewPlainLiteral("Alice")}) {
		t.Fatal("Remove() = false, want true")
	}
	if g.Remove(Triple{IRI(ex + "a"), IRI(ex + "name"), NewPlainLiteral("Alice")}) {
		t.Error("second Remove() = true, want false")
	}

	ts := g.Triples()
	if len(ts) != 3 {
		t.Fatalf("Triples() len = %d, want 3", len(ts))
	}
	if ts[2].P != IRI(ex+"knows") {
		t.Errorf("insertion order lost: last triple = %v", ts[2])
	}
	if got := g.Match(IRI(ex+"a"), nil, nil); len(got) != 2 {
		t.Errorf("index not rebuilt: Match(a) = %d triples, want 2", len(got))
	}
}

func TestGraphSubjectsAndValue(t *testing.T) {
	g := sampleGraph()
	subjects := g.Subjects()
	if len(subjects) != 2 || subjects[0] != IRI(ex+"a") {
		t.Errorf("Subjects() = %v", subjects)
	}
	v, ok := g.Value(IRI(ex+"a"), IRI(ex+"name"))
	if !ok || v != NewPlainLiteral("Alice") {
		t.Errorf("Value() = %v, %v", v, ok)
	}
}

func TestAllIRIs(t *testing.T) {
	g := sampleGraph()
	got := AllIRIs(g)
	for _, want := range []IRI{IRI(ex + "a"), IRI(ex + "b"), RDFType, IRI(ex + "Person"), IRI(ex + "name"), IRI(ex + "knows")} {
		if !got[want] {
			t.Errorf("AllIRIs() missing %s", want)
		}
	}
	if len(got) != 6 {
		t.Errorf("AllIRIs() has %d entries, want 6", len(got))
	}
}

func TestNamespaces(t *testing.T) {
	ns := DefaultNamespaces()
	ns.Bind("ex", ex)
	ns.Bind("exa", ex+"a/")

	if iri, ok := ns.Expand("ex:thing"); !ok || iri != IRI(ex+"thing") {
		t.Errorf("Expand() = %s, %v", iri, ok)
	}
	if _, ok := ns.Expand("nope:thing"); ok {
		t.Error("Expand() of unbound prefix succeeded")
	}
	if _, ok := ns.Expand("nocolon"); ok {
		t.Error("Expand() without colon succeeded")
	}

	prefix, local, ok := ns.Compact(IRI(ex + "a/b"))
	if !ok || prefix != "exa" || local != "b" {
		t.Errorf("Compact() = %s, %s, %v; want longest namespace exa", prefix, local, ok)
	}

	if got := ns.Prefixes(); got[0] != "ex" || len(got) != 7 {
		t.Errorf("Prefixes() = %v", got)
	}
}

func TestNamespaceAndLocalPart(t *testing.T) {
	tests := []struct {
		iri, ns, local string
	}{
		{"http://purl.org/ontology/bibo/AcademicArticle", "http://purl.org/ontology/bibo/", "AcademicArticle"},
		{"http://www.w3.org/2000/01/rdf-schema#label", "http://www.w3.org/2000/01/rdf-schema#", "label"},
		{"urn:isbn:123", "", "urn:isbn:123"},
	}
	for _, tt := range tests {
		if got := NamespacePart(tt.iri); got != tt.ns {
			t.Errorf("NamespacePart(%s) = %s, want %s", tt.iri, got, tt.ns)
		}
		if got := LocalPart(tt.iri); got != tt.local {
			t.Errorf("LocalPart(%s) = %s, want %s", tt.iri, got, tt.local)
		}
	}
}
