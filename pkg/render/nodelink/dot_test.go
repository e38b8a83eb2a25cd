package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/gastrodon/pkg/rdf"
)

const ex = "http://example.com/"

func testGraph() *rdf.Graph {
	g := rdf.NewGraph()
	g.Namespaces().Bind("ex", ex)
	addr := rdf.BlankNode("addr")
	g.Add(rdf.Triple{S: rdf.IRI(ex + "alice"), P: rdf.IRI(ex + "knows"), O: rdf.IRI(ex + "bob")})
	g.Add(rdf.Triple{S: rdf.IRI(ex + "alice"), P: rdf.IRI(ex + "name"), O: rdf.NewPlainLiteral("Alice")})
	g.Add(rdf.Triple{S: rdf.IRI(ex + "alice"), P: rdf.IRI(ex + "address"), O: addr})
	g.Add(rdf.Triple{S: addr, P: rdf.IRI(ex + "city"), O: rdf.NewLangLiteral("Paris", "fr")})
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=TB",
		`"<http://example.com/alice>" [label="ex:alice"]`,
		`"<http://example.com/alice>" -> "<http://example.com/bob>" [label="ex:knows"]`,
		`"<http://example.com/alice>" -> "lit1" [label="ex:name"]`,
		`"lit2" [label="\"Paris\"@fr"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s\n%s", want, dot)
		}
	}
}

func TestToDOT_InlineLiterals(t *testing.T) {
	dot := ToDOT(testGraph(), Options{InlineLiterals: true, LeftToRight: true})

	if strings.Contains(dot, "lit1") {
		t.Error("ToDOT() drew a literal node with InlineLiterals")
	}
	if !strings.Contains(dot, `label="ex:alice\nex:name: \"Alice\""`) {
		t.Errorf("ToDOT() missing inlined literal:\n%s", dot)
	}
	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("ToDOT() ignored LeftToRight")
	}
}

func TestToDOT_BlankNode(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	if !strings.Contains(dot, `"_:addr" [label="", style="rounded,filled,dashed", fillcolor=lightgrey`) {
		t.Errorf("ToDOT() blank node styling missing:\n%s", dot)
	}
}

func TestToDOT_Namespaces(t *testing.T) {
	ns := rdf.NewNamespaces()
	ns.Bind("e", ex)
	dot := ToDOT(testGraph(), Options{Namespaces: ns})
	if !strings.Contains(dot, `label="e:knows"`) {
		t.Errorf("ToDOT() ignored Options.Namespaces:\n%s", dot)
	}
}

func TestLiteralLabel(t *testing.T) {
	ns := rdf.DefaultNamespaces()
	tests := []struct {
		lit  rdf.Literal
		want string
	}{
		{rdf.NewPlainLiteral("x"), `"x"`},
		{rdf.NewLangLiteral("chat", "fr"), `"chat"@fr`},
		{rdf.NewTypedLiteral("42", rdf.IRI("http://www.w3.org/2001/XMLSchema#integer")), "42"},
		{rdf.NewTypedLiteral("2020-01-01", rdf.IRI("http://www.w3.org/2001/XMLSchema#date")), `"2020-01-01"^^xsd:date`},
	}
	for _, tt := range tests {
		if got := literalLabel(ns, tt.lit); got != tt.want {
			t.Errorf("literalLabel(%v) = %q, want %q", tt.lit, got, tt.want)
		}
	}
}

func TestFmtAttrs(t *testing.T) {
	if attrs := fmtAttrs(rdf.IRI(ex+"a"), "a"); len(attrs) != 1 {
		t.Errorf("fmtAttrs(IRI) = %v, want only a label", attrs)
	}
	if attrs := fmtAttrs(rdf.BlankNode("b"), ""); len(attrs) != 4 {
		t.Errorf("fmtAttrs(blank) = %v, want 4 attrs", attrs)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
