package sparql

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

const ex = "http://example.com/"

const prologue = `PREFIX ex: <http://example.com/>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
`

func people() *rdf.Graph {
	g := rdf.NewGraph()
	add := func(s, p string, o rdf.Term) {
		g.Add(rdf.Triple{S: rdf.IRI(ex + s), P: rdf.IRI(ex + p), O: o})
	}
	for _, p := range []string{"alice", "bob", "carol"} {
		g.Add(rdf.Triple{S: rdf.IRI(ex + p), P: rdf.RDFType, O: rdf.IRI(ex + "Person")})
	}
	add("alice", "name", rdf.NewPlainLiteral("Alice"))
	add("bob", "name", rdf.NewPlainLiteral("Bob"))
	add("carol", "name", rdf.NewLangLiteral("Carol", "en"))
	add("alice", "age", rdf.NewTypedLiteral("30", rdf.XSDInteger))
	add("bob", "age", rdf.NewTypedLiteral("25", rdf.XSDInteger))
	add("carol", "age", rdf.NewTypedLiteral("35", rdf.XSDInteger))
	add("alice", "knows", rdf.IRI(ex+"bob"))
	add("bob", "knows", rdf.IRI(ex+"carol"))
	return g
}

func query(t *testing.T, g *rdf.Graph, text string) *Results {
	t.Helper()
	q, err := ParseQuery(prologue + text)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	res, err := Eval(g, q)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	return res
}

func integer(s string) rdf.Term { return rdf.NewTypedLiteral(s, rdf.XSDInteger) }

func TestEvalSelect(t *testing.T) {
	g := people()
	tests := []struct {
		name  string
		query string
		col   string
		want  []rdf.Term
	}{
		{
			name:  "order by name",
			query: "SELECT ?name { ?p ex:name ?name } ORDER BY ?name",
			col:   "name",
			want:  []rdf.Term{rdf.NewPlainLiteral("Alice"), rdf.NewPlainLiteral("Bob"), rdf.NewLangLiteral("Carol", "en")},
		},
		{
			name:  "numeric filter and descending order",
			query: "SELECT ?p { ?p ex:age ?age FILTER(?age > 26) } ORDER BY DESC(?age)",
			col:   "p",
			want:  []rdf.Term{rdf.IRI(ex + "carol"), rdf.IRI(ex + "alice")},
		},
		{
			name:  "optional leaves unbound",
			query: "SELECT ?k { ?p a ex:Person OPTIONAL { ?p ex:knows ?k } } ORDER BY ?p",
			col:   "k",
			want:  []rdf.Term{rdf.IRI(ex + "bob"), rdf.IRI(ex + "carol"), nil},
		},
		{
			name:  "union",
			query: `SELECT ?p { { ?p ex:name "Alice" } UNION { ?p ex:name "Bob" } }`,
			col:   "p",
			want:  []rdf.Term{rdf.IRI(ex + "alice"), rdf.IRI(ex + "bob")},
		},
		{
			name:  "minus",
			query: "SELECT ?p { ?p a ex:Person MINUS { ?p ex:knows ?k } }",
			col:   "p",
			want:  []rdf.Term{rdf.IRI(ex + "carol")},
		},
		{
			name:  "values",
			query: "SELECT ?age { VALUES ?p { ex:alice ex:carol } ?p ex:age ?age }",
			col:   "age",
			want:  []rdf.Term{integer("30"), integer("35")},
		},
		{
			name:  "one or more path",
			query: "SELECT ?x { ex:alice ex:knows+ ?x }",
			col:   "x",
			want:  []rdf.Term{rdf.IRI(ex + "bob"), rdf.IRI(ex + "carol")},
		},
		{
			name:  "zero or more inverse path",
			query: "SELECT ?x { ex:carol ^ex:knows* ?x }",
			col:   "x",
			want:  []rdf.Term{rdf.IRI(ex + "carol"), rdf.IRI(ex + "bob"), rdf.IRI(ex + "alice")},
		},
		{
			name:  "sequence path",
			query: "SELECT ?n { ex:alice ex:knows/ex:knows/ex:name ?n }",
			col:   "n",
			want:  []rdf.Term{rdf.NewLangLiteral("Carol", "en")},
		},
		{
			name:  "bind and builtins",
			query: "SELECT ?len { ?p ex:name ?n BIND(STRLEN(UCASE(?n)) AS ?len) FILTER(LANG(?n) = \"en\") }",
			col:   "len",
			want:  []rdf.Term{integer("5")},
		},
		{
			name:  "arithmetic projection",
			query: "SELECT (?age * 2 + 1 AS ?x) { ex:bob ex:age ?age }",
			col:   "x",
			want:  []rdf.Term{integer("51")},
		},
		{
			name:  "limit offset",
			query: "SELECT ?p { ?p a ex:Person } ORDER BY ?p LIMIT 1 OFFSET 1",
			col:   "p",
			want:  []rdf.Term{rdf.IRI(ex + "bob")},
		},
		{
			name:  "distinct",
			query: "SELECT DISTINCT ?t { ?p a ?t }",
			col:   "t",
			want:  []rdf.Term{rdf.IRI(ex + "Person")},
		},
		{
			name:  "not exists",
			query: "SELECT ?p { ?p a ex:Person FILTER NOT EXISTS { ?x ex:knows ?p } }",
			col:   "p",
			want:  []rdf.Term{rdf.IRI(ex + "alice")},
		},
		{
			name:  "regex and in",
			query: `SELECT ?n { ?p ex:name ?n FILTER(REGEX(?n, "^b", "i") || ?p IN (ex:carol)) }`,
			col:   "n",
			want:  []rdf.Term{rdf.NewPlainLiteral("Bob"), rdf.NewLangLiteral("Carol", "en")},
		},
		{
			name:  "subselect",
			query: "SELECT ?n { { SELECT ?p { ?p ex:age ?a } ORDER BY DESC(?a) LIMIT 1 } ?p ex:name ?n }",
			col:   "n",
			want:  []rdf.Term{rdf.NewLangLiteral("Carol", "en")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := query(t, g, tt.query)
			if diff := cmp.Diff(tt.want, res.Column(tt.col)); diff != "" {
				t.Errorf("column %s mismatch (-want +got):\n%s", tt.col, diff)
			}
		})
	}
}

func TestEvalAggregates(t *testing.T) {
	g := people()

	res := query(t, g, "SELECT (COUNT(?p) AS ?n) (AVG(?age) AS ?avg) (MAX(?age) AS ?max) (SUM(?age) AS ?sum) { ?p ex:age ?age }")
	want := Solution{
		"n":   integer("3"),
		"avg": rdf.NewTypedLiteral("30.0", rdf.XSDDecimal),
		"max": integer("35"),
		"sum": integer("90"),
	}
	if diff := cmp.Diff([]Solution{want}, res.Rows); diff != "" {
		t.Errorf("aggregates mismatch (-want +got):\n%s", diff)
	}

	res = query(t, g, "SELECT ?t (COUNT(*) AS ?n) { ?p a ?t } GROUP BY ?t")
	if diff := cmp.Diff([]Solution{{"t": rdf.IRI(ex + "Person"), "n": integer("3")}}, res.Rows); diff != "" {
		t.Errorf("group by mismatch (-want +got):\n%s", diff)
	}

	res = query(t, g, "SELECT ?p (COUNT(?k) AS ?n) { ?p a ex:Person OPTIONAL { ?p ex:knows ?k } } GROUP BY ?p HAVING (COUNT(?k) = 0)")
	if diff := cmp.Diff([]rdf.Term{rdf.IRI(ex + "carol")}, res.Column("p")); diff != "" {
		t.Errorf("having mismatch (-want +got):\n%s", diff)
	}

	res = query(t, g, `SELECT (GROUP_CONCAT(?n; SEPARATOR="|") AS ?all) { ?p ex:name ?n }`)
	if got := res.Rows[0]["all"]; got != rdf.NewPlainLiteral("Alice|Bob|Carol") {
		t.Errorf("GROUP_CONCAT = %v", got)
	}

	res = query(t, g, "SELECT (COUNT(*) AS ?n) { ?p ex:missing ?o }")
	if diff := cmp.Diff([]Solution{{"n": integer("0")}}, res.Rows); diff != "" {
		t.Errorf("empty count mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalSelectStarHidesBlankNodes(t *testing.T) {
	res := query(t, people(), "SELECT * { ?p ex:knows [ ex:age ?a ] }")
	if diff := cmp.Diff([]string{"p", "a"}, res.Vars); diff != "" {
		t.Errorf("Vars mismatch (-want +got):\n%s", diff)
	}
	if len(res.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(res.Rows))
	}
}

func TestEvalAskConstructDescribe(t *testing.T) {
	g := people()

	if res := query(t, g, "ASK { ex:alice ex:knows ex:bob }"); !res.Boolean {
		t.Error("ASK = false, want true")
	}
	if res := query(t, g, "ASK { ex:bob ex:knows ex:alice }"); res.Boolean {
		t.Error("ASK = true, want false")
	}

	res := query(t, g, "CONSTRUCT { ?b ex:knownBy ?a . ?a ex:tag _:t } WHERE { ?a ex:knows ?b }")
	if res.Graph.Len() != 4 {
		t.Errorf("CONSTRUCT produced %d triples, want 4", res.Graph.Len())
	}
	if !res.Graph.Has(rdf.Triple{S: rdf.IRI(ex + "bob"), P: rdf.IRI(ex + "knownBy"), O: rdf.IRI(ex + "alice")}) {
		t.Errorf("CONSTRUCT missing inverse triple: %v", res.Graph.Triples())
	}
	tags := res.Graph.Match(nil, rdf.IRI(ex+"tag"), nil)
	if len(tags) != 2 || tags[0].O == tags[1].O {
		t.Errorf("template blank nodes are not fresh per solution: %v", tags)
	}
	if ns, ok := res.Graph.Namespaces().Namespace("ex"); !ok || ns != ex {
		t.Error("CONSTRUCT graph does not carry the query prefixes")
	}

	res = query(t, g, "CONSTRUCT WHERE { ?p ex:age ?a }")
	if res.Graph.Len() != 3 {
		t.Errorf("CONSTRUCT WHERE produced %d triples, want 3", res.Graph.Len())
	}

	res = query(t, g, "DESCRIBE ex:alice")
	if res.Graph.Len() != 4 {
		t.Errorf("DESCRIBE produced %d triples, want 4", res.Graph.Len())
	}
}

func TestEvalErrors(t *testing.T) {
	q, err := ParseQuery("SELECT ?n { ?p foaf:name ?n }")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Eval(people(), q); !errors.Is(err, errors.ErrCodeInvalidQuery) {
		t.Errorf("Eval() error = %v, want INVALID_QUERY", err)
	}

	q, err = ParseQuery("SELECT * { SERVICE <http://remote/sparql> { ?s ?p ?o } }")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Eval(people(), q); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Eval() error = %v, want UNSUPPORTED", err)
	}
}

func TestEvalBaseResolution(t *testing.T) {
	q, err := ParseQuery("BASE <http://example.com/>\nASK { <alice> a <Person> }")
	if err != nil {
		t.Fatal(err)
	}
	res, err := Eval(people(), q)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Boolean {
		t.Error("relative IRIs were not resolved against BASE")
	}
}

func containerGraph(kind rdf.IRI, items ...string) *rdf.Graph {
	g := rdf.NewGraph()
	list := rdf.IRI(ex + "list")
	g.Add(rdf.Triple{S: list, P: rdf.RDFType, O: kind})
	// Insert out of order so that sorting by index is observable.
	for i := len(items) - 1; i >= 0; i-- {
		g.Add(rdf.Triple{S: list, P: rdf.Member(i), O: rdf.NewPlainLiteral(items[i])})
	}
	return g
}

func bankQueryFor(t *testing.T, name, subject string) string {
	t.Helper()
	q, err := BankQuery(name, nil)
	if err != nil {
		t.Fatalf("BankQuery(%s) error = %v", name, err)
	}
	return replaceVar(q, "s", subject)
}

// replaceVar substitutes a variable token the way endpoints do.
func replaceVar(q, name, value string) string {
	out := ""
	for i := 0; i < len(q); i++ {
		if q[i] == '?' && i+len(name) < len(q) && q[i+1:i+1+len(name)] == name && !isVarChar(rune(q[i+1+len(name)])) {
			out += value
			i += len(name)
			continue
		}
		out += string(q[i])
	}
	return out
}

func TestBankDecollectQueries(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	g := containerGraph(rdf.RDFSeq, items...)

	res := query(t, g, bankQueryFor(t, QueryDecollectSurvey, "ex:list"))
	if diff := cmp.Diff([]rdf.Term{rdf.RDFSeq}, res.Column("type")); diff != "" {
		t.Errorf("survey mismatch (-want +got):\n%s", diff)
	}

	res = query(t, g, bankQueryFor(t, QueryDecollectSeq, "ex:list"))
	var got []string
	for _, term := range res.Column("item") {
		got = append(got, term.Value())
	}
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("seq order mismatch (-want +got):\n%s", diff)
	}

	bag := containerGraph(rdf.RDFBag, "x", "y", "x")
	res = query(t, bag, bankQueryFor(t, QueryDecollectBag, "ex:list"))
	counts := map[string]string{}
	for _, row := range res.Rows {
		counts[row["item"].Value()] = row["count"].Value()
	}
	if diff := cmp.Diff(map[string]string{"x": "2", "y": "1"}, counts); diff != "" {
		t.Errorf("bag counts mismatch (-want +got):\n%s", diff)
	}
}

func TestBankQueryTemplate(t *testing.T) {
	q, err := BankQuery(QuerySample, struct{ Limit int }{5})
	if err != nil {
		t.Fatalf("BankQuery() error = %v", err)
	}
	parsed, err := ParseQuery(q)
	if err != nil {
		t.Fatalf("sample query does not parse: %v\n%s", err, q)
	}
	if parsed.Limit != 5 {
		t.Errorf("Limit = %d, want 5", parsed.Limit)
	}
	if _, err := BankQuery("no-such-query", nil); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("BankQuery(unknown) error = %v, want NOT_FOUND", err)
	}
}

func TestExec(t *testing.T) {
	g := people()
	exec := func(text string) {
		t.Helper()
		u, err := ParseUpdate(prologue + text)
		if err != nil {
			t.Fatalf("ParseUpdate() error = %v", err)
		}
		if err := Exec(g, u); err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
	}

	exec(`INSERT DATA { ex:dave a ex:Person ; ex:name "Dave" }`)
	if g.Len() != 13 {
		t.Fatalf("Len() after INSERT DATA = %d, want 13", g.Len())
	}

	exec(`DELETE { ?p ex:age ?a } INSERT { ?p ex:age ?b } WHERE { ?p ex:age ?a BIND(?a + 1 AS ?b) }`)
	if v, _ := g.Value(rdf.IRI(ex+"bob"), rdf.IRI(ex+"age")); v != integer("26") {
		t.Errorf("bob's age = %v, want 26", v)
	}

	exec(`DELETE WHERE { ex:dave ?p ?o }`)
	if got := g.Match(rdf.IRI(ex+"dave"), nil, nil); len(got) != 0 {
		t.Errorf("DELETE WHERE left %v", got)
	}

	exec(`DELETE DATA { ex:alice ex:knows ex:bob }`)
	if g.Has(rdf.Triple{S: rdf.IRI(ex + "alice"), P: rdf.IRI(ex + "knows"), O: rdf.IRI(ex + "bob")}) {
		t.Error("DELETE DATA did not remove the triple")
	}

	exec(`CLEAR DEFAULT`)
	if g.Len() != 0 {
		t.Errorf("Len() after CLEAR = %d, want 0", g.Len())
	}

	u, err := ParseUpdate(`INSERT DATA { GRAPH <http://example.com/g> { <http://e/a> <http://e/p> 1 } }`)
	if err != nil {
		t.Fatal(err)
	}
	if err := Exec(g, u); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Exec(named graph) error = %v, want UNSUPPORTED", err)
	}
}

func TestExecIsAtomic(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"failing quad after an applied one", `INSERT DATA { ex:dave ex:name "Dave" . GRAPH ex:g { ex:a ex:p 1 } }`},
		{"failing second operation", `INSERT DATA { ex:dave ex:name "Dave" } ; INSERT DATA { GRAPH ex:g { ex:a ex:p 1 } }`},
		{"failing drop after delete", `DELETE DATA { ex:alice ex:knows ex:bob } ; DROP GRAPH ex:missing`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := people()
			before := g.Triples()
			u, err := ParseUpdate(prologue + tt.text)
			if err != nil {
				t.Fatalf("ParseUpdate() error = %v", err)
			}
			if err := Exec(g, u); err == nil {
				t.Fatal("Exec() succeeded, want an error")
			}
			if diff := cmp.Diff(before, g.Triples()); diff != "" {
				t.Errorf("graph changed by a failed update (-before +after):\n%s", diff)
			}
		})
	}
}
