package endpoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/frame"
	"github.com/matzehuels/gastrodon/pkg/httputil"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// fakeStore answers SPARQL protocol requests from an in-memory graph. Like
// stores with stable blank node labels, it accepts <label> for a blank node
// as the subject of a peel query.
type fakeStore struct {
	mu      sync.Mutex
	graph   *rdf.Graph
	queries []string
	graphs  [][]string
	// jsonGraphs answers CONSTRUCT queries with s/p/o bindings.
	jsonGraphs bool
}

var peelSubject = regexp.MustCompile(`\{\s*<([^>]*)>\s+\?p\s+\?o`)

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := r.PostForm.Get("update"); u != "" {
		up, err := sparql.ParseUpdate(u)
		if err == nil {
			err = sparql.Exec(s.graph, up)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	q := r.PostForm.Get("query")
	s.queries = append(s.queries, q)
	s.graphs = append(s.graphs, r.PostForm["default-graph-uri"])

	if m := peelSubject.FindStringSubmatch(q); m != nil && strings.Contains(q, "AS ?s") {
		var subj rdf.Term = rdf.IRI(m[1])
		if len(s.graph.Match(subj, nil, nil)) == 0 {
			subj = rdf.BlankNode(m[1])
		}
		res := &sparql.Results{Form: sparql.FormSelect, Vars: []string{"s", "p", "o"}}
		for _, t := range s.graph.Match(subj, nil, nil) {
			res.Rows = append(res.Rows, sparql.Solution{"s": rdf.IRI(m[1]), "p": t.P, "o": t.O})
		}
		w.Header().Set("Content-Type", sparql.MediaTypeJSON)
		_ = sparql.EncodeJSON(w, res)
		return
	}

	parsed, err := sparql.ParseQuery(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := sparql.Eval(s.graph, parsed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch {
	case res.Graph != nil && s.jsonGraphs:
		out := &sparql.Results{Form: sparql.FormSelect, Vars: []string{"s", "p", "o"}}
		for _, t := range res.Graph.Triples() {
			out.Rows = append(out.Rows, sparql.Solution{"s": t.S, "p": t.P, "o": t.O})
		}
		w.Header().Set("Content-Type", sparql.MediaTypeJSON)
		_ = sparql.EncodeJSON(w, out)
	case res.Graph != nil:
		w.Header().Set("Content-Type", "application/n-triples")
		_ = rdf.WriteNTriples(w, res.Graph)
	default:
		w.Header().Set("Content-Type", sparql.MediaTypeJSON+"; charset=utf-8")
		_ = sparql.EncodeJSON(w, res)
	}
}

func newTestRemote(t *testing.T, store http.Handler, opts RemoteOptions) *Remote {
	t.Helper()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)
	if opts.Prefixes == nil {
		opts.Prefixes = testPrefixes()
	}
	opts.HTTP.Retry = &httputil.Policy{Attempts: 1}
	r, err := NewRemote(srv.URL+"/sparql", opts)
	if err != nil {
		t.Fatalf("NewRemote() error = %v", err)
	}
	return r
}

func storeGraph(t *testing.T) *rdf.Graph {
	t.Helper()
	g, err := rdf.ParseTurtle(strings.NewReader(testData))
	if err != nil {
		t.Fatalf("ParseTurtle() error = %v", err)
	}
	return g
}

func TestRemoteSelect(t *testing.T) {
	store := &fakeStore{graph: storeGraph(t)}
	r := newTestRemote(t, store, RemoteOptions{HTTP: httputil.Options{DefaultGraphs: []string{"http://example.com/g"}}})

	b := Scope(map[string]any{"who": QName{Name: "ex:alice"}})
	f, err := r.Select(context.Background(), "SELECT ?name { ?_who foaf:name ?name }", b)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if name, _ := frame.One(f); name != "Alice" {
		t.Errorf("name = %#v, want Alice", name)
	}

	want := "prefix foaf: <" + foaf + ">\nSELECT ?name { <" + ex + "alice> foaf:name ?name }"
	if diff := cmp.Diff([]string{want}, store.queries); diff != "" {
		t.Errorf("sent query mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"http://example.com/g"}}, store.graphs); diff != "" {
		t.Errorf("default graphs mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteAsk(t *testing.T) {
	r := newTestRemote(t, &fakeStore{graph: storeGraph(t)}, RemoteOptions{})
	ok, err := r.Ask(context.Background(), "ASK { ex:alice foaf:knows ex:bob }", nil)
	if err != nil || !ok {
		t.Errorf("Ask() = %v, %v; want true", ok, err)
	}
	if _, err := r.Select(context.Background(), "ASK { ?s ?p ?o }", nil); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Select(ASK) error = %v, want INVALID_FORMAT", err)
	}
}

func TestRemoteConstruct(t *testing.T) {
	for _, jsonGraphs := range []bool{false, true} {
		store := &fakeStore{graph: storeGraph(t), jsonGraphs: jsonGraphs}
		r := newTestRemote(t, store, RemoteOptions{})
		g, err := r.Construct(context.Background(), "CONSTRUCT { ?s foaf:name ?n } WHERE { ?s foaf:name ?n }", nil)
		if err != nil {
			t.Fatalf("Construct(json=%v) error = %v", jsonGraphs, err)
		}
		if !g.Has(rdf.Triple{S: rdf.IRI(ex + "bob"), P: rdf.IRI(foaf + "name"), O: rdf.NewPlainLiteral("Bob")}) {
			t.Errorf("Construct(json=%v) is missing ex:bob foaf:name \"Bob\"", jsonGraphs)
		}
	}
}

func TestRemoteUpdate(t *testing.T) {
	store := &fakeStore{graph: storeGraph(t)}
	r := newTestRemote(t, store, RemoteOptions{})
	ctx := context.Background()
	if err := r.Update(ctx, "INSERT { ex:carol foaf:name ?_n } WHERE {}", Bindings{"_n": "Carol"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !store.graph.Has(rdf.Triple{S: rdf.IRI(ex + "carol"), P: rdf.IRI(foaf + "name"), O: rdf.NewPlainLiteral("Carol")}) {
		t.Error("update was not applied")
	}
}

func TestRemotePeel(t *testing.T) {
	store := &fakeStore{graph: storeGraph(t)}
	r := newTestRemote(t, store, RemoteOptions{})
	g, err := r.Peel(context.Background(), rdf.IRI(ex+"bob"))
	if err != nil {
		t.Fatalf("Peel() error = %v", err)
	}
	if g.Len() != 7 {
		t.Errorf("Peel() returned %d triples, want 7", g.Len())
	}
	// bob, his address and its geo node.
	if len(store.queries) != 3 {
		t.Errorf("Peel() sent %d queries, want 3", len(store.queries))
	}
	for _, q := range store.queries[1:] {
		if strings.Contains(q, "_:") {
			t.Errorf("blank node sent in blank node syntax: %s", q)
		}
	}
	if _, ok := g.Namespaces().Namespace("foaf"); !ok {
		t.Error("foaf not bound in peeled graph")
	}
}

func TestRemoteDecollect(t *testing.T) {
	r := newTestRemote(t, &fakeStore{graph: storeGraph(t)}, RemoteOptions{})
	c, err := r.Decollect(context.Background(), qnameTerm(t, r, "ex:list"))
	if err != nil {
		t.Fatalf("Decollect() error = %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b", "c"}, c.Items); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
}

// qnameTerm resolves a prefixed name through the endpoint's prefixes.
func qnameTerm(t *testing.T, r *Remote, name string) rdf.Term {
	t.Helper()
	iri, err := QName{Name: name}.Resolve(r.Prefixes())
	if err != nil {
		t.Fatal(err)
	}
	return iri
}

func TestRemoteHTTPError(t *testing.T) {
	store := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such graph", http.StatusBadRequest)
	})
	r := newTestRemote(t, store, RemoteOptions{})
	_, err := r.Select(context.Background(), "SELECT * { ?s ?p ?o }", nil)
	if !errors.Is(err, errors.ErrCodeEndpoint) {
		t.Fatalf("Select() error = %v, want ENDPOINT_ERROR", err)
	}
	lines := errors.Lines(err)
	if len(lines) != 6 || lines[2] != "HTTP Error doing Remote SPARQL query to endpoint at" || lines[3] != r.URL() {
		t.Errorf("Lines() = %q", lines)
	}
	if !strings.Contains(lines[5], "no such graph") {
		t.Errorf("last line %q does not carry the response body", lines[5])
	}
}

func TestRemoteUnauthorized(t *testing.T) {
	store := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", sparql.MediaTypeJSON)
		_, _ = w.Write([]byte(`{"head":{},"boolean":true}`))
	})
	r := newTestRemote(t, store, RemoteOptions{})
	if _, err := r.Ask(context.Background(), "ASK {}", nil); !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Ask() without credentials error = %v, want UNAUTHORIZED", err)
	}

	r = newTestRemote(t, store, RemoteOptions{HTTP: httputil.Options{Auth: "basic", User: "u", Password: "p"}})
	if ok, err := r.Ask(context.Background(), "ASK {}", nil); err != nil || !ok {
		t.Errorf("Ask() with credentials = %v, %v", ok, err)
	}
}

func TestRemoteBlankNodeSubstitution(t *testing.T) {
	r := newTestRemote(t, &fakeStore{graph: rdf.NewGraph()}, RemoteOptions{})
	got, err := r.substitute("SELECT * { ?_b ?p ?o }", Bindings{"_b": rdf.BlankNode("nodeID://b42")})
	if err != nil {
		t.Fatal(err)
	}
	if want := "SELECT * { <nodeID://b42> ?p ?o }"; got != want {
		t.Errorf("substitute() = %s, want %s", got, want)
	}
}

func TestNewRemoteValidation(t *testing.T) {
	if _, err := NewRemote("not a url", RemoteOptions{}); err == nil {
		t.Error("NewRemote() accepted an invalid URL")
	}
	if _, err := NewRemote("http://example.com/sparql", RemoteOptions{HTTP: httputil.Options{Auth: "digest", User: "u"}}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("NewRemote(digest) error = %v, want UNSUPPORTED", err)
	}
}

func TestRemoteRawSendsVendorSyntax(t *testing.T) {
	const query = `SELECT ?s { ?s rdfs:label ?l . ?l bif:contains "'gastrodon'" OPTION (score ?sc) }`
	var got []string
	store := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = append(got, r.PostForm.Get("query"))
		w.Header().Set("Content-Type", sparql.MediaTypeJSON)
		_ = sparql.EncodeJSON(w, &sparql.Results{Form: sparql.FormSelect, Vars: []string{"s"}})
	})

	parsed := newTestRemote(t, store, RemoteOptions{})
	if _, err := parsed.Select(context.Background(), query, nil); !errors.Is(err, errors.ErrCodeInvalidQuery) {
		t.Fatalf("Select() error = %v, want INVALID_QUERY", err)
	}
	if len(got) != 0 {
		t.Fatalf("unparseable query reached the store: %q", got)
	}

	raw := newTestRemote(t, store, RemoteOptions{Options: Options{Raw: true}})
	f, err := raw.Select(context.Background(), query, nil)
	if err != nil {
		t.Fatalf("raw Select() error = %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("Len() = %d, want 0", f.Len())
	}
	if diff := cmp.Diff([]string{query}, got); diff != "" {
		t.Errorf("sent query mismatch (-want +got):\n%s", diff)
	}
}
