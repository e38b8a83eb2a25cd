package endpoint

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/frame"
	"github.com/matzehuels/gastrodon/pkg/observability"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// Querier is implemented by [Remote] and [Local].
type Querier interface {
	Select(ctx context.Context, query string, b Bindings) (*frame.Frame, error)
	SelectRaw(ctx context.Context, query string, b Bindings) (*sparql.Results, error)
	Ask(ctx context.Context, query string, b Bindings) (bool, error)
	Construct(ctx context.Context, query string, b Bindings) (*rdf.Graph, error)
	Update(ctx context.Context, update string, b Bindings) error
	Peel(ctx context.Context, node rdf.Term) (*rdf.Graph, error)
	Decollect(ctx context.Context, node rdf.Term) (*Collection, error)
	Namespaces() *frame.Frame
	Value(t rdf.Term) any
	WriteTurtle(w io.Writer, g *rdf.Graph) error
}

// Options configures the shared part of an endpoint.
type Options struct {
	// Prefixes are injected into queries and used to shorten IRIs in
	// results. Without prefixes, queries run as written and IRIs stay
	// unshortened.
	Prefixes *rdf.Namespaces
	// BaseURI is declared on queries that have no BASE of their own and
	// shortens IRIs under it to relative references.
	BaseURI string
	// Raw sends query text to the service as written: no prefixes or base
	// are injected and the text is not parsed first, so vendor extensions
	// reach the server. Prefixes still shorten IRIs in results.
	Raw    bool
	Logger *log.Logger
}

// backend is what differs between remote and local targets. Texts handed
// to it are fully prepared.
type backend interface {
	selectRaw(ctx context.Context, text string) (*sparql.Results, error)
	ask(ctx context.Context, text string) (bool, error)
	construct(ctx context.Context, text string) (*rdf.Graph, error)
	update(ctx context.Context, text string) error
	peel(ctx context.Context, node rdf.Term, out *rdf.Graph) error
	// blankNode renders a blank node for substitution.
	blankNode(b rdf.BlankNode) rdf.Term
	target() string
}

// Endpoint holds the behaviour shared by [Remote] and [Local].
type Endpoint struct {
	prefixes   *rdf.Namespaces
	baseURI    string
	raw        bool
	namespaces map[string]bool
	logger     *log.Logger
	be         backend
}

func newEndpoint(opts Options, be backend) *Endpoint {
	e := &Endpoint{
		baseURI:    opts.BaseURI,
		raw:        opts.Raw,
		namespaces: make(map[string]bool),
		logger:     opts.Logger,
		be:         be,
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if opts.Prefixes != nil {
		e.prefixes = opts.Prefixes.Clone()
		for _, ns := range e.prefixes.Map() {
			e.namespaces[normalizeNamespace(ns)] = true
		}
	}
	return e
}

func normalizeNamespace(ns string) string {
	if strings.HasSuffix(ns, "#") || strings.HasSuffix(ns, "/") {
		return ns
	}
	return ns + "/"
}

// Prefixes returns the endpoint's prefix table, or nil when it has none.
func (e *Endpoint) Prefixes() *rdf.Namespaces { return e.prefixes }

// BaseURI returns the endpoint's base URI.
func (e *Endpoint) BaseURI() string { return e.baseURI }

// Select runs a SELECT query and returns the solutions as a frame. IRIs,
// literals and blank nodes are converted with [Endpoint.Value] and columns of
// numeric strings are normalized. When the query groups by plain variables
// that are all columns of the result, they become the frame's index.
func (e *Endpoint) Select(ctx context.Context, query string, b Bindings) (*frame.Frame, error) {
	res, err := e.SelectRaw(ctx, query, b)
	if err != nil {
		return nil, err
	}
	f := e.frame(res)

	if q, err := sparql.ParseQuery(query); err == nil {
		if keys := q.GroupByVars(); len(keys) > 0 && allColumns(f, keys) {
			if err := f.SetIndex(keys...); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func allColumns(f *frame.Frame, names []string) bool {
	for _, n := range names {
		if !f.HasColumn(n) {
			return false
		}
	}
	return true
}

func (e *Endpoint) frame(res *sparql.Results) *frame.Frame {
	f := frame.New(res.Vars)
	row := make([]any, len(res.Vars))
	for _, s := range res.Rows {
		for i, v := range res.Vars {
			row[i] = e.Value(s[v])
		}
		// Rows always have exactly one value per column.
		_ = f.AppendRow(row...)
	}
	f.Normalize()
	return f
}

// SelectRaw runs a SELECT query and returns the unconverted solutions.
func (e *Endpoint) SelectRaw(ctx context.Context, query string, b Bindings) (*sparql.Results, error) {
	text, err := e.prepare(ctx, query, kindQuery, b)
	if err != nil {
		return nil, err
	}
	var res *sparql.Results
	err = e.observe(ctx, sparql.FormSelect, func() (int, error) {
		var err error
		res, err = e.be.selectRaw(ctx, text)
		if err != nil {
			return 0, err
		}
		return len(res.Rows), nil
	})
	return res, err
}

// Ask runs an ASK query.
func (e *Endpoint) Ask(ctx context.Context, query string, b Bindings) (bool, error) {
	text, err := e.prepare(ctx, query, kindQuery, b)
	if err != nil {
		return false, err
	}
	var ok bool
	err = e.observe(ctx, sparql.FormAsk, func() (int, error) {
		var err error
		ok, err = e.be.ask(ctx, text)
		return 1, err
	})
	return ok, err
}

// Construct runs a CONSTRUCT or DESCRIBE query and returns the graph.
func (e *Endpoint) Construct(ctx context.Context, query string, b Bindings) (*rdf.Graph, error) {
	text, err := e.prepare(ctx, query, kindQuery, b)
	if err != nil {
		return nil, err
	}
	var g *rdf.Graph
	err = e.observe(ctx, sparql.FormConstruct, func() (int, error) {
		var err error
		g, err = e.be.construct(ctx, text)
		if err != nil {
			return 0, err
		}
		return g.Len(), nil
	})
	return g, err
}

// Update runs a SPARQL update.
func (e *Endpoint) Update(ctx context.Context, update string, b Bindings) error {
	text, err := e.prepare(ctx, update, kindUpdate, b)
	if err != nil {
		return err
	}
	return e.observe(ctx, "UPDATE", func() (int, error) {
		return 0, e.be.update(ctx, text)
	})
}

func (e *Endpoint) observe(ctx context.Context, form sparql.Form, fn func() (int, error)) error {
	target := e.be.target()
	observability.Query().OnQueryStart(ctx, string(form), target)
	start := time.Now()
	n, err := fn()
	elapsed := time.Since(start)
	observability.Query().OnQueryComplete(ctx, string(form), target, n, elapsed, err)
	if err != nil {
		e.logger.Debug("query failed", "form", form, "target", target, "err", err)
	} else {
		e.logger.Debug("query done", "form", form, "target", target, "size", n, "elapsed", elapsed)
	}
	return err
}

// Peel copies the description of node: every triple with node as subject,
// and recursively the description of every blank node reached as an object.
// The result binds the endpoint prefixes used by its http IRIs.
func (e *Endpoint) Peel(ctx context.Context, node rdf.Term) (*rdf.Graph, error) {
	out := rdf.NewGraph()
	err := e.observe(ctx, "PEEL", func() (int, error) {
		if err := e.be.peel(ctx, node, out); err != nil {
			return 0, err
		}
		return out.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	e.bindUsedPrefixes(out)
	return out, nil
}

// peelGraph walks the description of node breadth first. describe returns
// the triples whose subject is the given node.
func peelGraph(ctx context.Context, node rdf.Term, out *rdf.Graph, describe func(rdf.Term) ([]rdf.Triple, error)) error {
	seen := map[rdf.Term]bool{node: true}
	queue := []rdf.Term{node}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeTimeout, err, "peel interrupted")
		}
		that := queue[0]
		queue = queue[1:]
		triples, err := describe(that)
		if err != nil {
			return err
		}
		for _, t := range triples {
			out.Add(t)
			if bn, ok := t.O.(rdf.BlankNode); ok && !seen[bn] {
				seen[bn] = true
				queue = append(queue, bn)
			}
		}
	}
	return nil
}

func (e *Endpoint) bindUsedPrefixes(g *rdf.Graph) {
	if e.prefixes == nil {
		return
	}
	used := make(map[string]bool)
	for iri := range rdf.AllIRIs(g) {
		if strings.HasPrefix(string(iri), "http") {
			used[rdf.NamespacePart(string(iri))] = true
		}
	}
	for _, p := range e.prefixes.Prefixes() {
		if ns, _ := e.prefixes.Namespace(p); used[ns] {
			g.Namespaces().Bind(p, ns)
		}
	}
}

// Decollect returns the members of an RDF container. A bag yields each
// distinct member with its count; a sequence, an alternative or an untyped
// node yields the members ordered by their rdf:_N index.
func (e *Endpoint) Decollect(ctx context.Context, node rdf.Term) (*Collection, error) {
	bind := Bindings{"s": node}
	survey, err := e.SelectRaw(ctx, sparql.MustBankQuery(sparql.QueryDecollectSurvey, nil), bind)
	if err != nil {
		return nil, err
	}
	c := &Collection{}
	for _, t := range survey.Column("type") {
		if iri, ok := t.(rdf.IRI); ok && (c.Type == "" || iri == rdf.RDFBag) {
			c.Type = iri
		}
	}

	if c.IsBag() {
		res, err := e.SelectRaw(ctx, sparql.MustBankQuery(sparql.QueryDecollectBag, nil), bind)
		if err != nil {
			return nil, err
		}
		for _, s := range res.Rows {
			c.Items = append(c.Items, e.Value(s["item"]))
			c.Counts = append(c.Counts, count(s["count"]))
		}
		return c, nil
	}

	res, err := e.SelectRaw(ctx, sparql.MustBankQuery(sparql.QueryDecollectSeq, nil), bind)
	if err != nil {
		return nil, err
	}
	for _, t := range res.Column("item") {
		c.Items = append(c.Items, e.Value(t))
	}
	return c, nil
}

func count(t rdf.Term) int64 {
	if lit, ok := t.(rdf.Literal); ok {
		if n, ok := lit.Native().(int64); ok {
			return n
		}
	}
	return 0
}

// Namespaces returns the prefix table as a frame indexed by prefix, with a
// namespace column.
func (e *Endpoint) Namespaces() *frame.Frame {
	f := frame.New([]string{"prefix", "namespace"})
	if e.prefixes != nil {
		for _, p := range e.prefixes.Prefixes() {
			ns, _ := e.prefixes.Namespace(p)
			_ = f.AppendRow(p, ns)
		}
	}
	_ = f.SetIndex("prefix")
	return f
}

// WriteTurtle writes g as Turtle, shortening IRIs with the graph's own
// prefixes and then the endpoint's.
func (e *Endpoint) WriteTurtle(w io.Writer, g *rdf.Graph) error {
	ns := g.Namespaces().Clone()
	ns.Merge(e.prefixes)
	return rdf.WriteTurtle(w, g, ns)
}
