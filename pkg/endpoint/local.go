package endpoint

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// Local is an in-memory graph queried with [sparql.Eval]. It is safe for
// concurrent use: queries share a read lock and updates take the write lock.
type Local struct {
	*Endpoint
	mu    sync.RWMutex
	graph *rdf.Graph
}

var _ Querier = (*Local)(nil)

// NewLocal returns an endpoint over g. When opts has no prefixes, the graph's
// own namespaces are used.
func NewLocal(g *rdf.Graph, opts Options) *Local {
	if opts.Prefixes == nil {
		opts.Prefixes = g.Namespaces()
	}
	l := &Local{graph: g}
	l.Endpoint = newEndpoint(opts, l)
	return l
}

// Inline parses Turtle text into a new graph and returns an endpoint over it.
func Inline(turtle string) (*Local, error) {
	g, err := rdf.ParseTurtle(strings.NewReader(turtle))
	if err != nil {
		return nil, err
	}
	return NewLocal(g, Options{}), nil
}

// Load reads RDF files into one graph and returns an endpoint over it. The
// format of each file is taken from its extension. Prefixes declared by the
// files are added to opts.Prefixes without overriding them.
func Load(opts Options, paths ...string) (*Local, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no files to load")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	g := rdf.NewGraph()
	for _, p := range paths {
		part, err := rdf.ReadFile(p)
		if err != nil {
			return nil, err
		}
		g.AddAll(part.Triples())
		g.Namespaces().Merge(part.Namespaces())
		logger.Debug("loaded", "path", p, "triples", part.Len())
	}
	if opts.Prefixes != nil {
		ns := opts.Prefixes.Clone()
		ns.Merge(g.Namespaces())
		opts.Prefixes = ns
	}
	return NewLocal(g, opts), nil
}

// Graph returns the underlying graph. Callers must not modify it while
// queries are running.
func (l *Local) Graph() *rdf.Graph { return l.graph }

// Eval parses and evaluates a query of any form as written, without prefix
// injection or substitution.
func (l *Local) Eval(ctx context.Context, text string) (*sparql.Results, error) {
	q, err := sparql.ParseQuery(text)
	if err != nil {
		return nil, callerParseError(text, kindQuery, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "query cancelled")
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sparql.Eval(l.graph, q)
}

// Exec parses and applies an update as written.
func (l *Local) Exec(ctx context.Context, text string) error {
	u, err := sparql.ParseUpdate(text)
	if err != nil {
		return callerParseError(text, kindUpdate, err)
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "update cancelled")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return sparql.Exec(l.graph, u)
}

func (l *Local) target() string { return "local" }

func (l *Local) blankNode(b rdf.BlankNode) rdf.Term { return b }

// run evaluates prepared text. A parse failure at this point was introduced
// by substitution.
func (l *Local) run(ctx context.Context, text string, forms ...sparql.Form) (*sparql.Results, error) {
	q, err := sparql.ParseQuery(text)
	if err != nil {
		return nil, substitutedParseError(text, err)
	}
	ok := false
	for _, f := range forms {
		ok = ok || q.Form == f
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "expected a %s query, got %s", forms[0], q.Form)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "query cancelled")
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sparql.Eval(l.graph, q)
}

func (l *Local) selectRaw(ctx context.Context, text string) (*sparql.Results, error) {
	return l.run(ctx, text, sparql.FormSelect)
}

func (l *Local) ask(ctx context.Context, text string) (bool, error) {
	res, err := l.run(ctx, text, sparql.FormAsk)
	if err != nil {
		return false, err
	}
	return res.Boolean, nil
}

func (l *Local) construct(ctx context.Context, text string) (*rdf.Graph, error) {
	res, err := l.run(ctx, text, sparql.FormConstruct, sparql.FormDescribe)
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

func (l *Local) update(ctx context.Context, text string) error {
	u, err := sparql.ParseUpdate(text)
	if err != nil {
		return substitutedParseError(text, err)
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "update cancelled")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return sparql.Exec(l.graph, u)
}

// peel walks the graph directly.
func (l *Local) peel(ctx context.Context, node rdf.Term, out *rdf.Graph) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return peelGraph(ctx, node, out, func(that rdf.Term) ([]rdf.Triple, error) {
		return l.graph.Match(that, nil, nil), nil
	})
}
