package endpoint

import (
	"bytes"
	"context"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/httputil"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

const (
	acceptResults = sparql.MediaTypeJSON
	acceptGraph   = "application/n-triples, text/turtle;q=0.9, application/ld+json;q=0.8, " + sparql.MediaTypeJSON + ";q=0.5"
)

// RemoteOptions configures a [Remote].
type RemoteOptions struct {
	Options
	HTTP httputil.Options
}

// Remote is a triple store reached over the SPARQL 1.1 Protocol.
type Remote struct {
	*Endpoint
	client *httputil.Client
}

var _ Querier = (*Remote)(nil)

// NewRemote returns an endpoint for the SPARQL service at url.
func NewRemote(url string, opts RemoteOptions) (*Remote, error) {
	if opts.HTTP.Logger == nil {
		opts.HTTP.Logger = opts.Logger
	}
	client, err := httputil.NewClient(url, opts.HTTP)
	if err != nil {
		return nil, err
	}
	r := &Remote{client: client}
	r.Endpoint = newEndpoint(opts.Options, r)
	return r, nil
}

// URL returns the query URL of the service.
func (r *Remote) URL() string { return r.client.URL() }

func (r *Remote) target() string { return r.client.URL() }

// blankNode writes a blank node as an IRI made of its label. Stores that
// expose stable blank node labels accept these in queries.
func (r *Remote) blankNode(b rdf.BlankNode) rdf.Term { return rdf.IRI(string(b)) }

func (r *Remote) query(ctx context.Context, text string) (*sparql.Results, error) {
	resp, err := r.client.Query(ctx, text, acceptResults)
	if err != nil {
		return nil, httpError(r.client.URL(), err)
	}
	return sparql.DecodeJSON(bytes.NewReader(resp.Body))
}

func (r *Remote) selectRaw(ctx context.Context, text string) (*sparql.Results, error) {
	res, err := r.query(ctx, text)
	if err != nil {
		return nil, err
	}
	if res.Form != sparql.FormSelect {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "endpoint returned %s results to a SELECT query", res.Form)
	}
	return res, nil
}

func (r *Remote) ask(ctx context.Context, text string) (bool, error) {
	res, err := r.query(ctx, text)
	if err != nil {
		return false, err
	}
	if res.Form != sparql.FormAsk {
		return false, errors.New(errors.ErrCodeInvalidFormat, "endpoint returned %s results to an ASK query", res.Form)
	}
	return res.Boolean, nil
}

func (r *Remote) construct(ctx context.Context, text string) (*rdf.Graph, error) {
	resp, err := r.client.Query(ctx, text, acceptGraph)
	if err != nil {
		return nil, httpError(r.client.URL(), err)
	}
	body := bytes.NewReader(resp.Body)
	switch resp.MediaType() {
	case "application/n-triples", "text/plain":
		return rdf.ParseNTriples(body)
	case "text/turtle", "application/x-turtle":
		return rdf.ParseTurtle(body)
	case "application/ld+json":
		return rdf.ParseJSONLD(body)
	case "application/n-quads":
		return rdf.ParseNQuads(body)
	case sparql.MediaTypeJSON, "application/json":
		res, err := sparql.DecodeJSON(body)
		if err != nil {
			return nil, err
		}
		return triplesOf(res, nil), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unexpected content type %q for a graph", resp.ContentType)
}

// triplesOf reads ?s ?p ?o solutions as triples. A non-nil subject replaces
// the ?s binding.
func triplesOf(res *sparql.Results, subject rdf.Term) *rdf.Graph {
	g := rdf.NewGraph()
	for _, row := range res.Rows {
		s := row["s"]
		if subject != nil {
			s = subject
		}
		if s == nil || row["p"] == nil || row["o"] == nil {
			continue
		}
		g.Add(rdf.Triple{S: s, P: row["p"], O: row["o"]})
	}
	return g
}

func (r *Remote) update(ctx context.Context, text string) error {
	if err := r.client.Update(ctx, text); err != nil {
		return httpError(r.client.URL(), err)
	}
	return nil
}

// peel runs one SELECT per visited node.
func (r *Remote) peel(ctx context.Context, node rdf.Term, out *rdf.Graph) error {
	q := sparql.MustBankQuery(sparql.QueryPeel, nil)
	return peelGraph(ctx, node, out, func(that rdf.Term) ([]rdf.Triple, error) {
		text, err := r.substitute(q, Bindings{"that": that})
		if err != nil {
			return nil, err
		}
		res, err := r.selectRaw(ctx, text)
		if err != nil {
			return nil, err
		}
		return triplesOf(res, that).Triples(), nil
	})
}
