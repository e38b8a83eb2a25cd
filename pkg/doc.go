// Package pkg provides the libraries behind gastrodon, a SPARQL convenience
// layer for Go.
//
// # Overview
//
// Gastrodon runs SPARQL against a remote endpoint or an in-memory RDF graph
// and hands back tables instead of raw bindings. It declares the prefixes a
// query uses, substitutes Go values into query text, and turns IRIs into
// short prefixed names that bind back into later queries.
//
// # Architecture
//
// The typical data flow:
//
//	query text + Bindings
//	         ↓
//	    [endpoint] (inject prefixes, substitute values)
//	         ↓
//	    [httputil] (SPARQL protocol)  or  [sparql] (local evaluation over [rdf])
//	         ↓
//	    [sparql.Results]
//	         ↓
//	    [frame] (materialized, normalized table)
//
// # Quick Start
//
//	ep, _ := endpoint.Inline(`@prefix ex: <http://example.com/> .
//	ex:alice ex:age 30 .`)
//
//	f, _ := ep.Select(ctx, "SELECT ?who ?age { ?who ex:age ?age }", nil)
//	fmt.Println(f.Render())
//
// # Main Packages
//
// ## Data Model
//
// [rdf] - Terms, triples, graphs, namespace tables, and the Turtle,
// N-Triples and JSON-LD readers and writers.
//
// [sparql] - Parser and evaluator for SPARQL 1.1 queries and updates, the
// JSON results format, and the bank of built-in queries.
//
// [frame] - Column-oriented result tables with an optional index.
//
// ## Endpoints
//
// [endpoint] - [endpoint.Remote] and [endpoint.Local], which share prefix
// injection, substitution, materialization, peel and decollect.
//
// [server] - Serves an [endpoint.Local] over the SPARQL 1.1 Protocol.
//
// ## Infrastructure
//
// [httputil] - SPARQL protocol client with retry, rate limit handling and
// response caching.
//
// [cache] - Response cache backends: file, Redis and MongoDB.
//
// [config] - TOML configuration of endpoint profiles, prefixes and cache.
//
// [observability] - Hooks for query, cache and HTTP events.
//
// [errors] - Coded errors; query failures carry a printable rendering.
//
// ## Visualization
//
// [render/nodelink] - Graphviz diagrams of RDF graphs.
//
// [render] - Format conversion (SVG to PDF/PNG).
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [rdf]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/rdf
// [sparql]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/sparql
// [sparql.Results]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/sparql#Results
// [frame]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/frame
// [endpoint]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/endpoint
// [endpoint.Remote]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/endpoint#Remote
// [endpoint.Local]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/endpoint#Local
// [server]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/server
// [httputil]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/httputil
// [cache]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/errors
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/render/nodelink
// [render]: https://pkg.go.dev/github.com/matzehuels/gastrodon/pkg/render
package pkg
