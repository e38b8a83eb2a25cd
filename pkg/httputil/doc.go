// Package httputil provides the HTTP transport for remote SPARQL endpoints.
//
// # Overview
//
//   - [Client]: a SPARQL 1.1 Protocol client (form-encoded POST)
//   - [Retry]: automatic retry with exponential backoff
//
// # Protocol
//
// Queries are sent as "query=..." and updates as "update=..." in an
// application/x-www-form-urlencoded body, each default graph as a
// "default-graph-uri" (queries) or "using-graph-uri" (updates) parameter.
// The caller picks the Accept header; the raw body and its content type
// are returned for the caller to decode.
//
//	c, err := httputil.NewClient("http://localhost:3030/ds/sparql", httputil.Options{})
//	resp, err := c.Query(ctx, "ASK { ?s ?p ?o }", "application/sparql-results+json")
//
// Non-2xx responses become a [*StatusError] carrying the status and the
// body, which most stores fill with the parser's complaint.
//
// # Retry
//
// Transient failures are retried:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses (honoring Retry-After)
//
// Other 4xx responses are returned at once.
//
// # Caching
//
// When [Options.Cache] is set, query responses (never updates) are stored
// under a key derived by a [cache.Keyer] from the endpoint, the default
// graphs, the Accept header and the query text.
package httputil
