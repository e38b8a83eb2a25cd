// Package endpoint issues SPARQL queries against a remote triple store or an
// in-memory graph and returns the results as frames.
//
// An [Endpoint] holds the prefix table, the base URI and the materialization
// rules shared by both kinds of target. [Remote] speaks the SPARQL 1.1
// Protocol through [httputil.Client]; [Local] evaluates queries with
// [sparql.Eval] against an [rdf.Graph]. Both satisfy [Querier].
//
// # Prefix injection
//
// Queries may use any prefix bound on the endpoint without declaring it. Before
// a query runs, identifiers followed by a colon are collected from its text
// and a PREFIX declaration is prepended for each one the endpoint knows and
// the query does not declare itself:
//
//	ep.Select(ctx, "SELECT ?name { ?s foaf:name ?name }", nil)
//
// runs as
//
//	prefix foaf: <http://xmlns.com/foaf/0.1/>
//	SELECT ?name { ?s foaf:name ?name }
//
// # Substitution
//
// Variables named in the [Bindings] are replaced in the query text by the
// N3 form of their values. [Scope] builds bindings from a map of local
// values following the underscore convention: the value of x is substituted
// for ?_x.
//
//	b := endpoint.Scope(map[string]any{"who": endpoint.QName{Name: "ex:alice"}})
//	ep.Select(ctx, "SELECT ?o { ?_who ?p ?o }", b)
//
// Substitution is lexical. A token inside a string literal is replaced too.
//
// # Materialization
//
// [Endpoint.Select] turns IRIs into [URI] values that print as prefixed names,
// literals into Go values, and then normalizes columns of numeric strings.
// A URI cell can be bound back into another query and round-trips as its
// full IRI.
package endpoint
