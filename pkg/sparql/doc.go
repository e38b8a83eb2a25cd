// Package sparql parses and evaluates SPARQL 1.1 queries and updates
// against an in-memory [rdf.Graph].
//
// # Parsing
//
// [ParseQuery] and [ParseUpdate] build a syntax tree without resolving
// prefixed names. A query that uses a prefix it does not declare still
// parses, which lets callers inspect the declared prologue and add the
// missing PREFIX lines before evaluation:
//
//	q, err := sparql.ParseQuery("SELECT ?s { ?s a foaf:Person }")
//	q.PrefixMap() // empty: foaf is used but not declared
//
// Syntax errors are reported as [*ParseError] with a 1-based line and
// column.
//
// # Evaluation
//
// [Eval] runs a query against the default graph and returns [Results]:
// solutions for SELECT, a boolean for ASK and a graph for CONSTRUCT and
// DESCRIBE. [Exec] applies an update. Named graphs are not supported; GRAPH
// patterns match nothing.
//
// # Results
//
// [EncodeJSON] and [DecodeJSON] implement the SPARQL 1.1 JSON results
// format used by remote endpoints.
//
// # Query bank
//
// Built-in queries live in an embedded queries.rq file, one per "# tag:"
// section, and are read with [BankQuery].
package sparql
