// Package rdf provides the RDF data model used throughout gastrodon.
//
// # Overview
//
// The package defines three kinds of [Term]:
//
//   - [IRI]: an absolute or relative IRI reference
//   - [Literal]: a lexical form with an optional datatype or language tag
//   - [BlankNode]: a node identified only by a document-local label
//
// Terms are plain comparable values, so they can be used as map keys and
// compared with ==. A [Triple] groups a subject, predicate and object, and a
// [Graph] is an ordered set of triples with indexes for pattern matching.
//
// # Namespaces
//
// Every [Graph] carries a [Namespaces] manager that maps prefixes to
// namespace IRIs. It is used to expand prefixed names (QNames) and to
// compact full IRIs back into short names for display:
//
//	ns := rdf.DefaultNamespaces()
//	ns.Bind("foaf", "http://xmlns.com/foaf/0.1/")
//	prefix, local, ok := ns.Compact("http://xmlns.com/foaf/0.1/name")
//	// "foaf", "name", true
//
// # Literals
//
// [NewLiteral] converts Go values into typed literals, and [Literal.Native]
// converts them back:
//
//	lit, _ := rdf.NewLiteral(42)   // "42"^^xsd:integer
//	lit.Native()                   // int64(42)
//
// # Serialization
//
// Graphs can be read from and written to Turtle, N-Triples, N-Quads and
// JSON-LD. See [ReadFile], [ParseTurtle], [WriteTurtle] and friends.
package rdf
