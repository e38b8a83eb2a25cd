package endpoint

import (
	"strings"

	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// Value converts a term from a result into a table value:
//
//   - nil (unbound) stays nil
//   - an IRI becomes a [URI] when the endpoint has prefixes and the IRI
//     contains '/' or starts with "urn:": relative ("<rest>") under the base
//     URI, or a prefixed name when [Endpoint.IsQNameSafe] holds
//   - any other IRI stays an [rdf.IRI]
//   - a literal becomes its Go value (see [rdf.Literal.Native])
//   - a blank node stays an [rdf.BlankNode]
func (e *Endpoint) Value(t rdf.Term) any {
	switch t := t.(type) {
	case nil:
		return nil
	case rdf.IRI:
		return e.iriValue(t)
	case rdf.Literal:
		return t.Native()
	}
	return t
}

func (e *Endpoint) iriValue(iri rdf.IRI) any {
	s := string(iri)
	if e.prefixes == nil || !(strings.Contains(s, "/") || strings.HasPrefix(s, "urn:")) {
		return iri
	}
	if e.baseURI != "" && strings.HasPrefix(s, e.baseURI) {
		return URI{Short: "<" + s[len(e.baseURI):] + ">", IRI: iri}
	}
	if e.IsQNameSafe(iri) {
		if short, ok := e.ShortName(iri); ok {
			return URI{Short: short, IRI: iri}
		}
	}
	return iri
}

// IsQNameSafe reports whether iri can be written as a prefixed name: its
// local part is a valid local name without escapes, and its namespace is one
// the endpoint binds.
func (e *Endpoint) IsQNameSafe(iri rdf.IRI) bool {
	local := LocalPart(iri)
	if !localPattern.MatchString(local) {
		return false
	}
	return e.namespaces[normalizeNamespace(NamespacePart(iri))]
}

// ShortName returns iri as "prefix:local" using the prefix bound to its
// namespace part. It reports false when no prefix is bound to that namespace.
func (e *Endpoint) ShortName(iri rdf.IRI) (string, bool) {
	if e.prefixes == nil {
		return "", false
	}
	ns, local := NamespacePart(iri), LocalPart(iri)
	if p, ok := e.prefixes.PrefixOf(ns); ok {
		return p + ":" + local, true
	}
	return "", false
}

// NamespacePart returns iri up to and including its last '#' or '/'.
func NamespacePart(iri rdf.IRI) string { return rdf.NamespacePart(string(iri)) }

// LocalPart returns the part of iri after its last '#' or '/'.
func LocalPart(iri rdf.IRI) string { return rdf.LocalPart(string(iri)) }
