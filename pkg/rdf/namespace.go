package rdf

import (
	"sort"
	"strings"
)

// Namespaces maps prefixes to namespace IRIs.
//
// The zero value is not usable; create one with [NewNamespaces] or
// [DefaultNamespaces].
type Namespaces struct {
	byPrefix map[string]string
}

// NewNamespaces returns an empty namespace manager.
func NewNamespaces() *Namespaces {
	return &Namespaces{byPrefix: make(map[string]string)}
}

// DefaultNamespaces returns a manager with the rdf, rdfs, xsd, owl and xml
// prefixes bound.
func DefaultNamespaces() *Namespaces {
	n := NewNamespaces()
	n.Bind("rdf", RDFNS)
	n.Bind("rdfs", RDFSNS)
	n.Bind("xsd", XSDNS)
	n.Bind("owl", OWLNS)
	n.Bind("xml", XMLNS)
	return n
}

// Bind associates prefix with ns, replacing any previous binding.
func (n *Namespaces) Bind(prefix, ns string) {
	n.byPrefix[prefix] = ns
}

// Unbind removes the binding for prefix.
func (n *Namespaces) Unbind(prefix string) {
	delete(n.byPrefix, prefix)
}

// Namespace returns the namespace bound to prefix.
func (n *Namespaces) Namespace(prefix string) (string, bool) {
	ns, ok := n.byPrefix[prefix]
	return ns, ok
}

// Len returns the number of bindings.
func (n *Namespaces) Len() int { return len(n.byPrefix) }

// Prefixes returns the bound prefixes in sorted order.
func (n *Namespaces) Prefixes() []string {
	out := make([]string, 0, len(n.byPrefix))
	for p := range n.byPrefix {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the bindings.
func (n *Namespaces) Map() map[string]string {
	out := make(map[string]string, len(n.byPrefix))
	for p, ns := range n.byPrefix {
		out[p] = ns
	}
	return out
}

// Clone returns an independent copy.
func (n *Namespaces) Clone() *Namespaces {
	return &Namespaces{byPrefix: n.Map()}
}

// Merge binds every prefix of other that is not yet bound in n.
func (n *Namespaces) Merge(other *Namespaces) {
	if other == nil {
		return
	}
	for p, ns := range other.byPrefix {
		if _, ok := n.byPrefix[p]; !ok {
			n.byPrefix[p] = ns
		}
	}
}

// Expand resolves a prefixed name such as "foaf:name".
// It reports false when the name has no colon or its prefix is unbound.
func (n *Namespaces) Expand(pname string) (IRI, bool) {
	prefix, local, ok := strings.Cut(pname, ":")
	if !ok {
		return "", false
	}
	ns, ok := n.byPrefix[prefix]
	if !ok {
		return "", false
	}
	return IRI(ns + local), true
}

// Compact splits iri into a bound prefix and a local name, choosing the
// longest matching namespace. Ties are broken by prefix order.
func (n *Namespaces) Compact(iri IRI) (prefix, local string, ok bool) {
	s := string(iri)
	best := -1
	for _, p := range n.Prefixes() {
		ns := n.byPrefix[p]
		if ns == "" || !strings.HasPrefix(s, ns) || len(ns) <= best {
			continue
		}
		best = len(ns)
		prefix, local, ok = p, s[len(ns):], true
	}
	return prefix, local, ok
}

// PrefixOf returns the prefix bound to exactly ns.
func (n *Namespaces) PrefixOf(ns string) (string, bool) {
	for _, p := range n.Prefixes() {
		if n.byPrefix[p] == ns {
			return p, true
		}
	}
	return "", false
}

// NamespacePart returns iri up to and including its last '#' or '/'.
// The split is purely syntactic and ignores declared prefixes.
func NamespacePart(iri string) string {
	return iri[:splitPoint(iri)]
}

// LocalPart returns the part of iri after its last '#' or '/'.
func LocalPart(iri string) string {
	return iri[splitPoint(iri):]
}

func splitPoint(iri string) int {
	return max(strings.LastIndexByte(iri, '#'), strings.LastIndexByte(iri, '/')) + 1
}
