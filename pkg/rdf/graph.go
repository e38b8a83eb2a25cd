package rdf

// Graph is a set of triples that remembers insertion order.
//
// Subject, predicate and object indexes make [Graph.Match] cheap when any
// position is bound. Graph is not safe for concurrent mutation.
type Graph struct {
	ns      *Namespaces
	triples []Triple
	pos     map[Triple]int
	bySubj  map[Term][]int
	byPred  map[Term][]int
	byObj   map[Term][]int
}

// NewGraph returns an empty graph with the default namespaces bound.
func NewGraph() *Graph {
	return NewGraphWithNamespaces(DefaultNamespaces())
}

// NewGraphWithNamespaces returns an empty graph that uses ns.
func NewGraphWithNamespaces(ns *Namespaces) *Graph {
	if ns == nil {
		ns = NewNamespaces()
	}
	g := &Graph{ns: ns}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.triples = nil
	g.pos = make(map[Triple]int)
	g.bySubj = make(map[Term][]int)
	g.byPred = make(map[Term][]int)
	g.byObj = make(map[Term][]int)
}

// Namespaces returns the graph's namespace manager.
func (g *Graph) Namespaces() *Namespaces { return g.ns }

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Add inserts t and reports whether it was new.
func (g *Graph) Add(t Triple) bool {
	if t.S == nil || t.P == nil || t.O == nil {
		return false
	}
	if _, ok := g.pos[t]; ok {
		return false
	}
	i := len(g.triples)
	g.triples = append(g.triples, t)
	g.pos[t] = i
	g.bySubj[t.S] = append(g.bySubj[t.S], i)
	g.byPred[t.P] = append(g.byPred[t.P], i)
	g.byObj[t.O] = append(g.byObj[t.O], i)
	return true
}

// AddAll inserts every triple of ts.
func (g *Graph) AddAll(ts []Triple) {
	for _, t := range ts {
		g.Add(t)
	}
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.pos[t]
	return ok
}

// Remove deletes t and reports whether it was present.
func (g *Graph) Remove(t Triple) bool {
	if _, ok := g.pos[t]; !ok {
		return false
	}
	g.RemoveAll([]Triple{t})
	return true
}

// RemoveAll deletes every triple of ts that is present.
func (g *Graph) RemoveAll(ts []Triple) {
	drop := make(map[Triple]bool, len(ts))
	for _, t := range ts {
		if _, ok := g.pos[t]; ok {
			drop[t] = true
		}
	}
	if len(drop) == 0 {
		return
	}
	old := g.triples
	g.reset()
	for _, t := range old {
		if !drop[t] {
			g.Add(t)
		}
	}
}

// Clear removes every triple. Namespace bindings are kept.
func (g *Graph) Clear() { g.reset() }

// Triples returns all triples in insertion order.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Match returns the triples matching the pattern in insertion order.
// A nil position is a wildcard.
func (g *Graph) Match(s, p, o Term) []Triple {
	var candidates []int
	switch {
	case s != nil && p != nil && o != nil:
		t := Triple{s, p, o}
		if g.Has(t) {
			return []Triple{t}
		}
		return nil
	case s != nil:
		candidates = g.bySubj[s]
	case o != nil:
		candidates = g.byObj[o]
	case p != nil:
		candidates = g.byPred[p]
	default:
		return g.Triples()
	}

	var out []Triple
	for _, i := range candidates {
		t := g.triples[i]
		if (p == nil || t.P == p) && (o == nil || t.O == o) && (s == nil || t.S == s) {
			out = append(out, t)
		}
	}
	return out
}

// Objects returns the objects of triples with subject s and predicate p.
func (g *Graph) Objects(s, p Term) []Term {
	var out []Term
	for _, t := range g.Match(s, p, nil) {
		out = append(out, t.O)
	}
	return out
}

// Value returns the first object of (s, p, ?).
func (g *Graph) Value(s, p Term) (Term, bool) {
	for _, t := range g.Match(s, p, nil) {
		return t.O, true
	}
	return nil, false
}

// Subjects returns the distinct subjects in first-seen order.
func (g *Graph) Subjects() []Term {
	seen := make(map[Term]bool)
	var out []Term
	for _, t := range g.triples {
		if !seen[t.S] {
			seen[t.S] = true
			out = append(out, t.S)
		}
	}
	return out
}

// Clone returns a deep copy of the graph and its namespaces.
func (g *Graph) Clone() *Graph {
	c := NewGraphWithNamespaces(g.ns.Clone())
	c.AddAll(g.triples)
	return c
}

// AllIRIs returns the set of IRIs that appear in any position of g.
func AllIRIs(g *Graph) map[IRI]bool {
	out := make(map[IRI]bool)
	for _, t := range g.triples {
		for _, term := range []Term{t.S, t.P, t.O} {
			if iri, ok := term.(IRI); ok {
				out[iri] = true
			}
		}
	}
	return out
}
