package sparql

import "github.com/matzehuels/gastrodon/pkg/rdf"

// evalPath returns the (subject, object) pairs connected by p. A nil s or o
// matches any node.
func (ev *evaluator) evalPath(p Path, s, o rdf.Term) [][2]rdf.Term {
	switch p := p.(type) {
	case *LinkPath:
		ts := ev.g.Match(s, ev.term(p.Pred), o)
		out := make([][2]rdf.Term, len(ts))
		for i, t := range ts {
			out[i] = [2]rdf.Term{t.S, t.O}
		}
		return out

	case *InversePath:
		pairs := ev.evalPath(p.Path, o, s)
		for i := range pairs {
			pairs[i][0], pairs[i][1] = pairs[i][1], pairs[i][0]
		}
		return pairs

	case *SeqPath:
		return ev.evalSeq(p.Parts, s, o)

	case *AltPath:
		var out [][2]rdf.Term
		for _, alt := range p.Alts {
			out = append(out, ev.evalPath(alt, s, o)...)
		}
		return out

	case *ModPath:
		return ev.evalMod(p, s, o)

	case *NegatedPath:
		var out [][2]rdf.Term
		if len(p.Forward) > 0 || len(p.Inverse) == 0 {
			excluded := ev.termSet(p.Forward)
			for _, t := range ev.g.Match(s, nil, o) {
				if !excluded[t.P] {
					out = append(out, [2]rdf.Term{t.S, t.O})
				}
			}
		}
		if len(p.Inverse) > 0 {
			excluded := ev.termSet(p.Inverse)
			for _, t := range ev.g.Match(o, nil, s) {
				if !excluded[t.P] {
					out = append(out, [2]rdf.Term{t.O, t.S})
				}
			}
		}
		return out
	}
	return nil
}

func (ev *evaluator) termSet(nodes []Node) map[rdf.Term]bool {
	set := make(map[rdf.Term]bool, len(nodes))
	for _, n := range nodes {
		set[ev.term(n)] = true
	}
	return set
}

func (ev *evaluator) evalSeq(parts []Path, s, o rdf.Term) [][2]rdf.Term {
	if len(parts) == 1 {
		return ev.evalPath(parts[0], s, o)
	}
	var out [][2]rdf.Term
	for _, first := range ev.evalPath(parts[0], s, nil) {
		for _, rest := range ev.evalSeq(parts[1:], first[1], o) {
			out = append(out, [2]rdf.Term{first[0], rest[1]})
		}
	}
	return out
}

func (ev *evaluator) evalMod(p *ModPath, s, o rdf.Term) [][2]rdf.Term {
	zero := p.Mod != '+'

	if p.Mod == '?' {
		var out [][2]rdf.Term
		seen := make(map[[2]rdf.Term]bool)
		add := func(pair [2]rdf.Term) {
			if !seen[pair] {
				seen[pair] = true
				out = append(out, pair)
			}
		}
		switch {
		case s != nil:
			if o == nil || o == s {
				add([2]rdf.Term{s, s})
			}
		case o != nil:
			add([2]rdf.Term{o, o})
		default:
			for _, n := range ev.allNodes() {
				add([2]rdf.Term{n, n})
			}
		}
		for _, pair := range ev.evalPath(p.Path, s, o) {
			add(pair)
		}
		return out
	}

	var out [][2]rdf.Term
	switch {
	case s != nil:
		for _, n := range ev.reach(p.Path, s, zero, false) {
			if o == nil || n == o {
				out = append(out, [2]rdf.Term{s, n})
			}
		}
	case o != nil:
		for _, n := range ev.reach(p.Path, o, zero, true) {
			out = append(out, [2]rdf.Term{n, o})
		}
	default:
		for _, start := range ev.allNodes() {
			for _, n := range ev.reach(p.Path, start, zero, false) {
				out = append(out, [2]rdf.Term{start, n})
			}
		}
	}
	return out
}

// reach returns the distinct nodes reachable from start by one or more
// steps along p, or zero or more when zero is set. backward walks p in
// reverse.
func (ev *evaluator) reach(p Path, start rdf.Term, zero, backward bool) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	if zero {
		seen[start] = true
		out = append(out, start)
	}
	frontier := []rdf.Term{start}
	expanded := map[rdf.Term]bool{start: true}
	for len(frontier) > 0 {
		var next []rdf.Term
		for _, n := range frontier {
			var pairs [][2]rdf.Term
			if backward {
				pairs = ev.evalPath(p, nil, n)
			} else {
				pairs = ev.evalPath(p, n, nil)
			}
			for _, pr := range pairs {
				m := pr[1]
				if backward {
					m = pr[0]
				}
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
				if !expanded[m] {
					expanded[m] = true
					next = append(next, m)
				}
			}
		}
		frontier = next
	}
	return out
}

func (ev *evaluator) allNodes() []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	for _, t := range ev.g.Triples() {
		for _, n := range []rdf.Term{t.S, t.O} {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
