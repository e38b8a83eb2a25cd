package sparql

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// Eval evaluates q against the default graph g.
//
// Named graphs are not supported: GRAPH patterns match nothing. Errors are
// returned for undefined prefixes and for SERVICE patterns that are not
// SILENT; expression errors only affect the solution they occur in.
func Eval(g *rdf.Graph, q *Query) (res *Results, err error) {
	ev := newEvaluator(g, &q.Prologue)
	defer recoverEval(&err)
	return ev.run(q), nil
}

type evaluator struct {
	g        *rdf.Graph
	prefixes map[string]string
	base     *url.URL
	now      time.Time
	bnodes   map[string]rdf.BlankNode
	regexps  map[string]*regexp.Regexp
}

func newEvaluator(g *rdf.Graph, pro *Prologue) *evaluator {
	ev := &evaluator{
		g:        g,
		prefixes: pro.PrefixMap(),
		now:      time.Now(),
		bnodes:   make(map[string]rdf.BlankNode),
		regexps:  make(map[string]*regexp.Regexp),
	}
	if pro.Base != "" {
		if u, err := url.Parse(pro.Base); err == nil {
			ev.base = u
		}
	}
	return ev
}

// evalFailure aborts an evaluation; it is recovered by Eval and Exec.
type evalFailure struct{ err error }

func (ev *evaluator) fail(code errors.Code, format string, args ...any) {
	panic(evalFailure{errors.New(code, format, args...)})
}

func recoverEval(errp *error) {
	if r := recover(); r != nil {
		f, ok := r.(evalFailure)
		if !ok {
			panic(r)
		}
		*errp = f.err
	}
}

// ---------------------------------------------------------------------------
// Terms

// term resolves a constant node.
func (ev *evaluator) term(n Node) rdf.Term {
	switch n := n.(type) {
	case IRIRef:
		return ev.resolveIRI(string(n))
	case PName:
		ns, ok := ev.prefixes[n.Prefix]
		if !ok {
			ev.fail(errors.ErrCodeInvalidQuery, "undefined prefix %q", n.Prefix)
		}
		return rdf.IRI(ns + n.Local)
	case *LiteralNode:
		switch {
		case n.Lang != "":
			return rdf.NewLangLiteral(n.Lexical, n.Lang)
		case n.Datatype != nil:
			dt, _ := ev.term(n.Datatype).(rdf.IRI)
			return rdf.NewTypedLiteral(n.Lexical, dt)
		}
		return rdf.NewPlainLiteral(n.Lexical)
	case BNode:
		return rdf.BlankNode(n)
	}
	ev.fail(errors.ErrCodeInternal, "cannot resolve %T as a term", n)
	return nil
}

func (ev *evaluator) resolveIRI(s string) rdf.IRI {
	if ev.base == nil {
		return rdf.IRI(s)
	}
	ref, err := url.Parse(s)
	if err != nil || ref.IsAbs() {
		return rdf.IRI(s)
	}
	return rdf.IRI(ev.base.ResolveReference(ref).String())
}

// bound returns the term at n under sol, or nil for an unbound variable.
func (ev *evaluator) bound(n Node, sol Solution) rdf.Term {
	if v, ok := n.(Var); ok {
		return sol[string(v)]
	}
	return ev.term(n)
}

// ---------------------------------------------------------------------------
// Group patterns

func (ev *evaluator) evalGroup(g *Group, seeds []Solution) []Solution {
	if g == nil {
		return seeds
	}
	sols := seeds
	var filters []Expr

	for _, el := range g.Elements {
		switch e := el.(type) {
		case *BGPElement:
			sols = ev.evalBGP(e.Triples, sols)

		case *OptionalElement:
			var out []Solution
			for _, s := range sols {
				ext := ev.evalGroup(e.Group, []Solution{s})
				if len(ext) == 0 {
					out = append(out, s)
				} else {
					out = append(out, ext...)
				}
			}
			sols = out

		case *UnionElement:
			var out []Solution
			for _, alt := range e.Alts {
				out = append(out, ev.evalGroup(alt, sols)...)
			}
			sols = out

		case *MinusElement:
			right := ev.evalGroup(e.Group, []Solution{{}})
			sols = slices.DeleteFunc(sols, func(s Solution) bool {
				for _, r := range right {
					if s.sharesVar(r) && s.compatible(r) {
						return true
					}
				}
				return false
			})

		case *FilterElement:
			filters = append(filters, e.Expr)

		case *BindElement:
			out := make([]Solution, len(sols))
			for i, s := range sols {
				out[i] = s
				v, err := ev.eval(e.Expr, &env{sol: s})
				if err == nil && v != nil {
					out[i] = s.clone()
					out[i][e.Var] = v
				}
			}
			sols = out

		case *ValuesElement:
			sols = join(sols, ev.valuesSolutions(e.Values))

		case *GraphElement:
			sols = nil

		case *SubSelectElement:
			_, rows := ev.selectSolutions(e.Query)
			sols = join(sols, rows)

		case *ServiceElement:
			if !e.Silent {
				ev.fail(errors.ErrCodeUnsupported, "SERVICE is not supported")
			}
		}
	}

	if len(filters) == 0 {
		return sols
	}
	return slices.DeleteFunc(sols, func(s Solution) bool {
		for _, f := range filters {
			ok, err := ev.evalEBV(f, &env{sol: s})
			if err != nil || !ok {
				return true
			}
		}
		return false
	})
}

func (ev *evaluator) evalBGP(triples []TriplePattern, sols []Solution) []Solution {
	for _, tp := range triples {
		var next []Solution
		for _, s := range sols {
			next = append(next, ev.matchTriple(tp, s)...)
		}
		sols = next
		if len(sols) == 0 {
			break
		}
	}
	return sols
}

func (ev *evaluator) matchTriple(tp TriplePattern, sol Solution) []Solution {
	s := ev.bound(tp.S, sol)
	o := ev.bound(tp.O, sol)
	var out []Solution

	if lp, ok := tp.P.(*LinkPath); ok {
		p := ev.bound(lp.Pred, sol)
		for _, t := range ev.g.Match(s, p, o) {
			if ext, ok := bindAll(sol, []Node{tp.S, lp.Pred, tp.O}, []rdf.Term{t.S, t.P, t.O}); ok {
				out = append(out, ext)
			}
		}
		return out
	}

	for _, pair := range ev.evalPath(tp.P, s, o) {
		if ext, ok := bindAll(sol, []Node{tp.S, tp.O}, pair[:]); ok {
			out = append(out, ext)
		}
	}
	return out
}

// bindAll extends sol with the variables among nodes bound to terms. It
// fails when a variable is already bound to a different term.
func bindAll(sol Solution, nodes []Node, terms []rdf.Term) (Solution, bool) {
	var out Solution
	for i, n := range nodes {
		v, ok := n.(Var)
		if !ok {
			continue
		}
		name := string(v)
		cur := sol[name]
		if out != nil {
			cur = out[name]
		}
		if cur != nil {
			if cur != terms[i] {
				return nil, false
			}
			continue
		}
		if out == nil {
			out = sol.clone()
		}
		out[name] = terms[i]
	}
	if out == nil {
		return sol, true
	}
	return out, true
}

func join(left, right []Solution) []Solution {
	var out []Solution
	for _, l := range left {
		for _, r := range right {
			if l.compatible(r) {
				out = append(out, l.merge(r))
			}
		}
	}
	return out
}

func (ev *evaluator) valuesSolutions(v *Values) []Solution {
	out := make([]Solution, 0, len(v.Rows))
	for _, row := range v.Rows {
		s := Solution{}
		for i, n := range row {
			if n != nil {
				s[v.Vars[i]] = ev.term(n)
			}
		}
		out = append(out, s)
	}
	return out
}

// ---------------------------------------------------------------------------
// Query forms

func (ev *evaluator) run(q *Query) *Results {
	switch q.Form {
	case FormSelect:
		vars, rows := ev.selectSolutions(q)
		return &Results{Form: FormSelect, Vars: vars, Rows: rows}

	case FormAsk:
		return &Results{Form: FormAsk, Boolean: len(ev.modified(q)) > 0}

	case FormConstruct:
		g := ev.outputGraph(q)
		for _, s := range ev.modified(q) {
			bnodes := make(map[string]rdf.BlankNode)
			for _, tp := range q.Template {
				if t, ok := ev.instantiate(tp, s, bnodes); ok {
					g.Add(t)
				}
			}
		}
		return &Results{Form: FormConstruct, Graph: g}

	case FormDescribe:
		g := ev.outputGraph(q)
		sols := ev.modified(q)
		seen := make(map[rdf.Term]bool)
		var targets []rdf.Term
		if q.Star {
			for _, v := range queryVars(q) {
				for _, s := range sols {
					targets = append(targets, s[v])
				}
			}
		}
		for _, n := range q.Describe {
			if v, ok := n.(Var); ok {
				for _, s := range sols {
					targets = append(targets, s[string(v)])
				}
				continue
			}
			targets = append(targets, ev.term(n))
		}
		for _, t := range targets {
			if t != nil {
				ev.describe(g, t, seen)
			}
		}
		return &Results{Form: FormDescribe, Graph: g}
	}
	ev.fail(errors.ErrCodeUnsupported, "unsupported query form %q", q.Form)
	return nil
}

func (ev *evaluator) outputGraph(q *Query) *rdf.Graph {
	g := rdf.NewGraph()
	for _, d := range q.Prefixes {
		g.Namespaces().Bind(d.Prefix, d.IRI)
	}
	return g
}

func (ev *evaluator) describe(out *rdf.Graph, t rdf.Term, seen map[rdf.Term]bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	for _, tr := range ev.g.Match(t, nil, nil) {
		out.Add(tr)
		if b, ok := tr.O.(rdf.BlankNode); ok {
			ev.describe(out, b, seen)
		}
	}
}

func (ev *evaluator) instantiate(tp TriplePattern, sol Solution, bnodes map[string]rdf.BlankNode) (rdf.Triple, bool) {
	lp, ok := tp.P.(*LinkPath)
	if !ok {
		return rdf.Triple{}, false
	}
	s := ev.templateTerm(tp.S, sol, bnodes)
	p := ev.templateTerm(lp.Pred, sol, bnodes)
	o := ev.templateTerm(tp.O, sol, bnodes)
	if s == nil || p == nil || o == nil {
		return rdf.Triple{}, false
	}
	if _, ok := s.(rdf.Literal); ok {
		return rdf.Triple{}, false
	}
	if _, ok := p.(rdf.IRI); !ok {
		return rdf.Triple{}, false
	}
	return rdf.Triple{S: s, P: p, O: o}, true
}

// templateTerm instantiates a template position; blank nodes are fresh for
// every bnodes map.
func (ev *evaluator) templateTerm(n Node, sol Solution, bnodes map[string]rdf.BlankNode) rdf.Term {
	switch n := n.(type) {
	case Var:
		if t := sol[string(n)]; t != nil {
			return t
		}
		return nil
	case BNode:
		b, ok := bnodes[string(n)]
		if !ok {
			b = rdf.NewBlankNode()
			bnodes[string(n)] = b
		}
		return b
	}
	return ev.term(n)
}

// solve evaluates the WHERE clause and the trailing VALUES block.
func (ev *evaluator) solve(q *Query) []Solution {
	sols := ev.evalGroup(q.Where, []Solution{{}})
	if q.Values != nil {
		sols = join(sols, ev.valuesSolutions(q.Values))
	}
	return sols
}

// modified applies ORDER BY, OFFSET and LIMIT to the solutions of a
// non-SELECT query.
func (ev *evaluator) modified(q *Query) []Solution {
	rows := make([]row, 0)
	for _, s := range ev.solve(q) {
		rows = append(rows, row{sol: s})
	}
	rows = ev.order(q, rows, false)
	out := make([]Solution, len(rows))
	for i, r := range rows {
		out[i] = r.sol
	}
	return slice(q, out)
}

type row struct {
	sol   Solution
	group []Solution
}

// selectSolutions runs the SELECT pipeline: grouping and aggregation,
// HAVING, projection expressions, ORDER BY, projection, DISTINCT, then
// OFFSET and LIMIT.
func (ev *evaluator) selectSolutions(q *Query) ([]string, []Solution) {
	sols := ev.solve(q)

	grouped := len(q.GroupBy) > 0 || queryHasAggregate(q)
	var rows []row
	if grouped {
		rows = ev.groupRows(q, sols)
	} else {
		rows = make([]row, len(sols))
		for i, s := range sols {
			rows[i] = row{sol: s}
		}
	}

	if len(q.Having) > 0 {
		rows = slices.DeleteFunc(rows, func(r row) bool {
			for _, h := range q.Having {
				ok, err := ev.evalEBV(h, &env{sol: r.sol, group: r.group, grouped: grouped})
				if err != nil || !ok {
					return true
				}
			}
			return false
		})
	}

	for i := range rows {
		for _, p := range q.Projection {
			if p.Expr == nil {
				continue
			}
			v, err := ev.eval(p.Expr, &env{sol: rows[i].sol, group: rows[i].group, grouped: grouped})
			if err == nil && v != nil {
				rows[i].sol = rows[i].sol.clone()
				rows[i].sol[p.Var] = v
			}
		}
	}

	rows = ev.order(q, rows, grouped)

	vars := queryVars(q)
	out := make([]Solution, 0, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		s := make(Solution, len(vars))
		for _, v := range vars {
			if t := r.sol[v]; t != nil {
				s[v] = t
			}
		}
		if q.Distinct || q.Reduced {
			k := s.key(vars)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, s)
	}
	return vars, slice(q, out)
}

func (ev *evaluator) groupRows(q *Query, sols []Solution) []row {
	if len(q.GroupBy) == 0 {
		return []row{{sol: Solution{}, group: sols}}
	}
	index := make(map[string]int)
	var rows []row
	for _, s := range sols {
		keySol := Solution{}
		parts := make([]string, len(q.GroupBy))
		for i, c := range q.GroupBy {
			v, err := ev.eval(c.Expr, &env{sol: s})
			if err != nil {
				v = nil
			}
			parts[i] = n3(v)
			name := c.As
			if ve, ok := c.Expr.(*VarExpr); ok && name == "" {
				name = ve.Name
			}
			if name != "" && v != nil {
				keySol[name] = v
			}
		}
		k := strings.Join(parts, "\x00")
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, row{sol: keySol})
		}
		rows[i].group = append(rows[i].group, s)
	}
	return rows
}

func (ev *evaluator) order(q *Query, rows []row, grouped bool) []row {
	if len(q.OrderBy) == 0 {
		return rows
	}
	keys := make(map[*row][]rdf.Term, len(rows))
	ptrs := make([]*row, len(rows))
	for i := range rows {
		r := &rows[i]
		ptrs[i] = r
		k := make([]rdf.Term, len(q.OrderBy))
		for j, c := range q.OrderBy {
			if v, err := ev.eval(c.Expr, &env{sol: r.sol, group: r.group, grouped: grouped}); err == nil {
				k[j] = v
			}
		}
		keys[r] = k
	}
	slices.SortStableFunc(ptrs, func(a, b *row) int {
		ka, kb := keys[a], keys[b]
		for j, c := range q.OrderBy {
			if cmp := orderTerms(ka[j], kb[j]); cmp != 0 {
				if c.Desc {
					return -cmp
				}
				return cmp
			}
		}
		return 0
	})
	out := make([]row, len(ptrs))
	for i, r := range ptrs {
		out[i] = *r
	}
	return out
}

func slice(q *Query, sols []Solution) []Solution {
	if q.Offset > 0 {
		if q.Offset >= len(sols) {
			return sols[:0]
		}
		sols = sols[q.Offset:]
	}
	if q.Limit >= 0 && q.Limit < len(sols) {
		sols = sols[:q.Limit]
	}
	return sols
}

func queryHasAggregate(q *Query) bool {
	for _, p := range q.Projection {
		if p.Expr != nil && hasAggregate(p.Expr) {
			return true
		}
	}
	for _, h := range q.Having {
		if hasAggregate(h) {
			return true
		}
	}
	for _, o := range q.OrderBy {
		if hasAggregate(o.Expr) {
			return true
		}
	}
	return false
}

// queryVars returns the result variables: the projection, or for SELECT *
// the visible variables of the pattern in order of appearance.
func queryVars(q *Query) []string {
	if !q.Star {
		vars := make([]string, len(q.Projection))
		for i, p := range q.Projection {
			vars[i] = p.Var
		}
		return vars
	}
	var vars []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] && !Var(name).IsHidden() {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	patternVars(q.Where, add)
	if q.Values != nil {
		for _, v := range q.Values.Vars {
			add(v)
		}
	}
	return vars
}

func patternVars(g *Group, add func(string)) {
	if g == nil {
		return
	}
	node := func(n Node) {
		if v, ok := n.(Var); ok {
			add(string(v))
		}
	}
	for _, el := range g.Elements {
		switch e := el.(type) {
		case *BGPElement:
			for _, tp := range e.Triples {
				node(tp.S)
				if lp, ok := tp.P.(*LinkPath); ok {
					node(lp.Pred)
				}
				node(tp.O)
			}
		case *OptionalElement:
			patternVars(e.Group, add)
		case *UnionElement:
			for _, alt := range e.Alts {
				patternVars(alt, add)
			}
		case *GraphElement:
			node(e.Name)
			patternVars(e.Group, add)
		case *ServiceElement:
			patternVars(e.Group, add)
		case *BindElement:
			add(e.Var)
		case *ValuesElement:
			for _, v := range e.Values.Vars {
				add(v)
			}
		case *SubSelectElement:
			for _, v := range queryVars(e.Query) {
				add(v)
			}
		}
	}
}
