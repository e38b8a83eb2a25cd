package sparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// ParseQuery parses a SPARQL 1.1 query.
//
// Parsing is purely syntactic: prefixed names are kept unresolved, so a
// query that uses a prefix it never declares parses successfully and only
// fails at evaluation time.
func ParseQuery(text string) (q *Query, err error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	defer p.recover(&err)
	return p.parseQuery(), nil
}

// ParseUpdate parses a SPARQL 1.1 update request. Like [ParseQuery] it does
// not resolve prefixed names.
func ParseUpdate(text string) (u *Update, err error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	defer p.recover(&err)
	return p.parseUpdate(), nil
}

type parser struct {
	toks []token
	pos  int

	// bnodeVars makes blank nodes in patterns hidden variables; in
	// templates and quad data they stay blank nodes.
	bnodeVars bool
	anon      int
}

func newParser(text string) (*parser, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks, bnodeVars: true}, nil
}

func (p *parser) recover(errp *error) {
	if r := recover(); r != nil {
		pe, ok := r.(*ParseError)
		if !ok {
			panic(r)
		}
		*errp = pe
	}
}

func (p *parser) fail(t token, format string, args ...any) {
	panic(&ParseError{Line: t.line, Column: t.col, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(s string) bool {
	if p.peek().is(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(s string) token {
	t := p.peek()
	if !t.is(s) {
		p.fail(t, "expected %q, found %s", s, t)
	}
	return p.next()
}

func (p *parser) expectVar() string {
	t := p.peek()
	if t.kind != tokVar {
		p.fail(t, "expected variable, found %s", t)
	}
	p.next()
	return t.val
}

func (p *parser) expectEOF() {
	if t := p.peek(); t.kind != tokEOF {
		p.fail(t, "unexpected %s", t)
	}
}

// ---------------------------------------------------------------------------
// Prologue and query forms

func (p *parser) parsePrologue(pro *Prologue) {
	for {
		switch t := p.peek(); {
		case t.is("BASE"):
			p.next()
			pro.Base = p.expectIRIRef()
		case t.is("PREFIX"):
			p.next()
			nt := p.peek()
			if nt.kind != tokPName || !strings.HasSuffix(nt.val, ":") {
				p.fail(nt, "expected prefix name, found %s", nt)
			}
			p.next()
			pro.Prefixes = append(pro.Prefixes, PrefixDecl{
				Prefix: strings.TrimSuffix(nt.val, ":"),
				IRI:    p.expectIRIRef(),
			})
		default:
			return
		}
	}
}

func (p *parser) expectIRIRef() string {
	t := p.peek()
	if t.kind != tokIRI {
		p.fail(t, "expected IRI, found %s", t)
	}
	p.next()
	return t.val
}

func (p *parser) parseQuery() *Query {
	q := &Query{Limit: -1}
	p.parsePrologue(&q.Prologue)

	switch t := p.peek(); {
	case t.is("SELECT"):
		p.parseSelectClause(q)
		p.parseDatasetClauses()
		p.parseWhere(q, true)
		p.parseSolutionModifier(q)
	case t.is("CONSTRUCT"):
		p.parseConstruct(q)
	case t.is("ASK"):
		p.next()
		q.Form = FormAsk
		p.parseDatasetClauses()
		p.parseWhere(q, true)
		p.parseSolutionModifier(q)
	case t.is("DESCRIBE"):
		p.parseDescribe(q)
	default:
		p.fail(t, "expected SELECT, CONSTRUCT, ASK or DESCRIBE, found %s", t)
	}

	if p.accept("VALUES") {
		q.Values = p.parseDataBlock()
	}
	p.expectEOF()
	return q
}

func (p *parser) parseSelectClause(q *Query) {
	p.expect("SELECT")
	q.Form = FormSelect
	switch {
	case p.accept("DISTINCT"):
		q.Distinct = true
	case p.accept("REDUCED"):
		q.Reduced = true
	}

	if p.accept("*") {
		q.Star = true
		return
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokVar:
			p.next()
			q.Projection = append(q.Projection, Projection{Var: t.val})
		case t.is("("):
			p.next()
			e := p.parseExpr()
			p.expect("AS")
			v := p.expectVar()
			p.expect(")")
			q.Projection = append(q.Projection, Projection{Var: v, Expr: e})
		default:
			if len(q.Projection) == 0 {
				p.fail(t, "expected variable or expression in SELECT, found %s", t)
			}
			return
		}
	}
}

func (p *parser) parseDatasetClauses() {
	for p.accept("FROM") {
		p.accept("NAMED")
		p.parseIRI()
	}
}

func (p *parser) parseWhere(q *Query, required bool) {
	hasWhere := p.accept("WHERE")
	if !hasWhere && !required && !p.peek().is("{") {
		return
	}
	q.Where = p.parseGroup()
}

func (p *parser) parseConstruct(q *Query) {
	p.expect("CONSTRUCT")
	q.Form = FormConstruct

	if p.peek().is("{") {
		p.next()
		saved := p.bnodeVars
		p.bnodeVars = false
		q.Template = p.parseTriplesTemplate("}")
		p.bnodeVars = saved
		p.expect("}")
		p.parseDatasetClauses()
		p.parseWhere(q, true)
		p.parseSolutionModifier(q)
		return
	}

	// CONSTRUCT WHERE { triples }
	p.parseDatasetClauses()
	p.expect("WHERE")
	p.expect("{")
	triples := p.parseTriplesTemplate("}")
	p.expect("}")
	q.Template = triples
	q.Where = &Group{Elements: []Element{&BGPElement{Triples: triples}}}
	p.parseSolutionModifier(q)
}

func (p *parser) parseDescribe(q *Query) {
	p.expect("DESCRIBE")
	q.Form = FormDescribe
	if p.accept("*") {
		q.Star = true
	} else {
		for {
			t := p.peek()
			if t.kind == tokVar {
				p.next()
				q.Describe = append(q.Describe, Var(t.val))
			} else if t.kind == tokIRI || t.kind == tokPName {
				q.Describe = append(q.Describe, p.parseIRI())
			} else {
				break
			}
		}
		if len(q.Describe) == 0 {
			p.fail(p.peek(), "expected variable or IRI in DESCRIBE, found %s", p.peek())
		}
	}
	p.parseDatasetClauses()
	p.parseWhere(q, false)
	p.parseSolutionModifier(q)
}

func (p *parser) parseSubSelect() *Query {
	q := &Query{Limit: -1}
	p.parseSelectClause(q)
	p.parseWhere(q, true)
	p.parseSolutionModifier(q)
	if p.accept("VALUES") {
		q.Values = p.parseDataBlock()
	}
	return q
}

func (p *parser) parseSolutionModifier(q *Query) {
	if p.accept("GROUP") {
		p.expect("BY")
		for {
			t := p.peek()
			switch {
			case t.kind == tokVar:
				p.next()
				q.GroupBy = append(q.GroupBy, GroupCond{Expr: &VarExpr{Name: t.val}})
				continue
			case t.is("("):
				p.next()
				e := p.parseExpr()
				var as string
				if p.accept("AS") {
					as = p.expectVar()
				}
				p.expect(")")
				q.GroupBy = append(q.GroupBy, GroupCond{Expr: e, As: as})
				continue
			case p.startsCall():
				q.GroupBy = append(q.GroupBy, GroupCond{Expr: p.parsePrimary()})
				continue
			}
			if len(q.GroupBy) == 0 {
				p.fail(t, "expected GROUP BY condition, found %s", t)
			}
			break
		}
	}

	if p.accept("HAVING") {
		for p.peek().is("(") || p.startsCall() {
			q.Having = append(q.Having, p.parseConstraint())
		}
		if len(q.Having) == 0 {
			p.fail(p.peek(), "expected HAVING condition, found %s", p.peek())
		}
	}

	if p.accept("ORDER") {
		p.expect("BY")
		for {
			t := p.peek()
			switch {
			case t.is("ASC") || t.is("DESC"):
				p.next()
				p.expect("(")
				e := p.parseExpr()
				p.expect(")")
				q.OrderBy = append(q.OrderBy, OrderCond{Expr: e, Desc: t.is("DESC")})
				continue
			case t.kind == tokVar:
				p.next()
				q.OrderBy = append(q.OrderBy, OrderCond{Expr: &VarExpr{Name: t.val}})
				continue
			case t.is("(") || p.startsCall():
				q.OrderBy = append(q.OrderBy, OrderCond{Expr: p.parseConstraint()})
				continue
			}
			if len(q.OrderBy) == 0 {
				p.fail(t, "expected ORDER BY condition, found %s", t)
			}
			break
		}
	}

	for i := 0; i < 2; i++ {
		switch {
		case p.accept("LIMIT"):
			q.Limit = p.expectInteger()
		case p.accept("OFFSET"):
			q.Offset = p.expectInteger()
		}
	}
}

func (p *parser) expectInteger() int {
	t := p.peek()
	if t.kind != tokInteger {
		p.fail(t, "expected integer, found %s", t)
	}
	p.next()
	n, err := strconv.Atoi(t.val)
	if err != nil {
		p.fail(t, "invalid integer %s", t.val)
	}
	return n
}

// startsCall reports whether the next token begins a builtin or function call.
func (p *parser) startsCall() bool {
	t := p.peek()
	switch t.kind {
	case tokWord:
		_, ok := builtinArity[strings.ToUpper(t.val)]
		return ok || isAggregate(t.val) || t.is("NOT") || t.is("EXISTS")
	case tokIRI, tokPName:
		return p.peekN(1).is("(")
	}
	return false
}

func (p *parser) parseConstraint() Expr {
	if p.accept("(") {
		e := p.parseExpr()
		p.expect(")")
		return e
	}
	if !p.startsCall() {
		p.fail(p.peek(), "expected constraint, found %s", p.peek())
	}
	return p.parsePrimary()
}

// ---------------------------------------------------------------------------
// Group graph patterns

func (p *parser) parseGroup() *Group {
	p.expect("{")
	g := &Group{}
	if p.peek().is("SELECT") {
		g.Elements = append(g.Elements, &SubSelectElement{Query: p.parseSubSelect()})
		p.expect("}")
		return g
	}

	for {
		t := p.peek()
		switch {
		case t.is("}"):
			p.next()
			return g
		case t.kind == tokEOF:
			p.fail(t, "expected \"}\", found end of input")
		case t.is("."):
			p.next()
		case t.is("OPTIONAL"):
			p.next()
			g.Elements = append(g.Elements, &OptionalElement{Group: p.parseGroup()})
		case t.is("MINUS"):
			p.next()
			g.Elements = append(g.Elements, &MinusElement{Group: p.parseGroup()})
		case t.is("GRAPH"):
			p.next()
			name := p.parseVarOrIRI()
			g.Elements = append(g.Elements, &GraphElement{Name: name, Group: p.parseGroup()})
		case t.is("SERVICE"):
			p.next()
			silent := p.accept("SILENT")
			name := p.parseVarOrIRI()
			g.Elements = append(g.Elements, &ServiceElement{Silent: silent, Name: name, Group: p.parseGroup()})
		case t.is("FILTER"):
			p.next()
			g.Elements = append(g.Elements, &FilterElement{Expr: p.parseConstraint()})
		case t.is("BIND"):
			p.next()
			p.expect("(")
			e := p.parseExpr()
			p.expect("AS")
			v := p.expectVar()
			p.expect(")")
			g.Elements = append(g.Elements, &BindElement{Expr: e, Var: v})
		case t.is("VALUES"):
			p.next()
			g.Elements = append(g.Elements, &ValuesElement{Values: p.parseDataBlock()})
		case t.is("{"):
			alts := []*Group{p.parseGroup()}
			for p.accept("UNION") {
				alts = append(alts, p.parseGroup())
			}
			g.Elements = append(g.Elements, &UnionElement{Alts: alts})
		default:
			var triples []TriplePattern
			p.parseTriplesSameSubject(&triples)
			if n := len(g.Elements); n > 0 {
				if bgp, ok := g.Elements[n-1].(*BGPElement); ok {
					bgp.Triples = append(bgp.Triples, triples...)
					continue
				}
			}
			g.Elements = append(g.Elements, &BGPElement{Triples: triples})
		}
	}
}

func (p *parser) parseDataBlock() *Values {
	v := &Values{}
	t := p.peek()
	if t.kind == tokVar {
		p.next()
		v.Vars = []string{t.val}
		p.expect("{")
		for !p.accept("}") {
			v.Rows = append(v.Rows, []Node{p.parseDataValue()})
		}
		return v
	}

	p.expect("(")
	for !p.accept(")") {
		v.Vars = append(v.Vars, p.expectVar())
	}
	p.expect("{")
	for !p.accept("}") {
		p.expect("(")
		var row []Node
		for !p.accept(")") {
			row = append(row, p.parseDataValue())
		}
		if len(row) != len(v.Vars) {
			p.fail(p.peek(), "VALUES row has %d values, want %d", len(row), len(v.Vars))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func (p *parser) parseDataValue() Node {
	t := p.peek()
	if t.is("UNDEF") {
		p.next()
		return nil
	}
	switch t.kind {
	case tokIRI, tokPName:
		return p.parseIRI()
	case tokString, tokInteger, tokDecimal, tokDouble:
		return p.parseLiteral()
	case tokWord:
		if t.is("true") || t.is("false") {
			return p.parseLiteral()
		}
	case tokPunct:
		if (t.is("-") || t.is("+")) && isNumberTok(p.peekN(1)) {
			return p.parseLiteral()
		}
	}
	p.fail(t, "expected data value, found %s", t)
	return nil
}

// ---------------------------------------------------------------------------
// Triples

// parseTriplesTemplate parses triples up to (not including) the closing token.
func (p *parser) parseTriplesTemplate(closing string) []TriplePattern {
	var out []TriplePattern
	for !p.peek().is(closing) {
		if p.accept(".") {
			continue
		}
		if p.peek().kind == tokEOF {
			p.fail(p.peek(), "expected %q, found end of input", closing)
		}
		p.parseTriplesSameSubject(&out)
	}
	for _, tp := range out {
		if _, ok := tp.P.(*LinkPath); !ok {
			p.fail(p.peek(), "property paths are not allowed in templates")
		}
	}
	return out
}

func (p *parser) parseTriplesSameSubject(out *[]TriplePattern) {
	t := p.peek()
	if t.is("[") || (t.is("(") && !p.peekN(1).is(")")) {
		subj := p.parseTriplesNode(out)
		if p.startsVerb() {
			p.parsePropertyList(subj, out)
		}
		return
	}
	subj := p.parseVarOrTerm()
	p.parsePropertyList(subj, out)
}

func (p *parser) startsVerb() bool {
	t := p.peek()
	switch t.kind {
	case tokVar, tokIRI, tokPName:
		return true
	case tokWord:
		return t.val == "a"
	case tokPunct:
		return t.is("^") || t.is("!") || t.is("(")
	}
	return false
}

func (p *parser) parsePropertyList(subj Node, out *[]TriplePattern) {
	for {
		var verb Path
		if t := p.peek(); t.kind == tokVar {
			p.next()
			verb = &LinkPath{Pred: Var(t.val)}
		} else {
			verb = p.parsePath()
		}

		for {
			var nested []TriplePattern
			obj := p.parseGraphNode(&nested)
			*out = append(*out, TriplePattern{S: subj, P: verb, O: obj})
			*out = append(*out, nested...)
			if !p.accept(",") {
				break
			}
		}

		if !p.accept(";") {
			return
		}
		for p.accept(";") {
		}
		if !p.startsVerb() {
			return
		}
	}
}

func (p *parser) parseGraphNode(out *[]TriplePattern) Node {
	t := p.peek()
	if t.is("[") || (t.is("(") && !p.peekN(1).is(")")) {
		return p.parseTriplesNode(out)
	}
	return p.parseVarOrTerm()
}

// parseTriplesNode parses [ ... ] or ( ... ) and returns the node standing
// for it.
func (p *parser) parseTriplesNode(out *[]TriplePattern) Node {
	if p.accept("[") {
		node := p.freshBlank()
		if !p.peek().is("]") {
			p.parsePropertyList(node, out)
		}
		p.expect("]")
		return node
	}

	p.expect("(")
	var items []Node
	for !p.accept(")") {
		if p.peek().kind == tokEOF {
			p.fail(p.peek(), "unterminated collection")
		}
		items = append(items, p.parseGraphNode(out))
	}
	head := p.freshBlank()
	cur := head
	for i, item := range items {
		*out = append(*out, TriplePattern{S: cur, P: &LinkPath{Pred: IRIRef(rdf.RDFFirst)}, O: item})
		var next Node = IRIRef(rdf.RDFNil)
		if i < len(items)-1 {
			next = p.freshBlank()
		}
		*out = append(*out, TriplePattern{S: cur, P: &LinkPath{Pred: IRIRef(rdf.RDFRest)}, O: next})
		cur = next
	}
	return head
}

func (p *parser) freshBlank() Node {
	p.anon++
	label := "#" + strconv.Itoa(p.anon)
	if p.bnodeVars {
		return Var("_:" + label)
	}
	return BNode(label)
}

func (p *parser) blank(label string) Node {
	if p.bnodeVars {
		return Var("_:" + label)
	}
	return BNode(label)
}

func (p *parser) parseVarOrTerm() Node {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.next()
		return Var(t.val)
	case tokIRI, tokPName:
		return p.parseIRI()
	case tokBlank:
		p.next()
		return p.blank(t.val)
	case tokString, tokInteger, tokDecimal, tokDouble:
		return p.parseLiteral()
	case tokWord:
		if t.is("true") || t.is("false") {
			return p.parseLiteral()
		}
	case tokPunct:
		switch {
		case t.is("[") && p.peekN(1).is("]"):
			p.next()
			p.next()
			return p.freshBlank()
		case t.is("(") && p.peekN(1).is(")"):
			p.next()
			p.next()
			return IRIRef(rdf.RDFNil)
		case (t.is("-") || t.is("+")) && isNumberTok(p.peekN(1)):
			return p.parseLiteral()
		}
	}
	p.fail(t, "expected term, found %s", t)
	return nil
}

func (p *parser) parseVarOrIRI() Node {
	t := p.peek()
	if t.kind == tokVar {
		p.next()
		return Var(t.val)
	}
	return p.parseIRI()
}

func (p *parser) parseIRI() Node {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return IRIRef(t.val)
	case tokPName:
		prefix, local, _ := strings.Cut(t.val, ":")
		return PName{Prefix: prefix, Local: local}
	}
	p.fail(t, "expected IRI, found %s", t)
	return nil
}

func isNumberTok(t token) bool {
	return t.kind == tokInteger || t.kind == tokDecimal || t.kind == tokDouble
}

func (p *parser) parseLiteral() Node {
	t := p.next()
	switch t.kind {
	case tokString:
		lit := &LiteralNode{Lexical: t.val}
		if nt := p.peek(); nt.kind == tokLang {
			p.next()
			lit.Lang = strings.ToLower(nt.val)
		} else if p.accept("^^") {
			lit.Datatype = p.parseIRI()
		}
		return lit
	case tokInteger:
		return &LiteralNode{Lexical: t.val, Datatype: IRIRef(rdf.XSDInteger)}
	case tokDecimal:
		return &LiteralNode{Lexical: t.val, Datatype: IRIRef(rdf.XSDDecimal)}
	case tokDouble:
		return &LiteralNode{Lexical: t.val, Datatype: IRIRef(rdf.XSDDouble)}
	case tokWord:
		return &LiteralNode{Lexical: strings.ToLower(t.val), Datatype: IRIRef(rdf.XSDBoolean)}
	case tokPunct:
		if lit, ok := p.parseLiteral().(*LiteralNode); ok && t.val == "-" {
			lit.Lexical = "-" + lit.Lexical
			return lit
		} else if ok {
			return lit
		}
	}
	p.fail(t, "expected literal, found %s", t)
	return nil
}

// ---------------------------------------------------------------------------
// Property paths

func (p *parser) parsePath() Path {
	alts := []Path{p.parsePathSeq()}
	for p.accept("|") {
		alts = append(alts, p.parsePathSeq())
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return &AltPath{Alts: alts}
}

func (p *parser) parsePathSeq() Path {
	parts := []Path{p.parsePathEltOrInverse()}
	for p.accept("/") {
		parts = append(parts, p.parsePathEltOrInverse())
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return &SeqPath{Parts: parts}
}

func (p *parser) parsePathEltOrInverse() Path {
	if p.accept("^") {
		return &InversePath{Path: p.parsePathElt()}
	}
	return p.parsePathElt()
}

func (p *parser) parsePathElt() Path {
	prim := p.parsePathPrimary()
	t := p.peek()
	if t.kind == tokPunct && (t.val == "*" || t.val == "+" || t.val == "?") {
		p.next()
		return &ModPath{Path: prim, Mod: t.val[0]}
	}
	return prim
}

func (p *parser) parsePathPrimary() Path {
	t := p.peek()
	switch {
	case t.kind == tokWord && t.val == "a":
		p.next()
		return &LinkPath{Pred: IRIRef(rdf.RDFType)}
	case t.kind == tokIRI || t.kind == tokPName:
		return &LinkPath{Pred: p.parseIRI()}
	case t.is("("):
		p.next()
		path := p.parsePath()
		p.expect(")")
		return path
	case t.is("!"):
		p.next()
		neg := &NegatedPath{}
		if p.accept("(") {
			if !p.peek().is(")") {
				p.parseNegatedOne(neg)
				for p.accept("|") {
					p.parseNegatedOne(neg)
				}
			}
			p.expect(")")
		} else {
			p.parseNegatedOne(neg)
		}
		return neg
	}
	p.fail(t, "expected predicate, found %s", t)
	return nil
}

func (p *parser) parseNegatedOne(neg *NegatedPath) {
	inverse := p.accept("^")
	var n Node
	if t := p.peek(); t.kind == tokWord && t.val == "a" {
		p.next()
		n = IRIRef(rdf.RDFType)
	} else {
		n = p.parseIRI()
	}
	if inverse {
		neg.Inverse = append(neg.Inverse, n)
	} else {
		neg.Forward = append(neg.Forward, n)
	}
}

// ---------------------------------------------------------------------------
// Expressions

func (p *parser) parseExpr() Expr {
	l := p.parseAnd()
	for p.accept("||") {
		l = &BinaryExpr{Op: "||", L: l, R: p.parseAnd()}
	}
	return l
}

func (p *parser) parseAnd() Expr {
	l := p.parseRelational()
	for p.accept("&&") {
		l = &BinaryExpr{Op: "&&", L: l, R: p.parseRelational()}
	}
	return l
}

func (p *parser) parseRelational() Expr {
	l := p.parseAdditive()
	t := p.peek()
	switch {
	case t.kind == tokPunct && (t.val == "=" || t.val == "!=" || t.val == "<" || t.val == ">" || t.val == "<=" || t.val == ">="):
		p.next()
		return &BinaryExpr{Op: t.val, L: l, R: p.parseAdditive()}
	case t.is("IN"):
		p.next()
		return &InExpr{X: l, List: p.parseExprList()}
	case t.is("NOT") && p.peekN(1).is("IN"):
		p.next()
		p.next()
		return &InExpr{X: l, List: p.parseExprList(), Not: true}
	}
	return l
}

func (p *parser) parseExprList() []Expr {
	p.expect("(")
	var list []Expr
	if p.accept(")") {
		return list
	}
	list = append(list, p.parseExpr())
	for p.accept(",") {
		list = append(list, p.parseExpr())
	}
	p.expect(")")
	return list
}

func (p *parser) parseAdditive() Expr {
	l := p.parseMultiplicative()
	for {
		t := p.peek()
		if !t.is("+") && !t.is("-") {
			return l
		}
		p.next()
		l = &BinaryExpr{Op: t.val, L: l, R: p.parseMultiplicative()}
	}
}

func (p *parser) parseMultiplicative() Expr {
	l := p.parseUnary()
	for {
		t := p.peek()
		if !t.is("*") && !t.is("/") {
			return l
		}
		p.next()
		l = &BinaryExpr{Op: t.val, L: l, R: p.parseUnary()}
	}
}

func (p *parser) parseUnary() Expr {
	t := p.peek()
	if t.is("!") || t.is("-") || t.is("+") {
		p.next()
		return &UnaryExpr{Op: t.val, X: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() Expr {
	t := p.peek()
	switch t.kind {
	case tokPunct:
		if t.is("(") {
			p.next()
			e := p.parseExpr()
			p.expect(")")
			return e
		}
	case tokVar:
		p.next()
		return &VarExpr{Name: t.val}
	case tokString, tokInteger, tokDecimal, tokDouble:
		return &ConstExpr{Node: p.parseLiteral()}
	case tokIRI, tokPName:
		iri := p.parseIRI()
		if p.peek().is("(") {
			return &CallExpr{Func: iri, Args: p.parseArgList()}
		}
		return &ConstExpr{Node: iri}
	case tokWord:
		if t.is("true") || t.is("false") {
			return &ConstExpr{Node: p.parseLiteral()}
		}
		return p.parseBuiltin()
	}
	p.fail(t, "expected expression, found %s", t)
	return nil
}

func (p *parser) parseArgList() []Expr {
	p.expect("(")
	p.accept("DISTINCT")
	var args []Expr
	if p.accept(")") {
		return args
	}
	args = append(args, p.parseExpr())
	for p.accept(",") {
		args = append(args, p.parseExpr())
	}
	p.expect(")")
	return args
}

// builtinArity lists the builtin functions with their minimum and maximum
// argument counts (-1 for unbounded).
var builtinArity = map[string][2]int{
	"STR": {1, 1}, "LANG": {1, 1}, "LANGMATCHES": {2, 2}, "DATATYPE": {1, 1},
	"BOUND": {1, 1}, "IRI": {1, 1}, "URI": {1, 1}, "BNODE": {0, 1},
	"RAND": {0, 0}, "ABS": {1, 1}, "CEIL": {1, 1}, "FLOOR": {1, 1}, "ROUND": {1, 1},
	"CONCAT": {0, -1}, "STRLEN": {1, 1}, "UCASE": {1, 1}, "LCASE": {1, 1},
	"ENCODE_FOR_URI": {1, 1}, "CONTAINS": {2, 2}, "STRSTARTS": {2, 2}, "STRENDS": {2, 2},
	"STRBEFORE": {2, 2}, "STRAFTER": {2, 2}, "YEAR": {1, 1}, "MONTH": {1, 1}, "DAY": {1, 1},
	"HOURS": {1, 1}, "MINUTES": {1, 1}, "SECONDS": {1, 1}, "TIMEZONE": {1, 1}, "TZ": {1, 1},
	"NOW": {0, 0}, "UUID": {0, 0}, "STRUUID": {0, 0}, "MD5": {1, 1}, "SHA1": {1, 1},
	"SHA256": {1, 1}, "SHA384": {1, 1}, "SHA512": {1, 1}, "COALESCE": {0, -1}, "IF": {3, 3},
	"STRLANG": {2, 2}, "STRDT": {2, 2}, "SAMETERM": {2, 2}, "ISIRI": {1, 1}, "ISURI": {1, 1},
	"ISBLANK": {1, 1}, "ISLITERAL": {1, 1}, "ISNUMERIC": {1, 1}, "REGEX": {2, 3},
	"SUBSTR": {2, 3}, "REPLACE": {3, 4},
}

var aggregates = map[string]bool{
	"COUNT": true, "SUM": true, "MIN": true, "MAX": true, "AVG": true, "SAMPLE": true, "GROUP_CONCAT": true,
}

func isAggregate(name string) bool { return aggregates[strings.ToUpper(name)] }

func (p *parser) parseBuiltin() Expr {
	t := p.next()
	name := strings.ToUpper(t.val)

	switch {
	case name == "EXISTS":
		return &ExistsExpr{Group: p.parseGroup()}
	case name == "NOT":
		p.expect("EXISTS")
		return &ExistsExpr{Group: p.parseGroup(), Not: true}
	case aggregates[name]:
		return p.parseAggregate(name)
	}

	arity, ok := builtinArity[name]
	if !ok {
		p.fail(t, "unknown function %s", t.val)
	}
	if name == "BOUND" {
		p.expect("(")
		v := p.expectVar()
		p.expect(")")
		return &CallExpr{Name: name, Args: []Expr{&VarExpr{Name: v}}}
	}

	p.expect("(")
	var args []Expr
	if !p.peek().is(")") {
		args = append(args, p.parseExpr())
		for p.accept(",") {
			args = append(args, p.parseExpr())
		}
	}
	p.expect(")")
	if len(args) < arity[0] || (arity[1] >= 0 && len(args) > arity[1]) {
		p.fail(t, "wrong number of arguments to %s", name)
	}
	return &CallExpr{Name: name, Args: args}
}

func (p *parser) parseAggregate(name string) Expr {
	p.expect("(")
	agg := &AggregateExpr{Name: name, Separator: " "}
	agg.Distinct = p.accept("DISTINCT")
	if name == "COUNT" && p.accept("*") {
		agg.Star = true
	} else {
		agg.Arg = p.parseExpr()
	}
	if name == "GROUP_CONCAT" && p.accept(";") {
		p.expect("SEPARATOR")
		p.expect("=")
		t := p.peek()
		if t.kind != tokString {
			p.fail(t, "expected string, found %s", t)
		}
		p.next()
		agg.Separator = t.val
	}
	p.expect(")")
	return agg
}
