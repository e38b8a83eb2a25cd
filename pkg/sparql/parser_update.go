package sparql

import "strings"

func (p *parser) parseUpdate() *Update {
	u := &Update{}
	for {
		p.parsePrologue(&u.Prologue)
		if p.peek().kind == tokEOF {
			break
		}
		u.Operations = append(u.Operations, p.parseOperation())
		if !p.accept(";") {
			break
		}
	}
	p.expectEOF()
	return u
}

func (p *parser) parseOperation() Operation {
	t := p.next()
	switch {
	case t.is("LOAD"):
		op := &GraphManagement{Op: "LOAD", Silent: p.accept("SILENT")}
		op.Source = p.parseIRI()
		if p.accept("INTO") {
			p.expect("GRAPH")
			op.Dest = p.parseIRI()
		}
		return op

	case t.is("CLEAR"), t.is("DROP"):
		op := &GraphManagement{Op: strings.ToUpper(t.val), Silent: p.accept("SILENT")}
		switch {
		case p.accept("DEFAULT"):
			op.Target = "DEFAULT"
		case p.accept("NAMED"):
			op.Target = "NAMED"
		case p.accept("ALL"):
			op.Target = "ALL"
		default:
			p.expect("GRAPH")
			op.Target = "GRAPH"
			op.Graph = p.parseIRI()
		}
		return op

	case t.is("CREATE"):
		op := &GraphManagement{Op: "CREATE", Silent: p.accept("SILENT"), Target: "GRAPH"}
		p.expect("GRAPH")
		op.Graph = p.parseIRI()
		return op

	case t.is("ADD"), t.is("MOVE"), t.is("COPY"):
		op := &GraphManagement{Op: strings.ToUpper(t.val), Silent: p.accept("SILENT")}
		op.Source = p.parseGraphOrDefault()
		p.expect("TO")
		op.Dest = p.parseGraphOrDefault()
		return op

	case t.is("INSERT"):
		if p.accept("DATA") {
			return &InsertData{Quads: p.parseQuadData()}
		}
		m := &Modify{Insert: p.parseQuadPattern(false)}
		p.parseModifyTail(m)
		return m

	case t.is("DELETE"):
		if p.accept("DATA") {
			return &DeleteData{Quads: p.parseQuadData()}
		}
		if p.accept("WHERE") {
			return &DeleteWhere{Quads: p.parseQuadPattern(true)}
		}
		m := &Modify{Delete: p.parseQuadPattern(false)}
		if p.accept("INSERT") {
			m.Insert = p.parseQuadPattern(false)
		}
		p.parseModifyTail(m)
		return m

	case t.is("WITH"):
		m := &Modify{With: p.parseIRI()}
		switch {
		case p.accept("DELETE"):
			m.Delete = p.parseQuadPattern(false)
			if p.accept("INSERT") {
				m.Insert = p.parseQuadPattern(false)
			}
		case p.accept("INSERT"):
			m.Insert = p.parseQuadPattern(false)
		default:
			p.fail(p.peek(), "expected DELETE or INSERT, found %s", p.peek())
		}
		p.parseModifyTail(m)
		return m
	}
	p.fail(t, "expected update operation, found %s", t)
	return nil
}

// parseGraphOrDefault returns nil for DEFAULT.
func (p *parser) parseGraphOrDefault() Node {
	if p.accept("DEFAULT") {
		return nil
	}
	p.accept("GRAPH")
	return p.parseIRI()
}

func (p *parser) parseModifyTail(m *Modify) {
	for p.accept("USING") {
		p.accept("NAMED")
		m.Using = append(m.Using, p.parseIRI())
	}
	p.expect("WHERE")
	m.Where = p.parseGroup()
}

// parseQuadData parses the block of INSERT DATA or DELETE DATA; variables
// are not allowed there.
func (p *parser) parseQuadData() []Quad {
	start := p.peek()
	quads := p.parseQuadPattern(false)
	for _, q := range quads {
		for _, n := range []Node{q.S, q.P.(*LinkPath).Pred, q.O, q.Graph} {
			if _, ok := n.(Var); ok {
				p.fail(start, "variables are not allowed in quad data")
			}
		}
	}
	return quads
}

// parseQuadPattern parses { triples GRAPH g { triples } ... }. Blank nodes
// become variables when asVars is set, as in DELETE WHERE.
func (p *parser) parseQuadPattern(asVars bool) []Quad {
	saved := p.bnodeVars
	p.bnodeVars = asVars
	defer func() { p.bnodeVars = saved }()

	p.expect("{")
	var quads []Quad
	for !p.accept("}") {
		if p.accept("GRAPH") {
			name := p.parseVarOrIRI()
			p.expect("{")
			for _, tp := range p.parseTriplesTemplate("}") {
				quads = append(quads, Quad{TriplePattern: tp, Graph: name})
			}
			p.expect("}")
			continue
		}
		if p.accept(".") {
			continue
		}
		var triples []TriplePattern
		p.parseTriplesSameSubject(&triples)
		for _, tp := range triples {
			if _, ok := tp.P.(*LinkPath); !ok {
				p.fail(p.peek(), "property paths are not allowed in templates")
			}
			quads = append(quads, Quad{TriplePattern: tp})
		}
	}
	return quads
}
