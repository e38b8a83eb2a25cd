package sparql

import (
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// Exec applies the operations of u to g in order. The request is atomic:
// when any operation fails g is left as it was. Only the default graph
// exists: inserting into a named graph is unsupported, and WHERE clauses
// scoped to named graphs with WITH or USING match nothing.
func Exec(g *rdf.Graph, u *Update) error {
	work := g.Clone()
	if err := execAll(work, u); err != nil {
		return err
	}
	g.Clear()
	g.AddAll(work.Triples())
	return nil
}

func execAll(g *rdf.Graph, u *Update) (err error) {
	ev := newEvaluator(g, &u.Prologue)
	defer recoverEval(&err)
	for _, op := range u.Operations {
		ev.exec(op)
	}
	return nil
}

func (ev *evaluator) exec(op Operation) {
	switch op := op.(type) {
	case *InsertData:
		bnodes := make(map[string]rdf.BlankNode)
		for _, q := range op.Quads {
			if q.Graph != nil {
				ev.fail(errors.ErrCodeUnsupported, "named graphs are not supported")
			}
			if t, ok := ev.instantiate(q.TriplePattern, nil, bnodes); ok {
				ev.g.Add(t)
			}
		}

	case *DeleteData:
		for _, q := range op.Quads {
			if q.Graph != nil {
				continue
			}
			if hasBlank(q.TriplePattern) {
				ev.fail(errors.ErrCodeInvalidQuery, "blank nodes are not allowed in DELETE DATA")
			}
			if t, ok := ev.instantiate(q.TriplePattern, nil, nil); ok {
				ev.g.Remove(t)
			}
		}

	case *DeleteWhere:
		var patterns []TriplePattern
		for _, q := range op.Quads {
			if q.Graph == nil {
				patterns = append(patterns, q.TriplePattern)
			}
		}
		if len(patterns) < len(op.Quads) {
			return
		}
		var del []rdf.Triple
		for _, s := range ev.evalBGP(patterns, []Solution{{}}) {
			for _, tp := range patterns {
				if t, ok := ev.instantiate(tp, s, nil); ok {
					del = append(del, t)
				}
			}
		}
		ev.g.RemoveAll(del)

	case *Modify:
		if op.With != nil || len(op.Using) > 0 {
			return
		}
		var del, ins []rdf.Triple
		for _, s := range ev.evalGroup(op.Where, []Solution{{}}) {
			for _, q := range op.Delete {
				if q.Graph != nil {
					continue
				}
				if t, ok := ev.instantiate(q.TriplePattern, s, make(map[string]rdf.BlankNode)); ok {
					del = append(del, t)
				}
			}
			bnodes := make(map[string]rdf.BlankNode)
			for _, q := range op.Insert {
				if q.Graph != nil {
					ev.fail(errors.ErrCodeUnsupported, "named graphs are not supported")
				}
				if t, ok := ev.instantiate(q.TriplePattern, s, bnodes); ok {
					ins = append(ins, t)
				}
			}
		}
		ev.g.RemoveAll(del)
		ev.g.AddAll(ins)

	case *GraphManagement:
		ev.manage(op)
	}
}

func (ev *evaluator) manage(op *GraphManagement) {
	switch op.Op {
	case "CLEAR", "DROP":
		switch op.Target {
		case "DEFAULT", "ALL":
			ev.g.Clear()
		case "GRAPH":
			if !op.Silent {
				ev.fail(errors.ErrCodeNotFound, "graph %v does not exist", ev.term(op.Graph))
			}
		}
	case "ADD", "MOVE", "COPY":
		if op.Source == nil && op.Dest == nil {
			return
		}
		if !op.Silent {
			ev.fail(errors.ErrCodeUnsupported, "%s between named graphs is not supported", op.Op)
		}
	default:
		if !op.Silent {
			ev.fail(errors.ErrCodeUnsupported, "%s is not supported", op.Op)
		}
	}
}

func hasBlank(tp TriplePattern) bool {
	for _, n := range []Node{tp.S, tp.O} {
		if _, ok := n.(BNode); ok {
			return true
		}
	}
	return false
}
