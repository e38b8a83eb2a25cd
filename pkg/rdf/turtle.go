package rdf

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// localNameRegex is a conservative PN_LOCAL: names that fail it are written
// as full IRIs.
var localNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]([A-Za-z0-9_.-]*[A-Za-z0-9_-])?$`)

var (
	integerLexical = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalLexical = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
)

// WriteTurtle writes g as Turtle in a spacious layout: one block per subject,
// one predicate per line, with a blank line between blocks. Only prefixes
// that are used are declared. When ns is nil the graph's namespaces are used.
func WriteTurtle(w io.Writer, g *Graph, ns *Namespaces) error {
	if ns == nil {
		ns = g.ns
	}
	tw := &turtleWriter{ns: ns, used: make(map[string]bool)}

	var body strings.Builder
	for _, s := range g.Subjects() {
		triples := g.Match(s, nil, nil)
		body.WriteString(tw.term(s, false))
		body.WriteString("\n")

		// Group objects by predicate, preserving first-seen order.
		var preds []Term
		objects := make(map[Term][]Term)
		for _, t := range triples {
			if _, ok := objects[t.P]; !ok {
				preds = append(preds, t.P)
			}
			objects[t.P] = append(objects[t.P], t.O)
		}
		for i, p := range preds {
			body.WriteString("    ")
			body.WriteString(tw.term(p, true))
			for j, o := range objects[p] {
				if j > 0 {
					body.WriteString(" ,\n        ")
				} else {
					body.WriteString(" ")
				}
				body.WriteString(tw.term(o, false))
			}
			if i < len(preds)-1 {
				body.WriteString(" ;\n")
			} else {
				body.WriteString(" .\n\n")
			}
		}
	}

	bw := bufio.NewWriter(w)
	for _, prefix := range ns.Prefixes() {
		if !tw.used[prefix] {
			continue
		}
		namespace, _ := ns.Namespace(prefix)
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefix, namespace)
	}
	if len(tw.used) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString(body.String())
	return bw.Flush()
}

type turtleWriter struct {
	ns   *Namespaces
	used map[string]bool
}

func (tw *turtleWriter) term(t Term, predicate bool) string {
	switch v := t.(type) {
	case IRI:
		if predicate && v == RDFType {
			return "a"
		}
		return tw.iri(v)
	case Literal:
		return tw.literal(v)
	}
	return t.N3()
}

func (tw *turtleWriter) iri(i IRI) string {
	prefix, local, ok := tw.ns.Compact(i)
	if !ok || (local != "" && !localNameRegex.MatchString(local)) {
		return i.N3()
	}
	tw.used[prefix] = true
	return prefix + ":" + local
}

func (tw *turtleWriter) literal(l Literal) string {
	switch {
	case l.Lang != "" || l.Datatype == "":
		return l.N3()
	case l.Datatype == XSDInteger && integerLexical.MatchString(l.Lexical):
		return l.Lexical
	case l.Datatype == XSDDecimal && decimalLexical.MatchString(l.Lexical):
		return l.Lexical
	case l.Datatype == XSDBoolean && (l.Lexical == "true" || l.Lexical == "false"):
		return l.Lexical
	}
	return `"` + EscapeString(l.Lexical) + `"^^` + tw.iri(l.Datatype)
}
