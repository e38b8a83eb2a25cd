package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Namespaces shortens IRIs in labels. Nil uses the graph's namespaces.
	Namespaces *rdf.Namespaces

	// InlineLiterals folds literal-valued properties into the subject's
	// label instead of drawing each literal as its own node.
	InlineLiterals bool

	// LeftToRight lays the diagram out horizontally.
	LeftToRight bool
}

// ToDOT converts an RDF graph to Graphviz DOT format. Subjects and
// resource objects become nodes and each triple becomes an edge labelled
// with its predicate. The resulting DOT string can be rendered using
// [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Blank nodes are drawn with dashed outlines and grey fill; literals are
// drawn as plain boxes.
func ToDOT(g *rdf.Graph, opts Options) string {
	ns := opts.Namespaces
	if ns == nil {
		ns = g.Namespaces()
	}
	rankdir := "TB"
	if opts.LeftToRight {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	type node struct {
		term    rdf.Term
		inlined []string
	}
	var order []string
	nodes := make(map[string]*node)
	addNode := func(t rdf.Term) *node {
		id := t.N3()
		if n, ok := nodes[id]; ok {
			return n
		}
		n := &node{term: t}
		nodes[id] = n
		order = append(order, id)
		return n
	}

	var edges []string
	literals := 0
	for _, t := range g.Triples() {
		s := addNode(t.S)
		pred := shorten(ns, t.P)
		lit, isLit := t.O.(rdf.Literal)
		switch {
		case isLit && opts.InlineLiterals:
			s.inlined = append(s.inlined, fmt.Sprintf("%s: %s", pred, literalLabel(ns, lit)))
		case isLit:
			// Each literal occurrence gets its own node.
			literals++
			id := fmt.Sprintf("lit%d", literals)
			fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(literalAttrs(literalLabel(ns, lit)), ", "))
			edges = append(edges, fmt.Sprintf("  %q -> %q [label=%q];\n", t.S.N3(), id, pred))
		default:
			addNode(t.O)
			edges = append(edges, fmt.Sprintf("  %q -> %q [label=%q];\n", t.S.N3(), t.O.N3(), pred))
		}
	}

	for _, id := range order {
		n := nodes[id]
		label := fmtLabel(ns, n.term, n.inlined)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(n.term, label), ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func shorten(ns *rdf.Namespaces, t rdf.Term) string {
	iri, ok := t.(rdf.IRI)
	if !ok {
		return t.String()
	}
	if prefix, local, ok := ns.Compact(iri); ok {
		return prefix + ":" + local
	}
	return string(iri)
}

func literalLabel(ns *rdf.Namespaces, l rdf.Literal) string {
	switch {
	case l.Lang != "":
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	case l.Datatype != "" && !rdf.IsNumericType(l.Datatype):
		return fmt.Sprintf("%q^^%s", l.Lexical, shorten(ns, l.Datatype))
	case l.Datatype != "":
		return l.Lexical
	}
	return strconv.Quote(l.Lexical)
}

func fmtLabel(ns *rdf.Namespaces, t rdf.Term, inlined []string) string {
	head := shorten(ns, t)
	if _, ok := t.(rdf.BlankNode); ok {
		head = ""
	}
	if len(inlined) == 0 {
		return head
	}
	return strings.TrimPrefix(head+"\n"+strings.Join(inlined, "\n"), "\n")
}

func fmtAttrs(t rdf.Term, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if _, ok := t.(rdf.BlankNode); ok {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

func literalAttrs(label string) []string {
	return []string{fmt.Sprintf("label=%q", label), "style=filled", "fillcolor=lightyellow"}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
