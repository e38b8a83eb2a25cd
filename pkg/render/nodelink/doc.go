// Package nodelink renders RDF graphs as node-link diagrams.
//
// # Overview
//
// Resources (IRIs and blank nodes) become boxes and every triple becomes an
// arrow labelled with its predicate. The usual inputs are the graphs
// returned by Construct and Peel.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{InlineLiterals: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)  // 2x scale
//
// # Options
//
//   - Namespaces: prefixes used to shorten IRIs in labels
//   - InlineLiterals: fold literal properties into the subject's label
//   - LeftToRight: horizontal layout
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
