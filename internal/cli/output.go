package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/frame"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/render/nodelink"
)

// Output formats.
const (
	formatTable    = "table"
	formatCSV      = "csv"
	formatJSON     = "json"
	formatTurtle   = "turtle"
	formatNTriples = "ntriples"
	formatJSONLD   = "jsonld"
	formatDOT      = "dot"
	formatSVG      = "svg"
	formatPDF      = "pdf"
	formatPNG      = "png"
)

var (
	tableFormats = []string{formatTable, formatCSV, formatJSON}
	graphFormats = []string{formatTurtle, formatNTriples, formatJSONLD, formatDOT, formatSVG, formatPDF, formatPNG}
)

func checkFormat(format string, valid []string) error {
	for _, f := range valid {
		if f == format {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", format, strings.Join(valid, ", "))
}

// writeFrame prints a result table in the given format.
func writeFrame(w io.Writer, f *frame.Frame, format string) error {
	switch format {
	case formatCSV:
		return f.WriteCSV(w)
	case formatJSON:
		return f.WriteJSON(w)
	case formatTable, "":
		_, err := fmt.Fprintln(w, f.Render())
		return err
	}
	return checkFormat(format, tableFormats)
}

// graphOutput carries the options of commands that print a graph.
type graphOutput struct {
	format string
	output string
	inline bool
	scale  float64
}

// write prints g, or saves it to the output file. Binary formats need a
// file.
func (o graphOutput) write(stdout io.Writer, q endpoint.Querier, g *rdf.Graph) error {
	if err := checkFormat(o.format, graphFormats); err != nil {
		return err
	}
	toStdout := o.output == "" || o.output == "-"
	if toStdout && (o.format == formatPDF || o.format == formatPNG) {
		return errors.New(errors.ErrCodeInvalidInput, "%s output needs --output FILE", o.format)
	}

	var data []byte
	var err error
	switch o.format {
	case formatTurtle:
		var b strings.Builder
		err = q.WriteTurtle(&b, g)
		data = []byte(b.String())
	case formatNTriples, formatJSONLD:
		var b strings.Builder
		f, _ := rdf.ParseFormat(o.format)
		err = rdf.Write(&b, g, f)
		data = []byte(b.String())
	default:
		data, err = o.diagram(g, labelNamespaces(q, g))
	}
	if err != nil {
		return err
	}

	if toStdout {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(o.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", o.output)
	}
	printFile(o.output)
	return nil
}

// labelNamespaces combines the graph's prefixes with the endpoint's.
func labelNamespaces(q endpoint.Querier, g *rdf.Graph) *rdf.Namespaces {
	ns := g.Namespaces().Clone()
	if p, ok := q.(prefixed); ok {
		ns.Merge(p.Prefixes())
	}
	return ns
}

func (o graphOutput) diagram(g *rdf.Graph, ns *rdf.Namespaces) ([]byte, error) {
	dot := nodelink.ToDOT(g, nodelink.Options{Namespaces: ns, InlineLiterals: o.inline})
	switch o.format {
	case formatSVG:
		return nodelink.RenderSVG(dot)
	case formatPDF:
		return nodelink.RenderPDF(dot)
	case formatPNG:
		scale := o.scale
		if scale <= 0 {
			scale = 2
		}
		return nodelink.RenderPNG(dot, scale)
	}
	return []byte(dot), nil
}
