package rdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	krdf "github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"

	"github.com/matzehuels/gastrodon/pkg/errors"
)

// Format names a serialization syntax.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatNQuads   Format = "nquads"
	FormatJSONLD   Format = "jsonld"
)

// Formats lists every supported format.
var Formats = []Format{FormatTurtle, FormatNTriples, FormatNQuads, FormatJSONLD}

// ParseFormat validates a format name. "ttl" and "nt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "nt", "n-triples":
		return FormatNTriples, nil
	case "nquads", "nq", "n-quads":
		return FormatNQuads, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown RDF format %q", s)
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".turtle":
		return FormatTurtle, nil
	case ".nt":
		return FormatNTriples, nil
	case ".nq":
		return FormatNQuads, nil
	case ".jsonld", ".json":
		return FormatJSONLD, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer RDF format of %s", path)
}

// ReadFile parses the file at path, choosing the syntax by extension.
func ReadFile(path string) (*Graph, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "data file %s not found", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse reads a graph in the given format.
func Parse(r io.Reader, format Format) (*Graph, error) {
	switch format {
	case FormatTurtle:
		return ParseTurtle(r)
	case FormatNTriples:
		return ParseNTriples(r)
	case FormatNQuads:
		return ParseNQuads(r)
	case FormatJSONLD:
		return ParseJSONLD(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported RDF format %q", format)
}

// Write serializes g in the given format.
func Write(w io.Writer, g *Graph, format Format) error {
	switch format {
	case FormatTurtle:
		return WriteTurtle(w, g, nil)
	case FormatNTriples, FormatNQuads:
		return WriteNTriples(w, g)
	case FormatJSONLD:
		return WriteJSONLD(w, g)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported RDF format %q", format)
}

// declRegex matches Turtle and SPARQL-style prefix declarations.
var declRegex = regexp.MustCompile(`(?im)^[ \t]*(?:@prefix|prefix)[ \t]+([A-Za-z][A-Za-z0-9_.-]*)?:[ \t]*<([^>]*)>`)

// ParseTurtle reads Turtle text. Prefixes declared in the document are bound
// in the returned graph's namespaces.
func ParseTurtle(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	g := NewGraph()
	for _, m := range declRegex.FindAllSubmatch(data, -1) {
		g.ns.Bind(string(m[1]), string(m[2]))
	}
	if err := decodeKnakk(g, bytes.NewReader(data), krdf.Turtle); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid Turtle")
	}
	return g, nil
}

// ParseNTriples reads N-Triples text.
func ParseNTriples(r io.Reader) (*Graph, error) {
	g := NewGraph()
	if err := decodeKnakk(g, r, krdf.NTriples); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid N-Triples")
	}
	return g, nil
}

func decodeKnakk(g *Graph, r io.Reader, format krdf.Format) error {
	dec := krdf.NewTripleDecoder(r, format)
	for {
		t, err := dec.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		g.Add(Triple{
			S: FromKnakk(t.Subj),
			P: FromKnakk(t.Pred),
			O: FromKnakk(t.Obj),
		})
	}
}
// FromKnakk converts a term decoded by github.com/knakk/rdf. Literals typed
// xsd:string become plain literals.
func FromKnakk(t krdf.Term) Term {
	switch t.Type() {
	case krdf.TermIRI:
		return IRI(strings.TrimSuffix(strings.TrimPrefix(t.String(), "<"), ">"))
	case krdf.TermBlank:
		return BlankNode(strings.TrimPrefix(t.String(), "_:"))
	}
	if lit, ok := t.(krdf.Literal); ok {
		if lang := lit.Lang(); lang != "" {
			return NewLangLiteral(lit.String(), lang)
		}
		dt := strings.TrimSuffix(strings.TrimPrefix(lit.DataType.String(), "<"), ">")
		return NewTypedLiteral(lit.String(), IRI(dt))
	}
	return NewPlainLiteral(t.String())
}

// ToKnakk converts t for the github.com/knakk/rdf encoders.
func ToKnakk(t Term) (krdf.Term, error) {
	switch t := t.(type) {
	case IRI:
		return krdf.NewIRI(string(t))
	case BlankNode:
		return krdf.NewBlank(string(t))
	case Literal:
		switch {
		case t.Lang != "":
			return krdf.NewLangLiteral(t.Lexical, t.Lang)
		case t.Datatype != "":
			dt, err := krdf.NewIRI(string(t.Datatype))
			if err != nil {
				return nil, err
			}
			return krdf.NewTypedLiteral(t.Lexical, dt), nil
		}
		return krdf.NewTypedLiteral(t.Lexical, krdf.XSDString), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "cannot encode term %v", t)
}

func toKnakkTriple(t Triple) (krdf.Triple, error) {
	s, err := ToKnakk(t.S)
	if err != nil {
		return krdf.Triple{}, err
	}
	p, err := ToKnakk(t.P)
	if err != nil {
		return krdf.Triple{}, err
	}
	o, err := ToKnakk(t.O)
	if err != nil {
		return krdf.Triple{}, err
	}
	subj, ok := s.(krdf.Subject)
	if !ok {
		return krdf.Triple{}, errors.New(errors.ErrCodeInvalidInput, "%s cannot be a subject", t.S.N3())
	}
	pred, ok := p.(krdf.Predicate)
	if !ok {
		return krdf.Triple{}, errors.New(errors.ErrCodeInvalidInput, "%s cannot be a predicate", t.P.N3())
	}
	return krdf.Triple{Subj: subj, Pred: pred, Obj: o.(krdf.Object)}, nil
}

// ParseNQuads reads N-Quads text. Only the default graph is kept.
func ParseNQuads(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ds, err := ld.ParseNQuads(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid N-Quads")
	}
	g := NewGraph()
	addDataset(g, ds)
	return g, nil
}

// ParseJSONLD reads a JSON-LD document. String-valued terms of a top-level
// @context object that look like namespaces are bound as prefixes.
func ParseJSONLD(r io.Reader) (*Graph, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid JSON-LD")
	}

	proc := ld.NewJsonLdProcessor()
	out, err := proc.ToRDF(doc, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid JSON-LD")
	}
	ds, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "unexpected JSON-LD result %T", out)
	}

	g := NewGraph()
	addDataset(g, ds)
	if m, ok := doc.(map[string]any); ok {
		if ctx, ok := m["@context"].(map[string]any); ok {
			for prefix, v := range ctx {
				if ns, ok := v.(string); ok && (strings.HasSuffix(ns, "/") || strings.HasSuffix(ns, "#")) {
					g.ns.Bind(prefix, ns)
				}
			}
		}
	}
	return g, nil
}

func addDataset(g *Graph, ds *ld.RDFDataset) {
	for _, q := range ds.Graphs["@default"] {
		s, p, o := fromLD(q.Subject), fromLD(q.Predicate), fromLD(q.Object)
		if s == nil || p == nil || o == nil {
			continue
		}
		g.Add(Triple{s, p, o})
	}
}

func fromLD(n ld.Node) Term {
	switch v := n.(type) {
	case *ld.IRI:
		return IRI(v.Value)
	case *ld.BlankNode:
		return BlankNode(strings.TrimPrefix(v.Attribute, "_:"))
	case *ld.Literal:
		if v.Language != "" {
			return NewLangLiteral(v.Value, v.Language)
		}
		return NewTypedLiteral(v.Value, IRI(v.Datatype))
	}
	return nil
}

// WriteNTriples writes one N-Triples line per triple in insertion order.
func WriteNTriples(w io.Writer, g *Graph) error {
	enc := krdf.NewTripleEncoder(w, krdf.NTriples)
	for _, t := range g.triples {
		kt, err := toKnakkTriple(t)
		if err != nil {
			return err
		}
		if err := enc.Encode(kt); err != nil {
			return err
		}
	}
	return enc.Close()
}

// WriteJSONLD writes g as compacted JSON-LD, using the graph's namespaces
// as the @context.
func WriteJSONLD(w io.Writer, g *Graph) error {
	var nq bytes.Buffer
	if err := WriteNTriples(&nq, g); err != nil {
		return err
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	expanded, err := proc.FromRDF(nq.String(), opts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "convert graph to JSON-LD")
	}

	context := make(map[string]any)
	for prefix, ns := range g.ns.Map() {
		if prefix != "" {
			context[prefix] = ns
		}
	}
	compacted, err := proc.Compact(expanded, map[string]any{"@context": context}, ld.NewJsonLdOptions(""))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "compact JSON-LD")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(compacted)
}
