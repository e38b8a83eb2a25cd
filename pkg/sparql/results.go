package sparql

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	ksparql "github.com/knakk/sparql"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// Solution maps variable names to terms. Unbound variables are absent.
type Solution map[string]rdf.Term

func (s Solution) clone() Solution {
	out := make(Solution, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s Solution) compatible(o Solution) bool {
	for k, v := range s {
		if w, ok := o[k]; ok && w != v {
			return false
		}
	}
	return true
}

func (s Solution) sharesVar(o Solution) bool {
	for k := range s {
		if _, ok := o[k]; ok {
			return true
		}
	}
	return false
}

func (s Solution) merge(o Solution) Solution {
	out := s.clone()
	for k, v := range o {
		out[k] = v
	}
	return out
}

// key identifies the bindings of vars; nil means every bound variable.
func (s Solution) key(vars []string) string {
	if vars == nil {
		for k := range s {
			vars = append(vars, k)
		}
		sort.Strings(vars)
	}
	var b strings.Builder
	for _, v := range vars {
		b.WriteString(v)
		b.WriteByte('=')
		b.WriteString(n3(s[v]))
		b.WriteByte(0)
	}
	return b.String()
}

// Results is the outcome of a query: variable bindings for SELECT, a
// boolean for ASK, a graph for CONSTRUCT and DESCRIBE.
type Results struct {
	Form    Form
	Vars    []string
	Rows    []Solution
	Boolean bool
	Graph   *rdf.Graph
}

// Column returns the values of one variable, nil where it is unbound.
func (r *Results) Column(name string) []rdf.Term {
	out := make([]rdf.Term, len(r.Rows))
	for i, s := range r.Rows {
		out[i] = s[name]
	}
	return out
}

// MediaTypeJSON is the media type of the SPARQL 1.1 JSON results format.
const MediaTypeJSON = "application/sparql-results+json"

type jsonResults struct {
	Head    jsonHead  `json:"head"`
	Results *jsonRows `json:"results,omitempty"`
	Boolean *bool     `json:"boolean,omitempty"`
}

type jsonHead struct {
	Vars []string `json:"vars,omitempty"`
	Link []string `json:"link,omitempty"`
}

type jsonRows struct {
	Bindings []map[string]jsonTerm `json:"bindings"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// EncodeJSON writes SELECT or ASK results in the SPARQL 1.1 JSON format.
func EncodeJSON(w io.Writer, r *Results) error {
	var out jsonResults
	switch r.Form {
	case FormAsk:
		b := r.Boolean
		out.Boolean = &b
	case FormSelect, "":
		out.Head.Vars = r.Vars
		if out.Head.Vars == nil {
			out.Head.Vars = []string{}
		}
		rows := &jsonRows{Bindings: make([]map[string]jsonTerm, 0, len(r.Rows))}
		for _, s := range r.Rows {
			m := make(map[string]jsonTerm, len(s))
			for k, t := range s {
				if t != nil {
					m[k] = toJSONTerm(t)
				}
			}
			rows.Bindings = append(rows.Bindings, m)
		}
		out.Results = rows
	default:
		return errors.New(errors.ErrCodeUnsupported, "%s results have no JSON results encoding", r.Form)
	}
	return json.NewEncoder(w).Encode(out)
}

func toJSONTerm(t rdf.Term) jsonTerm {
	switch t := t.(type) {
	case rdf.IRI:
		return jsonTerm{Type: "uri", Value: string(t)}
	case rdf.BlankNode:
		return jsonTerm{Type: "bnode", Value: string(t)}
	case rdf.Literal:
		return jsonTerm{Type: "literal", Value: t.Lexical, Lang: t.Lang, Datatype: string(t.Datatype)}
	}
	return jsonTerm{}
}

// DecodeJSON reads SPARQL 1.1 JSON results. SELECT bindings are decoded by
// github.com/knakk/sparql; a term of a type it does not know leaves its
// variable unbound. ASK results are read here since that decoder has no
// boolean form.
func DecodeJSON(r io.Reader) (*Results, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read SPARQL JSON results")
	}
	var peek struct {
		Boolean *bool           `json:"boolean"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode SPARQL JSON results")
	}
	if peek.Boolean != nil {
		return &Results{Form: FormAsk, Boolean: *peek.Boolean}, nil
	}
	if len(peek.Results) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "SPARQL JSON results have neither results nor boolean")
	}

	in, err := ksparql.ParseJSON(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode SPARQL JSON results")
	}
	sols := in.Solutions()
	res := &Results{Form: FormSelect, Vars: in.Head.Vars, Rows: make([]Solution, 0, len(sols))}
	for _, b := range sols {
		s := make(Solution, len(b))
		for k, t := range b {
			s[k] = rdf.FromKnakk(t)
		}
		res.Rows = append(res.Rows, s)
	}
	return res, nil
}
