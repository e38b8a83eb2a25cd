package rdf

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Well-known namespaces.
const (
	RDFNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNS  = "http://www.w3.org/2001/XMLSchema#"
	OWLNS  = "http://www.w3.org/2002/07/owl#"
	XMLNS  = "http://www.w3.org/XML/1998/namespace"
)

// Frequently used IRIs.
const (
	RDFType       IRI = RDFNS + "type"
	RDFSeq        IRI = RDFNS + "Seq"
	RDFBag        IRI = RDFNS + "Bag"
	RDFAlt        IRI = RDFNS + "Alt"
	RDFFirst      IRI = RDFNS + "first"
	RDFRest       IRI = RDFNS + "rest"
	RDFNil        IRI = RDFNS + "nil"
	RDFLangString IRI = RDFNS + "langString"

	XSDString       IRI = XSDNS + "string"
	XSDBoolean      IRI = XSDNS + "boolean"
	XSDInteger      IRI = XSDNS + "integer"
	XSDDecimal      IRI = XSDNS + "decimal"
	XSDDouble       IRI = XSDNS + "double"
	XSDFloat        IRI = XSDNS + "float"
	XSDDateTime     IRI = XSDNS + "dateTime"
	XSDDate         IRI = XSDNS + "date"
	XSDBase64Binary IRI = XSDNS + "base64Binary"
)

// TermKind identifies the kind of an RDF term.
type TermKind int

const (
	KindIRI TermKind = iota + 1
	KindBlank
	KindLiteral
)

func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "bnode"
	case KindLiteral:
		return "literal"
	}
	return "unknown"
}

// Term is an RDF term: an [IRI], a [BlankNode] or a [Literal].
type Term interface {
	// Kind reports which kind of term this is.
	Kind() TermKind
	// Value returns the IRI string, the blank node label or the lexical form.
	Value() string
	// N3 returns the term in the syntax shared by Turtle, N-Triples and SPARQL.
	N3() string
}

// IRI is an IRI reference.
type IRI string

func (i IRI) Kind() TermKind { return KindIRI }
func (i IRI) Value() string  { return string(i) }
func (i IRI) N3() string     { return "<" + string(i) + ">" }
func (i IRI) String() string { return string(i) }

// BlankNode is a blank node, identified by its label (without the "_:" prefix).
type BlankNode string

// NewBlankNode returns a blank node with a fresh, globally unique label.
func NewBlankNode() BlankNode {
	return BlankNode("b" + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func (b BlankNode) Kind() TermKind { return KindBlank }
func (b BlankNode) Value() string  { return string(b) }
func (b BlankNode) N3() string     { return "_:" + string(b) }
func (b BlankNode) String() string { return "_:" + string(b) }

// Literal is an RDF literal. A literal with neither Datatype nor Lang is a
// plain (simple) literal; xsd:string literals are stored that way.
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

// NewPlainLiteral returns a simple string literal.
func NewPlainLiteral(s string) Literal { return Literal{Lexical: s} }

// NewTypedLiteral returns a literal with the given datatype. xsd:string is
// folded into a plain literal.
func NewTypedLiteral(s string, datatype IRI) Literal {
	if datatype == XSDString {
		datatype = ""
	}
	return Literal{Lexical: s, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged string.
func NewLangLiteral(s, lang string) Literal {
	return Literal{Lexical: s, Lang: strings.ToLower(lang)}
}

func (l Literal) Kind() TermKind { return KindLiteral }
func (l Literal) Value() string  { return l.Lexical }
func (l Literal) String() string { return l.Lexical }

// N3 returns the quoted literal with its language tag or datatype.
func (l Literal) N3() string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(EscapeString(l.Lexical))
	b.WriteByte('"')
	switch {
	case l.Lang != "":
		b.WriteByte('@')
		b.WriteString(l.Lang)
	case l.Datatype != "":
		b.WriteString("^^")
		b.WriteString(l.Datatype.N3())
	}
	return b.String()
}

// EffectiveDatatype returns the datatype the literal has under RDF 1.1:
// rdf:langString for tagged literals and xsd:string for plain ones.
func (l Literal) EffectiveDatatype() IRI {
	switch {
	case l.Lang != "":
		return RDFLangString
	case l.Datatype == "":
		return XSDString
	}
	return l.Datatype
}

// IsPlain reports whether l is a simple literal or an xsd:string.
func (l Literal) IsPlain() bool {
	return l.Lang == "" && (l.Datatype == "" || l.Datatype == XSDString)
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeString escapes s for use inside a double-quoted literal.
func EscapeString(s string) string {
	return stringEscaper.Replace(s)
}

// Triple is a single RDF statement.
type Triple struct {
	S, P, O Term
}

// N3 returns the triple as an N-Triples line without the trailing newline.
func (t Triple) N3() string {
	return t.S.N3() + " " + t.P.N3() + " " + t.O.N3() + " ."
}

// Member returns the container membership property rdf:_{i+1} stating that
// an object is the i-th (zero-based) member of a container.
func Member(i int) IRI {
	return IRI(RDFNS + "_" + strconv.Itoa(i+1))
}
