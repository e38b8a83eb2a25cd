package sparql

import (
	"strings"
)

// PrefixDecl is a PREFIX declaration.
type PrefixDecl struct {
	Prefix string
	IRI    string
}

// Prologue holds the BASE and PREFIX declarations of a query or update.
type Prologue struct {
	Base     string
	Prefixes []PrefixDecl
}

// PrefixMap returns the declared prefixes; later declarations win.
func (p Prologue) PrefixMap() map[string]string {
	m := make(map[string]string, len(p.Prefixes))
	for _, d := range p.Prefixes {
		m[d.Prefix] = d.IRI
	}
	return m
}

// Form is the kind of a query.
type Form string

const (
	FormSelect    Form = "SELECT"
	FormConstruct Form = "CONSTRUCT"
	FormAsk       Form = "ASK"
	FormDescribe  Form = "DESCRIBE"
)

// Query is a parsed SPARQL query.
type Query struct {
	Prologue
	Form Form

	Distinct   bool
	Reduced    bool
	Star       bool
	Projection []Projection

	// Template holds the CONSTRUCT template.
	Template []TriplePattern
	// Describe holds the DESCRIBE targets (variables or IRIs).
	Describe []Node

	Where   *Group
	GroupBy []GroupCond
	Having  []Expr
	OrderBy []OrderCond
	Limit   int // -1 when absent
	Offset  int
	Values  *Values
}

// GroupByVars returns the GROUP BY conditions as variable names when every
// condition is a plain variable, and nil otherwise.
func (q *Query) GroupByVars() []string {
	if len(q.GroupBy) == 0 {
		return nil
	}
	out := make([]string, 0, len(q.GroupBy))
	for _, c := range q.GroupBy {
		v, ok := c.Expr.(*VarExpr)
		if !ok || c.As != "" {
			return nil
		}
		out = append(out, v.Name)
	}
	return out
}

// Projection is one item of a SELECT clause.
type Projection struct {
	Var  string
	Expr Expr // nil for a plain variable
}

// GroupCond is one GROUP BY condition.
type GroupCond struct {
	Expr Expr
	As   string
}

// OrderCond is one ORDER BY condition.
type OrderCond struct {
	Expr Expr
	Desc bool
}

// Values is an inline data block. A nil entry in a row is UNDEF.
type Values struct {
	Vars []string
	Rows [][]Node
}

// Node is a position in a triple pattern or template, or a constant.
type Node interface{ node() }

// Var is a variable. Variables introduced for blank nodes in patterns are
// named with a "_:" prefix and are never projected by SELECT *.
type Var string

// IRIRef is an IRI as written, possibly relative to the base.
type IRIRef string

// PName is a prefixed name that is resolved at evaluation time.
type PName struct {
	Prefix string
	Local  string
}

// LiteralNode is a literal whose datatype may still be a prefixed name.
type LiteralNode struct {
	Lexical  string
	Lang     string
	Datatype Node // IRIRef, PName or nil
}

// BNode is a blank node in a template or in quad data.
type BNode string

func (Var) node()         {}
func (IRIRef) node()      {}
func (PName) node()       {}
func (*LiteralNode) node() {}
func (BNode) node()       {}

func (p PName) String() string { return p.Prefix + ":" + p.Local }

// IsHidden reports whether v was introduced for a blank node.
func (v Var) IsHidden() bool { return strings.HasPrefix(string(v), "_:") }

// TriplePattern is a triple in a group pattern or template. P is a [Path];
// simple predicates are a [*LinkPath].
type TriplePattern struct {
	S Node
	P Path
	O Node
}

// Path is a property path.
type Path interface{ path() }

// LinkPath is a single predicate (an IRI or, in patterns, a variable).
type LinkPath struct{ Pred Node }

// InversePath is ^path.
type InversePath struct{ Path Path }

// SeqPath is path1 / path2 / ...
type SeqPath struct{ Parts []Path }

// AltPath is path1 | path2 | ...
type AltPath struct{ Alts []Path }

// ModPath is path*, path+ or path?.
type ModPath struct {
	Path Path
	Mod  byte
}

// NegatedPath is !(iri | ^iri ...).
type NegatedPath struct {
	Forward []Node
	Inverse []Node
}

func (*LinkPath) path()    {}
func (*InversePath) path() {}
func (*SeqPath) path()     {}
func (*AltPath) path()     {}
func (*ModPath) path()     {}
func (*NegatedPath) path() {}

// Group is a group graph pattern: a sequence of elements evaluated left to
// right, with filters applied to the whole group.
type Group struct {
	Elements []Element
}

// Element is one part of a [Group].
type Element interface{ element() }

type (
	// BGPElement is a basic graph pattern.
	BGPElement struct{ Triples []TriplePattern }
	// OptionalElement is OPTIONAL { ... }.
	OptionalElement struct{ Group *Group }
	// UnionElement is { ... } UNION { ... }; a single alternative is a
	// nested group.
	UnionElement struct{ Alts []*Group }
	// MinusElement is MINUS { ... }.
	MinusElement struct{ Group *Group }
	// FilterElement is FILTER(expr).
	FilterElement struct{ Expr Expr }
	// BindElement is BIND(expr AS ?var).
	BindElement struct {
		Expr Expr
		Var  string
	}
	// ValuesElement is an inline VALUES block.
	ValuesElement struct{ Values *Values }
	// GraphElement is GRAPH name { ... }.
	GraphElement struct {
		Name  Node
		Group *Group
	}
	// SubSelectElement is a nested SELECT.
	SubSelectElement struct{ Query *Query }
	// ServiceElement is SERVICE; it is parsed but not evaluated.
	ServiceElement struct {
		Silent bool
		Name   Node
		Group  *Group
	}
)

func (*BGPElement) element()       {}
func (*OptionalElement) element()  {}
func (*UnionElement) element()     {}
func (*MinusElement) element()     {}
func (*FilterElement) element()    {}
func (*BindElement) element()      {}
func (*ValuesElement) element()    {}
func (*GraphElement) element()     {}
func (*SubSelectElement) element() {}
func (*ServiceElement) element()   {}

// Expr is an expression.
type Expr interface{ expr() }

type (
	// VarExpr references a variable.
	VarExpr struct{ Name string }
	// ConstExpr is an IRI, literal or number.
	ConstExpr struct{ Node Node }
	// BinaryExpr is a binary operator: || && = != < > <= >= + - * /.
	BinaryExpr struct {
		Op   string
		L, R Expr
	}
	// UnaryExpr is ! + or -.
	UnaryExpr struct {
		Op string
		X  Expr
	}
	// InExpr is expr [NOT] IN (list).
	InExpr struct {
		X    Expr
		List []Expr
		Not  bool
	}
	// CallExpr is a builtin (Name is upper case) or a function IRI (Func).
	CallExpr struct {
		Name string
		Func Node
		Args []Expr
	}
	// AggregateExpr is COUNT, SUM, MIN, MAX, AVG, SAMPLE or GROUP_CONCAT.
	AggregateExpr struct {
		Name      string
		Distinct  bool
		Star      bool
		Arg       Expr
		Separator string
	}
	// ExistsExpr is [NOT] EXISTS { ... }.
	ExistsExpr struct {
		Group *Group
		Not   bool
	}
)

func (*VarExpr) expr()       {}
func (*ConstExpr) expr()     {}
func (*BinaryExpr) expr()    {}
func (*UnaryExpr) expr()     {}
func (*InExpr) expr()        {}
func (*CallExpr) expr()      {}
func (*AggregateExpr) expr() {}
func (*ExistsExpr) expr()    {}

// Update is a parsed SPARQL update request.
type Update struct {
	Prologue
	Operations []Operation
}

// Operation is one operation of an update request.
type Operation interface{ operation() }

type (
	// InsertData is INSERT DATA { ... }.
	InsertData struct{ Quads []Quad }
	// DeleteData is DELETE DATA { ... }.
	DeleteData struct{ Quads []Quad }
	// DeleteWhere is DELETE WHERE { ... }.
	DeleteWhere struct{ Quads []Quad }
	// Modify is [WITH iri] DELETE { ... } INSERT { ... } WHERE { ... }.
	Modify struct {
		With   Node
		Delete []Quad
		Insert []Quad
		Using  []Node
		Where  *Group
	}
	// GraphManagement is CLEAR, DROP, CREATE, LOAD, ADD, MOVE or COPY.
	GraphManagement struct {
		Op     string
		Silent bool
		// Target is DEFAULT, NAMED, ALL or GRAPH.
		Target string
		Graph  Node
		// Source and Dest are used by LOAD, ADD, MOVE and COPY; nil is the
		// default graph.
		Source Node
		Dest   Node
	}
)

func (*InsertData) operation()      {}
func (*DeleteData) operation()      {}
func (*DeleteWhere) operation()     {}
func (*Modify) operation()          {}
func (*GraphManagement) operation() {}

// Quad is a triple template with an optional graph name.
type Quad struct {
	TriplePattern
	Graph Node
}
