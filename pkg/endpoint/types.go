package endpoint

import (
	"reflect"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// QName is a prefixed name such as "foaf:name" that is resolved against the
// endpoint's prefixes when substituted into a query.
type QName struct {
	Name string
}

// Resolve expands q through ns. A prefix that ns does not bind yields the
// name unchanged as an IRI, which lets schemes such as "urn:" pass through.
func (q QName) Resolve(ns *rdf.Namespaces) (rdf.IRI, error) {
	prefix, local, ok := strings.Cut(q.Name, ":")
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidSubstitution, "qualified name %q has no prefix", q.Name)
	}
	if ns != nil {
		if base, ok := ns.Namespace(prefix); ok {
			return rdf.IRI(base + local), nil
		}
	}
	return rdf.IRI(q.Name), nil
}

func (q QName) String() string { return q.Name }

// URI is an IRI in a result table. It prints as its short form and is
// substituted back into queries as the full IRI.
type URI struct {
	Short string
	IRI   rdf.IRI
}

func (u URI) String() string { return u.Short }

// Bindings maps query variable names, without the leading ? or $, to values.
type Bindings map[string]any

// Scope converts local values into bindings: the value named x is bound to
// the variable _x. Names that already start with an underscore are skipped,
// as are functions, channels, unsafe pointers and reflect types.
func Scope(vars map[string]any) Bindings {
	b := make(Bindings, len(vars))
	for name, v := range vars {
		if strings.HasPrefix(name, "_") || !substitutable(v) {
			continue
		}
		b["_"+name] = v
	}
	return b
}

var reflectType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

func substitutable(v any) bool {
	if v == nil {
		return true
	}
	t := reflect.TypeOf(v)
	if t.Implements(reflectType) {
		return false
	}
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	}
	return true
}

// Collection is the content of an rdf:Seq, rdf:Bag or rdf:Alt container.
type Collection struct {
	// Type is the container class, or "" when the node has none.
	Type rdf.IRI
	// Items holds the members in index order, or the distinct members of a bag.
	Items []any
	// Counts is parallel to Items for bags and nil otherwise.
	Counts []int64
}

// IsBag reports whether c holds bag counts.
func (c *Collection) IsBag() bool { return c.Type == rdf.RDFBag }

// Count returns how often item occurs in the collection.
func (c *Collection) Count(item any) int64 {
	var n int64
	for i, it := range c.Items {
		if it != item {
			continue
		}
		if c.Counts != nil {
			return c.Counts[i]
		}
		n++
	}
	return n
}
