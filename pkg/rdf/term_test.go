package rdf

import (
	"math/big"
	"strings"
	"testing"
	"time"
)

type celsius float64

type weekday int

func (d weekday) String() string { return "day" }

type label struct{ s string }

func (l label) String() string { return l.s }

func TestN3(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"iri", IRI("http://example.com/a"), "<http://example.com/a>"},
		{"bnode", BlankNode("b1"), "_:b1"},
		{"plain", NewPlainLiteral("hello"), `"hello"`},
		{"escaped", NewPlainLiteral("say \"hi\"\n\tback\\slash"), `"say \"hi\"\n\tback\\slash"`},
		{"lang", NewLangLiteral("chat", "FR"), `"chat"@fr`},
		{"typed", NewTypedLiteral("1", XSDInteger), `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"xsd string folds", NewTypedLiteral("x", XSDString), `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.term.N3(); got != tt.want {
				t.Errorf("N3() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewLiteral(t *testing.T) {
	when := time.Date(2017, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name    string
		in      any
		want    Literal
		wantErr bool
	}{
		{"string", "abc", Literal{Lexical: "abc"}, false},
		{"int", 42, Literal{Lexical: "42", Datatype: XSDInteger}, false},
		{"negative int64", int64(-7), Literal{Lexical: "-7", Datatype: XSDInteger}, false},
		{"uint8", uint8(200), Literal{Lexical: "200", Datatype: XSDInteger}, false},
		{"named int with stringer", weekday(3), Literal{Lexical: "3", Datatype: XSDInteger}, false},
		{"big int", big.NewInt(12), Literal{Lexical: "12", Datatype: XSDInteger}, false},
		{"float", 1.5, Literal{Lexical: "1.5", Datatype: XSDDouble}, false},
		{"named float", celsius(21.5), Literal{Lexical: "21.5", Datatype: XSDDouble}, false},
		{"bool", true, Literal{Lexical: "true", Datatype: XSDBoolean}, false},
		{"time", when, Literal{Lexical: "2017-03-04T05:06:07Z", Datatype: XSDDateTime}, false},
		{"bytes", []byte("hi"), Literal{Lexical: "aGk=", Datatype: XSDBase64Binary}, false},
		{"stringer", label{"x"}, Literal{Lexical: "x"}, false},
		{"literal passthrough", NewLangLiteral("a", "en"), Literal{Lexical: "a", Lang: "en"}, false},

		{"func", func() {}, Literal{}, true},
		{"map", map[string]int{}, Literal{}, true},
		{"nil", nil, Literal{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLiteral(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLiteral(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NewLiteral(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNative(t *testing.T) {
	tests := []struct {
		name string
		in   Literal
		want any
	}{
		{"plain", NewPlainLiteral("abc"), "abc"},
		{"lang", NewLangLiteral("abc", "en"), "abc"},
		{"integer", NewTypedLiteral("42", XSDInteger), int64(42)},
		{"int with plus", NewTypedLiteral("+5", XSDNS+"int"), int64(5)},
		{"bad integer", NewTypedLiteral("forty", XSDInteger), "forty"},
		{"decimal", NewTypedLiteral("2.5", XSDDecimal), 2.5},
		{"double exp", NewTypedLiteral("1E3", XSDDouble), 1000.0},
		{"boolean", NewTypedLiteral("true", XSDBoolean), true},
		{"boolean zero", NewTypedLiteral("0", XSDBoolean), false},
		{"unknown type", NewTypedLiteral("x", "http://example.com/dt"), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Native(); got != tt.want {
				t.Errorf("Native() = %#v, want %#v", got, tt.want)
			}
		})
	}

	t.Run("dateTime", func(t *testing.T) {
		got, ok := NewTypedLiteral("2017-03-04T05:06:07Z", XSDDateTime).Native().(time.Time)
		if !ok || got.Year() != 2017 || got.Hour() != 5 {
			t.Errorf("Native() = %v, want 2017-03-04T05:06:07Z", got)
		}
	})

	t.Run("date", func(t *testing.T) {
		got, ok := NewTypedLiteral("2017-03-04", XSDDate).Native().(time.Time)
		if !ok || got.Day() != 4 {
			t.Errorf("Native() = %v, want 2017-03-04", got)
		}
	})
}

func TestMember(t *testing.T) {
	if got := Member(0); got != RDFNS+"_1" {
		t.Errorf("Member(0) = %s", got)
	}
	if got := Member(9); got != RDFNS+"_10" {
		t.Errorf("Member(9) = %s", got)
	}
}

func TestNewBlankNode(t *testing.T) {
	a, b := NewBlankNode(), NewBlankNode()
	if a == b {
		t.Error("NewBlankNode() returned the same label twice")
	}
	if !strings.HasPrefix(string(a), "b") || strings.Contains(string(a), "-") {
		t.Errorf("NewBlankNode() = %q, want b-prefixed label without dashes", a)
	}
}
