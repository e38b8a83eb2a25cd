package rdf

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// integerTypes are the xsd types derived from xsd:integer.
var integerTypes = map[IRI]bool{
	XSDInteger:                     true,
	XSDNS + "int":                  true,
	XSDNS + "long":                 true,
	XSDNS + "short":                true,
	XSDNS + "byte":                 true,
	XSDNS + "nonNegativeInteger":   true,
	XSDNS + "nonPositiveInteger":   true,
	XSDNS + "positiveInteger":      true,
	XSDNS + "negativeInteger":      true,
	XSDNS + "unsignedLong":         true,
	XSDNS + "unsignedInt":          true,
	XSDNS + "unsignedShort":        true,
	XSDNS + "unsignedByte":         true,
}

// IsIntegerType reports whether dt is xsd:integer or one of its derived types.
func IsIntegerType(dt IRI) bool { return integerTypes[dt] }

// IsNumericType reports whether dt is one of the numeric xsd types.
func IsNumericType(dt IRI) bool {
	return integerTypes[dt] || dt == XSDDecimal || dt == XSDDouble || dt == XSDFloat
}

// dateTimeLayouts are tried in order when parsing xsd:dateTime.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

var dateLayouts = []string{
	"2006-01-02Z07:00",
	"2006-01-02",
}

// NewLiteral converts a Go value into a literal.
//
// Supported values: string (plain), bool (xsd:boolean), every integer kind
// (xsd:integer), float32 and float64 (xsd:double), time.Time (xsd:dateTime),
// []byte (xsd:base64Binary), *big.Int (xsd:integer) and anything that
// implements fmt.Stringer (plain). A [Literal] is returned unchanged.
func NewLiteral(v any) (Literal, error) {
	switch x := v.(type) {
	case Literal:
		return x, nil
	case string:
		return NewPlainLiteral(x), nil
	case bool:
		return Literal{Lexical: strconv.FormatBool(x), Datatype: XSDBoolean}, nil
	case float32:
		return Literal{Lexical: formatFloat(float64(x), 32), Datatype: XSDDouble}, nil
	case float64:
		return Literal{Lexical: formatFloat(x, 64), Datatype: XSDDouble}, nil
	case time.Time:
		return Literal{Lexical: x.Format(time.RFC3339Nano), Datatype: XSDDateTime}, nil
	case []byte:
		return Literal{Lexical: base64.StdEncoding.EncodeToString(x), Datatype: XSDBase64Binary}, nil
	case *big.Int:
		return Literal{Lexical: x.String(), Datatype: XSDInteger}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Literal{Lexical: strconv.FormatInt(rv.Int(), 10), Datatype: XSDInteger}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Literal{Lexical: strconv.FormatUint(rv.Uint(), 10), Datatype: XSDInteger}, nil
	}

	// Stringers are checked after the kind switch so that named numeric
	// types with a String method still become numbers.
	if s, ok := v.(fmt.Stringer); ok {
		return NewPlainLiteral(s.String()), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return NewPlainLiteral(rv.String()), nil
	case reflect.Bool:
		return Literal{Lexical: strconv.FormatBool(rv.Bool()), Datatype: XSDBoolean}, nil
	case reflect.Float32, reflect.Float64:
		return Literal{Lexical: formatFloat(rv.Float(), 64), Datatype: XSDDouble}, nil
	}
	return Literal{}, fmt.Errorf("cannot convert %T to an RDF literal", v)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	// xsd:double lexical forms use an upper-case exponent marker.
	return strings.Replace(s, "e", "E", 1)
}

// Native converts the literal into the closest Go value.
//
// Integers become int64, decimals, doubles and floats become float64,
// booleans become bool, dateTime and date become time.Time. Literals that
// are malformed for their datatype, or have any other datatype, yield the
// lexical form as a string.
func (l Literal) Native() any {
	if l.Lang != "" {
		return l.Lexical
	}
	dt := l.Datatype
	switch {
	case dt == "" || dt == XSDString:
		return l.Lexical
	case integerTypes[dt]:
		if n, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(l.Lexical), "+"), 10, 64); err == nil {
			return n
		}
	case dt == XSDDecimal || dt == XSDDouble || dt == XSDFloat:
		if f, err := parseXSDFloat(l.Lexical); err == nil {
			return f
		}
	case dt == XSDBoolean:
		switch strings.TrimSpace(l.Lexical) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	case dt == XSDDateTime:
		if t, ok := parseTime(l.Lexical, dateTimeLayouts); ok {
			return t
		}
	case dt == XSDDate:
		if t, ok := parseTime(l.Lexical, dateLayouts); ok {
			return t
		}
	}
	return l.Lexical
}

func parseXSDFloat(s string) (float64, error) {
	switch s = strings.TrimSpace(s); s {
	case "INF", "+INF":
		return strconv.ParseFloat("+Inf", 64)
	case "-INF":
		return strconv.ParseFloat("-Inf", 64)
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
