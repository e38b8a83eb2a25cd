package sparql

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// exprError is a SPARQL expression error. It makes a FILTER reject the
// solution and leaves a BIND variable unbound.
type exprError string

func (e exprError) Error() string { return string(e) }

func typeErrorf(format string, args ...any) error {
	return exprError(fmt.Sprintf(format, args...))
}

var (
	trueLit  = rdf.NewTypedLiteral("true", rdf.XSDBoolean)
	falseLit = rdf.NewTypedLiteral("false", rdf.XSDBoolean)
)

func boolLit(b bool) rdf.Literal {
	if b {
		return trueLit
	}
	return falseLit
}

func intLit(n int64) rdf.Literal {
	return rdf.NewTypedLiteral(strconv.FormatInt(n, 10), rdf.XSDInteger)
}

// env is the evaluation environment of an expression: the current solution
// and, after grouping, the solutions of its group.
type env struct {
	sol     Solution
	group   []Solution
	grouped bool
}

// ---------------------------------------------------------------------------
// Numbers

type numKind int

const (
	numInteger numKind = iota
	numDecimal
	numFloat
	numDouble
)

type number struct {
	kind numKind
	i    int64
	f    float64
}

func toNumber(t rdf.Term) (number, bool) {
	l, ok := t.(rdf.Literal)
	if !ok || l.Lang != "" || !rdf.IsNumericType(l.Datatype) {
		return number{}, false
	}
	switch v := l.Native().(type) {
	case int64:
		return number{kind: numInteger, i: v, f: float64(v)}, true
	case float64:
		switch l.Datatype {
		case rdf.XSDDecimal:
			return number{kind: numDecimal, f: v}, true
		case rdf.XSDFloat:
			return number{kind: numFloat, f: v}, true
		}
		return number{kind: numDouble, f: v}, true
	}
	return number{}, false
}

func floatNumber(kind numKind, f float64) number {
	return number{kind: kind, f: f}
}

func (n number) literal() rdf.Literal {
	switch n.kind {
	case numInteger:
		return intLit(n.i)
	case numDecimal:
		s := strconv.FormatFloat(n.f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return rdf.NewTypedLiteral(s, rdf.XSDDecimal)
	}
	l, _ := rdf.NewLiteral(n.f)
	if n.kind == numFloat {
		l.Datatype = rdf.XSDFloat
	}
	return l
}

func arith(op string, a, b number) (number, error) {
	k := max(a.kind, b.kind)
	if op == "/" && k == numInteger {
		k = numDecimal
	}
	if k == numInteger {
		switch op {
		case "+":
			return number{kind: numInteger, i: a.i + b.i, f: float64(a.i + b.i)}, nil
		case "-":
			return number{kind: numInteger, i: a.i - b.i, f: float64(a.i - b.i)}, nil
		case "*":
			return number{kind: numInteger, i: a.i * b.i, f: float64(a.i * b.i)}, nil
		}
	}
	switch op {
	case "+":
		return floatNumber(k, a.f+b.f), nil
	case "-":
		return floatNumber(k, a.f-b.f), nil
	case "*":
		return floatNumber(k, a.f*b.f), nil
	case "/":
		if b.f == 0 && k == numDecimal {
			return number{}, typeErrorf("division by zero")
		}
		return floatNumber(k, a.f/b.f), nil
	}
	return number{}, typeErrorf("unknown operator %s", op)
}

func compareNumbers(a, b number) int {
	if a.kind == numInteger && b.kind == numInteger {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	switch {
	case a.f < b.f:
		return -1
	case a.f > b.f:
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Comparison and truth values

// compareValues compares two terms by value. It fails when the terms are
// not comparable.
func compareValues(a, b rdf.Term) (int, error) {
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return compareNumbers(na, nb), nil
		}
	}
	la, aok := a.(rdf.Literal)
	lb, bok := b.(rdf.Literal)
	if aok && bok {
		switch {
		case la.IsPlain() && lb.IsPlain():
			return strings.Compare(la.Lexical, lb.Lexical), nil
		case la.Lang != "" && la.Lang == lb.Lang:
			return strings.Compare(la.Lexical, lb.Lexical), nil
		case la.Datatype == rdf.XSDBoolean && lb.Datatype == rdf.XSDBoolean:
			x, xok := la.Native().(bool)
			y, yok := lb.Native().(bool)
			if xok && yok {
				switch {
				case x == y:
					return 0, nil
				case !x:
					return -1, nil
				}
				return 1, nil
			}
		case isTimeType(la.Datatype) && isTimeType(lb.Datatype):
			x, xok := la.Native().(time.Time)
			y, yok := lb.Native().(time.Time)
			if xok && yok {
				return x.Compare(y), nil
			}
		}
	}
	return 0, typeErrorf("cannot compare %s and %s", n3(a), n3(b))
}

func isTimeType(dt rdf.IRI) bool { return dt == rdf.XSDDateTime || dt == rdf.XSDDate }

func termsEqual(a, b rdf.Term) (bool, error) {
	if c, err := compareValues(a, b); err == nil {
		return c == 0, nil
	}
	return a == b, nil
}

func ebv(t rdf.Term) (bool, error) {
	l, ok := t.(rdf.Literal)
	if !ok {
		return false, typeErrorf("no effective boolean value for %s", n3(t))
	}
	switch {
	case l.Datatype == rdf.XSDBoolean:
		b, ok := l.Native().(bool)
		return ok && b, nil
	case l.IsPlain():
		return l.Lexical != "", nil
	case rdf.IsNumericType(l.Datatype):
		n, ok := toNumber(l)
		return ok && n.f != 0 && !math.IsNaN(n.f), nil
	}
	return false, typeErrorf("no effective boolean value for %s", n3(t))
}

// orderTerms is the ORDER BY ordering: unbound, blank nodes, IRIs, then
// literals.
func orderTerms(a, b rdf.Term) int {
	ra, rb := orderRank(a), orderRank(b)
	if ra != rb {
		return ra - rb
	}
	switch a.(type) {
	case nil:
		return 0
	case rdf.Literal:
		if c, err := compareValues(a, b); err == nil {
			return c
		}
		la, lb := a.(rdf.Literal), b.(rdf.Literal)
		if c := strings.Compare(la.Lexical, lb.Lexical); c != 0 {
			return c
		}
		if c := strings.Compare(string(la.Datatype), string(lb.Datatype)); c != 0 {
			return c
		}
		return strings.Compare(la.Lang, lb.Lang)
	}
	return strings.Compare(a.Value(), b.Value())
}

func orderRank(t rdf.Term) int {
	switch t.(type) {
	case nil:
		return 0
	case rdf.BlankNode:
		return 1
	case rdf.IRI:
		return 2
	}
	return 3
}

func n3(t rdf.Term) string {
	if t == nil {
		return "UNDEF"
	}
	return t.N3()
}

// ---------------------------------------------------------------------------
// Evaluation

func (ev *evaluator) eval(e Expr, en *env) (rdf.Term, error) {
	switch e := e.(type) {
	case *VarExpr:
		if t := en.sol[e.Name]; t != nil {
			return t, nil
		}
		return nil, typeErrorf("unbound variable ?%s", e.Name)

	case *ConstExpr:
		return ev.term(e.Node), nil

	case *BinaryExpr:
		return ev.evalBinary(e, en)

	case *UnaryExpr:
		x, err := ev.eval(e.X, en)
		if err != nil {
			return nil, err
		}
		if e.Op == "!" {
			b, err := ebv(x)
			if err != nil {
				return nil, err
			}
			return boolLit(!b), nil
		}
		n, ok := toNumber(x)
		if !ok {
			return nil, typeErrorf("%s is not a number", n3(x))
		}
		if e.Op == "-" {
			n.i, n.f = -n.i, -n.f
		}
		return n.literal(), nil

	case *InExpr:
		x, err := ev.eval(e.X, en)
		if err != nil {
			return nil, err
		}
		var firstErr error
		for _, item := range e.List {
			v, err := ev.eval(item, en)
			if err == nil {
				var eq bool
				if eq, err = termsEqual(x, v); err == nil && eq {
					return boolLit(!e.Not), nil
				}
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if firstErr != nil {
			return nil, firstErr
		}
		return boolLit(e.Not), nil

	case *ExistsExpr:
		found := len(ev.evalGroup(e.Group, []Solution{en.sol})) > 0
		return boolLit(found != e.Not), nil

	case *AggregateExpr:
		if !en.grouped {
			return nil, typeErrorf("aggregate %s outside of a group", e.Name)
		}
		return ev.aggregate(e, en.group)

	case *CallExpr:
		if e.Func != nil {
			return ev.callFunction(e, en)
		}
		return ev.callBuiltin(e, en)
	}
	return nil, typeErrorf("unsupported expression %T", e)
}

func (ev *evaluator) evalBinary(e *BinaryExpr, en *env) (rdf.Term, error) {
	switch e.Op {
	case "||", "&&":
		lb, lerr := ev.evalEBV(e.L, en)
		if lerr == nil && lb == (e.Op == "||") {
			return boolLit(lb), nil
		}
		rb, rerr := ev.evalEBV(e.R, en)
		if rerr == nil && rb == (e.Op == "||") {
			return boolLit(rb), nil
		}
		if lerr != nil {
			return nil, lerr
		}
		if rerr != nil {
			return nil, rerr
		}
		return boolLit(e.Op == "&&"), nil
	}

	l, err := ev.eval(e.L, en)
	if err != nil {
		return nil, err
	}
	r, err := ev.eval(e.R, en)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "=", "!=":
		eq, err := termsEqual(l, r)
		if err != nil {
			return nil, err
		}
		return boolLit(eq == (e.Op == "=")), nil
	case "<", ">", "<=", ">=":
		c, err := compareValues(l, r)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "<":
			return boolLit(c < 0), nil
		case ">":
			return boolLit(c > 0), nil
		case "<=":
			return boolLit(c <= 0), nil
		}
		return boolLit(c >= 0), nil
	}

	a, aok := toNumber(l)
	b, bok := toNumber(r)
	if !aok || !bok {
		return nil, typeErrorf("arithmetic on non-numeric %s %s %s", n3(l), e.Op, n3(r))
	}
	n, err := arith(e.Op, a, b)
	if err != nil {
		return nil, err
	}
	return n.literal(), nil
}

func (ev *evaluator) evalEBV(e Expr, en *env) (bool, error) {
	t, err := ev.eval(e, en)
	if err != nil {
		return false, err
	}
	return ebv(t)
}

func (ev *evaluator) evalArgs(args []Expr, en *env) ([]rdf.Term, error) {
	out := make([]rdf.Term, len(args))
	for i, a := range args {
		t, err := ev.eval(a, en)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// stringLiteral returns t when it is a simple, xsd:string or language-tagged
// literal.
func stringLiteral(t rdf.Term) (rdf.Literal, error) {
	l, ok := t.(rdf.Literal)
	if !ok || !(l.IsPlain() || l.Lang != "") {
		return rdf.Literal{}, typeErrorf("%s is not a string literal", n3(t))
	}
	return l, nil
}

func withLexical(l rdf.Literal, s string) rdf.Literal {
	return rdf.Literal{Lexical: s, Datatype: l.Datatype, Lang: l.Lang}
}

func numberArg(t rdf.Term) (number, error) {
	n, ok := toNumber(t)
	if !ok {
		return number{}, typeErrorf("%s is not a number", n3(t))
	}
	return n, nil
}

func timeArg(t rdf.Term) (time.Time, rdf.Literal, error) {
	l, ok := t.(rdf.Literal)
	if ok && isTimeType(l.Datatype) {
		if tm, ok := l.Native().(time.Time); ok {
			return tm, l, nil
		}
	}
	return time.Time{}, rdf.Literal{}, typeErrorf("%s is not a dateTime", n3(t))
}

var tzSuffix = regexp.MustCompile(`(Z|[+-]\d\d:\d\d)$`)

func (ev *evaluator) callBuiltin(e *CallExpr, en *env) (rdf.Term, error) {
	switch e.Name {
	case "BOUND":
		return boolLit(en.sol[e.Args[0].(*VarExpr).Name] != nil), nil
	case "IF":
		cond, err := ev.evalEBV(e.Args[0], en)
		if err != nil {
			return nil, err
		}
		if cond {
			return ev.eval(e.Args[1], en)
		}
		return ev.eval(e.Args[2], en)
	case "COALESCE":
		for _, a := range e.Args {
			if t, err := ev.eval(a, en); err == nil && t != nil {
				return t, nil
			}
		}
		return nil, typeErrorf("COALESCE: no bound argument")
	}

	args, err := ev.evalArgs(e.Args, en)
	if err != nil {
		return nil, err
	}

	switch e.Name {
	case "STR":
		switch t := args[0].(type) {
		case rdf.IRI:
			return rdf.NewPlainLiteral(string(t)), nil
		case rdf.Literal:
			return rdf.NewPlainLiteral(t.Lexical), nil
		}
		return nil, typeErrorf("STR of blank node")

	case "LANG":
		l, ok := args[0].(rdf.Literal)
		if !ok {
			return nil, typeErrorf("LANG of non-literal")
		}
		return rdf.NewPlainLiteral(l.Lang), nil

	case "LANGMATCHES":
		tag, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		rng, err := stringLiteral(args[1])
		if err != nil {
			return nil, err
		}
		return boolLit(langMatches(tag.Lexical, rng.Lexical)), nil

	case "DATATYPE":
		l, ok := args[0].(rdf.Literal)
		if !ok {
			return nil, typeErrorf("DATATYPE of non-literal")
		}
		return l.EffectiveDatatype(), nil

	case "IRI", "URI":
		switch t := args[0].(type) {
		case rdf.IRI:
			return t, nil
		case rdf.Literal:
			if t.IsPlain() {
				return ev.resolveIRI(t.Lexical), nil
			}
		}
		return nil, typeErrorf("IRI of %s", n3(args[0]))

	case "BNODE":
		if len(args) == 0 {
			return rdf.NewBlankNode(), nil
		}
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		if b, ok := ev.bnodes[l.Lexical]; ok {
			return b, nil
		}
		b := rdf.NewBlankNode()
		ev.bnodes[l.Lexical] = b
		return b, nil

	case "RAND":
		return number{kind: numDouble, f: rand.Float64()}.literal(), nil

	case "ABS", "CEIL", "FLOOR", "ROUND":
		n, err := numberArg(args[0])
		if err != nil {
			return nil, err
		}
		if n.kind == numInteger {
			if e.Name == "ABS" && n.i < 0 {
				n.i, n.f = -n.i, -n.f
			}
			return n.literal(), nil
		}
		switch e.Name {
		case "ABS":
			n.f = math.Abs(n.f)
		case "CEIL":
			n.f = math.Ceil(n.f)
		case "FLOOR":
			n.f = math.Floor(n.f)
		case "ROUND":
			n.f = math.Floor(n.f + 0.5)
		}
		return n.literal(), nil

	case "CONCAT":
		var b strings.Builder
		lang, same := "", true
		for i, a := range args {
			l, err := stringLiteral(a)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				lang = l.Lang
			} else if l.Lang != lang {
				same = false
			}
			b.WriteString(l.Lexical)
		}
		if same && lang != "" {
			return rdf.NewLangLiteral(b.String(), lang), nil
		}
		return rdf.NewPlainLiteral(b.String()), nil

	case "STRLEN":
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		return intLit(int64(utf8.RuneCountInString(l.Lexical))), nil

	case "UCASE", "LCASE":
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		if e.Name == "UCASE" {
			return withLexical(l, strings.ToUpper(l.Lexical)), nil
		}
		return withLexical(l, strings.ToLower(l.Lexical)), nil

	case "ENCODE_FOR_URI":
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		return rdf.NewPlainLiteral(encodeForURI(l.Lexical)), nil

	case "CONTAINS", "STRSTARTS", "STRENDS", "STRBEFORE", "STRAFTER":
		a, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		b, err := stringLiteral(args[1])
		if err != nil {
			return nil, err
		}
		switch e.Name {
		case "CONTAINS":
			return boolLit(strings.Contains(a.Lexical, b.Lexical)), nil
		case "STRSTARTS":
			return boolLit(strings.HasPrefix(a.Lexical, b.Lexical)), nil
		case "STRENDS":
			return boolLit(strings.HasSuffix(a.Lexical, b.Lexical)), nil
		case "STRBEFORE":
			before, _, found := strings.Cut(a.Lexical, b.Lexical)
			if !found {
				return rdf.NewPlainLiteral(""), nil
			}
			return withLexical(a, before), nil
		}
		_, after, found := strings.Cut(a.Lexical, b.Lexical)
		if !found {
			return rdf.NewPlainLiteral(""), nil
		}
		return withLexical(a, after), nil

	case "SUBSTR":
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		start, err := numberArg(args[1])
		if err != nil {
			return nil, err
		}
		runes := []rune(l.Lexical)
		from := int(math.Floor(start.f+0.5)) - 1
		to := len(runes)
		if len(args) == 3 {
			length, err := numberArg(args[2])
			if err != nil {
				return nil, err
			}
			to = from + int(math.Floor(length.f+0.5))
		}
		from = max(from, 0)
		to = min(to, len(runes))
		if from >= to {
			return withLexical(l, ""), nil
		}
		return withLexical(l, string(runes[from:to])), nil

	case "REGEX":
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		re, err := ev.regexpArg(args[1:])
		if err != nil {
			return nil, err
		}
		return boolLit(re.MatchString(l.Lexical)), nil

	case "REPLACE":
		l, err := stringLiteral(args[0])
		if err != nil {
			return nil, err
		}
		repl, err := stringLiteral(args[2])
		if err != nil {
			return nil, err
		}
		reArgs := []rdf.Term{args[1]}
		if len(args) == 4 {
			reArgs = append(reArgs, args[3])
		}
		re, err := ev.regexpArg(reArgs)
		if err != nil {
			return nil, err
		}
		return withLexical(l, re.ReplaceAllString(l.Lexical, repl.Lexical)), nil

	case "YEAR", "MONTH", "DAY", "HOURS", "MINUTES":
		tm, _, err := timeArg(args[0])
		if err != nil {
			return nil, err
		}
		var v int
		switch e.Name {
		case "YEAR":
			v = tm.Year()
		case "MONTH":
			v = int(tm.Month())
		case "DAY":
			v = tm.Day()
		case "HOURS":
			v = tm.Hour()
		case "MINUTES":
			v = tm.Minute()
		}
		return intLit(int64(v)), nil

	case "SECONDS":
		tm, _, err := timeArg(args[0])
		if err != nil {
			return nil, err
		}
		return number{kind: numDecimal, f: float64(tm.Second()) + float64(tm.Nanosecond())/1e9}.literal(), nil

	case "TZ", "TIMEZONE":
		tm, l, err := timeArg(args[0])
		if err != nil {
			return nil, err
		}
		if !tzSuffix.MatchString(l.Lexical) {
			if e.Name == "TZ" {
				return rdf.NewPlainLiteral(""), nil
			}
			return nil, typeErrorf("TIMEZONE of a dateTime without timezone")
		}
		_, offset := tm.Zone()
		if e.Name == "TZ" {
			return rdf.NewPlainLiteral(tzSuffix.FindString(l.Lexical)), nil
		}
		return rdf.NewTypedLiteral(dayTimeDuration(offset), rdf.XSDNS+"dayTimeDuration"), nil

	case "NOW":
		return rdf.NewTypedLiteral(ev.now.Format(time.RFC3339Nano), rdf.XSDDateTime), nil

	case "UUID":
		return rdf.IRI("urn:uuid:" + uuid.NewString()), nil
	case "STRUUID":
		return rdf.NewPlainLiteral(uuid.NewString()), nil

	case "MD5", "SHA1", "SHA256", "SHA384", "SHA512":
		l, err := stringLiteral(args[0])
		if err != nil || l.Lang != "" {
			return nil, typeErrorf("%s requires a simple literal", e.Name)
		}
		var h hash.Hash
		switch e.Name {
		case "MD5":
			h = md5.New()
		case "SHA1":
			h = sha1.New()
		case "SHA256":
			h = sha256.New()
		case "SHA384":
			h = sha512.New384()
		default:
			h = sha512.New()
		}
		h.Write([]byte(l.Lexical))
		return rdf.NewPlainLiteral(hex.EncodeToString(h.Sum(nil))), nil

	case "STRLANG":
		l, err := stringLiteral(args[0])
		if err != nil || l.Lang != "" {
			return nil, typeErrorf("STRLANG requires a simple literal")
		}
		tag, err := stringLiteral(args[1])
		if err != nil || tag.Lexical == "" {
			return nil, typeErrorf("STRLANG requires a language tag")
		}
		return rdf.NewLangLiteral(l.Lexical, tag.Lexical), nil

	case "STRDT":
		l, err := stringLiteral(args[0])
		if err != nil || l.Lang != "" {
			return nil, typeErrorf("STRDT requires a simple literal")
		}
		dt, ok := args[1].(rdf.IRI)
		if !ok {
			return nil, typeErrorf("STRDT requires a datatype IRI")
		}
		return rdf.NewTypedLiteral(l.Lexical, dt), nil

	case "SAMETERM":
		return boolLit(args[0] == args[1]), nil
	case "ISIRI", "ISURI":
		_, ok := args[0].(rdf.IRI)
		return boolLit(ok), nil
	case "ISBLANK":
		_, ok := args[0].(rdf.BlankNode)
		return boolLit(ok), nil
	case "ISLITERAL":
		_, ok := args[0].(rdf.Literal)
		return boolLit(ok), nil
	case "ISNUMERIC":
		_, ok := toNumber(args[0])
		return boolLit(ok), nil
	}
	return nil, typeErrorf("unsupported function %s", e.Name)
}

func langMatches(tag, rng string) bool {
	if rng == "*" {
		return tag != ""
	}
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	return tag == rng || strings.HasPrefix(tag, rng+"-")
}

func encodeForURI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || strings.IndexByte("-._~", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func dayTimeDuration(offset int) string {
	if offset == 0 {
		return "PT0S"
	}
	sign := ""
	if offset < 0 {
		sign, offset = "-", -offset
	}
	h, m := offset/3600, (offset%3600)/60
	out := sign + "PT"
	if h > 0 {
		out += strconv.Itoa(h) + "H"
	}
	if m > 0 {
		out += strconv.Itoa(m) + "M"
	}
	return out
}

func (ev *evaluator) regexpArg(args []rdf.Term) (*regexp.Regexp, error) {
	pat, err := stringLiteral(args[0])
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) > 1 {
		f, err := stringLiteral(args[1])
		if err != nil {
			return nil, err
		}
		for _, c := range f.Lexical {
			switch c {
			case 'i', 's', 'm':
				flags += string(c)
			case 'x', 'q':
			default:
				return nil, typeErrorf("invalid regex flag %q", c)
			}
		}
	}
	src := pat.Lexical
	if flags != "" {
		src = "(?" + flags + ")" + src
	}
	if re, ok := ev.regexps[src]; ok {
		return re, nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, typeErrorf("invalid regex %q: %v", pat.Lexical, err)
	}
	ev.regexps[src] = re
	return re, nil
}

// callFunction evaluates a function IRI; the XSD constructor casts are
// supported.
func (ev *evaluator) callFunction(e *CallExpr, en *env) (rdf.Term, error) {
	fn, ok := ev.term(e.Func).(rdf.IRI)
	if !ok || len(e.Args) != 1 {
		return nil, typeErrorf("unsupported function %v", e.Func)
	}
	arg, err := ev.eval(e.Args[0], en)
	if err != nil {
		return nil, err
	}
	return cast(fn, arg)
}

func cast(dt rdf.IRI, t rdf.Term) (rdf.Term, error) {
	var lex string
	switch x := t.(type) {
	case rdf.IRI:
		if dt != rdf.XSDString {
			return nil, typeErrorf("cannot cast IRI to %s", dt)
		}
		return rdf.NewPlainLiteral(string(x)), nil
	case rdf.Literal:
		lex = strings.TrimSpace(x.Lexical)
	default:
		return nil, typeErrorf("cannot cast %s", n3(t))
	}
	n, isNum := toNumber(t)
	isBool := false
	if l := t.(rdf.Literal); l.Datatype == rdf.XSDBoolean {
		b, ok := l.Native().(bool)
		if !ok {
			return nil, typeErrorf("invalid boolean %q", lex)
		}
		isBool = true
		n = number{kind: numInteger}
		if b {
			n.i, n.f = 1, 1
		}
	}

	switch {
	case dt == rdf.XSDString:
		return rdf.NewPlainLiteral(t.(rdf.Literal).Lexical), nil

	case rdf.IsIntegerType(dt):
		if isNum || isBool {
			if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
				return nil, typeErrorf("cannot cast %s to integer", n3(t))
			}
			if n.kind != numInteger {
				n.i = int64(math.Trunc(n.f))
			}
			return intLit(n.i), nil
		}
		i, err := strconv.ParseInt(strings.TrimPrefix(lex, "+"), 10, 64)
		if err != nil {
			return nil, typeErrorf("cannot cast %q to integer", lex)
		}
		return intLit(i), nil

	case dt == rdf.XSDDecimal, dt == rdf.XSDDouble, dt == rdf.XSDFloat:
		kind := map[rdf.IRI]numKind{rdf.XSDDecimal: numDecimal, rdf.XSDDouble: numDouble, rdf.XSDFloat: numFloat}[dt]
		if isNum || isBool {
			return floatNumber(kind, n.f).literal(), nil
		}
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return nil, typeErrorf("cannot cast %q to %s", lex, dt)
		}
		return floatNumber(kind, f).literal(), nil

	case dt == rdf.XSDBoolean:
		if isNum {
			return boolLit(n.f != 0 && !math.IsNaN(n.f)), nil
		}
		switch lex {
		case "true", "1":
			return trueLit, nil
		case "false", "0":
			return falseLit, nil
		}
		return nil, typeErrorf("cannot cast %q to boolean", lex)

	case dt == rdf.XSDDateTime:
		l := rdf.NewTypedLiteral(lex, rdf.XSDDateTime)
		if _, ok := l.Native().(time.Time); !ok {
			return nil, typeErrorf("cannot cast %q to dateTime", lex)
		}
		return l, nil
	}
	return nil, typeErrorf("unsupported function %s", dt)
}

// ---------------------------------------------------------------------------
// Aggregates

func (ev *evaluator) aggregate(a *AggregateExpr, group []Solution) (rdf.Term, error) {
	if a.Star {
		if !a.Distinct {
			return intLit(int64(len(group))), nil
		}
		seen := map[string]bool{}
		for _, s := range group {
			seen[s.key(nil)] = true
		}
		return intLit(int64(len(seen))), nil
	}

	var values []rdf.Term
	seen := map[rdf.Term]bool{}
	for _, s := range group {
		v, err := ev.eval(a.Arg, &env{sol: s})
		if err != nil || v == nil {
			continue
		}
		if a.Distinct {
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		values = append(values, v)
	}

	switch a.Name {
	case "COUNT":
		return intLit(int64(len(values))), nil

	case "SUM", "AVG":
		sum := number{kind: numInteger}
		for _, v := range values {
			n, err := numberArg(v)
			if err != nil {
				return nil, err
			}
			if sum, err = arith("+", sum, n); err != nil {
				return nil, err
			}
		}
		if a.Name == "SUM" {
			return sum.literal(), nil
		}
		if len(values) == 0 {
			return intLit(0), nil
		}
		avg, err := arith("/", sum, number{kind: numInteger, i: int64(len(values)), f: float64(len(values))})
		if err != nil {
			return nil, err
		}
		return avg.literal(), nil

	case "MIN", "MAX":
		if len(values) == 0 {
			return nil, typeErrorf("%s of empty group", a.Name)
		}
		best := values[0]
		for _, v := range values[1:] {
			c := orderTerms(v, best)
			if (a.Name == "MIN" && c < 0) || (a.Name == "MAX" && c > 0) {
				best = v
			}
		}
		return best, nil

	case "SAMPLE":
		if len(values) == 0 {
			return nil, typeErrorf("SAMPLE of empty group")
		}
		return values[0], nil

	case "GROUP_CONCAT":
		parts := make([]string, 0, len(values))
		for _, v := range values {
			l, ok := v.(rdf.Literal)
			if !ok {
				return nil, typeErrorf("GROUP_CONCAT of %s", n3(v))
			}
			parts = append(parts, l.Lexical)
		}
		return rdf.NewPlainLiteral(strings.Join(parts, a.Separator)), nil
	}
	return nil, typeErrorf("unsupported aggregate %s", a.Name)
}

func hasAggregate(e Expr) bool {
	switch e := e.(type) {
	case *AggregateExpr:
		return true
	case *BinaryExpr:
		return hasAggregate(e.L) || hasAggregate(e.R)
	case *UnaryExpr:
		return hasAggregate(e.X)
	case *InExpr:
		if hasAggregate(e.X) {
			return true
		}
		for _, x := range e.List {
			if hasAggregate(x) {
				return true
			}
		}
	case *CallExpr:
		for _, x := range e.Args {
			if hasAggregate(x) {
				return true
			}
		}
	}
	return false
}
