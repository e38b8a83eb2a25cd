package endpoint

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/observability"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// Character classes of the SPARQL grammar, in Go regexp syntax.
const (
	pnCharsBase = `A-Za-z\x{00C0}-\x{00D6}\x{00D8}-\x{00F6}\x{00F8}-\x{02FF}\x{0370}-\x{037D}` +
		`\x{037F}-\x{1FFF}\x{200C}-\x{200D}\x{2070}-\x{218F}\x{2C00}-\x{2FEF}\x{3001}-\x{D7FF}` +
		`\x{F900}-\x{FDCF}\x{FDF0}-\x{FFFD}\x{10000}-\x{EFFFF}`
	pnCharsU = `_` + pnCharsBase
	pnCharsX = `\x{00B7}\x{0300}-\x{036F}\x{203F}-\x{2040}`
	pnChars  = `\-0-9` + pnCharsX + pnCharsU
)

var (
	// varPattern matches ?name and $name tokens.
	varPattern = regexp.MustCompile(`[?$]([` + pnCharsU + `0-9][` + pnCharsU + `0-9` + pnCharsX + `]*)`)

	// localPattern is PN_LOCAL without percent escapes and colons.
	localPattern = regexp.MustCompile(`^[` + pnCharsU + `0-9](?:[` + pnChars + `.]*[` + pnChars + `])?$`)

	// prefixPattern matches a candidate prefix at the start of the input.
	prefixPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z_0-9.-]*):`)
)

// candidatePrefixes returns every identifier followed by a colon that is not
// preceded by a letter or '<'. It over-approximates the prefixes a query
// uses: matches inside strings and IRIs count too.
func candidatePrefixes(text string) map[string]bool {
	out := make(map[string]bool)
	for i := 0; i < len(text); i++ {
		if i > 0 {
			c := text[i-1]
			if c == '<' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
				continue
			}
		}
		if m := prefixPattern.FindStringSubmatch(text[i:]); m != nil {
			out[m[1]] = true
			i += len(m[0]) - 1
		}
	}
	return out
}

type textKind int

const (
	kindQuery textKind = iota
	kindUpdate
)

// prologue is what a query declares for itself.
type prologue struct {
	base     string
	prefixes map[string]bool
}

func parsePrologue(text string, kind textKind) (prologue, error) {
	var pro *sparql.Prologue
	if kind == kindUpdate {
		u, err := sparql.ParseUpdate(text)
		if err != nil {
			return prologue{}, err
		}
		pro = &u.Prologue
	} else {
		q, err := sparql.ParseQuery(text)
		if err != nil {
			return prologue{}, err
		}
		pro = &q.Prologue
	}
	out := prologue{base: pro.Base, prefixes: make(map[string]bool, len(pro.Prefixes))}
	for _, d := range pro.Prefixes {
		out.prefixes[d.Prefix] = true
	}
	return out, nil
}

// injectPrefixes prepends the base URI and the prefix declarations the query
// needs but does not make. Without endpoint prefixes, or on a raw endpoint,
// the text is returned unchanged and unparsed.
func (e *Endpoint) injectPrefixes(ctx context.Context, text string, kind textKind) (string, error) {
	if e.prefixes == nil || e.raw {
		return text, nil
	}
	declared, err := parsePrologue(text, kind)
	if err != nil {
		return "", callerParseError(text, kind, err)
	}

	var head strings.Builder
	if e.baseURI != "" && declared.base == "" {
		fmt.Fprintf(&head, "base <%s>\n", e.baseURI)
	}

	var injected []string
	candidates := candidatePrefixes(text)
	for _, p := range e.prefixes.Prefixes() {
		if !candidates[p] || declared.prefixes[p] {
			continue
		}
		ns, _ := e.prefixes.Namespace(p)
		fmt.Fprintf(&head, "prefix %s: <%s>\n", p, ns)
		injected = append(injected, p)
	}
	if len(injected) > 0 {
		observability.Query().OnPrefixesInjected(ctx, injected)
	}
	return head.String() + text, nil
}

// substitute replaces every bound variable token with the N3 form of its value.
func (e *Endpoint) substitute(text string, b Bindings) (string, error) {
	if len(b) == 0 {
		return text, nil
	}
	matches := varPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		name := text[m[2]:m[3]]
		v, ok := b[name]
		if !ok {
			continue
		}
		term, err := e.toTerm(v)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidSubstitution, err, "cannot substitute ?%s", name)
		}
		out.WriteString(text[last:m[0]])
		out.WriteString(term.N3())
		last = m[1]
	}
	out.WriteString(text[last:])
	return out.String(), nil
}

// toTerm converts a bound value into the term that is written into a query.
func (e *Endpoint) toTerm(v any) (rdf.Term, error) {
	var t rdf.Term
	switch x := v.(type) {
	case QName:
		iri, err := x.Resolve(e.prefixes)
		if err != nil {
			return nil, err
		}
		t = iri
	case *QName:
		return e.toTerm(*x)
	case URI:
		t = x.IRI
	case *URI:
		t = x.IRI
	case rdf.Term:
		t = x
	default:
		lit, err := rdf.NewLiteral(v)
		if err != nil {
			return nil, err
		}
		t = lit
	}
	if bn, ok := t.(rdf.BlankNode); ok {
		return e.be.blankNode(bn), nil
	}
	return t, nil
}

// prepare runs prefix injection and substitution on text.
func (e *Endpoint) prepare(ctx context.Context, text string, kind textKind, b Bindings) (string, error) {
	out, err := e.injectPrefixes(ctx, text, kind)
	if err != nil {
		return "", err
	}
	out, err = e.substitute(out, b)
	if err != nil {
		return "", err
	}
	e.logger.Debug("prepared query", "target", e.be.target(), "text", out)
	return out, nil
}
