package sparql

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokBlank
	tokVar
	tokString
	tokInteger
	tokDecimal
	tokDouble
	tokLang
	tokWord
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokVar:
		return "variable"
	case tokString:
		return "string"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokLang:
		return "language tag"
	case tokWord:
		return "keyword"
	}
	return "punctuation"
}

type token struct {
	kind tokenKind
	val  string
	line int
	col  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.val)
}

// is reports whether t is the keyword or punctuation s (keywords compare
// case-insensitively).
func (t token) is(s string) bool {
	switch t.kind {
	case tokWord:
		return strings.EqualFold(t.val, s)
	case tokPunct:
		return t.val == s
	}
	return false
}

// ParseError reports a syntax error at a 1-based line and column.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &ParseError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekRune(off int) rune {
	p := l.pos
	for i := 0; i < off; i++ {
		if p >= len(l.src) {
			return -1
		}
		_, w := utf8.DecodeRuneInString(l.src[p:])
		p += w
	}
	if p >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[p:])
	return r
}

func (l *lexer) advance() rune {
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		switch {
		case r == '#':
			for l.pos < len(l.src) && l.peekRune(0) != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	line, col := l.line, l.col
	mk := func(kind tokenKind, val string) (token, error) {
		return token{kind: kind, val: val, line: line, col: col}, nil
	}
	if l.pos >= len(l.src) {
		return mk(tokEOF, "")
	}

	r := l.peekRune(0)
	switch {
	case r == '<':
		if iri, ok := l.scanIRIRef(); ok {
			return mk(tokIRI, iri)
		}
		l.advance()
		if l.peekRune(0) == '=' {
			l.advance()
			return mk(tokPunct, "<=")
		}
		return mk(tokPunct, "<")

	case r == '?' || r == '$':
		if isVarStart(l.peekRune(1)) {
			l.advance()
			return mk(tokVar, l.scanWhile(isVarChar))
		}
		if r == '?' {
			l.advance()
			return mk(tokPunct, "?")
		}
		return token{}, l.errorf(line, col, "unexpected character %q", r)

	case r == '"' || r == '\'':
		s, err := l.scanString()
		if err != nil {
			return token{}, err
		}
		return mk(tokString, s)

	case r == '@':
		l.advance()
		tag := l.scanWhile(func(r rune) bool { return isASCIILetter(r) || isDigit(r) || r == '-' })
		if tag == "" || !isASCIILetter(rune(tag[0])) {
			return token{}, l.errorf(line, col, "invalid language tag")
		}
		return mk(tokLang, tag)

	case r == '_' && l.peekRune(1) == ':':
		l.advance()
		l.advance()
		label := l.scanLocal()
		if label == "" {
			return token{}, l.errorf(line, col, "empty blank node label")
		}
		return mk(tokBlank, label)

	case isDigit(r) || (r == '.' && isDigit(l.peekRune(1))):
		return l.scanNumber(line, col)

	case r == ':' || isPrefixStart(r):
		if name, ok := l.scanPName(); ok {
			return mk(tokPName, name)
		}
		if isASCIILetter(r) {
			return mk(tokWord, l.scanWhile(func(r rune) bool { return isASCIILetter(r) || isDigit(r) || r == '_' }))
		}
	}

	l.advance()
	two := string(r) + string(l.peekRune(0))
	switch two {
	case "^^", "&&", "||", "!=", ">=":
		l.advance()
		return mk(tokPunct, two)
	}
	if strings.ContainsRune("{}()[].,;*/|^+-!=>", r) {
		return mk(tokPunct, string(r))
	}
	return token{}, l.errorf(line, col, "unexpected character %q", r)
}

// scanIRIRef scans <...> if the text at pos is a valid IRIREF.
func (l *lexer) scanIRIRef() (string, bool) {
	end := l.pos + 1
	for end < len(l.src) {
		c := l.src[end]
		if c == '>' {
			iri := l.src[l.pos+1 : end]
			for l.pos <= end {
				l.advance()
			}
			return unescapeUchar(iri), true
		}
		if c <= 0x20 || strings.IndexByte("<\"{}|^`", c) >= 0 {
			return "", false
		}
		end++
	}
	return "", false
}

func (l *lexer) scanWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.peekRune(0)) {
		l.advance()
	}
	return l.src[start:l.pos]
}

// scanPName scans PNAME_NS or PNAME_LN. It restores the position when the
// text is not a prefixed name.
func (l *lexer) scanPName() (string, bool) {
	savePos, saveLine, saveCol := l.pos, l.line, l.col
	prefix := l.scanWhile(isPrefixChar)
	for strings.HasSuffix(prefix, ".") {
		// A trailing dot belongs to the surrounding syntax.
		l.pos--
		l.col--
		prefix = prefix[:len(prefix)-1]
	}
	if l.peekRune(0) != ':' {
		l.pos, l.line, l.col = savePos, saveLine, saveCol
		return "", false
	}
	l.advance()
	return prefix + ":" + l.scanLocal(), true
}

// scanLocal scans a PN_LOCAL, excluding a trailing dot.
func (l *lexer) scanLocal() string {
	var b strings.Builder
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		switch {
		case r == '\\' && strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", l.peekRune(1)):
			l.advance()
			b.WriteRune(l.advance())
		case r == '%' && isHex(l.peekRune(1)) && isHex(l.peekRune(2)):
			b.WriteRune(l.advance())
			b.WriteRune(l.advance())
			b.WriteRune(l.advance())
		case r == '.':
			next := l.peekRune(1)
			if !(isLocalChar(next) || next == '.' || next == ':' || next == '%' || next == '\\') {
				return b.String()
			}
			b.WriteRune(l.advance())
		case isLocalChar(r) || r == ':':
			b.WriteRune(l.advance())
		default:
			return b.String()
		}
	}
	return b.String()
}

func (l *lexer) scanNumber(line, col int) (token, error) {
	start := l.pos
	kind := tokInteger
	l.scanWhile(isDigit)
	if l.peekRune(0) == '.' && isDigit(l.peekRune(1)) {
		kind = tokDecimal
		l.advance()
		l.scanWhile(isDigit)
	}
	if r := l.peekRune(0); r == 'e' || r == 'E' {
		n := l.peekRune(1)
		if isDigit(n) || ((n == '+' || n == '-') && isDigit(l.peekRune(2))) {
			kind = tokDouble
			l.advance()
			if n == '+' || n == '-' {
				l.advance()
			}
			l.scanWhile(isDigit)
		}
	}
	return token{kind: kind, val: l.src[start:l.pos], line: line, col: col}, nil
}

func (l *lexer) scanString() (string, error) {
	line, col := l.line, l.col
	q := l.advance()
	long := l.peekRune(0) == q && l.peekRune(1) == q
	if long {
		l.advance()
		l.advance()
	} else if l.peekRune(0) == q {
		l.advance()
		return "", nil
	}

	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		r := l.peekRune(0)
		switch {
		case r == q && !long:
			l.advance()
			return b.String(), nil
		case r == q && long && l.peekRune(1) == q && l.peekRune(2) == q:
			l.advance()
			l.advance()
			l.advance()
			return b.String(), nil
		case (r == '\n' || r == '\r') && !long:
			return "", l.errorf(line, col, "unterminated string")
		case r == '\\':
			el, ec := l.line, l.col
			l.advance()
			e := l.advance()
			switch e {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\':
				b.WriteRune(e)
			case 'u', 'U':
				n := 4
				if e == 'U' {
					n = 8
				}
				if l.pos+n > len(l.src) {
					return "", l.errorf(el, ec, "invalid escape")
				}
				v, err := strconv.ParseUint(l.src[l.pos:l.pos+n], 16, 32)
				if err != nil {
					return "", l.errorf(el, ec, "invalid escape")
				}
				for range n {
					l.advance()
				}
				b.WriteRune(rune(v))
			default:
				return "", l.errorf(el, ec, "invalid escape \\%c", e)
			}
		default:
			b.WriteRune(l.advance())
		}
	}
}

func unescapeUchar(s string) string {
	if !strings.Contains(s, `\u`) && !strings.Contains(s, `\U`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == 'u' || s[i+1] == 'U') {
			n := 4
			if s[i+1] == 'U' {
				n = 8
			}
			if i+2+n <= len(s) {
				if v, err := strconv.ParseUint(s[i+2:i+2+n], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 1 + n
					continue
				}
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isDigit(r rune) bool       { return r >= '0' && r <= '9' }
func isASCIILetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// isCharsBase approximates PN_CHARS_BASE.
func isCharsBase(r rune) bool {
	return isASCIILetter(r) || (r >= 0xC0 && r != 0xD7 && r != 0xF7 && r >= 0 && (unicode.IsLetter(r) || unicode.IsMark(r) || r >= 0x10000))
}

func isCharsU(r rune) bool { return isCharsBase(r) || r == '_' }

// isChars approximates PN_CHARS.
func isChars(r rune) bool {
	return isCharsU(r) || r == '-' || isDigit(r) || r == 0xB7 ||
		(r >= 0x300 && r <= 0x36F) || (r >= 0x203F && r <= 0x2040)
}

func isVarStart(r rune) bool { return isCharsU(r) || isDigit(r) }

// isVarChar matches the VARNAME continuation set, which excludes '-'.
func isVarChar(r rune) bool {
	return isCharsU(r) || isDigit(r) || r == 0xB7 ||
		(r >= 0x300 && r <= 0x36F) || (r >= 0x203F && r <= 0x2040)
}

func isPrefixStart(r rune) bool { return isCharsBase(r) }
func isPrefixChar(r rune) bool  { return isChars(r) || r == '.' }
func isLocalChar(r rune) bool   { return isChars(r) || r == ':' }
