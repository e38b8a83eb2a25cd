package cli

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

// readText resolves a QUERY argument: "-" reads stdin, "@path" reads a
// file, anything else is the text itself.
func readText(arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return string(data), nil
	case strings.HasPrefix(arg, "@"):
		path := arg[1:]
		if err := errors.ValidatePath(path); err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "query file %s not found", path)
		}
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return arg, nil
}

var (
	bindName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)
	bindQName = regexp.MustCompile(`^[A-Za-z][A-Za-z_0-9.-]*:[^/\s]*$`)
)

// parseBindings turns name=value flags into bindings. A leading '?' on the
// name is dropped.
func parseBindings(flags []string) (endpoint.Bindings, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	b := make(endpoint.Bindings, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), "?")
		if !ok || !bindName.MatchString(name) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid binding %q: want name=value", f)
		}
		b[name] = bindValue(value)
	}
	return b, nil
}

// bindValue infers the type of a --bind value:
//
//	<http://x/y>   IRI
//	_:b1           blank node
//	ex:thing       prefixed name, resolved by the endpoint
//	42, 4.2        integer, double
//	true, false    boolean
//	"text"         string (quotes removed)
//
// Anything else is a plain string.
func bindValue(s string) any {
	switch {
	case len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>':
		return rdf.IRI(s[1 : len(s)-1])
	case strings.HasPrefix(s, "_:") && len(s) > 2:
		return rdf.BlankNode(s[2:])
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	case s == "true" || s == "false":
		return s == "true"
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if bindQName.MatchString(s) {
		return endpoint.QName{Name: s}
	}
	return s
}
