package endpoint

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

var errorHeader = []string{"*** ERROR ***", ""}

// markQuery returns the lines of text with a caret under the failing column
// and a trailing position line.
func markQuery(text string, line, col int) []string {
	lines := strings.Split(text, "\n")
	at := min(max(line, 0), len(lines))
	caret := strings.Repeat(" ", max(col-1, 0)) + "^"
	lines = append(lines[:at], append([]string{caret}, lines[at:]...)...)
	return append(lines, fmt.Sprintf("Error at line %d and column %d", line, col))
}

func renderParseError(explain []string, text string, pe *sparql.ParseError) []string {
	out := append([]string{}, errorHeader...)
	out = append(out, explain...)
	return append(out, markQuery(text, pe.Line, pe.Column)...)
}

// callerParseError reports a query or update that failed to parse as
// written by the caller.
func callerParseError(text string, kind textKind, err error) error {
	var pe *sparql.ParseError
	if !stderrors.As(err, &pe) {
		return err
	}
	explain := []string{
		"Failure parsing SPARQL query supplied by caller;  this is either a user error",
		"or an error in a function that generated this query.  Query text follows:",
		"",
	}
	what := "query"
	if kind == kindUpdate {
		explain = []string{
			"Failure parsing SPARQL update statement supplied by caller;  this is either a user error or ",
			"an error in a function that generated this query.  Query text follows:",
			"",
		}
		what = "update"
	}
	return errors.Wrap(errors.ErrCodeInvalidQuery, err, "failed to parse SPARQL %s", what).
		WithLines(renderParseError(explain, text, pe))
}

// substitutedParseError reports text that parsed before substitution but not
// after it.
func substitutedParseError(text string, err error) error {
	var pe *sparql.ParseError
	if !stderrors.As(err, &pe) {
		return err
	}
	explain := []string{
		"Failure parsing SPARQL query after argument substitution.  This is almost certainly an error inside",
		"Gastrodon.  Substituted query text follows:",
		"",
	}
	return errors.Wrap(errors.ErrCodeInvalidSubstitution, err, "failed to parse substituted SPARQL").
		WithLines(renderParseError(explain, text, pe))
}

// httpError reports a failed request to a remote endpoint. The code of the
// transport error is kept when it has one.
func httpError(url string, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeEndpoint
	}
	lines := append([]string{}, errorHeader...)
	lines = append(lines, "HTTP Error doing Remote SPARQL query to endpoint at", url, "", err.Error())
	return errors.Wrap(code, err, "HTTP error querying %s", url).WithLines(lines)
}
