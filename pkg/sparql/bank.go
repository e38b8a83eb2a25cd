package sparql

import (
	_ "embed"
	"strings"
	"sync"

	ksparql "github.com/knakk/sparql"

	"github.com/matzehuels/gastrodon/pkg/errors"
)

//go:embed queries.rq
var bankSource string

var (
	bankOnce sync.Once
	bank     ksparql.Bank
)

// Bank query tags.
const (
	QueryDecollectSurvey = "decollect-survey"
	QueryDecollectBag    = "decollect-bag"
	QueryDecollectSeq    = "decollect-seq"
	QueryPeel            = "peel"
	QuerySample          = "sample"
	QueryDescribe        = "describe"
)

// BankQuery returns the built-in query tagged name. data fills the
// text/template fields of the query, if it has any.
func BankQuery(name string, data any) (string, error) {
	bankOnce.Do(func() {
		bank = ksparql.LoadBank(strings.NewReader(bankSource))
	})
	q, err := bank.Prepare(name, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNotFound, err, "query %q", name)
	}
	return strings.TrimSpace(q), nil
}

// MustBankQuery is like BankQuery but panics on error. It is meant for the
// queries of this package, whose names are constants.
func MustBankQuery(name string, data any) string {
	q, err := BankQuery(name, data)
	if err != nil {
		panic(err)
	}
	return q
}
