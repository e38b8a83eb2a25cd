package server

import (
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// graphTypes maps graph media types to formats, in server preference order.
var graphTypes = []struct {
	mediaType string
	format    rdf.Format
}{
	{"application/n-triples", rdf.FormatNTriples},
	{"text/turtle", rdf.FormatTurtle},
	{"application/ld+json", rdf.FormatJSONLD},
	{"text/plain", rdf.FormatNTriples},
}

type acceptRange struct {
	mediaType string
	q         float64
}

// parseAccept returns the ranges of an Accept header, best first. Ranges
// with equal weight keep their order.
func parseAccept(header string) []acceptRange {
	var out []acceptRange
	for _, part := range strings.Split(header, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		if q > 0 {
			out = append(out, acceptRange{mt, q})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].q > out[j].q })
	return out
}

func matches(pattern, mediaType string) bool {
	if pattern == "*/*" || pattern == mediaType {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		return strings.HasPrefix(mediaType, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// graphFormat picks the serialization for a graph answer. An empty header
// means N-Triples.
func graphFormat(accept string) (string, rdf.Format, error) {
	ranges := parseAccept(accept)
	if len(ranges) == 0 {
		return graphTypes[0].mediaType, graphTypes[0].format, nil
	}
	for _, r := range ranges {
		for _, gt := range graphTypes {
			if matches(r.mediaType, gt.mediaType) {
				return gt.mediaType, gt.format, nil
			}
		}
	}
	return "", "", errors.New(errors.ErrCodeInvalidFormat, "no acceptable graph format in %q", accept)
}

func writeResults(w http.ResponseWriter, accept string, res *sparql.Results) error {
	switch res.Form {
	case sparql.FormConstruct, sparql.FormDescribe:
		mt, format, err := graphFormat(accept)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", mt)
		w.WriteHeader(http.StatusOK)
		return rdf.Write(w, res.Graph, format)
	}
	w.Header().Set("Content-Type", sparql.MediaTypeJSON)
	w.WriteHeader(http.StatusOK)
	return sparql.EncodeJSON(w, res)
}
