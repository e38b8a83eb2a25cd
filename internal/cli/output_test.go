package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/frame"
	"github.com/matzehuels/gastrodon/pkg/rdf"
)

func TestCheckFormat(t *testing.T) {
	if err := checkFormat("csv", tableFormats); err != nil {
		t.Errorf("checkFormat(csv) error: %v", err)
	}
	err := checkFormat("xml", tableFormats)
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Fatalf("checkFormat(xml) error = %v, want INVALID_FORMAT", err)
	}
	if !strings.Contains(err.Error(), "table, csv, json") {
		t.Errorf("error %q should list the valid formats", err)
	}
}

func TestWriteFrame(t *testing.T) {
	f := frame.New([]string{"name", "age"})
	_ = f.AppendRow("alice", int64(30))
	_ = f.AppendRow("bob", nil)

	tests := []struct {
		format string
		want   string
	}{
		{formatCSV, "name,age\nalice,30\nbob,\n"},
		{formatJSON, `"age": 30`},
		{formatTable, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeFrame(&buf, f, tt.format); err != nil {
				t.Fatalf("writeFrame() error: %v", err)
			}
			if tt.format == formatCSV {
				if buf.String() != tt.want {
					t.Errorf("writeFrame() = %q, want %q", buf.String(), tt.want)
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("writeFrame() = %q, missing %q", buf.String(), tt.want)
			}
		})
	}

	if err := writeFrame(&bytes.Buffer{}, f, "xml"); errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("writeFrame(xml) error = %v, want INVALID_FORMAT", err)
	}
}

func sampleGraph(t *testing.T) (*endpoint.Local, *rdf.Graph) {
	t.Helper()
	l, err := endpoint.Inline(`
@prefix ex: <http://example.com/> .
ex:app ex:uses ex:db ; ex:name "App" .
`)
	if err != nil {
		t.Fatalf("Inline() error: %v", err)
	}
	return l, l.Graph()
}

func TestGraphOutput(t *testing.T) {
	l, g := sampleGraph(t)

	tests := []struct {
		format string
		want   string
	}{
		{formatTurtle, "ex:app"},
		{formatNTriples, "<http://example.com/app> <http://example.com/uses> <http://example.com/db> ."},
		{formatJSONLD, "@context"},
		{formatDOT, "digraph"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			out := graphOutput{format: tt.format}
			if err := out.write(&buf, l, g); err != nil {
				t.Fatalf("write() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("write(%s) = %q, missing %q", tt.format, buf.String(), tt.want)
			}
		})
	}
}

func TestGraphOutputToFile(t *testing.T) {
	l, g := sampleGraph(t)
	path := filepath.Join(t.TempDir(), "graph.nt")

	var buf bytes.Buffer
	out := graphOutput{format: formatNTriples, output: path}
	if err := out.write(&buf, l, g); err != nil {
		t.Fatalf("write() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("stdout should be empty when writing to a file, got %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "\n") != 2 {
		t.Errorf("file has %q, want 2 triples", data)
	}
}

func TestGraphOutputErrors(t *testing.T) {
	l, g := sampleGraph(t)

	for _, format := range []string{formatPDF, formatPNG} {
		err := graphOutput{format: format, output: "-"}.write(&bytes.Buffer{}, l, g)
		if errors.GetCode(err) != errors.ErrCodeInvalidInput {
			t.Errorf("%s to stdout error = %v, want INVALID_INPUT", format, err)
		}
	}

	err := graphOutput{format: "gif"}.write(&bytes.Buffer{}, l, g)
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("gif error = %v, want INVALID_FORMAT", err)
	}
}
