package frame

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gastrodon/pkg/errors"
)

func cities() *Frame {
	f := New([]string{"city", "country", "population"})
	f.AppendRow("Hamburg", "DE", "1900000")
	f.AppendRow("Berlin", "DE", "3700000")
	f.AppendRow("Lyon", "FR", nil)
	return f
}

func TestAppendRow(t *testing.T) {
	f := New([]string{"a", "b"})
	if err := f.AppendRow(1); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	if v, _ := f.At(0, "b"); v != nil {
		t.Errorf("missing value = %v, want nil", v)
	}
	if err := f.AppendRow(1, 2, 3); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("AppendRow() with too many values error = %v", err)
	}
}

func TestSetColumn(t *testing.T) {
	f := cities()
	if err := f.SetColumn("population", []any{1900000, 3700000, 520000}); err != nil {
		t.Fatalf("SetColumn() error = %v", err)
	}
	if diff := cmp.Diff([]any{1900000, 3700000, 520000}, f.Column("population")); diff != "" {
		t.Errorf("Column() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name   string
		column string
		values []any
		want   errors.Code
	}{
		{"unknown column", "area", []any{1, 2, 3}, errors.ErrCodeNotFound},
		{"too few values", "country", []any{"DE"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.SetColumn(tt.column, tt.values); !errors.Is(err, tt.want) {
				t.Errorf("SetColumn() error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	f := cities()
	if err := f.SetIndex("city"); err != nil {
		t.Fatalf("SetIndex() error = %v", err)
	}
	if diff := cmp.Diff([]string{"country", "population"}, f.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"city", "country", "population"}, f.Header()); diff != "" {
		t.Errorf("Header() mismatch (-want +got):\n%s", diff)
	}

	row, err := f.Loc("Berlin")
	if err != nil {
		t.Fatalf("Loc() error = %v", err)
	}
	if row["population"] != "3700000" {
		t.Errorf("Loc(Berlin) = %v", row)
	}
	if _, err := f.Loc("Paris"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Loc(Paris) error = %v, want NOT_FOUND", err)
	}

	f.SortByIndex()
	if diff := cmp.Diff([]any{"Berlin", "Hamburg", "Lyon"}, f.Column("city")); diff != "" {
		t.Errorf("SortByIndex() mismatch (-want +got):\n%s", diff)
	}

	if err := f.SetIndex("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("SetIndex(nope) error = %v", err)
	}
	if diff := cmp.Diff([]string{"city"}, f.Index()); diff != "" {
		t.Errorf("failed SetIndex changed the index: %v", f.Index())
	}
}

func TestLocMultiColumnIndex(t *testing.T) {
	f := cities()
	if err := f.SetIndex("country", "city"); err != nil {
		t.Fatal(err)
	}
	row, err := f.Loc("FR", "Lyon")
	if err != nil {
		t.Fatalf("Loc() error = %v", err)
	}
	if row["population"] != nil {
		t.Errorf("population = %v, want nil", row["population"])
	}
	if _, err := f.Loc("FR"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Loc() with a short key error = %v", err)
	}
}

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"integers", []any{"1", nil, "-20"}, []any{int64(1), nil, int64(-20)}},
		{"floats", []any{"1", "2.5"}, []any{1.0, 2.5}},
		{"mixed strings", []any{"1", "two"}, []any{"1", "two"}},
		{"non strings", []any{"1", int64(2)}, []any{"1", int64(2)}},
		{"all nil", []any{nil, nil}, []any{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New([]string{"x"})
			for _, v := range tt.in {
				f.AppendRow(v)
			}
			if err := f.NormalizeColumn("x"); err != nil {
				t.Fatalf("NormalizeColumn() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, f.Column("x")); diff != "" {
				t.Errorf("NormalizeColumn() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOne(t *testing.T) {
	f := New([]string{"n"})
	f.AppendRow(int64(42))
	if v, err := One(f); err != nil || v != int64(42) {
		t.Errorf("One() = %v, %v", v, err)
	}
	f.AppendRow(int64(43))
	if _, err := One(f); err == nil {
		t.Error("One() on two rows succeeded")
	}

	if _, err := OneOf([]string{}); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("OneOf(empty) error = %v", err)
	}
	if _, err := OneOf([]int{1, 2}); err == nil || !strings.Contains(err.Error(), "more than one member") {
		t.Errorf("OneOf(two) error = %v", err)
	}
	if v, err := OneOf([]int{7}); err != nil || v != 7 {
		t.Errorf("OneOf([7]) = %v, %v", v, err)
	}
}

func TestCompare(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b any
		want int
	}{
		{nil, int64(1), -1},
		{int64(2), 1.5, 1},
		{int64(2), 2.0, 0},
		{t0, t0.Add(time.Hour), -1},
		{"b", "a", 1},
		{int64(5), "a", -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestWriteCSVAndJSON(t *testing.T) {
	f := cities()
	f.Normalize()
	f.SetIndex("city")

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := "city,country,population\nHamburg,DE,1900000\nBerlin,DE,3700000\nLyon,FR,\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := f.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"population": 1900000`) || !strings.Contains(buf.String(), `"population": null`) {
		t.Errorf("WriteJSON() = %s", buf.String())
	}
}

func TestRender(t *testing.T) {
	f := cities()
	out := f.Render()
	for _, s := range []string{"city", "Hamburg", "3700000"} {
		if !strings.Contains(out, s) {
			t.Errorf("Render() lacks %q:\n%s", s, out)
		}
	}
}
