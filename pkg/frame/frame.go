package frame

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/gastrodon/pkg/errors"
)

// Frame is a table of rows with named columns.
//
// The zero value is an empty frame without columns.
type Frame struct {
	names []string
	rows  [][]any
	index []int // positions in names
}

// New returns an empty frame with the given columns.
func New(columns []string) *Frame {
	return &Frame{names: slices.Clone(columns)}
}

// AppendRow adds a row. Missing trailing values are nil; extra values are an
// error.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) > len(f.names) {
		return errors.New(errors.ErrCodeInvalidInput, "row has %d values, frame has %d columns", len(values), len(f.names))
	}
	row := make([]any, len(f.names))
	copy(row, values)
	f.rows = append(f.rows, row)
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Columns returns the names of the data columns, excluding the index.
func (f *Frame) Columns() []string {
	out := make([]string, 0, len(f.names)-len(f.index))
	for i, n := range f.names {
		if !slices.Contains(f.index, i) {
			out = append(out, n)
		}
	}
	return out
}

// Index returns the names of the index columns.
func (f *Frame) Index() []string {
	out := make([]string, len(f.index))
	for i, pos := range f.index {
		out[i] = f.names[pos]
	}
	return out
}

func (f *Frame) pos(name string) int {
	return slices.Index(f.names, name)
}

// HasColumn reports whether name is a data or index column.
func (f *Frame) HasColumn(name string) bool { return f.pos(name) >= 0 }

// Column returns the values of a data or index column, or nil when there is
// no such column.
func (f *Frame) Column(name string) []any {
	p := f.pos(name)
	if p < 0 {
		return nil
	}
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[p]
	}
	return out
}

// SetColumn replaces the values of an existing column.
func (f *Frame) SetColumn(name string, values []any) error {
	p := f.pos(name)
	if p < 0 {
		return errors.New(errors.ErrCodeNotFound, "no column %q", name)
	}
	if len(values) != len(f.rows) {
		return errors.New(errors.ErrCodeInvalidInput, "column %q needs %d values, got %d", name, len(f.rows), len(values))
	}
	for i, r := range f.rows {
		r[p] = values[i]
	}
	return nil
}

// Row returns row i as a map from column name to value, index included.
func (f *Frame) Row(i int) map[string]any {
	out := make(map[string]any, len(f.names))
	for j, n := range f.names {
		out[n] = f.rows[i][j]
	}
	return out
}

// At returns the value of column name in row i.
func (f *Frame) At(i int, name string) (any, error) {
	p := f.pos(name)
	if p < 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no column %q", name)
	}
	if i < 0 || i >= len(f.rows) {
		return nil, errors.New(errors.ErrCodeNotFound, "row %d out of range [0, %d)", i, len(f.rows))
	}
	return f.rows[i][p], nil
}

// SetIndex makes the named columns the index, replacing any previous index.
// Calling it with no names clears the index.
func (f *Frame) SetIndex(names ...string) error {
	index := make([]int, 0, len(names))
	for _, n := range names {
		p := f.pos(n)
		if p < 0 {
			return errors.New(errors.ErrCodeNotFound, "cannot index by unknown column %q", n)
		}
		index = append(index, p)
	}
	f.index = index
	return nil
}

// Loc returns the first row whose index values equal key.
func (f *Frame) Loc(key ...any) (map[string]any, error) {
	if len(f.index) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "frame has no index")
	}
	if len(key) != len(f.index) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "index has %d columns, key has %d values", len(f.index), len(key))
	}
	for i, r := range f.rows {
		match := true
		for k, p := range f.index {
			if !equal(r[p], key[k]) {
				match = false
				break
			}
		}
		if match {
			return f.Row(i), nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no row with index %v", key)
}

// SortByIndex orders rows by their index values. Rows keep their relative
// order when the index is empty or values tie.
func (f *Frame) SortByIndex() {
	if len(f.index) == 0 {
		return
	}
	slices.SortStableFunc(f.rows, func(a, b []any) int {
		for _, p := range f.index {
			if c := Compare(a[p], b[p]); c != 0 {
				return c
			}
		}
		return 0
	})
}

// Records returns every row as a map, index columns included.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, len(f.rows))
	for i := range f.rows {
		out[i] = f.Row(i)
	}
	return out
}

func (f *Frame) String() string {
	return f.Render()
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two cell values: nil first, then numbers, times, and
// everything else by its display text.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 0:
		return 0
	case 1:
		return cmp.Compare(toFloat(a), toFloat(b))
	case 2:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return strings.Compare(Format(a), Format(b))
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return 1
	case time.Time:
		return 2
	}
	return 3
}

func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int())
	case rv.CanUint():
		return float64(rv.Uint())
	case rv.CanFloat():
		return rv.Float()
	}
	return 0
}

// Format returns the display text of a cell value.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
