package frame

import (
	"strconv"

	"github.com/matzehuels/gastrodon/pkg/errors"
)

// NormalizeColumn converts a column holding only strings (and nils) into
// int64 when every string parses as one, else into float64 when every string
// parses as one. Any other column is left as it is.
func (f *Frame) NormalizeColumn(name string) error {
	p := f.pos(name)
	if p < 0 {
		return errors.New(errors.ErrCodeNotFound, "no column %q", name)
	}
	var strs []string
	for _, r := range f.rows {
		switch v := r[p].(type) {
		case nil:
		case string:
			strs = append(strs, v)
		default:
			return nil
		}
	}
	if len(strs) == 0 {
		return nil
	}

	if allParse(strs, func(s string) error { _, err := strconv.ParseInt(s, 10, 64); return err }) {
		for _, r := range f.rows {
			if s, ok := r[p].(string); ok {
				r[p], _ = strconv.ParseInt(s, 10, 64)
			}
		}
		return nil
	}
	if allParse(strs, func(s string) error { _, err := strconv.ParseFloat(s, 64); return err }) {
		for _, r := range f.rows {
			if s, ok := r[p].(string); ok {
				r[p], _ = strconv.ParseFloat(s, 64)
			}
		}
	}
	return nil
}

// Normalize applies NormalizeColumn to every column.
func (f *Frame) Normalize() {
	for _, n := range f.names {
		_ = f.NormalizeColumn(n)
	}
}

func allParse(strs []string, parse func(string) error) bool {
	for _, s := range strs {
		if parse(s) != nil {
			return false
		}
	}
	return true
}

// One returns the single value of a frame with one row and one data column.
func One(f *Frame) (any, error) {
	cols := f.Columns()
	if f.Len() != 1 || len(cols) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "expected a 1x1 result, got %d rows and %d columns", f.Len(), len(cols))
	}
	return f.rows[0][f.pos(cols[0])], nil
}

// OneOf returns the only member of items.
func OneOf[T any](items []T) (T, error) {
	var zero T
	switch len(items) {
	case 0:
		return zero, errors.New(errors.ErrCodeNotFound, "empty")
	case 1:
		return items[0], nil
	}
	return zero, errors.New(errors.ErrCodeInvalidInput, "more than one member")
}
