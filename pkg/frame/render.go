package frame

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true).Padding(0, 1)
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("36")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Header returns the display order of the columns: index first.
func (f *Frame) Header() []string {
	return append(f.Index(), f.Columns()...)
}

// Strings returns the rows as display text in Header order.
func (f *Frame) Strings() [][]string {
	order := f.order()
	out := make([][]string, len(f.rows))
	for i, r := range f.rows {
		line := make([]string, len(order))
		for j, p := range order {
			line[j] = Format(r[p])
		}
		out[i] = line
	}
	return out
}

func (f *Frame) order() []int {
	order := make([]int, 0, len(f.names))
	for _, n := range f.Header() {
		order = append(order, f.pos(n))
	}
	return order
}

// Render draws the frame as a bordered terminal table.
func (f *Frame) Render() string {
	nIndex := len(f.index)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(f.Header()...).
		Rows(f.Strings()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < nIndex:
				return indexStyle
			}
			return cellStyle
		})
	return t.Render()
}

// WriteCSV writes a header line and one record per row.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(f.Strings()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the rows as a JSON array of objects.
func (f *Frame) WriteJSON(w io.Writer) error {
	records := f.Records()
	for _, rec := range records {
		for k, v := range rec {
			rec[k] = jsonValue(v)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func jsonValue(v any) any {
	switch v := v.(type) {
	case nil, bool, string, int64, float64, int:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return Format(v)
}
