// Package frame holds tabular query results.
//
// A [Frame] is a small row-oriented table with ordered, named columns and an
// optional index: a subset of the columns that identifies rows and is shown
// first when rendering. SELECT results from an endpoint arrive as frames.
//
//	f := frame.New([]string{"city", "population"})
//	f.AppendRow("Berlin", int64(3_700_000))
//	f.AppendRow("Hamburg", int64(1_900_000))
//	_ = f.SetIndex("city")
//	row, _ := f.Loc("Hamburg")
//
// Values are whatever the producer stores: Go natives (string, int64,
// float64, bool, time.Time), RDF terms, or nil for missing values.
// [Frame.NormalizeColumn] applies the light type inference used for string
// columns that hold numbers.
//
// Frames render as a terminal table ([Frame.Render]), CSV ([Frame.WriteCSV])
// or a JSON array of records ([Frame.WriteJSON]).
package frame
