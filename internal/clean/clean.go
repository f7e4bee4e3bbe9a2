// Package clean prepares a normalized dataset for insertion: it drops
// fully empty rows and turns every cell into text.
package clean

import "github.com/JonMunkholm/dbroute/internal/dataset"

// Clean returns a new dataset where rows with no non-empty cell are
// removed, absent and null cells become "", and every cell is a string
// holding its textual form. The input is not modified.
func Clean(in *dataset.Dataset) *dataset.Dataset {
	if in == nil {
		return dataset.New()
	}

	out := dataset.New(in.Columns...)
	out.Rows = make([]dataset.Row, 0, len(in.Rows))

	for _, r := range in.Rows {
		if isEmptyRow(in.Columns, r) {
			continue
		}
		row := make(dataset.Row, len(in.Columns))
		for _, col := range in.Columns {
			row[col] = dataset.StringValue(r.Get(col).Text())
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func isEmptyRow(cols []string, r dataset.Row) bool {
	for _, col := range cols {
		if !r.Get(col).IsEmpty() {
			return false
		}
	}
	return true
}
