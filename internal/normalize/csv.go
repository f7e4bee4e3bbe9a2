package normalize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

// fromCSV reads a header row followed by records. Cells past the header
// width are dropped; short records leave trailing columns absent.
func fromCSV(src []byte) (*dataset.Dataset, error) {
	r := csv.NewReader(bytes.NewReader(src))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, formatErr(KindCSV, "invalid csv", err)
	}
	if len(records) == 0 {
		return nil, formatErr(KindCSV, "no header row", nil)
	}

	cols := uniqueHeader(records[0])
	ds := dataset.New(cols...)

	for _, rec := range records[1:] {
		row := make(dataset.Row, len(cols))
		for i, cell := range rec {
			if i >= len(cols) {
				break
			}
			row[cols[i]] = dataset.StringValue(cell)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// uniqueHeader trims header names, names blank ones by position and
// suffixes duplicates so every column is unique.
func uniqueHeader(header []string) []string {
	taken := make(map[string]bool, len(header))
	out := make([]string, len(header))

	for i, h := range header {
		base := strings.TrimSpace(h)
		if base == "" {
			base = columnName(i + 1)
		}
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
