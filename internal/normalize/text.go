package normalize

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

// fromText splits every non-blank line on whitespace. There is no header:
// columns are named column_1..column_N after the widest line.
func fromText(src []byte) *dataset.Dataset {
	var lines [][]string
	width := 0

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), len(src)+1)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) > width {
			width = len(fields)
		}
		lines = append(lines, fields)
	}

	cols := make([]string, width)
	for i := range cols {
		cols[i] = columnName(i + 1)
	}

	ds := dataset.New(cols...)
	for _, fields := range lines {
		row := make(dataset.Row, len(fields))
		for i, f := range fields {
			row[cols[i]] = dataset.StringValue(f)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}
