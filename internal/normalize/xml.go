package normalize

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

// fromXML treats each child of the root as a record and each child of a
// record as a cell. Columns are the sorted union of cell tags.
func fromXML(src []byte) (*dataset.Dataset, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(src); err != nil {
		return nil, formatErr(KindXML, "invalid xml", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, formatErr(KindXML, "document has no root element", nil)
	}

	records := root.ChildElements()
	rows := make([]dataset.Row, 0, len(records))
	tags := make(map[string]struct{})

	for _, rec := range records {
		row := make(dataset.Row)
		for _, cell := range rec.ChildElements() {
			tag := cell.FullTag()
			tags[tag] = struct{}{}
			row[tag] = dataset.StringValue(cell.Text())
		}
		rows = append(rows, row)
	}

	cols := make([]string, 0, len(tags))
	for tag := range tags {
		cols = append(cols, tag)
	}
	sort.Strings(cols)

	ds := dataset.New(cols...)
	for _, row := range rows {
		for _, col := range cols {
			if _, ok := row[col]; !ok {
				row[col] = dataset.StringValue("")
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
