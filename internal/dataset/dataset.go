// Package dataset defines the canonical tabular representation every input
// format is normalized into before it is cleaned and routed to a store.
package dataset

import (
	"strconv"
)

// Kind identifies the dynamic type carried by a Value.
type Kind int

const (
	Null Kind = iota
	String
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single cell. Numbers keep the literal text they were parsed
// from so sinks can decide on integer, float or exact decimal storage.
type Value struct {
	kind Kind
	text string
}

// NullValue returns the absent value.
func NullValue() Value { return Value{} }

// StringValue wraps s as a string cell.
func StringValue(s string) Value { return Value{kind: String, text: s} }

// NumberValue wraps the literal text of a number.
func NumberValue(literal string) Value { return Value{kind: Number, text: literal} }

// BoolValue wraps b as a boolean cell.
func BoolValue(b bool) Value { return Value{kind: Bool, text: strconv.FormatBool(b)} }

// Kind returns the dynamic kind of v.
func (v Value) Kind() Kind { return v.kind }

// Text returns the textual representation of v. Null yields "".
func (v Value) Text() string { return v.text }

// IsNull reports whether v is absent.
func (v Value) IsNull() bool { return v.kind == Null }

// IsEmpty reports whether v is absent or an empty string.
func (v Value) IsEmpty() bool { return v.kind == Null || (v.kind == String && v.text == "") }

// Row maps column name to cell. A column missing from the map is absent.
type Row map[string]Value

// Get returns the cell for col, or the null value when absent.
func (r Row) Get(col string) Value {
	if r == nil {
		return NullValue()
	}
	return r[col]
}

// Dataset is an ordered list of unique column names plus ordered rows.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New returns an empty dataset with the given columns.
func New(columns ...string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols}
}

// Append adds a row. Keys not present in Columns are dropped so the
// subset invariant always holds.
func (d *Dataset) Append(r Row) {
	row := make(Row, len(r))
	for _, col := range d.Columns {
		if v, ok := r[col]; ok {
			row[col] = v
		}
	}
	d.Rows = append(d.Rows, row)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether col is one of the dataset's columns.
func (d *Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Column returns the text of every row's cell in col, in row order.
func (d *Dataset) Column(col string) []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Get(col).Text()
	}
	return out
}

// Strings returns row i as a slice ordered like Columns.
func (d *Dataset) Strings(i int) []string {
	out := make([]string, len(d.Columns))
	for j, col := range d.Columns {
		out[j] = d.Rows[i].Get(col).Text()
	}
	return out
}
