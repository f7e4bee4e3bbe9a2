package relational

import (
	"math"
	"strconv"
	"strings"
)

// ColumnType is the storage class chosen for a column.
type ColumnType int

const (
	String ColumnType = iota
	Integer
	Float
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	default:
		return "string"
	}
}

// InferColumnType returns Integer when every non-empty value parses as an
// int64, Float when every non-empty value parses as a finite float64, and
// String otherwise. A column with no non-empty values is String.
func InferColumnType(values []string) ColumnType {
	seen := false
	isInt, isFloat := true, true

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt {
			if f, err := strconv.ParseFloat(v, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				isFloat = false
				break
			}
		}
	}

	switch {
	case !seen:
		return String
	case isInt:
		return Integer
	case isFloat:
		return Float
	default:
		return String
	}
}

// convert turns cell text into the driver argument for a column of type t.
// Numeric cells are trimmed and an empty one becomes NULL. String cells are
// written exactly as given, "" included.
func convert(t ColumnType, text string) (any, error) {
	if t == String {
		return text, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if t == Integer {
		return strconv.ParseInt(text, 10, 64)
	}
	return strconv.ParseFloat(text, 64)
}
